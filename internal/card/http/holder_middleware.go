package http

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/httputil"
)

// HolderTokenVerifier validates a plaintext holder session token and returns its tax id.
type HolderTokenVerifier interface {
	VerifyToken(token string) (string, error)
}

type holderTaxIDKey struct{}

// WithHolderTaxID stores the authenticated holder tax id in the context.
func WithHolderTaxID(ctx context.Context, taxID string) context.Context {
	return context.WithValue(ctx, holderTaxIDKey{}, taxID)
}

// GetHolderTaxID retrieves the authenticated holder tax id from the context.
func GetHolderTaxID(ctx context.Context) (string, bool) {
	taxID, ok := ctx.Value(holderTaxIDKey{}).(string)
	return taxID, ok
}

// HolderSessionMiddleware authenticates a holder through "Authorization: Bearer <token>".
//
// The token subject must equal the :tax_id path parameter when the route has one.
// Missing, malformed, expired or foreign tokens are answered with 401.
func HolderSessionMiddleware(verifier HolderTokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const bearerPrefix = "bearer "

		authHeader := c.GetHeader("Authorization")
		if len(authHeader) <= len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("holder authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, cardDomain.ErrInvalidSession, logger)
			c.Abort()
			return
		}

		taxID, err := verifier.VerifyToken(strings.TrimSpace(authHeader[len(bearerPrefix):]))
		if err != nil {
			logger.Debug("holder authentication failed", slog.Any("error", err))
			httputil.HandleErrorGin(c, cardDomain.ErrInvalidSession, logger)
			c.Abort()
			return
		}

		if pathTaxID := c.Param("tax_id"); pathTaxID != "" && pathTaxID != taxID {
			logger.Debug("holder authentication failed: token issued for another holder")
			httputil.HandleErrorGin(c, cardDomain.ErrInvalidSession, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithHolderTaxID(c.Request.Context(), taxID))
		c.Next()
	}
}

// CardOwnerMiddleware restricts a :id card route to the holder of that card.
// It must run after HolderSessionMiddleware. Unknown cards are answered with 404
// and cards of another holder with 401.
func (h *CardHandler) CardOwnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID, ok := h.parseCardID(c, c.Param("id"))
		if !ok {
			c.Abort()
			return
		}

		if err := h.requireOwner(c, externalID); err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// requireOwner checks that the authenticated holder owns the card.
func (h *CardHandler) requireOwner(c *gin.Context, externalID uuid.UUID) error {
	taxID, ok := GetHolderTaxID(c.Request.Context())
	if !ok {
		return cardDomain.ErrInvalidSession
	}

	owner, err := h.cardUseCase.HolderOf(c.Request.Context(), externalID)
	if err != nil {
		return err
	}

	if owner != taxID {
		h.logger.Debug("holder authentication failed: card belongs to another holder")
		return cardDomain.ErrInvalidSession
	}

	return nil
}
