// Package http provides the HTTP handlers and middleware of the card API.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/card/http/dto"
	cardUseCase "github.com/allisson/cardledger/internal/card/usecase"
	"github.com/allisson/cardledger/internal/httputil"
	customValidation "github.com/allisson/cardledger/internal/validation"
)

// CardHandler handles HTTP requests for card issuance, queries, updates and the balance ledger.
type CardHandler struct {
	cardUseCase cardUseCase.CardUseCase
	logger      *slog.Logger
}

// NewCardHandler creates a new card handler with required dependencies.
func NewCardHandler(cardUseCase cardUseCase.CardUseCase, logger *slog.Logger) *CardHandler {
	return &CardHandler{
		cardUseCase: cardUseCase,
		logger:      logger,
	}
}

// IssueHandler issues a card in EM_ANALISE with zero balance.
// POST /v1/cards
// Returns 201 Created with the decoded card and the holder session token.
func (h *CardHandler) IssueHandler(c *gin.Context) {
	var req dto.IssueCardRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	issued, err := h.cardUseCase.Issue(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIssuedCardToResponse(issued))
}

// GetHandler retrieves a card by its external id.
// GET /v1/cards/:id - Requires HolderSessionMiddleware and CardOwnerMiddleware.
func (h *CardHandler) GetHandler(c *gin.Context) {
	externalID, ok := h.parseCardID(c, c.Param("id"))
	if !ok {
		return
	}

	view, err := h.cardUseCase.Get(c.Request.Context(), externalID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardViewToResponse(view))
}

// ListHandler retrieves the cards of the authenticated holder with pagination, newest first.
// GET /v1/cards?offset=0&limit=50 - Requires HolderSessionMiddleware.
func (h *CardHandler) ListHandler(c *gin.Context) {
	taxID, ok := GetHolderTaxID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, cardDomain.ErrInvalidSession, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	views, err := h.cardUseCase.List(c.Request.Context(), taxID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardViewsToListResponse(views))
}

// ListByHolderHandler retrieves every card of the authenticated holder.
// GET /v1/cards/holders/:tax_id - Requires HolderSessionMiddleware.
func (h *CardHandler) ListByHolderHandler(c *gin.Context) {
	taxID, ok := GetHolderTaxID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, cardDomain.ErrInvalidSession, h.logger)
		return
	}

	views, err := h.cardUseCase.ListByTaxID(c.Request.Context(), taxID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardViewsToListResponse(views))
}

// UpdateHandler changes holder name, address or status.
// PATCH /v1/cards/:id - Requires HolderSessionMiddleware and CardOwnerMiddleware.
// Holder attributes apply to every card of the holder, status only to this card.
func (h *CardHandler) UpdateHandler(c *gin.Context) {
	externalID, ok := h.parseCardID(c, c.Param("id"))
	if !ok {
		return
	}

	var req dto.UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	view, err := h.cardUseCase.UpdateFields(c.Request.Context(), externalID, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardViewToResponse(view))
}

// RechargeHandler credits an ATIVO card.
// POST /v1/cards/:id/recharge - Requires HolderSessionMiddleware and CardOwnerMiddleware.
func (h *CardHandler) RechargeHandler(c *gin.Context) {
	externalID, ok := h.parseCardID(c, c.Param("id"))
	if !ok {
		return
	}

	var req dto.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	view, err := h.cardUseCase.Recharge(c.Request.Context(), externalID, req.Amount)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardViewToResponse(view))
}

// TransferHandler moves balance between two ATIVO cards.
// POST /v1/cards/transfers - Requires HolderSessionMiddleware.
// The payer card must belong to the authenticated holder. Returns 200 OK with the payer card.
func (h *CardHandler) TransferHandler(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Both ids were validated above.
	payerID := uuid.MustParse(req.PayerID)
	payeeID := uuid.MustParse(req.PayeeID)

	if err := h.requireOwner(c, payerID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	view, err := h.cardUseCase.Transfer(c.Request.Context(), payerID, payeeID, req.Amount)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardViewToResponse(view))
}

func (h *CardHandler) parseCardID(c *gin.Context, raw string) (uuid.UUID, bool) {
	externalID, err := uuid.Parse(raw)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid card id format: must be a valid UUID"), h.logger)
		return uuid.Nil, false
	}
	return externalID, true
}
