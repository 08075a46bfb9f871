package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
)

const sessionIssuer = "cardledger"

type jwtSessionTokenService struct {
	signingKey []byte
	ttl        time.Duration
}

// NewSessionTokenService creates an HS256 JWT service for holder sessions. The signing
// key is derived from secret with HKDF so it never equals a codec key.
func NewSessionTokenService(secret []byte, ttl time.Duration) (SessionTokenService, error) {
	if len(secret) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	if ttl <= 0 {
		return nil, errors.New("session token ttl must be positive")
	}

	signingKey, err := deriveKey(secret, "holder-session-v1")
	if err != nil {
		return nil, err
	}

	return &jwtSessionTokenService{signingKey: signingKey, ttl: ttl}, nil
}

// Issue mints a token for taxID expiring ttl after now. The expiration is truncated to
// seconds, the precision of the exp claim.
func (s *jwtSessionTokenService) Issue(taxID string, now time.Time) (cardDomain.HolderSession, error) {
	jti, err := uuid.NewV7()
	if err != nil {
		return cardDomain.HolderSession{}, fmt.Errorf("failed to generate token id: %w", err)
	}

	issuedAt := now.UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   taxID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ID:        jti.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return cardDomain.HolderSession{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return cardDomain.HolderSession{TaxID: taxID, Token: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, algorithm, issuer and expiration and returns the subject.
func (s *jwtSessionTokenService) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", cardDomain.ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return "", cardDomain.ErrInvalidSession
	}

	return claims.Subject, nil
}
