package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/metrics"
)

const metricsDomain = "cards"

// cardUseCaseWithMetrics decorates CardUseCase with metrics instrumentation.
type cardUseCaseWithMetrics struct {
	next    CardUseCase
	metrics metrics.BusinessMetrics
}

// NewCardUseCaseWithMetrics wraps a CardUseCase with metrics recording.
func NewCardUseCaseWithMetrics(useCase CardUseCase, m metrics.BusinessMetrics) CardUseCase {
	return &cardUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (c *cardUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	c.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// Issue records metrics for card issuance.
func (c *cardUseCaseWithMetrics) Issue(ctx context.Context, input IssueCardInput) (*cardDomain.IssuedCard, error) {
	start := time.Now()
	issued, err := c.next.Issue(ctx, input)
	c.record(ctx, "card_issue", start, err)
	return issued, err
}

// Get records metrics for card lookups.
func (c *cardUseCaseWithMetrics) Get(ctx context.Context, externalID uuid.UUID) (*cardDomain.CardView, error) {
	start := time.Now()
	view, err := c.next.Get(ctx, externalID)
	c.record(ctx, "card_get", start, err)
	return view, err
}

// HolderOf records metrics for card ownership lookups.
func (c *cardUseCaseWithMetrics) HolderOf(ctx context.Context, externalID uuid.UUID) (string, error) {
	start := time.Now()
	taxID, err := c.next.HolderOf(ctx, externalID)
	c.record(ctx, "card_holder_of", start, err)
	return taxID, err
}

// List records metrics for holder card pages.
func (c *cardUseCaseWithMetrics) List(
	ctx context.Context,
	taxID string,
	offset, limit int,
) ([]*cardDomain.CardView, error) {
	start := time.Now()
	views, err := c.next.List(ctx, taxID, offset, limit)
	c.record(ctx, "card_list", start, err)
	return views, err
}

// ListByTaxID records metrics for holder card listing.
func (c *cardUseCaseWithMetrics) ListByTaxID(ctx context.Context, taxID string) ([]*cardDomain.CardView, error) {
	start := time.Now()
	views, err := c.next.ListByTaxID(ctx, taxID)
	c.record(ctx, "card_list_by_holder", start, err)
	return views, err
}

// UpdateFields records metrics for card updates.
func (c *cardUseCaseWithMetrics) UpdateFields(
	ctx context.Context,
	externalID uuid.UUID,
	input UpdateCardInput,
) (*cardDomain.CardView, error) {
	start := time.Now()
	view, err := c.next.UpdateFields(ctx, externalID, input)
	c.record(ctx, "card_update", start, err)
	return view, err
}

// Recharge records metrics and the recharged amount.
func (c *cardUseCaseWithMetrics) Recharge(
	ctx context.Context,
	externalID uuid.UUID,
	amount decimal.Decimal,
) (*cardDomain.CardView, error) {
	start := time.Now()
	view, err := c.next.Recharge(ctx, externalID, amount)
	c.record(ctx, "card_recharge", start, err)
	if err == nil {
		c.metrics.RecordAmount(ctx, metricsDomain, "card_recharge", amount.InexactFloat64())
	}
	return view, err
}

// Transfer records metrics and the transferred amount.
func (c *cardUseCaseWithMetrics) Transfer(
	ctx context.Context,
	payerID, payeeID uuid.UUID,
	amount decimal.Decimal,
) (*cardDomain.CardView, error) {
	start := time.Now()
	view, err := c.next.Transfer(ctx, payerID, payeeID, amount)
	c.record(ctx, "card_transfer", start, err)
	if err == nil {
		c.metrics.RecordAmount(ctx, metricsDomain, "card_transfer", amount.InexactFloat64())
	}
	return view, err
}
