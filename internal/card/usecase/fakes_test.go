package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cardService "github.com/allisson/cardledger/internal/card/service"
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
	cryptoService "github.com/allisson/cardledger/internal/crypto/service"
	outboxDomain "github.com/allisson/cardledger/internal/outbox/domain"
)

// memoryStore is an in-memory card table. Transactions are serialized and roll back by
// restoring a snapshot, which mirrors row locking plus atomic commit.
type memoryStore struct {
	txMu   sync.Mutex
	cards  []*cardDomain.Card
	events []*outboxDomain.OutboxEvent
	nextID int64

	calls    map[string]int
	order    []string
	failures map[string]injectedFailure
}

type injectedFailure struct {
	// onCall is the 1-based call that fails; zero fails every call.
	onCall int
	err    error
}

type memoryTxKey struct{}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		calls:    make(map[string]int),
		failures: make(map[string]injectedFailure),
	}
}

func (s *memoryStore) failOn(method string, onCall int, err error) {
	s.failures[method] = injectedFailure{onCall: onCall, err: err}
}

func (s *memoryStore) hit(method string) error {
	s.calls[method]++
	s.order = append(s.order, method)
	failure, ok := s.failures[method]
	if !ok {
		return nil
	}
	if failure.onCall == 0 || failure.onCall == s.calls[method] {
		return failure.err
	}
	return nil
}

func (s *memoryStore) snapshot() ([]*cardDomain.Card, []*outboxDomain.OutboxEvent, int64) {
	cards := make([]*cardDomain.Card, len(s.cards))
	for i, card := range s.cards {
		cards[i] = cloneCard(card)
	}
	events := append([]*outboxDomain.OutboxEvent(nil), s.events...)
	return cards, events, s.nextID
}

func (s *memoryStore) find(externalID uuid.UUID) *cardDomain.Card {
	for _, card := range s.cards {
		if card.ExternalID == externalID {
			return card
		}
	}
	return nil
}

func (s *memoryStore) byTaxID(taxID string) []*cardDomain.Card {
	var cards []*cardDomain.Card
	for _, card := range s.cards {
		if card.TaxID == taxID {
			cards = append(cards, card)
		}
	}
	return cards
}

func (s *memoryStore) eventTypes() []string {
	types := make([]string, 0, len(s.events))
	for _, event := range s.events {
		types = append(types, event.EventType)
	}
	return types
}

func cloneCard(card *cardDomain.Card) *cardDomain.Card {
	c := *card
	if card.SessionTokenExpiresAt != nil {
		expiresAt := *card.SessionTokenExpiresAt
		c.SessionTokenExpiresAt = &expiresAt
	}
	return &c
}

func cloneCards(cards []*cardDomain.Card) []*cardDomain.Card {
	out := make([]*cardDomain.Card, 0, len(cards))
	for _, card := range cards {
		out = append(out, cloneCard(card))
	}
	return out
}

type memoryTxManager struct {
	store *memoryStore
}

func (m *memoryTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	cards, events, nextID := m.store.snapshot()
	if err := fn(context.WithValue(ctx, memoryTxKey{}, true)); err != nil {
		m.store.cards, m.store.events, m.store.nextID = cards, events, nextID
		return err
	}
	return nil
}

type memoryCardRepository struct {
	store *memoryStore
}

func (r *memoryCardRepository) Create(_ context.Context, card *cardDomain.Card) error {
	if err := r.store.hit("Create"); err != nil {
		return err
	}
	for _, existing := range r.store.cards {
		if existing.CardNumber == card.CardNumber {
			return cardDomain.ErrCardNumberConflict
		}
	}
	r.store.nextID++
	card.ID = r.store.nextID
	r.store.cards = append(r.store.cards, cloneCard(card))
	return nil
}

func (r *memoryCardRepository) GetByExternalID(_ context.Context, externalID uuid.UUID) (*cardDomain.Card, error) {
	if err := r.store.hit("GetByExternalID"); err != nil {
		return nil, err
	}
	card := r.store.find(externalID)
	if card == nil {
		return nil, cardDomain.ErrCardNotFound
	}
	return cloneCard(card), nil
}

func (r *memoryCardRepository) GetByExternalIDForUpdate(
	_ context.Context,
	externalID uuid.UUID,
) (*cardDomain.Card, error) {
	if err := r.store.hit("GetByExternalIDForUpdate"); err != nil {
		return nil, err
	}
	card := r.store.find(externalID)
	if card == nil {
		return nil, cardDomain.ErrCardNotFound
	}
	return cloneCard(card), nil
}

func (r *memoryCardRepository) ListByTaxID(_ context.Context, taxID string) ([]*cardDomain.Card, error) {
	if err := r.store.hit("ListByTaxID"); err != nil {
		return nil, err
	}
	return cloneCards(r.store.byTaxID(taxID)), nil
}

func (r *memoryCardRepository) ListByTaxIDForUpdate(_ context.Context, taxID string) ([]*cardDomain.Card, error) {
	if err := r.store.hit("ListByTaxIDForUpdate"); err != nil {
		return nil, err
	}
	return cloneCards(r.store.byTaxID(taxID)), nil
}

func (r *memoryCardRepository) List(_ context.Context, taxID string, offset, limit int) ([]*cardDomain.Card, error) {
	if err := r.store.hit("List"); err != nil {
		return nil, err
	}
	cards := cloneCards(r.store.byTaxID(taxID))
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID > cards[j].ID })
	if offset >= len(cards) {
		return []*cardDomain.Card{}, nil
	}
	end := offset + limit
	if end > len(cards) {
		end = len(cards)
	}
	return cards[offset:end], nil
}

func (r *memoryCardRepository) LockHolder(_ context.Context, _ string) error {
	return r.store.hit("LockHolder")
}

func (r *memoryCardRepository) ExistsByCardNumber(_ context.Context, encodedNumber string) (bool, error) {
	if err := r.store.hit("ExistsByCardNumber"); err != nil {
		return false, err
	}
	for _, card := range r.store.cards {
		if card.CardNumber == encodedNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryCardRepository) UpdateBalance(
	_ context.Context,
	externalID uuid.UUID,
	balance decimal.Decimal,
) error {
	if err := r.store.hit("UpdateBalance"); err != nil {
		return err
	}
	card := r.store.find(externalID)
	if card == nil {
		return cardDomain.ErrCardNotFound
	}
	if balance.IsNegative() {
		return errBalanceCheck
	}
	card.Balance = balance
	return nil
}

func (r *memoryCardRepository) UpdateStatus(
	_ context.Context,
	externalID uuid.UUID,
	status cardDomain.Status,
) error {
	if err := r.store.hit("UpdateStatus"); err != nil {
		return err
	}
	card := r.store.find(externalID)
	if card == nil {
		return cardDomain.ErrCardNotFound
	}
	card.Status = status
	return nil
}

func (r *memoryCardRepository) UpdateHolderByTaxID(
	_ context.Context,
	taxID string,
	holderName, address *string,
) error {
	if err := r.store.hit("UpdateHolderByTaxID"); err != nil {
		return err
	}
	for _, card := range r.store.byTaxID(taxID) {
		if holderName != nil {
			card.HolderName = *holderName
		}
		if address != nil {
			card.Address = *address
		}
	}
	return nil
}

func (r *memoryCardRepository) UpdateSessionByTaxID(
	_ context.Context,
	taxID, encodedToken string,
	expiresAt time.Time,
) error {
	if err := r.store.hit("UpdateSessionByTaxID"); err != nil {
		return err
	}
	for _, card := range r.store.byTaxID(taxID) {
		card.SessionToken = encodedToken
		e := expiresAt
		card.SessionTokenExpiresAt = &e
	}
	return nil
}

type memoryOutboxRepository struct {
	store *memoryStore
}

func (r *memoryOutboxRepository) Create(_ context.Context, event *outboxDomain.OutboxEvent) error {
	if err := r.store.hit("OutboxCreate"); err != nil {
		return err
	}
	r.store.events = append(r.store.events, event)
	return nil
}

// sequenceGenerator returns values in order and then keeps repeating the last one.
type sequenceGenerator struct {
	values []string
	next   int
}

func (g *sequenceGenerator) Generate() (string, error) {
	value := g.values[g.next]
	if g.next < len(g.values)-1 {
		g.next++
	}
	return value, nil
}

type fixture struct {
	store        *memoryStore
	codec        cardService.FieldCodec
	tokenManager *holderTokenManager
	useCase      *cardUseCase
}

func newFixture(t *testing.T, config Config) *fixture {
	t.Helper()

	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	codec, err := cardService.NewFieldCodec(secret, cryptoDomain.AESGCM, cryptoService.NewAEADManager())
	require.NoError(t, err)
	sessions, err := cardService.NewSessionTokenService(secret, 7*24*time.Hour)
	require.NoError(t, err)

	store := newMemoryStore()
	txManager := &memoryTxManager{store: store}
	cardRepo := &memoryCardRepository{store: store}

	tokenManager := NewHolderTokenManager(txManager, cardRepo, codec, sessions).(*holderTokenManager)
	useCase := NewCardUseCase(Dependencies{
		TxManager:       txManager,
		CardRepo:        cardRepo,
		OutboxRepo:      &memoryOutboxRepository{store: store},
		Codec:           codec,
		NumberGenerator: cardService.NewCardNumberGenerator(),
		CVVGenerator:    cardService.NewCVVGenerator(),
		TokenManager:    tokenManager,
	}, config).(*cardUseCase)

	return &fixture{store: store, codec: codec, tokenManager: tokenManager, useCase: useCase}
}

func (f *fixture) issue(t *testing.T, holderName, taxID string) *cardDomain.IssuedCard {
	t.Helper()
	issued, err := f.useCase.Issue(context.Background(), IssueCardInput{
		HolderName: holderName,
		TaxID:      taxID,
		Address:    "RUA DAS FLORES 100",
	})
	require.NoError(t, err)
	return issued
}

// activeCard issues a card, activates it and sets its balance directly in the store.
func (f *fixture) activeCard(t *testing.T, taxID, balance string) uuid.UUID {
	t.Helper()
	issued := f.issue(t, "JOAO SILVA", taxID)
	card := f.store.find(issued.ExternalID)
	card.Status = cardDomain.StatusAtivo
	card.Balance = decimal.RequireFromString(balance)
	return issued.ExternalID
}

func (f *fixture) balance(externalID uuid.UUID) decimal.Decimal {
	return f.store.find(externalID).Balance
}

func (f *fixture) expireSessions(taxID string) {
	past := time.Now().UTC().Add(-time.Minute)
	for _, card := range f.store.byTaxID(taxID) {
		expiresAt := past
		card.SessionTokenExpiresAt = &expiresAt
	}
}

var errBalanceCheck = errors.New("balance check constraint violated")
