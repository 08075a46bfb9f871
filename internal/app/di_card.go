package app

import (
	"fmt"

	cardHTTP "github.com/allisson/cardledger/internal/card/http"
	cardRepository "github.com/allisson/cardledger/internal/card/repository"
	cardService "github.com/allisson/cardledger/internal/card/service"
	cardUseCase "github.com/allisson/cardledger/internal/card/usecase"
	"github.com/allisson/cardledger/internal/database"
)

// CardRepository returns the card repository for the configured database driver.
func (c *Container) CardRepository() (cardUseCase.CardRepository, error) {
	var err error
	c.cardRepoInit.Do(func() {
		c.cardRepo, err = c.initCardRepository()
		if err != nil {
			c.initErrors["cardRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cardRepo"]; exists {
		return nil, storedErr
	}
	return c.cardRepo, nil
}

// HolderTokenManager returns the holder session token manager.
func (c *Container) HolderTokenManager() (cardUseCase.HolderTokenManager, error) {
	var err error
	c.holderTokenManagerInit.Do(func() {
		c.holderTokenManager, err = c.initHolderTokenManager()
		if err != nil {
			c.initErrors["holderTokenManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["holderTokenManager"]; exists {
		return nil, storedErr
	}
	return c.holderTokenManager, nil
}

// CardUseCase returns the card use case, wrapped with metrics when enabled.
func (c *Container) CardUseCase() (cardUseCase.CardUseCase, error) {
	var err error
	c.cardUseCaseInit.Do(func() {
		c.cardUseCase, err = c.initCardUseCase()
		if err != nil {
			c.initErrors["cardUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cardUseCase"]; exists {
		return nil, storedErr
	}
	return c.cardUseCase, nil
}

// CardHandler returns the card HTTP handler.
func (c *Container) CardHandler() (*cardHTTP.CardHandler, error) {
	var err error
	c.cardHandlerInit.Do(func() {
		var useCase cardUseCase.CardUseCase
		useCase, err = c.CardUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get card use case for card handler: %w", err)
			c.initErrors["cardHandler"] = err
			return
		}
		c.cardHandler = cardHTTP.NewCardHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cardHandler"]; exists {
		return nil, storedErr
	}
	return c.cardHandler, nil
}

func (c *Container) initCardRepository() (cardUseCase.CardRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for card repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverMySQL:
		return cardRepository.NewMySQLCardRepository(db), nil
	case database.DriverPostgres:
		return cardRepository.NewPostgreSQLCardRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initHolderTokenManager() (cardUseCase.HolderTokenManager, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for holder token manager: %w", err)
	}

	cardRepo, err := c.CardRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get card repository for holder token manager: %w", err)
	}

	codec, err := c.FieldCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get field codec for holder token manager: %w", err)
	}

	sessions, err := c.SessionTokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get session token service for holder token manager: %w", err)
	}

	return cardUseCase.NewHolderTokenManager(txManager, cardRepo, codec, sessions), nil
}

func (c *Container) initCardUseCase() (cardUseCase.CardUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for card use case: %w", err)
	}

	cardRepo, err := c.CardRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get card repository for card use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for card use case: %w", err)
	}

	codec, err := c.FieldCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get field codec for card use case: %w", err)
	}

	tokenManager, err := c.HolderTokenManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get holder token manager for card use case: %w", err)
	}

	baseUseCase := cardUseCase.NewCardUseCase(cardUseCase.Dependencies{
		TxManager:       txManager,
		CardRepo:        cardRepo,
		OutboxRepo:      outboxRepo,
		Codec:           codec,
		NumberGenerator: cardService.NewCardNumberGenerator(),
		CVVGenerator:    cardService.NewCVVGenerator(),
		TokenManager:    tokenManager,
	}, cardUseCase.Config{
		CardNumberMaxAttempts: c.config.CardNumberMaxAttempts,
		IssueMaxRetries:       c.config.CardIssueMaxRetries,
	})

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for card use case: %w", err)
		}
		return cardUseCase.NewCardUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
