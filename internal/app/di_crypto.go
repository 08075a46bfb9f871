package app

import (
	"context"
	"fmt"
	"log/slog"

	cardService "github.com/allisson/cardledger/internal/card/service"
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
	cryptoService "github.com/allisson/cardledger/internal/crypto/service"
)

// KMSService returns the KMS service used to unwrap the codec key.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// CodecKey returns the 32-byte codec secret loaded from CODEC_SECRET_KEY.
func (c *Container) CodecKey() ([]byte, error) {
	var err error
	c.codecKeyInit.Do(func() {
		c.codecKey, err = c.initCodecKey()
		if err != nil {
			c.initErrors["codecKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["codecKey"]; exists {
		return nil, storedErr
	}
	return c.codecKey, nil
}

// FieldCodec returns the sensitive field codec.
func (c *Container) FieldCodec() (cardService.FieldCodec, error) {
	var err error
	c.fieldCodecInit.Do(func() {
		c.fieldCodec, err = c.initFieldCodec()
		if err != nil {
			c.initErrors["fieldCodec"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldCodec"]; exists {
		return nil, storedErr
	}
	return c.fieldCodec, nil
}

// SessionTokenService returns the holder session token signer.
func (c *Container) SessionTokenService() (cardService.SessionTokenService, error) {
	var err error
	c.sessionTokenInit.Do(func() {
		c.sessionToken, err = c.initSessionTokenService()
		if err != nil {
			c.initErrors["sessionToken"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionToken"]; exists {
		return nil, storedErr
	}
	return c.sessionToken, nil
}

func (c *Container) initCodecKey() ([]byte, error) {
	key, err := cryptoService.LoadCodecKey(context.Background(), cryptoService.CodecKeyConfig{
		SecretKey:   c.config.CodecSecretKey,
		KMSProvider: c.config.KMSProvider,
		KMSKeyURI:   c.config.KMSKeyURI,
	}, c.KMSService())
	if err != nil {
		return nil, fmt.Errorf("failed to load codec key: %w", err)
	}

	c.Logger().Info("codec key loaded",
		slog.Bool("kms_enabled", c.config.KMSProvider != ""),
		slog.String("algorithm", c.config.CodecAlgorithm),
	)
	return key, nil
}

func (c *Container) initFieldCodec() (cardService.FieldCodec, error) {
	key, err := c.CodecKey()
	if err != nil {
		return nil, err
	}

	alg, err := cryptoDomain.ParseAlgorithm(c.config.CodecAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid codec algorithm: %w", err)
	}

	codec, err := cardService.NewFieldCodec(key, alg, c.AEADManager())
	if err != nil {
		return nil, fmt.Errorf("failed to create field codec: %w", err)
	}
	return codec, nil
}

func (c *Container) initSessionTokenService() (cardService.SessionTokenService, error) {
	key, err := c.CodecKey()
	if err != nil {
		return nil, err
	}

	sessions, err := cardService.NewSessionTokenService(key, c.config.HolderTokenExpiration)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token service: %w", err)
	}
	return sessions, nil
}

// zeroCodecKey wipes the codec secret. Callers hold c.mu.
func (c *Container) zeroCodecKey() {
	if c.codecKey != nil {
		cryptoDomain.Zero(c.codecKey)
	}
}
