package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
)

// CodecKeyConfig is the subset of the application configuration needed to load the codec key.
type CodecKeyConfig struct {
	// SecretKey is the base64 value of CODEC_SECRET_KEY.
	SecretKey string
	// KMSProvider enables KMS unwrapping when set.
	KMSProvider string
	// KMSKeyURI locates the wrapping key.
	KMSKeyURI string
}

// LoadCodecKey decodes CODEC_SECRET_KEY into the 32-byte codec secret.
//
// When a KMS provider is configured the decoded bytes are a wrapped key and are
// decrypted through the keeper opened for KMSKeyURI.
func LoadCodecKey(ctx context.Context, cfg CodecKeyConfig, kms KMSService) ([]byte, error) {
	if cfg.SecretKey == "" {
		return nil, cryptoDomain.ErrCodecKeyNotSet
	}

	raw, err := base64.StdEncoding.DecodeString(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrInvalidCodecKey, err)
	}

	key := raw
	if cfg.KMSProvider != "" {
		defer cryptoDomain.Zero(raw)

		if cfg.KMSKeyURI == "" {
			return nil, cryptoDomain.ErrKMSKeyURINotSet
		}

		keeper, err := kms.OpenKeeper(ctx, cfg.KMSKeyURI)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = keeper.Close()
		}()

		key, err = keeper.Decrypt(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap codec key: %w", err)
		}
	}

	if len(key) != cryptoDomain.KeySize {
		cryptoDomain.Zero(key)
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	return key, nil
}

// GenerateCodecKey creates a new random codec secret and returns it base64-encoded,
// wrapped by the KMS keeper when keyURI is not empty.
func GenerateCodecKey(ctx context.Context, keyURI string, kms KMSService) (string, error) {
	key := make([]byte, cryptoDomain.KeySize)
	defer cryptoDomain.Zero(key)

	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate codec key: %w", err)
	}

	if keyURI == "" {
		return base64.StdEncoding.EncodeToString(key), nil
	}

	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = keeper.Close()
	}()

	wrapped, err := keeper.Encrypt(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to wrap codec key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(wrapped), nil
}
