package service

import (
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
)

var cipherFactories = map[cryptoDomain.Algorithm]func(key []byte) (AEAD, error){
	cryptoDomain.AESGCM:   func(key []byte) (AEAD, error) { return NewAESGCM(key) },
	cryptoDomain.ChaCha20: func(key []byte) (AEAD, error) { return NewChaCha20Poly1305(key) },
}

// AEADManagerService builds the ciphers backing the field codec.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns ErrInvalidKeySize for keys other than KeySize bytes
// and ErrUnsupportedAlgorithm for algorithms without a factory.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	factory, ok := cipherFactories[alg]
	if !ok {
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
	return factory(key)
}
