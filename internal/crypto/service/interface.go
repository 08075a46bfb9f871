// Package service provides the AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305) backing
// the sensitive field codec and the loader for the codec secret key.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
//
// The nonce is supplied by the caller. Callers deriving the nonce from the plaintext
// get deterministic ciphertexts, which is what allows encrypted values to be looked
// up by equality.
type AEAD interface {
	// NonceSize returns the nonce length expected by Seal and Open.
	NonceSize() int

	// Seal encrypts and authenticates plaintext and aad.
	Seal(nonce, plaintext, aad []byte) ([]byte, error)

	// Open authenticates and decrypts ciphertext using the nonce and aad used by Seal.
	Open(nonce, ciphertext, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KMSService opens keepers for the configured KMS provider.
type KMSService interface {
	// OpenKeeper opens a secrets.Keeper for the given key URI.
	// Returns an error if the URI is invalid or the connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
