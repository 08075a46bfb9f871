// Package domain defines the cryptographic primitives shared by the card services:
// supported AEAD algorithms, key handling errors and the KMS keeper contract.
package domain

import "fmt"

// Algorithm represents the AEAD algorithm used by the sensitive field codec.
//
// Both algorithms use a 256-bit key, a 12-byte nonce and a 16-byte tag:
//   - Use AESGCM on CPUs with AES-NI hardware acceleration
//   - Use ChaCha20 on systems without AES-NI
type Algorithm string

const (
	// AESGCM represents AES-256-GCM.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents ChaCha20-Poly1305.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the size in bytes of every key handled by this package.
const KeySize = 32

// ParseAlgorithm converts a configuration value into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
}
