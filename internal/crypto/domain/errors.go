package domain

import (
	"errors"

	apperrors "github.com/allisson/cardledger/internal/errors"
)

// Cryptographic operation error definitions.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = apperrors.Wrap(apperrors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key is not exactly 32 bytes.
	ErrInvalidKeySize = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid key size")

	// ErrInvalidNonceSize indicates a nonce does not match the cipher nonce size.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrInvalidToken indicates a codec token failed verification: it is malformed,
	// was tampered with, was produced under another key or belongs to another field.
	//
	// Stored tokens are always produced by the codec itself, so this is an integrity
	// fault and deliberately not mapped to a client error.
	ErrInvalidToken = errors.New("invalid token")

	// ErrCodecKeyNotSet indicates CODEC_SECRET_KEY is empty.
	ErrCodecKeyNotSet = errors.New("CODEC_SECRET_KEY is not set")

	// ErrInvalidCodecKey indicates CODEC_SECRET_KEY is not valid base64.
	ErrInvalidCodecKey = errors.New("CODEC_SECRET_KEY must be base64-encoded")

	// ErrKMSKeyURINotSet indicates KMS_PROVIDER is set without KMS_KEY_URI.
	ErrKMSKeyURINotSet = errors.New("KMS_KEY_URI is required when KMS_PROVIDER is set")
)
