package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
	cryptoService "github.com/allisson/cardledger/internal/crypto/service"
)

const codecVersion = "v1"

var tokenEncoding = base64.RawURLEncoding.Strict()

var codecFields = []cardDomain.Field{
	cardDomain.FieldCardNumber,
	cardDomain.FieldCVV,
	cardDomain.FieldToken,
}

type fieldCipher struct {
	aead   cryptoService.AEAD
	sivKey []byte
}

type aeadFieldCodec struct {
	fields map[cardDomain.Field]fieldCipher
}

// NewFieldCodec creates a deterministic AEAD codec keyed by secret.
//
// Each field gets its own encryption key and nonce key derived with HKDF-SHA256. The
// nonce is HMAC-SHA256(nonceKey, plaintext) truncated to the cipher nonce size and the
// field name is bound as associated data.
func NewFieldCodec(
	secret []byte,
	alg cryptoDomain.Algorithm,
	aeadManager cryptoService.AEADManager,
) (FieldCodec, error) {
	if len(secret) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	codec := &aeadFieldCodec{fields: make(map[cardDomain.Field]fieldCipher, len(codecFields))}
	for _, field := range codecFields {
		encKey, err := deriveKey(secret, "card-field-enc-v1:"+string(field))
		if err != nil {
			return nil, err
		}
		aead, err := aeadManager.CreateCipher(encKey, alg)
		cryptoDomain.Zero(encKey)
		if err != nil {
			return nil, err
		}

		sivKey, err := deriveKey(secret, "card-field-siv-v1:"+string(field))
		if err != nil {
			return nil, err
		}

		codec.fields[field] = fieldCipher{aead: aead, sivKey: sivKey}
	}

	return codec, nil
}

// Encode returns v1.<field>.<base64url(nonce || ciphertext)>.
func (c *aeadFieldCodec) Encode(field cardDomain.Field, plaintext string) (string, error) {
	fc, ok := c.fields[field]
	if !ok {
		return "", fmt.Errorf("unknown codec field %q", field)
	}

	nonce := fc.nonce([]byte(plaintext))
	ciphertext, err := fc.aead.Seal(nonce, []byte(plaintext), []byte(field))
	if err != nil {
		return "", err
	}

	payload := make([]byte, 0, len(nonce)+len(ciphertext))
	payload = append(payload, nonce...)
	payload = append(payload, ciphertext...)

	return codecVersion + "." + string(field) + "." + tokenEncoding.EncodeToString(payload), nil
}

// Decode verifies token against field and returns the plaintext.
func (c *aeadFieldCodec) Decode(field cardDomain.Field, token string) (string, error) {
	fc, ok := c.fields[field]
	if !ok {
		return "", cryptoDomain.ErrInvalidToken
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != codecVersion || parts[1] != string(field) {
		return "", cryptoDomain.ErrInvalidToken
	}

	payload, err := tokenEncoding.DecodeString(parts[2])
	if err != nil {
		return "", cryptoDomain.ErrInvalidToken
	}

	nonceSize := fc.aead.NonceSize()
	if len(payload) <= nonceSize {
		return "", cryptoDomain.ErrInvalidToken
	}
	nonce, ciphertext := payload[:nonceSize], payload[nonceSize:]

	plaintext, err := fc.aead.Open(nonce, ciphertext, []byte(field))
	if err != nil {
		return "", cryptoDomain.ErrInvalidToken
	}

	if !hmac.Equal(nonce, fc.nonce(plaintext)) {
		return "", cryptoDomain.ErrInvalidToken
	}

	return string(plaintext), nil
}

func (fc fieldCipher) nonce(plaintext []byte) []byte {
	mac := hmac.New(sha256.New, fc.sivKey)
	mac.Write(plaintext)
	return mac.Sum(nil)[:fc.aead.NonceSize()]
}

// deriveKey uses HKDF-SHA256 to derive a 32-byte key from secret for the given purpose.
func deriveKey(secret []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, nil, []byte(info))

	key := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return key, nil
}
