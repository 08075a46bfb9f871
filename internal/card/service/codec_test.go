package service

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
	cryptoService "github.com/allisson/cardledger/internal/crypto/service"
)

func newTestSecret(t *testing.T) []byte {
	t.Helper()
	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	return secret
}

func newTestCodec(t *testing.T, secret []byte, alg cryptoDomain.Algorithm) FieldCodec {
	t.Helper()
	codec, err := NewFieldCodec(secret, alg, cryptoService.NewAEADManager())
	require.NoError(t, err)
	return codec
}

func TestFieldCodec_RoundTrip(t *testing.T) {
	secret := newTestSecret(t)

	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		codec := newTestCodec(t, secret, alg)

		tests := []struct {
			field cardDomain.Field
			value string
		}{
			{cardDomain.FieldCardNumber, "4532015112830366"},
			{cardDomain.FieldCVV, "007"},
			{cardDomain.FieldToken, "eyJhbGciOiJIUzI1NiJ9.payload.signature"},
			{cardDomain.FieldCVV, ""},
		}

		for _, tt := range tests {
			t.Run(string(alg)+"/"+string(tt.field), func(t *testing.T) {
				token, err := codec.Encode(tt.field, tt.value)
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(token, "v1."+string(tt.field)+"."))

				plaintext, err := codec.Decode(tt.field, token)
				require.NoError(t, err)
				assert.Equal(t, tt.value, plaintext)
			})
		}
	}
}

func TestFieldCodec_Deterministic(t *testing.T) {
	secret := newTestSecret(t)
	codec := newTestCodec(t, secret, cryptoDomain.AESGCM)

	first, err := codec.Encode(cardDomain.FieldCardNumber, "4532015112830366")
	require.NoError(t, err)
	second, err := codec.Encode(cardDomain.FieldCardNumber, "4532015112830366")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := codec.Encode(cardDomain.FieldCardNumber, "4111111111111111")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	t.Run("Success_SameKeyNewInstance", func(t *testing.T) {
		again, err := newTestCodec(t, secret, cryptoDomain.AESGCM).Encode(
			cardDomain.FieldCardNumber,
			"4532015112830366",
		)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	})

	t.Run("Success_OtherKeyDiffers", func(t *testing.T) {
		foreign, err := newTestCodec(t, newTestSecret(t), cryptoDomain.AESGCM).Encode(
			cardDomain.FieldCardNumber,
			"4532015112830366",
		)
		require.NoError(t, err)
		assert.NotEqual(t, first, foreign)
	})
}

func TestFieldCodec_Decode_Errors(t *testing.T) {
	secret := newTestSecret(t)
	codec := newTestCodec(t, secret, cryptoDomain.AESGCM)

	token, err := codec.Encode(cardDomain.FieldCVV, "123")
	require.NoError(t, err)

	t.Run("Error_FieldMismatch", func(t *testing.T) {
		_, err := codec.Decode(cardDomain.FieldCardNumber, token)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidToken)
	})

	t.Run("Error_RelabeledField", func(t *testing.T) {
		relabeled := strings.Replace(token, "v1.cvv.", "v1.card_number.", 1)
		_, err := codec.Decode(cardDomain.FieldCardNumber, relabeled)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidToken)
	})

	t.Run("Error_PayloadMutation", func(t *testing.T) {
		prefix := "v1.cvv."
		payload := []byte(strings.TrimPrefix(token, prefix))
		for i := range payload {
			mutated := make([]byte, len(payload))
			copy(mutated, payload)
			if mutated[i] == 'A' {
				mutated[i] = 'B'
			} else {
				mutated[i] = 'A'
			}

			_, err := codec.Decode(cardDomain.FieldCVV, prefix+string(mutated))
			assert.ErrorIs(t, err, cryptoDomain.ErrInvalidToken, "position %d", i)
		}
	})

	t.Run("Error_WrongKey", func(t *testing.T) {
		other := newTestCodec(t, newTestSecret(t), cryptoDomain.AESGCM)
		_, err := other.Decode(cardDomain.FieldCVV, token)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidToken)
	})

	t.Run("Error_ForgedNonce", func(t *testing.T) {
		// A valid ciphertext sealed under a nonce that is not the synthetic one
		fc := codec.(*aeadFieldCodec).fields[cardDomain.FieldCVV]
		nonce := make([]byte, fc.aead.NonceSize())
		ciphertext, err := fc.aead.Seal(nonce, []byte("123"), []byte(cardDomain.FieldCVV))
		require.NoError(t, err)

		forged := "v1.cvv." + base64.RawURLEncoding.EncodeToString(append(nonce, ciphertext...))
		_, err = codec.Decode(cardDomain.FieldCVV, forged)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidToken)
	})

	t.Run("Error_Malformed", func(t *testing.T) {
		for _, malformed := range []string{
			"",
			"garbage",
			"v2.cvv." + strings.TrimPrefix(token, "v1.cvv."),
			"v1.cvv.!!!",
			"v1.cvv.AAAA",
			"v1.cvv",
		} {
			_, err := codec.Decode(cardDomain.FieldCVV, malformed)
			assert.ErrorIs(t, err, cryptoDomain.ErrInvalidToken, malformed)
		}
	})
}

func TestNewFieldCodec_Errors(t *testing.T) {
	t.Run("Error_InvalidKeySize", func(t *testing.T) {
		_, err := NewFieldCodec(make([]byte, 16), cryptoDomain.AESGCM, cryptoService.NewAEADManager())
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})

	t.Run("Error_UnsupportedAlgorithm", func(t *testing.T) {
		_, err := NewFieldCodec(make([]byte, 32), cryptoDomain.Algorithm("des"), cryptoService.NewAEADManager())
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})
}
