/*
Package card implements card issuance and the balance ledger.

# Architecture

  - domain: Card record, statuses, holder session and typed errors
  - service: Luhn validation, card number and CVV generation, the sensitive field
    codec and holder session tokens
  - usecase: Issue, UpdateFields, Recharge, Transfer and the holder token lifecycle
  - repository: Data persistence (MySQL, PostgreSQL)
  - http: HTTP handlers and DTOs

# Sensitive Fields

Card numbers, CVVs and holder session tokens are never stored in plaintext. Each one is
stored as the output of a deterministic AEAD codec keyed by CODEC_SECRET_KEY:

	v1.<field>.<base64url(nonce || ciphertext)>

The nonce is an HMAC of the plaintext under a per-field key, so the same card number
always encodes to the same value. The UNIQUE constraint on the encoded column enforces
card number uniqueness without decrypting existing rows.

# Holder Sessions

Every card of a holder (tax id) carries the same session token and expiration. A new
token is minted only when the stored one has expired, and it is written to all of the
holder's cards in the issuing transaction.

# Ledger

Recharge and Transfer require the card status ATIVO. Rows are locked with SELECT ... FOR
UPDATE and a transfer debits and credits within a single transaction. The balance column
carries CHECK (balance >= 0).
*/
package card
