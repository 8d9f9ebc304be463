// Package sessionkeys derives the symmetric key material for session tokens.
//
// The key is derived with HKDF-SHA256 from the deployment-wide session
// secret and a context string (the session cookie name). Derivation is
// deterministic: the same (secret, salt) pair always yields the same bytes,
// so tokens issued before a restart stay decryptable.
package sessionkeys

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/avolkova/discograph/internal/common"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the derived key length. The A256CBC-HS512 suite consumes
	// a 64-byte composite key: bytes 0..31 are the HMAC key, 32..63 the
	// AES-256 key.
	KeySize = 64

	// MinSecretLen is the entropy floor for the root secret, enforced by
	// configuration validation before any key is derived.
	MinSecretLen = 32

	// derivationLabel is part of the fixed wire contract; changing it
	// invalidates every previously issued token.
	derivationLabel = "Discograph Session Encryption Key"
)

// Derive expands (secret, salt) into a 64-byte session key using HKDF-SHA256.
// The HKDF info string is "<label> (<salt>)".
func Derive(secret []byte, salt string) ([]byte, error) {
	info := derivationLabel + " (" + salt + ")"
	r := hkdf.New(sha256.New, secret, []byte(salt), []byte(info))

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// ValidateSecret rejects root secrets below the entropy floor. Callers must
// refuse to start on ErrInvalidSecret.
func ValidateSecret(secret string) error {
	if len(secret) < MinSecretLen {
		return common.ErrInvalidSecret
	}
	return nil
}

// Thumbprint returns the RFC 7638 thumbprint of the raw key material: the
// SHA-256 of the canonical JWK JSON for a symmetric ("oct") key, base64url
// encoded without padding. Verifiers holding several historical keys use it
// to pick the right one without trial decryption.
func Thumbprint(key []byte) string {
	jwk := struct {
		K   string `json:"k"`
		Kty string `json:"kty"`
	}{
		K:   base64.RawURLEncoding.EncodeToString(key),
		Kty: "oct",
	}
	b, err := json.Marshal(jwk)
	if err != nil {
		panic(err)
	}
	sum := sha256.Sum256(b)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
