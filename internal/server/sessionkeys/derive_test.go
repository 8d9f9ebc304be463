package sessionkeys

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/avolkova/discograph/internal/common"
)

func TestDerive_Deterministic(t *testing.T) {
	t.Parallel()

	secret := []byte("0123456789abcdef0123456789abcdef01234567")
	salt := "__discograph_session"

	k1, err := Derive(secret, salt)
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	k2, err := Derive(secret, salt)
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}

	if len(k1) != KeySize {
		t.Fatalf("expected %d bytes, got %d", KeySize, len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("same inputs produced different keys")
	}
}

func TestDerive_DistinctInputsDistinctKeys(t *testing.T) {
	t.Parallel()

	base, err := Derive([]byte("secret-secret-secret-secret-12345"), "cookie")
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}

	otherSecret, err := Derive([]byte("secret-secret-secret-secret-67890"), "cookie")
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	otherSalt, err := Derive([]byte("secret-secret-secret-secret-12345"), "cookie2")
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}

	if bytes.Equal(base, otherSecret) {
		t.Fatalf("different secrets produced the same key")
	}
	if bytes.Equal(base, otherSalt) {
		t.Fatalf("different salts produced the same key")
	}
}

func TestValidateSecret(t *testing.T) {
	t.Parallel()

	if err := ValidateSecret(strings.Repeat("a", MinSecretLen)); err != nil {
		t.Fatalf("unexpected error for %d-byte secret: %v", MinSecretLen, err)
	}
	err := ValidateSecret(strings.Repeat("a", MinSecretLen-1))
	if !errors.Is(err, common.ErrInvalidSecret) {
		t.Fatalf("expected ErrInvalidSecret, got %v", err)
	}
}

func TestThumbprint_StableAndKeyBound(t *testing.T) {
	t.Parallel()

	k1, _ := Derive([]byte("secret-secret-secret-secret-12345"), "s")
	k2, _ := Derive([]byte("secret-secret-secret-secret-67890"), "s")

	if Thumbprint(k1) != Thumbprint(k1) {
		t.Fatalf("thumbprint not stable")
	}
	if Thumbprint(k1) == Thumbprint(k2) {
		t.Fatalf("distinct keys share a thumbprint")
	}
	if strings.ContainsAny(Thumbprint(k1), "+/=") {
		t.Fatalf("thumbprint is not base64url without padding: %q", Thumbprint(k1))
	}
}
