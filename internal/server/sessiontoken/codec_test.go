package sessiontoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/avolkova/discograph/internal/common"
	"github.com/avolkova/discograph/internal/server/sessionkeys"
)

func testKey(t *testing.T, secret string) []byte {
	t.Helper()
	key, err := sessionkeys.Derive([]byte(secret), "__discograph_session")
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	return key
}

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	c, err := NewCodec(testKey(t, secret), 30*24*time.Hour)
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return c
}

func TestNewCodec_RejectsWrongKeySize(t *testing.T) {
	t.Parallel()

	if _, err := NewCodec(make([]byte, 32), time.Hour); err == nil {
		t.Fatalf("expected error for 32-byte key")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "0123456789abcdef0123456789abcdef01234567")
	in := &Claims{Subject: "u1", Name: "Ada", Email: "a@b.com", Role: "editor"}

	token, err := c.Encrypt(in)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	if n := len(strings.Split(token, ".")); n != SegmentCount {
		t.Fatalf("expected %d segments, got %d", SegmentCount, n)
	}

	out, err := c.Decrypt(token)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if out.Subject != in.Subject || out.Name != in.Name || out.Email != in.Email || out.Role != in.Role {
		t.Fatalf("claims mismatch: got %+v want %+v", out, in)
	}
	if out.IssuedAt == 0 || out.Expires == 0 || out.TokenID == "" {
		t.Fatalf("expected stamped iat/exp/jti, got %+v", out)
	}
	if out.Expires-out.IssuedAt != int64((30 * 24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected lifetime: iat=%d exp=%d", out.IssuedAt, out.Expires)
	}
}

func TestDecrypt_Header(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "0123456789abcdef0123456789abcdef01234567")
	token, err := c.Encrypt(&Claims{Subject: "u1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[0])
	if err != nil {
		t.Fatalf("header is not base64url: %v", err)
	}
	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		t.Fatalf("header is not JSON: %v", err)
	}
	if h.Alg != "dir" || h.Enc != "A256CBC-HS512" {
		t.Fatalf("unexpected header identifiers: %+v", h)
	}
	if h.Kid != sessionkeys.Thumbprint(testKey(t, "0123456789abcdef0123456789abcdef01234567")) {
		t.Fatalf("kid is not the key thumbprint")
	}
}

// Flipping any single bit of the ciphertext or tag must fail authentication,
// never yield altered claims.
func TestDecrypt_TamperedTokenFailsAuthentication(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "0123456789abcdef0123456789abcdef01234567")
	token, err := c.Encrypt(&Claims{Subject: "u1", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	segments := strings.Split(token, ".")

	for _, idx := range []int{3, 4} {
		raw, err := base64.RawURLEncoding.DecodeString(segments[idx])
		if err != nil {
			t.Fatalf("decode segment %d: %v", idx, err)
		}
		for byteIdx := 0; byteIdx < len(raw); byteIdx++ {
			for bit := 0; bit < 8; bit++ {
				mutated := make([]byte, len(raw))
				copy(mutated, raw)
				mutated[byteIdx] ^= 1 << bit

				tampered := make([]string, len(segments))
				copy(tampered, segments)
				tampered[idx] = base64.RawURLEncoding.EncodeToString(mutated)

				_, err := c.Decrypt(strings.Join(tampered, "."))
				if !errors.Is(err, common.ErrAuthenticationFailed) {
					t.Fatalf("segment %d byte %d bit %d: expected ErrAuthenticationFailed, got %v",
						idx, byteIdx, bit, err)
				}
			}
		}
	}
}

func TestDecrypt_WrongKeyFailsAuthentication(t *testing.T) {
	t.Parallel()

	c1 := newTestCodec(t, "0123456789abcdef0123456789abcdef01234567")
	c2 := newTestCodec(t, "another-secret-another-secret-another-40")

	token, err := c1.Encrypt(&Claims{Subject: "u1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	// The kid differs, but a single-key verifier still rejects on the tag.
	if _, err := c2.Decrypt(token); !errors.Is(err, common.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "0123456789abcdef0123456789abcdef01234567")
	token, err := c.Encrypt(&Claims{Subject: "u1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	segments := strings.Split(token, ".")

	tests := []struct {
		name  string
		token string
	}{
		{"not a token", "garbage"},
		{"four segments", strings.Join(segments[:4], ".")},
		{"six segments", token + ".extra"},
		{"non-empty key segment", strings.Join([]string{segments[0], "QQ", segments[2], segments[3], segments[4]}, ".")},
		{"bad base64 iv", strings.Join([]string{segments[0], "", "!!!", segments[3], segments[4]}, ".")},
		{"short iv", strings.Join([]string{segments[0], "", "QQ", segments[3], segments[4]}, ".")},
		{"short tag", strings.Join([]string{segments[0], "", segments[2], segments[3], "QQ"}, ".")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Decrypt(tc.token); !errors.Is(err, common.ErrMalformedToken) {
				t.Fatalf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestDecrypt_UnsupportedAlgorithm(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "0123456789abcdef0123456789abcdef01234567")
	token, err := c.Encrypt(&Claims{Subject: "u1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	segments := strings.Split(token, ".")

	header, _ := json.Marshal(Header{Alg: "A256KW", Enc: HeaderEnc, Kid: "x"})
	segments[0] = base64.RawURLEncoding.EncodeToString(header)

	if _, err := c.Decrypt(strings.Join(segments, ".")); !errors.Is(err, common.ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestDecrypt_Expired(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "0123456789abcdef0123456789abcdef01234567")
	token, err := c.Encrypt(&Claims{Subject: "u1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	c.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	if _, err := c.Decrypt(token); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
