// Package sessiontoken encrypts and validates the session credential.
//
// The token is a compact JWE-style string of five dot-joined base64url
// segments: header, empty encrypted-key, IV, ciphertext, tag. The header
// identifiers, key split and tag layout are a fixed external wire contract;
// a token produced here must decrypt under any other conforming
// implementation and vice versa.
package sessiontoken

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avolkova/discograph/internal/common"
	"github.com/avolkova/discograph/internal/server/sessionkeys"
	"github.com/google/uuid"
)

// Wire contract constants. Do not change without versioning the format.
const (
	// HeaderAlg is the JWE key-management algorithm: the derived key is
	// used directly, no per-token key wrapping.
	HeaderAlg = "dir"

	// HeaderEnc is the content-encryption algorithm: AES-256-CBC with an
	// HMAC-SHA-512 tag truncated to 32 bytes.
	HeaderEnc = "A256CBC-HS512"

	// SegmentCount is the number of dot-joined segments in a serialized
	// token.
	SegmentCount = 5

	ivSize  = 16
	tagSize = 32

	macKeySize = 32
)

// Header is the protected JWE header.
type Header struct {
	Alg string `json:"alg"`
	Enc string `json:"enc"`
	Kid string `json:"kid"`
}

var b64 = base64.RawURLEncoding

// Codec encrypts Claims into session tokens and back under a single
// 64-byte composite key.
type Codec struct {
	key       []byte
	headerB64 string
	lifetime  time.Duration
	now       func() time.Time
}

// NewCodec builds a Codec over a 64-byte derived key. The protected header,
// including the key thumbprint, is computed once; it is identical for every
// token minted under this key.
func NewCodec(key []byte, lifetime time.Duration) (*Codec, error) {
	if len(key) != sessionkeys.KeySize {
		return nil, fmt.Errorf("session key must be %d bytes, got %d", sessionkeys.KeySize, len(key))
	}

	h := Header{Alg: HeaderAlg, Enc: HeaderEnc, Kid: sessionkeys.Thumbprint(key)}
	raw, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}

	return &Codec{
		key:       key,
		headerB64: b64.EncodeToString(raw),
		lifetime:  lifetime,
		now:       time.Now,
	}, nil
}

func (c *Codec) macKey() []byte { return c.key[:macKeySize] }
func (c *Codec) encKey() []byte { return c.key[macKeySize:] }

// Encrypt seals the claims into a serialized token. IssuedAt, Expires and
// TokenID are stamped here; any values already present are overwritten so a
// caller cannot mint a token with a forged lifetime.
func (c *Codec) Encrypt(claims *Claims) (string, error) {
	now := c.now()
	claims.IssuedAt = now.Unix()
	claims.Expires = now.Add(c.lifetime).Unix()
	claims.TokenID = uuid.NewString()

	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.encKey())
	if err != nil {
		return "", err
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	tag := c.computeTag(iv, ciphertext)

	segments := []string{
		c.headerB64,
		"", // no encrypted key in direct mode
		b64.EncodeToString(iv),
		b64.EncodeToString(ciphertext),
		b64.EncodeToString(tag),
	}
	return strings.Join(segments, "."), nil
}

// Decrypt validates and opens a serialized token. The tag is verified in
// constant time before any plaintext is touched; expiry is checked last,
// against the authenticated claims.
func (c *Codec) Decrypt(token string) (*Claims, error) {
	segments := strings.Split(token, ".")
	if len(segments) != SegmentCount {
		return nil, common.ErrMalformedToken
	}
	if segments[1] != "" {
		// direct mode carries no encrypted key
		return nil, common.ErrMalformedToken
	}

	headerRaw, err := b64.DecodeString(segments[0])
	if err != nil {
		return nil, common.ErrMalformedToken
	}
	var header Header
	if err := json.Unmarshal(headerRaw, &header); err != nil {
		return nil, common.ErrMalformedToken
	}
	if header.Alg != HeaderAlg || header.Enc != HeaderEnc {
		return nil, common.ErrUnsupportedAlgorithm
	}

	iv, err := b64.DecodeString(segments[2])
	if err != nil || len(iv) != ivSize {
		return nil, common.ErrMalformedToken
	}
	ciphertext, err := b64.DecodeString(segments[3])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, common.ErrMalformedToken
	}
	tag, err := b64.DecodeString(segments[4])
	if err != nil || len(tag) != tagSize {
		return nil, common.ErrMalformedToken
	}

	expected := c.tagFor(segments[0], iv, ciphertext)
	if !hmac.Equal(tag, expected) {
		return nil, common.ErrAuthenticationFailed
	}

	block, err := aes.NewCipher(c.encKey())
	if err != nil {
		return nil, err
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := unpadPKCS7(padded, aes.BlockSize)
	if err != nil {
		return nil, common.ErrMalformedToken
	}

	claims := &Claims{}
	if err := json.Unmarshal(plaintext, claims); err != nil {
		return nil, common.ErrMalformedToken
	}

	if claims.Expires == 0 || !c.now().Before(time.Unix(claims.Expires, 0)) {
		return nil, common.ErrTokenExpired
	}

	return claims, nil
}

// computeTag produces the 32-byte authentication tag: HMAC-SHA-512 over the
// protected header segment, the IV and the ciphertext, truncated to half.
func (c *Codec) computeTag(iv, ciphertext []byte) []byte {
	return c.tagFor(c.headerB64, iv, ciphertext)
}

func (c *Codec) tagFor(headerSegment string, iv, ciphertext []byte) []byte {
	mac := hmac.New(sha512.New, c.macKey())
	mac.Write([]byte(headerSegment))
	mac.Write(iv)
	mac.Write(ciphertext)
	return mac.Sum(nil)[:tagSize]
}

func padPKCS7(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpadPKCS7(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return b[:len(b)-n], nil
}
