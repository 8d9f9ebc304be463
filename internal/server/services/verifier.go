package services

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/avolkova/discograph/internal/common"
	"github.com/avolkova/discograph/internal/server/repositories/accounts"
	"golang.org/x/crypto/argon2"
)

// PasswordVerifier checks submitted passwords against the argon2id hashes
// stored on the account rows.
type PasswordVerifier struct {
	repo accounts.Repository
}

func NewPasswordVerifier(repo accounts.Repository) *PasswordVerifier {
	return &PasswordVerifier{repo: repo}
}

func (v *PasswordVerifier) VerifyCredential(ctx context.Context, email, password string) (string, error) {
	account, err := v.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn a hash anyway so an unknown email costs the same
			HashPassword([]byte(password), common.GenerateRandByteArray(32))
			return "", common.ErrorUnauthorized
		}
		return "", err
	}

	candidate := HashPassword([]byte(password), account.PasswordSalt)
	if subtle.ConstantTimeCompare(candidate, account.PasswordHash) != 1 {
		return "", common.ErrorUnauthorized
	}

	return account.ID, nil
}

// HashPassword derives the stored password verifier with argon2id. The
// parameters are part of the stored-hash contract shared with the
// user-management system that provisions accounts.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}
