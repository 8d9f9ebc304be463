package accounts

import (
	"context"

	"github.com/avolkova/discograph/internal/server/lockout"
	"github.com/avolkova/discograph/internal/server/models"
)

// Repository is the accounts persistence boundary. It satisfies
// lockout.Store so the tracker can be wired straight onto it.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	FindLockoutFields(ctx context.Context, accountID string) (*lockout.Record, error)
	UpdateLockoutFields(ctx context.Context, accountID string, rec *lockout.Record) error
}
