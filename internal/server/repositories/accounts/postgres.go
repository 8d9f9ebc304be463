package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkova/discograph/internal/common"
	"github.com/avolkova/discograph/internal/dbx"
	"github.com/avolkova/discograph/internal/server/lockout"
	"github.com/avolkova/discograph/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, display_name, role, password_hash, password_salt,
		        failed_login_attempts, locked_until, created_at
		 FROM accounts
		 WHERE email = $1
		 `
	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, email, display_name, role, password_hash, password_salt,
		        failed_login_attempts, locked_until, created_at
		 FROM accounts
		 WHERE id = $1
		 `
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	var lockedUntil sql.NullTime

	err := row.Scan(&account.ID, &account.Email, &account.DisplayName, &account.Role,
		&account.PasswordHash, &account.PasswordSalt,
		&account.FailedLoginAttempts, &lockedUntil, &account.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	if lockedUntil.Valid {
		account.LockedUntil = &lockedUntil.Time
	}
	return account, nil
}

func (r *PostgresRepository) FindLockoutFields(ctx context.Context, accountID string) (*lockout.Record, error) {
	query :=
		`SELECT failed_login_attempts, locked_until FROM accounts
		 WHERE id = $1
		 `

	rec := &lockout.Record{}
	var lockedUntil sql.NullTime

	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&rec.FailedAttempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	if lockedUntil.Valid {
		rec.LockedUntil = &lockedUntil.Time
	}
	return rec, nil
}

func (r *PostgresRepository) UpdateLockoutFields(ctx context.Context, accountID string, rec *lockout.Record) error {
	query :=
		`UPDATE accounts SET failed_login_attempts = $2, locked_until = $3
		 WHERE id = $1
		 `

	var lockedUntil sql.NullTime
	if rec.LockedUntil != nil {
		lockedUntil = sql.NullTime{Time: *rec.LockedUntil, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, accountID, rec.FailedAttempts, lockedUntil)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}
