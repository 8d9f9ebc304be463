package repomanager

import (
	"context"
	"database/sql"

	"github.com/avolkova/discograph/internal/dbx"
	"github.com/avolkova/discograph/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
}
