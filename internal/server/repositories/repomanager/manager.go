package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/socialnet/internal/dbx"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/profiles"
)

// RepositoryManager vends repositories bound to a handle, which is either
// the pool or a running transaction. The in-memory manager ignores it.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Profiles(db dbx.DBTX) profiles.Repository
}
