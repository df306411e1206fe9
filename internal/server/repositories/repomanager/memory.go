package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/socialnet/internal/dbx"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/profiles"
)

// InMemoryRepositoryManager hands out the same process-local repositories
// regardless of the handle passed in.
type InMemoryRepositoryManager struct {
	accounts *accounts.MemoryRepository
	profiles *profiles.MemoryRepository
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{
		accounts: accounts.NewMemoryRepository(),
		profiles: profiles.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return m.accounts
}

func (m *InMemoryRepositoryManager) Profiles(dbx.DBTX) profiles.Repository {
	return m.profiles
}
