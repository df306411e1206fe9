package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/dbx"
	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/graph"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/notifications"
	"github.com/dmitrijs2005/socialnet/internal/server/permissions"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/socialnet/internal/server/storage"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

const fixedStamp = "[2025-03-14 15:09:26]"

func newDeps(t *testing.T) Deps {
	t.Helper()
	b, err := storage.NewFSBackend(t.TempDir())
	require.NoError(t, err)
	return Deps{
		Repos:         repomanager.NewInMemoryRepositoryManager(),
		Graph:         graph.NewStore(),
		Notifications: notifications.NewStore(notifications.WithClock(func() time.Time { return fixedNow })),
		Permissions:   permissions.NewStore(),
		Storage:       storage.New(b),
		Log:           logging.NewDiscardLogger(),
		Now:           func() time.Time { return fixedNow },
	}
}

// signup registers ids through the account service so that both the graph
// and the account repository know them.
func signup(t *testing.T, d Deps, ids ...string) {
	t.Helper()
	svc := NewAccountService(d)
	for _, id := range ids {
		_, err := svc.Signup(context.Background(), id)
		require.NoError(t, err)
	}
}

func follow(t *testing.T, d Deps, follower, followed string) {
	t.Helper()
	_, err := d.Graph.CreateEdge(follower, followed)
	require.NoError(t, err)
}

func timeline(t *testing.T, d Deps, owner string, kind models.TimelineKind) []string {
	t.Helper()
	lines, err := d.Repos.Profiles(nil).Lines(context.Background(), owner, kind)
	require.NoError(t, err)
	return lines
}

func contents(ns []models.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Content)
	}
	return out
}

type failingAccounts struct {
	accounts.Repository
	err error
}

func (f failingAccounts) Create(context.Context, *models.Account) error { return f.err }

type failingManager struct {
	repomanager.RepositoryManager
	accounts accounts.Repository
}

func (m failingManager) Accounts(dbx.DBTX) accounts.Repository { return m.accounts }
