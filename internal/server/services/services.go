// Package services contains the server-side business logic behind the
// session commands. Services mutate the in-memory stores, persist timelines
// and accounts through the repository manager and return wrapped sentinel
// errors; translating them into wire replies is the session's job.
package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/graph"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/notifications"
	"github.com/dmitrijs2005/socialnet/internal/server/permissions"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/socialnet/internal/server/storage"
)

// GraphStore is the part of graph.Store the services use.
type GraphStore interface {
	Register(id string) error
	Unregister(id string)
	Exists(id string) bool
	IsFollowing(follower, followed string) bool
	CreateEdge(follower, followed string) (bool, error)
	RemoveEdge(follower, followed string) error
	Followers(id string) []string
	Following(id string) []string
}

var _ GraphStore = (*graph.Store)(nil)

// Deps bundles the stores and repositories shared by every service.
// DB may be nil when the in-memory repository manager is used.
type Deps struct {
	DB            *sql.DB
	Repos         repomanager.RepositoryManager
	Graph         GraphStore
	Notifications *notifications.Store
	Permissions   *permissions.Store
	Storage       *storage.Store
	Log           logging.Logger
	Now           func() time.Time
}

// feed holds the helpers every service uses to write timelines and
// notifications.
type feed struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	graph       GraphStore
	notes       *notifications.Store
	log         logging.Logger
	now         func() time.Time
}

func newFeed(d Deps) *feed {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	log := d.Log
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &feed{
		db:          d.DB,
		repomanager: d.Repos,
		graph:       d.Graph,
		notes:       d.Notifications,
		log:         log,
		now:         now,
	}
}

// stamp renders the bracketed timestamp prefixed to every timeline line.
func (f *feed) stamp() string {
	return "[" + f.now().Format(common.TimestampLayout) + "]"
}

func (f *feed) appendLines(ctx context.Context, owner string, kind models.TimelineKind, lines ...string) error {
	repo := f.repomanager.Profiles(f.db)
	for _, l := range lines {
		if err := repo.Append(ctx, owner, kind, l); err != nil {
			return err
		}
	}
	return nil
}

func (f *feed) notify(sender, receiver string, typ models.NotificationType, content string) {
	f.notes.Add(models.Notification{
		Sender:   sender,
		Receiver: receiver,
		Type:     typ,
		Content:  content,
	})
}

// fanOut sends one post notification to each current follower of author and
// returns the followers it notified.
func (f *feed) fanOut(ctx context.Context, author, content string) []string {
	followers := f.graph.Followers(author)
	for _, follower := range followers {
		f.notify(author, follower, models.NotificationPost, content)
	}
	f.log.Debug(ctx, "notified followers", "author", author, "followers", len(followers))
	return followers
}

// language returns id's stored preference, falling back to the default when
// the account record cannot be read.
func (f *feed) language(ctx context.Context, id string) models.Language {
	acc, err := f.repomanager.Accounts(f.db).Get(ctx, id)
	if err != nil {
		return models.DefaultLanguage
	}
	return acc.Language
}
