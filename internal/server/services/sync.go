package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/dbx"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/profiles"
)

// Synchronizer reconciles a client's stored data.
type Synchronizer interface {
	Synchronize(ctx context.Context, id string) error
}

// SyncService normalises both timelines of an account: duplicated entries
// are dropped and entries are ordered by their timestamp. An entry is a
// timestamped line followed by the untimestamped lines that belong to it,
// such as a feed description.
type SyncService struct {
	*feed
}

var _ Synchronizer = (*SyncService)(nil)

func NewSyncService(d Deps) *SyncService {
	return &SyncService{feed: newFeed(d)}
}

func (s *SyncService) Synchronize(ctx context.Context, id string) error {
	if !s.graph.Exists(id) {
		return fmt.Errorf("client %s: %w", id, common.ErrorNotFound)
	}

	if s.db == nil {
		return s.normalize(ctx, s.repomanager.Profiles(nil), id)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.normalize(ctx, s.repomanager.Profiles(tx), id)
	})
}

func (s *SyncService) normalize(ctx context.Context, repo profiles.Repository, id string) error {
	for _, kind := range []models.TimelineKind{models.TimelineProfile, models.TimelineOthers} {
		lines, err := repo.Lines(ctx, id, kind)
		if err != nil {
			return fmt.Errorf("error reading %s timeline: %w", kind, err)
		}
		normalized := NormalizeTimeline(lines)
		if slices.Equal(lines, normalized) {
			continue
		}
		if err := repo.Replace(ctx, id, kind, normalized); err != nil {
			return fmt.Errorf("error writing %s timeline: %w", kind, err)
		}
		s.log.Info(ctx, "timeline normalized", "client", id, "kind", kind, "before", len(lines), "after", len(normalized))
	}
	return nil
}

type entry struct {
	at    time.Time
	timed bool
	lines []string
}

func (e entry) key() string {
	return strings.Join(e.lines, "\n")
}

// NormalizeTimeline groups lines into entries, drops exact duplicate entries
// and stable-sorts the rest by timestamp. Leading lines without a timestamp
// keep their place at the top.
func NormalizeTimeline(lines []string) []string {
	var entries []entry
	for _, l := range lines {
		if at, ok := lineTime(l); ok {
			entries = append(entries, entry{at: at, timed: true, lines: []string{l}})
			continue
		}
		if len(entries) == 0 {
			entries = append(entries, entry{})
		}
		last := &entries[len(entries)-1]
		last.lines = append(last.lines, l)
	}

	seen := make(map[string]struct{}, len(entries))
	entries = slices.DeleteFunc(entries, func(e entry) bool {
		k := e.key()
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		return false
	})

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case !a.timed && !b.timed:
			return 0
		case !a.timed:
			return -1
		case !b.timed:
			return 1
		}
		return a.at.Compare(b.at)
	})

	out := make([]string, 0, len(lines))
	for _, e := range entries {
		out = append(out, e.lines...)
	}
	return out
}

// lineTime parses the "[2006-01-02 15:04:05]" prefix of a timeline line.
func lineTime(l string) (time.Time, bool) {
	if len(l) < len(common.TimestampLayout)+2 || l[0] != '[' || l[len(common.TimestampLayout)+1] != ']' {
		return time.Time{}, false
	}
	at, err := time.Parse(common.TimestampLayout, l[1:len(common.TimestampLayout)+1])
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
