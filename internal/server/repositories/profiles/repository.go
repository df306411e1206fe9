// Package profiles persists the per-account text timelines: the profile
// timeline returned by access_profile and the "others" timeline holding
// reposts and feed entries.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, owner string, kind models.TimelineKind, line string) error
	Lines(ctx context.Context, owner string, kind models.TimelineKind) ([]string, error)
	// Replace swaps the whole timeline for lines.
	Replace(ctx context.Context, owner string, kind models.TimelineKind, lines []string) error
}
