package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

type Account struct {
	ID        string
	Language  Language
	CreatedAt time.Time
}

// ValidateIdentity rejects client ids that are blank, collide with the
// wire grammar or could not be used as a single storage path segment.
func ValidateIdentity(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty client id", common.ErrorValidation)
	case id == "." || strings.Contains(id, ".."),
		strings.ContainsAny(id, `/\:`),
		strings.IndexFunc(id, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: invalid client id %q", common.ErrorValidation, id)
	}
	return nil
}

// TimelineKind selects one of the per-account text timelines.
type TimelineKind string

const (
	// TimelineProfile holds the account's own activity and is what
	// access_profile returns.
	TimelineProfile TimelineKind = "profile"
	// TimelineOthers holds reposts and feed entries from followed accounts.
	TimelineOthers TimelineKind = "others"
)
