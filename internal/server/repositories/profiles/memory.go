package profiles

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

type timelineKey struct {
	owner string
	kind  models.TimelineKind
}

type MemoryRepository struct {
	mu    sync.RWMutex
	lines map[timelineKey][]string
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{lines: make(map[timelineKey][]string)}
}

func (r *MemoryRepository) Append(_ context.Context, owner string, kind models.TimelineKind, line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := timelineKey{owner, kind}
	r.lines[k] = append(r.lines[k], line)
	return nil
}

func (r *MemoryRepository) Lines(_ context.Context, owner string, kind models.TimelineKind) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.lines[timelineKey{owner, kind}]), nil
}

func (r *MemoryRepository) Replace(_ context.Context, owner string, kind models.TimelineKind, lines []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines[timelineKey{owner, kind}] = slices.Clone(lines)
	return nil
}
