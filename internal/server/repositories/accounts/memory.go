package accounts

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]models.Account)}
}

func (r *MemoryRepository) Create(_ context.Context, acc *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[acc.ID]; ok {
		return common.ErrorAlreadyExists
	}
	r.accounts[acc.ID] = *acc
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &acc, nil
}

func (r *MemoryRepository) SetLanguage(_ context.Context, id string, lang models.Language) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	acc.Language = lang
	r.accounts[id] = acc
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*models.Account, error) {
	r.mu.RLock()
	out := make([]*models.Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		a := acc
		out = append(out, &a)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.Account) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.accounts, id)
	return nil
}
