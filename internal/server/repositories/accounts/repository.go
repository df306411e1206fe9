// Package accounts persists per-identity account records: the identity and
// its language preference.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, acc *models.Account) error
	Get(ctx context.Context, id string) (*models.Account, error)
	SetLanguage(ctx context.Context, id string, lang models.Language) error
	List(ctx context.Context) ([]*models.Account, error)
	Delete(ctx context.Context, id string) error
}
