package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/dbx"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, acc *models.Account) error {

	query :=
		`INSERT INTO accounts (id, language, created_at)
		 VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query, acc.ID, string(acc.Language), acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, language, created_at FROM accounts
		 WHERE id = $1
		 `

	acc := &models.Account{}
	var lang string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&acc.ID, &lang, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	acc.Language = models.Language(lang)

	return acc, nil
}

func (r *PostgresRepository) SetLanguage(ctx context.Context, id string, lang models.Language) error {
	query :=
		`UPDATE accounts SET language = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, string(lang))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	query :=
		`SELECT id, language, created_at FROM accounts
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		acc := &models.Account{}
		var lang string
		if err := rows.Scan(&acc.ID, &lang, &acc.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		acc.Language = models.Language(lang)
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
