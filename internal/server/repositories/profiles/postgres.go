package profiles

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/dbx"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, owner string, kind models.TimelineKind, line string) error {
	query :=
		`INSERT INTO timeline_lines (owner_id, kind, line)
		 VALUES ($1, $2, $3)
		 `

	if _, err := r.db.ExecContext(ctx, query, owner, string(kind), line); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Lines(ctx context.Context, owner string, kind models.TimelineKind) ([]string, error) {
	query :=
		`SELECT line FROM timeline_lines
		 WHERE owner_id = $1 AND kind = $2
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, owner, string(kind))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return lines, nil
}

// Replace must run inside a transaction for the swap to be atomic; see
// dbx.WithTx.
func (r *PostgresRepository) Replace(ctx context.Context, owner string, kind models.TimelineKind, lines []string) error {
	query := `DELETE FROM timeline_lines WHERE owner_id = $1 AND kind = $2`

	if _, err := r.db.ExecContext(ctx, query, owner, string(kind)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, l := range lines {
		if err := r.Append(ctx, owner, kind, l); err != nil {
			return err
		}
	}
	return nil
}
