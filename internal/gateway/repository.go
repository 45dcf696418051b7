package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository interface {
	FindEnabledByName(ctx context.Context, name string) (*Gateway, error)
	ListEnabled(ctx context.Context) ([]Gateway, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindEnabledByName(ctx context.Context, name string) (*Gateway, error) {
	var g Gateway
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, is_enabled
		FROM payment_gateway
		WHERE name = $1 AND is_enabled = TRUE
	`, name).Scan(&g.ID, &g.Name, &g.IsEnabled)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find gateway %q: %w", name, err)
	}
	return &g, nil
}

func (r *repository) ListEnabled(ctx context.Context) ([]Gateway, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, is_enabled
		FROM payment_gateway
		WHERE is_enabled = TRUE
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list gateways: %w", err)
	}
	defer rows.Close()

	var out []Gateway
	for rows.Next() {
		var g Gateway
		if err := rows.Scan(&g.ID, &g.Name, &g.IsEnabled); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
