package user

import (
	"context"
	"database/sql"
	"errors"

	"billing-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Email)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load user",
			zap.Int64("user_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return &u, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)",
		id,
	).Scan(&exists)
	return exists, err
}
