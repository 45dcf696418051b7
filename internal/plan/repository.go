package plan

import (
	"context"
	"database/sql"
	"errors"

	"billing-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	FindActiveByTitle(ctx context.Context, gatewayID int64, title string) (*Plan, error)
	FindActiveByTitleFragment(ctx context.Context, gatewayID int64, fragment string) (*Plan, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const columns = `id, title, price, duration_days, payment_gateway_id, is_active`

func (r *repository) FindActiveByTitle(ctx context.Context, gatewayID int64, title string) (*Plan, error) {
	q := `
	SELECT ` + columns + `
	FROM subscription
	WHERE payment_gateway_id = $1 AND LOWER(title) = LOWER($2) AND is_active = TRUE
	ORDER BY id
	LIMIT 1`

	return r.findOne(ctx, "FindActiveByTitle", q, gatewayID, title)
}

// FindActiveByTitleFragment is a heuristic lookup: several plans may match and
// the oldest one wins.
func (r *repository) FindActiveByTitleFragment(ctx context.Context, gatewayID int64, fragment string) (*Plan, error) {
	q := `
	SELECT ` + columns + `
	FROM subscription
	WHERE payment_gateway_id = $1 AND title ILIKE '%' || $2 || '%' AND is_active = TRUE
	ORDER BY id
	LIMIT 1`

	return r.findOne(ctx, "FindActiveByTitleFragment", q, gatewayID, fragment)
}

func (r *repository) findOne(ctx context.Context, method, q string, gatewayID int64, title string) (*Plan, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", method),
		zap.Int64("gateway_id", gatewayID),
		zap.String("title", title),
	)

	var p Plan
	err := r.db.QueryRowContext(ctx, q, gatewayID, title).Scan(
		&p.ID, &p.Title, &p.Price, &p.DurationDays, &p.GatewayID, &p.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("plan not found")
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error("failed to load plan", zap.Error(err))
		return nil, err
	}
	return &p, nil
}
