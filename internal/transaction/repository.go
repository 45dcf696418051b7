package transaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type Repository interface {
	Create(ctx context.Context, in NewTransaction) (*Transaction, error)
	FindByID(ctx context.Context, id int64) (*Transaction, error)
	FindPendingByHash(ctx context.Context, salt, digest string) (*Transaction, error)
	FindActiveBySubscriptionID(ctx context.Context, subscriptionID string) (*Transaction, error)
	UpdateStatus(ctx context.Context, upd StatusUpdate) (*Transaction, error)
	Renew(ctx context.Context, id int64, metadata Metadata, amount *float64) (cancelled, renewed *Transaction, err error)
	CreateLog(ctx context.Context, transactionID int64, statusCode int, message string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const columns = `id, user_id, payment_gateway_id, amount, currency, status, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.GatewayID, &t.Amount, &t.Currency,
		&t.Status, &t.Metadata, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) Create(ctx context.Context, in NewTransaction) (*Transaction, error) {
	q := `
	INSERT INTO payment_gateway_transaction (user_id, payment_gateway_id, amount, currency, status, metadata)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + columns

	t, err := scanTransaction(r.db.QueryRowContext(ctx, q,
		in.UserID, in.GatewayID, in.Amount, in.Currency, StatusStart, Metadata{},
	))
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Transaction, error) {
	q := `SELECT ` + columns + ` FROM payment_gateway_transaction WHERE id = $1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction %d: %w", id, err)
	}
	return t, nil
}

// FindPendingByHash recomputes the digest in the database and only looks at
// pending rows, so the scan is bounded to in-flight payments.
func (r *repository) FindPendingByHash(ctx context.Context, salt, digest string) (*Transaction, error) {
	q := `
	SELECT ` + columns + `
	FROM payment_gateway_transaction
	WHERE status = $1 AND md5(id::text || $2) = $3
	ORDER BY id
	LIMIT 2`

	rows, err := r.db.QueryContext(ctx, q, StatusPending, salt, digest)
	if err != nil {
		return nil, fmt.Errorf("find transaction by hash: %w", err)
	}
	defer rows.Close()

	var found []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		found = append(found, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return nil, ErrAmbiguousHash
	}
}

func (r *repository) FindActiveBySubscriptionID(ctx context.Context, subscriptionID string) (*Transaction, error) {
	q := `
	SELECT ` + columns + `
	FROM payment_gateway_transaction
	WHERE metadata->>'subscription_id' = $1 AND status <> $2
	ORDER BY id DESC
	LIMIT 1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, q, subscriptionID, StatusCancelled))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction by subscription: %w", err)
	}
	return t, nil
}

// UpdateStatus applies upd only if the row is still in upd.From.
// Losing the race returns ErrStatusConflict and writes nothing.
func (r *repository) UpdateStatus(ctx context.Context, upd StatusUpdate) (*Transaction, error) {
	if !CanTransition(upd.From, upd.To) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, upd.From, upd.To)
	}

	q := `
	UPDATE payment_gateway_transaction
	SET status = $1, metadata = $2, amount = COALESCE($3, amount), updated_at = NOW()
	WHERE id = $4 AND status = $5
	RETURNING ` + columns

	t, err := scanTransaction(r.db.QueryRowContext(ctx, q,
		upd.To, upd.Metadata, upd.Amount, upd.ID, upd.From,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("update transaction %d: %w", upd.ID, err)
	}
	return t, nil
}

// Renew cancels a pending transaction and records its successor as success
// in the same database transaction.
func (r *repository) Renew(ctx context.Context, id int64, metadata Metadata, amount *float64) (*Transaction, *Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin renewal: %w", err)
	}
	defer tx.Rollback()

	cancelQ := `
	UPDATE payment_gateway_transaction
	SET status = $1, updated_at = NOW()
	WHERE id = $2 AND status = $3
	RETURNING ` + columns

	cancelled, err := scanTransaction(tx.QueryRowContext(ctx, cancelQ, StatusCancelled, id, StatusPending))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrStatusConflict
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cancel transaction %d: %w", id, err)
	}

	newAmount := cancelled.Amount
	if amount != nil {
		newAmount = *amount
	}

	insertQ := `
	INSERT INTO payment_gateway_transaction (user_id, payment_gateway_id, amount, currency, status, metadata)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + columns

	renewed, err := scanTransaction(tx.QueryRowContext(ctx, insertQ,
		cancelled.UserID, cancelled.GatewayID, newAmount, cancelled.Currency,
		StatusSuccess, cancelled.Metadata.Merge(metadata),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("create renewal of %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit renewal: %w", err)
	}
	return cancelled, renewed, nil
}

func (r *repository) CreateLog(ctx context.Context, transactionID int64, statusCode int, message string) error {
	data, err := json.Marshal(map[string]any{
		"statusCode": statusCode,
		"message":    message,
	})
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO payment_gateway_transaction_log (transaction_id, status_code, log_data)
		VALUES ($1, $2, $3)
	`, transactionID, statusCode, data)
	if err != nil {
		return fmt.Errorf("create transaction log: %w", err)
	}
	return nil
}
