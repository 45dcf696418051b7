package payment

import (
	"context"
	"errors"
	"time"

	"billing-be/internal/gateway"
	"billing-be/internal/logger"
	"billing-be/internal/transaction"

	"go.uber.org/zap"
)

const maxLogMessage = 1024

// Lifecycle is the transaction bookkeeping shared by all drivers.
type Lifecycle struct {
	Gateway string
	Repo    transaction.Repository
}

// Open creates the start row for an initiation.
func (l Lifecycle) Open(ctx context.Context, intent Intent) (*transaction.Transaction, error) {
	tx, err := l.Repo.Create(ctx, transaction.NewTransaction{
		UserID:    intent.User().ID,
		GatewayID: intent.Gateway().ID,
		Amount:    intent.Amount(),
		Currency:  intent.Currency(),
	})
	if err != nil {
		logger.FromCtx(ctx).Error("failed to create transaction",
			zap.String("gateway", l.Gateway),
			zap.Int64("user_id", intent.User().ID),
			zap.Error(err),
		)
		return nil, err
	}
	return tx, nil
}

func (l Lifecycle) MarkPending(ctx context.Context, tx *transaction.Transaction) (*transaction.Transaction, error) {
	return l.Repo.UpdateStatus(ctx, transaction.StatusUpdate{
		ID:       tx.ID,
		From:     transaction.StatusStart,
		To:       transaction.StatusPending,
		Metadata: tx.Metadata,
	})
}

// FailStart moves tx to failure_on_start, records a transaction log and
// returns cause so callers can `return nil, l.FailStart(...)`.
func (l Lifecycle) FailStart(ctx context.Context, tx *transaction.Transaction, statusCode int, message string, cause error) error {
	log := logger.FromCtx(ctx).With(
		zap.String("gateway", l.Gateway),
		zap.Int64("transaction_id", tx.ID),
	)

	if len(message) > maxLogMessage {
		message = message[:maxLogMessage]
	}

	if _, err := l.Repo.UpdateStatus(ctx, transaction.StatusUpdate{
		ID:       tx.ID,
		From:     transaction.StatusStart,
		To:       transaction.StatusFailureOnStart,
		Metadata: tx.Metadata,
	}); err != nil {
		log.Error("failed to mark transaction failure_on_start", zap.Error(err))
	}

	if err := l.Repo.CreateLog(ctx, tx.ID, statusCode, message); err != nil {
		log.Error("failed to write transaction log", zap.Error(err))
	}

	log.Error("payment initiation failed",
		zap.Int("status_code", statusCode),
		zap.String("message", message),
		zap.Error(cause),
	)
	return cause
}

// Send calls the provider and turns transport failures into CommunicationError.
func (l Lifecycle) Send(ctx context.Context, sender Sender, req *OutboundRequest, timeout time.Duration) (*OutboundResponse, error) {
	resp, err := sender.Send(ctx, req, timeout)
	if err != nil {
		logger.FromCtx(ctx).Error("provider request failed",
			zap.String("gateway", l.Gateway),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return nil, &CommunicationError{Gateway: l.Gateway, Err: err}
	}
	return resp, nil
}

// CheckCallback rejects callbacks for rows owned by another gateway or no
// longer pending.
func (l Lifecycle) CheckCallback(tx *transaction.Transaction, gw *gateway.Gateway) error {
	if gw != nil && tx.GatewayID != gw.ID {
		return ErrTransactionInconsistent
	}
	if tx.Status != transaction.StatusPending {
		return ErrPaymentNotPending
	}
	return nil
}

// Advance performs the compare-and-set pending -> to. Metadata replaces the
// stored bag; a nil amount keeps the recorded one.
func (l Lifecycle) Advance(ctx context.Context, tx *transaction.Transaction, to transaction.Status, metadata transaction.Metadata, amount *float64) (*transaction.Transaction, error) {
	if metadata == nil {
		metadata = tx.Metadata
	}

	updated, err := l.Repo.UpdateStatus(ctx, transaction.StatusUpdate{
		ID:       tx.ID,
		From:     transaction.StatusPending,
		To:       to,
		Metadata: metadata,
		Amount:   amount,
	})
	if errors.Is(err, transaction.ErrStatusConflict) {
		return nil, ErrPaymentNotPending
	}
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("transaction status updated",
		zap.String("gateway", l.Gateway),
		zap.Int64("transaction_id", tx.ID),
		zap.String("from", string(transaction.StatusPending)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

// Fail records a provider reported failure and still reports it as an error.
func (l Lifecycle) Fail(ctx context.Context, tx *transaction.Transaction) (*transaction.Transaction, error) {
	updated, err := l.Advance(ctx, tx, transaction.StatusFailureOnFinish, nil, nil)
	if err != nil {
		return nil, err
	}
	return updated, ErrPaymentFinishedFailure
}
