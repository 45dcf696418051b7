// Package notify provides payment.Notifier sinks.
package notify

import (
	"context"

	"billing-be/internal/logger"
	"billing-be/internal/payment"

	"go.uber.org/zap"
)

// Log writes every event as a structured log line.
type Log struct{}

func (Log) Emit(ctx context.Context, event payment.Event) {
	fields := []zap.Field{zap.String("event", event.EventName())}

	switch e := event.(type) {
	case payment.PaymentInitiated:
		fields = append(fields,
			zap.String("gateway", e.Gateway),
			zap.Int64("transaction_id", e.TransactionID),
			zap.Int64("user_id", e.UserID),
			zap.Float64("amount", e.Amount),
			zap.String("currency", e.Currency),
			zap.String("plan", e.Plan),
			zap.Bool("is_test", e.IsTest),
		)
	case payment.WebhookReceived:
		fields = append(fields, zap.String("gateway", e.Gateway))
		if e.Transaction != nil {
			fields = append(fields,
				zap.Int64("transaction_id", e.Transaction.ID),
				zap.Int64("user_id", e.Transaction.UserID),
				zap.String("status", string(e.Transaction.Status)),
			)
		}
		if e.Plan != nil {
			fields = append(fields, zap.Int64("plan_id", e.Plan.ID), zap.String("plan", e.Plan.Title))
		}
	}

	logger.FromCtx(ctx).Info("payment event", fields...)
}

// Fanout forwards each event to every sink in order. A panicking sink is
// logged and does not stop the others.
type Fanout []payment.Notifier

func (f Fanout) Emit(ctx context.Context, event payment.Event) {
	for _, n := range f {
		emit(ctx, n, event)
	}
}

func emit(ctx context.Context, n payment.Notifier, event payment.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromCtx(ctx).Error("notifier panicked",
				zap.String("event", event.EventName()),
				zap.Any("panic", r),
			)
		}
	}()
	n.Emit(ctx, event)
}
