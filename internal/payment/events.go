package payment

import (
	"context"
	"net/http"

	"billing-be/internal/plan"
	"billing-be/internal/transaction"
)

const (
	EventPaymentInitiated = "payment.initiated"
	EventWebhookReceived  = "payment.webhook_received"
)

type Event interface {
	EventName() string
}

type PaymentInitiated struct {
	Gateway       string
	TransactionID int64
	UserID        int64
	Amount        float64
	Currency      string
	Plan          string
	IsTest        bool
}

func (PaymentInitiated) EventName() string { return EventPaymentInitiated }

// WebhookReceived carries the transaction after the callback was applied.
// Plan is set when the transaction succeeded and a plan could be resolved.
type WebhookReceived struct {
	Gateway     string
	Transaction *transaction.Transaction
	Plan        *plan.Plan
	Header      http.Header
}

func (WebhookReceived) EventName() string { return EventWebhookReceived }

// Notifier receives events fire and forget.
type Notifier interface {
	Emit(ctx context.Context, event Event)
}

type NotifierFunc func(ctx context.Context, event Event)

func (f NotifierFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }
