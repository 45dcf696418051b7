package payment

import (
	"context"
	"net/http"
	"time"

	"billing-be/internal/gateway"
	"billing-be/internal/plan"
	"billing-be/internal/transaction"
	"billing-be/internal/user"
)

// Driver is one provider integration.
type Driver interface {
	Name() string
	Capabilities() gateway.Capabilities

	// CanAccept recognises the provider from the shape of an unattributed webhook.
	CanAccept(payload Payload) bool
	// ValidateRequest checks authenticity. It never writes.
	ValidateRequest(ctx context.Context, req *WebhookRequest) bool

	BuildOutboundRequest(intent Intent, tx *transaction.Transaction) (*OutboundRequest, error)
	Initiate(ctx context.Context, intent Intent) (*Initiation, error)
	HandleCallback(ctx context.Context, gw *gateway.Gateway, payload Payload) (*transaction.Transaction, error)

	// ResolvePlan is a best effort reverse lookup; nil means unknown.
	ResolvePlan(ctx context.Context, tx *transaction.Transaction) (*plan.Plan, error)
}

// Initiation is the result of a successful Initiate.
type Initiation struct {
	Transaction *transaction.Transaction
	RedirectURL string
}

type OutboundRequest struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

type OutboundResponse struct {
	StatusCode int
	Body       []byte
}

// Sender performs outbound provider calls. Transport failures are returned as
// errors; any HTTP status is a response.
type Sender interface {
	Send(ctx context.Context, req *OutboundRequest, timeout time.Duration) (*OutboundResponse, error)
}

// WebhookRequest is an inbound provider callback.
type WebhookRequest struct {
	Method  string
	URI     string
	Header  http.Header
	Body    []byte
	Payload Payload
}

// Deps are the collaborators handed to every driver at construction.
type Deps struct {
	Transactions transaction.Repository
	Resolver     *Resolver
	Sender       Sender
	Plans        plan.Repository
	Users        user.Repository
}
