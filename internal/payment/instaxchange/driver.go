package instaxchange

import (
	"context"
	"net/http"
	"strings"
	"time"

	"billing-be/internal/gateway"
	"billing-be/internal/logger"
	"billing-be/internal/payment"
	"billing-be/internal/plan"
	"billing-be/internal/transaction"

	"go.uber.org/zap"
)

const (
	Name = "instaxchange"

	sessionPath = "/api/session"
	timeout     = 5 * time.Second
)

type Config struct {
	APIURL       string
	AccountRefID string
	SecretKey    string
}

type Driver struct {
	cfg      Config
	life     payment.Lifecycle
	resolver *payment.Resolver
	sender   payment.Sender
}

func New(cfg Config, deps payment.Deps) *Driver {
	if cfg.SecretKey == "" {
		logger.L().Warn("instaxchange secret key is empty, webhooks will be rejected")
	}
	return &Driver{
		cfg:      cfg,
		life:     payment.Lifecycle{Gateway: Name, Repo: deps.Transactions},
		resolver: deps.Resolver,
		sender:   deps.Sender,
	}
}

func (d *Driver) Name() string { return Name }

func (d *Driver) Capabilities() gateway.Capabilities { return gateway.Capabilities{} }

// CanAccept excludes eventType so ccbill events carrying a reference field
// are not claimed twice.
func (d *Driver) CanAccept(p payment.Payload) bool {
	return p.Has("reference", "data") && !p.Has("eventType")
}

func (d *Driver) ValidateRequest(_ context.Context, req *payment.WebhookRequest) bool {
	return VerifyKey(req.Body, d.cfg.SecretKey, req.Header.Get(KeyHeader))
}

func (d *Driver) BuildOutboundRequest(intent payment.Intent, tx *transaction.Transaction) (*payment.OutboundRequest, error) {
	body, err := buildSessionBody(d.cfg.AccountRefID, intent, tx)
	if err != nil {
		return nil, err
	}
	return &payment.OutboundRequest{
		Method: http.MethodPost,
		URL:    d.cfg.APIURL + sessionPath,
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   body,
	}, nil
}

func (d *Driver) Initiate(ctx context.Context, intent payment.Intent) (*payment.Initiation, error) {
	tx, err := d.life.Open(ctx, intent)
	if err != nil {
		return nil, err
	}

	req, err := d.BuildOutboundRequest(intent, tx)
	if err != nil {
		return nil, d.life.FailStart(ctx, tx, 0, err.Error(), err)
	}

	resp, err := d.life.Send(ctx, d.sender, req, timeout)
	if err != nil {
		return nil, d.life.FailStart(ctx, tx, 0, err.Error(), err)
	}

	if resp.StatusCode != http.StatusCreated {
		reason := http.StatusText(resp.StatusCode)
		perr := payment.NewProcessingError(Name, resp.StatusCode, reason)
		return nil, d.life.FailStart(ctx, tx, resp.StatusCode, reason, perr)
	}

	tx, err = d.life.MarkPending(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &payment.Initiation{Transaction: tx}, nil
}

func (d *Driver) HandleCallback(ctx context.Context, gw *gateway.Gateway, p payment.Payload) (*transaction.Transaction, error) {
	tx, err := d.resolver.Resolve(ctx, p.String("reference"), false)
	if err != nil {
		return nil, err
	}
	if err := d.life.CheckCallback(tx, gw); err != nil {
		return nil, err
	}

	data := p.Object("data")
	if data == nil {
		return nil, payment.ErrTransactionInconsistent
	}

	switch status := strings.ToLower(data.String("status")); status {
	case "completed":
		return d.life.Advance(ctx, tx, transaction.StatusSuccess, nil, nil)
	case "failed", "refunded":
		return d.life.Fail(ctx, tx)
	default:
		logger.FromCtx(ctx).Info("instaxchange status leaves transaction pending",
			zap.Int64("transaction_id", tx.ID),
			zap.String("status", status),
		)
		return tx, nil
	}
}

func (d *Driver) ResolvePlan(context.Context, *transaction.Transaction) (*plan.Plan, error) {
	return nil, nil
}
