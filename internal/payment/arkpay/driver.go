package arkpay

import (
	"context"
	"net/http"
	"strconv"
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
	Name = "arkpay"

	transactionsPath = "/merchant/api/transactions"
	// signedURI is the path arkpay signs requests against, including its API prefix.
	signedURI = "/api/v1" + transactionsPath
	callback  = "/api/v1/payment/callback"
	timeout   = 5 * time.Second
)

type Config struct {
	APIURL string
	APIKey string
	Secret string
	AppURL string
}

type Driver struct {
	cfg      Config
	life     payment.Lifecycle
	resolver *payment.Resolver
	sender   payment.Sender
}

func New(cfg Config, deps payment.Deps) *Driver {
	if cfg.Secret == "" {
		logger.L().Warn("arkpay secret is empty, webhooks will be rejected")
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

func (d *Driver) CanAccept(p payment.Payload) bool {
	return p.Has("merchantTransactionId", "externalCustomerId", "amount")
}

func (d *Driver) ValidateRequest(_ context.Context, req *payment.WebhookRequest) bool {
	return Verify(d.cfg.Secret, req.Method, req.URI, req.Body, req.Header.Get("signature"))
}

func (d *Driver) BuildOutboundRequest(intent payment.Intent, tx *transaction.Transaction) (*payment.OutboundRequest, error) {
	body, err := buildTransactionBody(intent, tx, d.cfg.AppURL+callback)
	if err != nil {
		return nil, err
	}
	return &payment.OutboundRequest{
		Method: http.MethodPost,
		URL:    d.cfg.APIURL + transactionsPath,
		Header: map[string]string{
			"x-api-key":    d.cfg.APIKey,
			"signature":    Sign(d.cfg.Secret, http.MethodPost, signedURI, body),
			"Content-Type": "application/json",
		},
		Body: body,
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
		perr := payment.NewProcessingError(Name, resp.StatusCode, http.StatusText(resp.StatusCode))
		return nil, d.life.FailStart(ctx, tx, resp.StatusCode, string(resp.Body), perr)
	}

	tx, err = d.life.MarkPending(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &payment.Initiation{Transaction: tx}, nil
}

func (d *Driver) HandleCallback(ctx context.Context, gw *gateway.Gateway, p payment.Payload) (*transaction.Transaction, error) {
	tx, err := d.resolver.Resolve(ctx, p.String("merchantTransactionId"), false)
	if err != nil {
		return nil, err
	}
	if err := d.life.CheckCallback(tx, gw); err != nil {
		return nil, err
	}
	if !consistent(tx, p) {
		logger.FromCtx(ctx).Warn("arkpay webhook does not match transaction",
			zap.Int64("transaction_id", tx.ID),
			zap.String("external_customer_id", p.String("externalCustomerId")),
			zap.String("amount", p.String("amount")),
		)
		return nil, payment.ErrTransactionInconsistent
	}

	switch status := strings.ToUpper(p.String("status")); status {
	case "COMPLETED":
		return d.life.Advance(ctx, tx, transaction.StatusSuccess, nil, nil)
	case "FAILED", "REFUNDED":
		return d.life.Fail(ctx, tx)
	default:
		logger.FromCtx(ctx).Info("arkpay status leaves transaction pending",
			zap.Int64("transaction_id", tx.ID),
			zap.String("status", status),
		)
		return tx, nil
	}
}

// consistent requires the customer and amount to match what was sent, and the
// merchant id to match when one was recorded.
func consistent(tx *transaction.Transaction, p payment.Payload) bool {
	if p.String("externalCustomerId") != strconv.FormatInt(tx.UserID, 10) {
		return false
	}
	amount, ok := p.Float("amount")
	if !ok || !payment.SameAmount(amount, tx.Amount) {
		return false
	}
	if mid := tx.Metadata[transaction.MetaMerchantID]; mid != "" && p.String("mid") != mid {
		return false
	}
	return true
}

// ResolvePlan returns nil: arkpay transactions carry no plan metadata.
func (d *Driver) ResolvePlan(context.Context, *transaction.Transaction) (*plan.Plan, error) {
	return nil, nil
}
