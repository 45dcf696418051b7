package myxspend

import (
	"context"
	"errors"
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
	Name = "myxspend"

	loginPath   = "/v1/auth/login"
	processPath = "/v1/payment/process"
	timeout     = 10 * time.Second

	planFragment = "myxspend"
)

type Config struct {
	APIURL    string
	APIKey    string
	CompanyID string
	Email     string
	Password  string
}

type Driver struct {
	cfg      Config
	life     payment.Lifecycle
	resolver *payment.Resolver
	sender   payment.Sender
	plans    plan.Repository
}

func New(cfg Config, deps payment.Deps) *Driver {
	return &Driver{
		cfg:      cfg,
		life:     payment.Lifecycle{Gateway: Name, Repo: deps.Transactions},
		resolver: deps.Resolver,
		sender:   deps.Sender,
		plans:    deps.Plans,
	}
}

func (d *Driver) Name() string { return Name }

func (d *Driver) Capabilities() gateway.Capabilities {
	return gateway.Capabilities{
		NeedsPaymentRedirect:      true,
		NeedsPostCallbackRedirect: true,
		UsesHashedTransactionIDs:  true,
	}
}

func (d *Driver) CanAccept(p payment.Payload) bool {
	return p.Has("customerOrderId", "status", "dateTime")
}

// ValidateRequest accepts a callback whose order id resolves to a pending
// transaction; myxspend does not sign webhooks.
func (d *Driver) ValidateRequest(ctx context.Context, req *payment.WebhookRequest) bool {
	_, err := d.resolver.Resolve(ctx, req.Payload.String("customerOrderId"), true)
	if err != nil && !errors.Is(err, payment.ErrTransactionNotFound) {
		logger.FromCtx(ctx).Error("failed to resolve myxspend order", zap.Error(err))
	}
	return err == nil
}

// BuildOutboundRequest returns the payment call without the bearer token,
// which Initiate adds once it has logged in.
func (d *Driver) BuildOutboundRequest(intent payment.Intent, tx *transaction.Transaction) (*payment.OutboundRequest, error) {
	body, err := buildProcessBody(intent, tx, d.resolver.Salt())
	if err != nil {
		return nil, err
	}
	return &payment.OutboundRequest{
		Method: http.MethodPost,
		URL:    d.cfg.APIURL + processPath,
		Header: map[string]string{
			"X-API-KEY":    d.cfg.APIKey,
			"X-COMPANY-ID": d.cfg.CompanyID,
			"Content-Type": "application/json",
		},
		Body: body,
	}, nil
}

func (d *Driver) login(ctx context.Context) (string, *payment.OutboundResponse, error) {
	body, err := payment.MarshalJSON(loginRequest{Email: d.cfg.Email, Password: d.cfg.Password})
	if err != nil {
		return "", nil, err
	}

	resp, err := d.life.Send(ctx, d.sender, &payment.OutboundRequest{
		Method: http.MethodPost,
		URL:    d.cfg.APIURL + loginPath,
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   body,
	}, timeout)
	if err != nil {
		return "", nil, err
	}

	token := decode[loginResponse](resp.Body).Token
	if resp.StatusCode != http.StatusOK || token == "" {
		status := resp.StatusCode
		if status == http.StatusOK {
			status = http.StatusUnauthorized
		}
		return "", resp, payment.NewProcessingError(Name, status, "authentication failed")
	}
	return token, resp, nil
}

func (d *Driver) Initiate(ctx context.Context, intent payment.Intent) (*payment.Initiation, error) {
	tx, err := d.life.Open(ctx, intent)
	if err != nil {
		return nil, err
	}

	token, loginResp, err := d.login(ctx)
	if err != nil {
		status := 0
		if loginResp != nil {
			status = loginResp.StatusCode
		}
		return nil, d.life.FailStart(ctx, tx, status, err.Error(), err)
	}

	req, err := d.BuildOutboundRequest(intent, tx)
	if err != nil {
		return nil, d.life.FailStart(ctx, tx, 0, err.Error(), err)
	}
	req.Header["Authorization"] = "Bearer " + token

	resp, err := d.life.Send(ctx, d.sender, req, timeout)
	if err != nil {
		return nil, d.life.FailStart(ctx, tx, 0, err.Error(), err)
	}

	out := decode[processResponse](resp.Body)
	if resp.StatusCode != http.StatusOK || out.PaymentLink == "" {
		message := out.Message
		if message == "" {
			message = "payment processing failed"
		}
		status := resp.StatusCode
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
		perr := payment.NewProcessingError(Name, status, message)
		return nil, d.life.FailStart(ctx, tx, resp.StatusCode, message, perr)
	}

	tx, err = d.life.MarkPending(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &payment.Initiation{Transaction: tx, RedirectURL: out.PaymentLink}, nil
}

func (d *Driver) HandleCallback(ctx context.Context, gw *gateway.Gateway, p payment.Payload) (*transaction.Transaction, error) {
	tx, err := d.resolver.Resolve(ctx, p.String("customerOrderId"), true)
	if err != nil {
		return nil, err
	}
	if err := d.life.CheckCallback(tx, gw); err != nil {
		return nil, err
	}

	switch status := strings.ToUpper(p.String("status")); status {
	case "SUCCESSFUL":
		return d.life.Advance(ctx, tx, transaction.StatusSuccess, nil, nil)
	case "EXPIRED", "REFUNDED", "UNDERPAID", "FAILED":
		return d.life.Fail(ctx, tx)
	default:
		logger.FromCtx(ctx).Info("myxspend status leaves transaction pending",
			zap.Int64("transaction_id", tx.ID),
			zap.String("status", status),
		)
		return tx, nil
	}
}

func (d *Driver) ResolvePlan(ctx context.Context, tx *transaction.Transaction) (*plan.Plan, error) {
	p, err := d.plans.FindActiveByTitleFragment(ctx, tx.GatewayID, planFragment)
	if errors.Is(err, plan.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
