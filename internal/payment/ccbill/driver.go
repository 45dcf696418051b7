// Package ccbill integrates the hosted ccbill payment forms. Payment starts
// with a browser redirect and ccbill reports back through named events.
package ccbill

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"billing-be/internal/gateway"
	"billing-be/internal/logger"
	"billing-be/internal/payment"
	"billing-be/internal/plan"
	"billing-be/internal/transaction"
	"billing-be/internal/user"

	"go.uber.org/zap"
)

const (
	Name = "ccbill"

	PlanPremium = "premium"
	PlanPro     = "pro"
)

type PlanForm struct {
	FormID string
	Price  float64
}

type Config struct {
	APIURL     string
	APIURLTest string
	Plans      map[string]PlanForm
}

type Driver struct {
	cfg      Config
	life     payment.Lifecycle
	repo     transaction.Repository
	resolver *payment.Resolver
	users    user.Repository
	plans    plan.Repository
}

func New(cfg Config, deps payment.Deps) *Driver {
	return &Driver{
		cfg:      cfg,
		life:     payment.Lifecycle{Gateway: Name, Repo: deps.Transactions},
		repo:     deps.Transactions,
		resolver: deps.Resolver,
		users:    deps.Users,
		plans:    deps.Plans,
	}
}

func (d *Driver) Name() string { return Name }

func (d *Driver) Capabilities() gateway.Capabilities {
	return gateway.Capabilities{NeedsPaymentRedirect: true}
}

func (d *Driver) CanAccept(p payment.Payload) bool {
	return p.Has("eventType")
}

// ValidateRequest trusts a callback when the promo id names a known user or,
// without one, when the subscription id belongs to a live transaction.
func (d *Driver) ValidateRequest(ctx context.Context, req *payment.WebhookRequest) bool {
	log := logger.FromCtx(ctx)

	if promo := req.Payload.First("X-promo_id", "promo_id"); promo != "" {
		id, err := strconv.ParseInt(promo, 10, 64)
		if err != nil {
			return false
		}
		ok, err := d.users.Exists(ctx, id)
		if err != nil {
			log.Error("failed to check ccbill promo user", zap.Error(err))
			return false
		}
		return ok
	}

	subscriptionID := req.Payload.String("subscriptionId")
	if subscriptionID == "" {
		return false
	}
	_, err := d.repo.FindActiveBySubscriptionID(ctx, subscriptionID)
	if err != nil && !errors.Is(err, transaction.ErrNotFound) {
		log.Error("failed to check ccbill subscription", zap.Error(err))
	}
	return err == nil
}

func planKey(name string) string {
	if name == PlanPremium {
		return PlanPremium
	}
	return PlanPro
}

func (d *Driver) redirectURL(intent payment.Intent, tx *transaction.Transaction) (string, error) {
	form, ok := d.cfg.Plans[planKey(intent.Plan())]
	if !ok || form.FormID == "" {
		return "", fmt.Errorf("%w: no ccbill form for plan %q", payment.ErrInvalidIntent, planKey(intent.Plan()))
	}
	base := d.cfg.APIURL
	if intent.IsTest() {
		base = d.cfg.APIURLTest
	}
	return fmt.Sprintf("%s%s?promo_id=%d&sales_id=%d", base, form.FormID, intent.User().ID, tx.ID), nil
}

// BuildOutboundRequest describes the browser redirect; ccbill is never called
// from the server.
func (d *Driver) BuildOutboundRequest(intent payment.Intent, tx *transaction.Transaction) (*payment.OutboundRequest, error) {
	u, err := d.redirectURL(intent, tx)
	if err != nil {
		return nil, err
	}
	return &payment.OutboundRequest{Method: http.MethodGet, URL: u}, nil
}

func (d *Driver) Initiate(ctx context.Context, intent payment.Intent) (*payment.Initiation, error) {
	key := planKey(intent.Plan())
	form, ok := d.cfg.Plans[key]
	if !ok || form.FormID == "" {
		return nil, fmt.Errorf("%w: no ccbill form for plan %q", payment.ErrInvalidIntent, key)
	}

	intent, err := intent.WithAmount(form.Price)
	if err != nil {
		return nil, err
	}

	tx, err := d.life.Open(ctx, intent)
	if err != nil {
		return nil, err
	}
	tx, err = d.life.MarkPending(ctx, tx)
	if err != nil {
		return nil, err
	}

	req, err := d.BuildOutboundRequest(intent, tx)
	if err != nil {
		return nil, err
	}
	return &payment.Initiation{Transaction: tx, RedirectURL: req.URL}, nil
}

func (d *Driver) lookup(ctx context.Context, p payment.Payload) (*transaction.Transaction, error) {
	if salesID := p.First("sales_id", "X-sales_id"); salesID != "" {
		return d.resolver.Resolve(ctx, salesID, false)
	}

	subscriptionID := p.String("subscriptionId")
	if subscriptionID == "" {
		return nil, payment.ErrTransactionNotFound
	}
	tx, err := d.repo.FindActiveBySubscriptionID(ctx, subscriptionID)
	if errors.Is(err, transaction.ErrNotFound) {
		return nil, payment.ErrTransactionNotFound
	}
	return tx, err
}

// consistent checks the promo id against the owner or, without one, the
// subscription id against the recorded one.
func consistent(tx *transaction.Transaction, p payment.Payload) bool {
	if promo := p.First("X-promo_id", "promo_id"); promo != "" {
		return promo == strconv.FormatInt(tx.UserID, 10)
	}
	subscriptionID := p.String("subscriptionId")
	return subscriptionID != "" && subscriptionID == tx.Metadata[transaction.MetaSubscriptionID]
}

func (d *Driver) HandleCallback(ctx context.Context, gw *gateway.Gateway, p payment.Payload) (*transaction.Transaction, error) {
	tx, err := d.lookup(ctx, p)
	if err != nil {
		return nil, err
	}

	event := p.String("eventType")
	log := logger.FromCtx(ctx).With(
		zap.Int64("transaction_id", tx.ID),
		zap.String("event_type", event),
	)

	var to transaction.Status
	switch event {
	case "NewSaleSuccess", "RenewalSuccess":
		to = transaction.StatusSuccess
	case "Refund", "Chargeback", "Return":
		to = transaction.StatusRefunded
	case "Expiration", "RenewalFailure":
		to = transaction.StatusCancelled
	default:
		if gw != nil && tx.GatewayID != gw.ID {
			return nil, payment.ErrTransactionInconsistent
		}
		log.Info("ccbill neutral webhook", zap.Any("payload", p))
		return tx, nil
	}

	if err := d.life.CheckCallback(tx, gw); err != nil {
		return nil, err
	}
	if !consistent(tx, p) {
		log.Warn("ccbill webhook does not match transaction")
		return nil, payment.ErrTransactionInconsistent
	}

	if to != transaction.StatusSuccess {
		updated, err := d.life.Advance(ctx, tx, to, nil, nil)
		if err != nil {
			return nil, err
		}
		log.Info("ccbill negative webhook", zap.String("status", string(to)))
		return updated, nil
	}

	metadata := tx.Metadata.Merge(transaction.Metadata{
		transaction.MetaSubscriptionID:  p.String("subscriptionId"),
		transaction.MetaPlanName:        p.String("formName"),
		transaction.MetaRecurringPeriod: p.String("recurringPeriod"),
	})
	var amount *float64
	if price, ok := p.Float("subscriptionInitialPrice"); ok {
		amount = &price
	}

	if event == "RenewalSuccess" {
		return d.renew(ctx, tx, metadata, amount)
	}

	updated, err := d.life.Advance(ctx, tx, transaction.StatusSuccess, metadata, amount)
	if err != nil {
		return nil, err
	}
	log.Info("ccbill positive webhook", zap.Any("payload", p))
	return updated, nil
}

func (d *Driver) renew(ctx context.Context, tx *transaction.Transaction, metadata transaction.Metadata, amount *float64) (*transaction.Transaction, error) {
	cancelled, renewed, err := d.repo.Renew(ctx, tx.ID, metadata, amount)
	if errors.Is(err, transaction.ErrStatusConflict) {
		return nil, payment.ErrPaymentNotPending
	}
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("ccbill subscription renewed",
		zap.Int64("cancelled_transaction_id", cancelled.ID),
		zap.Int64("transaction_id", renewed.ID),
	)
	return renewed, nil
}

// ResolvePlan maps the recorded form name onto the premium or pro plan.
func (d *Driver) ResolvePlan(ctx context.Context, tx *transaction.Transaction) (*plan.Plan, error) {
	fragment := PlanPro
	if strings.Contains(strings.ToLower(tx.Metadata[transaction.MetaPlanName]), PlanPremium) {
		fragment = PlanPremium
	}

	p, err := d.plans.FindActiveByTitleFragment(ctx, tx.GatewayID, fragment)
	if errors.Is(err, plan.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
