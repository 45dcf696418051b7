package payment

import (
	"context"
	"errors"
	"fmt"

	"billing-be/internal/gateway"
	"billing-be/internal/logger"
	"billing-be/internal/metrics"
	"billing-be/internal/plan"
	"billing-be/internal/transaction"
	"billing-be/internal/user"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	StatusPaymentPending   = "Payment pending"
	StatusWebhookProcessed = "Webhook processed"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Settings are the service wide payment options.
type Settings struct {
	Currency           string
	DefaultAmount      float64
	CallbackSuccessURL string
	CallbackFailedURL  string
}

type PayInput struct {
	UserID         int64
	PaymentGateway string `validate:"required,max=50"`
	Plan           string `validate:"required,max=50"`
	FirstName      string `validate:"omitempty,max=100"`
	LastName       string `validate:"omitempty,max=100"`
	Phone          string `validate:"omitempty,max=20"`
	IsTest         bool
}

type PayResult struct {
	Status        string
	TransactionID int64
	RedirectURL   string
}

// WebhookAck is what the provider receives: a redirect when RedirectURL is
// set, a JSON body otherwise.
type WebhookAck struct {
	RedirectURL string
	Body        map[string]string
}

type Service struct {
	registry *Registry
	gateways gateway.Repository
	plans    plan.Repository
	users    user.Repository
	notifier Notifier
	settings Settings
	tracer   trace.Tracer
}

func NewService(
	registry *Registry,
	gateways gateway.Repository,
	plans plan.Repository,
	users user.Repository,
	notifier Notifier,
	settings Settings,
) *Service {
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, Event) {})
	}
	return &Service{
		registry: registry,
		gateways: gateways,
		plans:    plans,
		users:    users,
		notifier: notifier,
		settings: settings,
		tracer:   otel.Tracer("billing-be/payment"),
	}
}

// Pay opens a transaction with the requested gateway.
func (s *Service) Pay(ctx context.Context, in PayInput) (res *PayResult, err error) {
	ctx, span := s.tracer.Start(ctx, "payment.Pay",
		trace.WithAttributes(
			attribute.String("payment.gateway", in.PaymentGateway),
			attribute.String("payment.plan", in.Plan),
		),
	)
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int64("payment.transaction_id", res.TransactionID))
			span.SetStatus(codes.Ok, "")
		}
		metrics.PaymentsInitiated.WithLabelValues(in.PaymentGateway, outcome).Inc()
		span.End()
	}()

	ctx = logger.WithFields(ctx,
		zap.String("gateway", in.PaymentGateway),
		zap.Int64("user_id", in.UserID),
	)
	log := logger.FromCtx(ctx)

	if in.UserID <= 0 {
		return nil, ErrUserNotAuthenticated
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	u, err := s.users.FindByID(ctx, in.UserID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrUserNotAuthenticated
	}
	if err != nil {
		return nil, err
	}

	gw, err := s.gateways.FindEnabledByName(ctx, in.PaymentGateway)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotIdentified, in.PaymentGateway)
	}
	if err != nil {
		return nil, err
	}

	driver, err := s.registry.Driver(gw.Name)
	if err != nil {
		return nil, err
	}

	amount := s.settings.DefaultAmount
	p, err := s.plans.FindActiveByTitle(ctx, gw.ID, in.Plan)
	switch {
	case err == nil:
		amount = p.Price
	case errors.Is(err, plan.ErrNotFound):
		log.Info("no plan configured, using default amount", zap.String("plan", in.Plan))
	default:
		return nil, err
	}

	intent, err := NewIntent(IntentParams{
		User:      *u,
		Gateway:   *gw,
		Currency:  s.settings.Currency,
		Amount:    amount,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		IsTest:    in.IsTest,
		Plan:      in.Plan,
	})
	if err != nil {
		return nil, err
	}

	initiation, err := driver.Initiate(ctx, intent)
	if err != nil {
		return nil, err
	}
	tx := initiation.Transaction

	s.notifier.Emit(ctx, PaymentInitiated{
		Gateway:       gw.Name,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Plan:          in.Plan,
		IsTest:        in.IsTest,
	})

	res = &PayResult{Status: StatusPaymentPending, TransactionID: tx.ID}
	if driver.Capabilities().NeedsPaymentRedirect {
		res.RedirectURL = initiation.RedirectURL
	}

	log.Info("payment initiated", zap.Int64("transaction_id", tx.ID))
	return res, nil
}

// Webhook applies a provider callback. The returned ack is never nil: on
// failure it points at the failed callback page and err carries the reason.
func (s *Service) Webhook(ctx context.Context, req *WebhookRequest) (ack *WebhookAck, err error) {
	ctx, span := s.tracer.Start(ctx, "payment.Webhook")
	gatewayName := "unknown"
	defer func() {
		outcome := metrics.OutcomeSuccess
		switch {
		case errors.Is(err, ErrPaymentFinishedFailure):
			outcome = metrics.OutcomeFailure
		case err != nil:
			outcome = metrics.OutcomeRejected
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("payment.gateway", gatewayName))
		metrics.WebhooksReceived.WithLabelValues(gatewayName, outcome).Inc()
		span.End()
	}()

	gw, driver, err := s.registry.Identify(ctx, req.Payload)
	if err != nil {
		return s.reject(ctx, req, err)
	}
	gatewayName = gw.Name
	ctx = logger.WithFields(ctx, zap.String("gateway", gw.Name))

	if !driver.ValidateRequest(ctx, req) {
		return s.reject(ctx, req, ErrSignatureInvalid)
	}

	tx, err := driver.HandleCallback(ctx, gw, req.Payload)
	if err != nil {
		return s.reject(ctx, req, err)
	}
	span.SetAttributes(
		attribute.Int64("payment.transaction_id", tx.ID),
		attribute.String("payment.status", string(tx.Status)),
	)

	event := WebhookReceived{Gateway: gw.Name, Transaction: tx, Header: req.Header}
	if tx.Status == transaction.StatusSuccess {
		p, perr := driver.ResolvePlan(ctx, tx)
		if perr != nil {
			logger.FromCtx(ctx).Warn("failed to resolve plan for transaction",
				zap.Int64("transaction_id", tx.ID),
				zap.Error(perr),
			)
		}
		event.Plan = p
	}
	s.notifier.Emit(ctx, event)

	logger.FromCtx(ctx).Info("webhook processed",
		zap.Int64("transaction_id", tx.ID),
		zap.String("status", string(tx.Status)),
	)

	if driver.Capabilities().NeedsPostCallbackRedirect {
		return &WebhookAck{RedirectURL: s.settings.CallbackSuccessURL}, nil
	}
	return &WebhookAck{Body: map[string]string{"status": StatusWebhookProcessed}}, nil
}

func (s *Service) reject(ctx context.Context, req *WebhookRequest, reason error) (*WebhookAck, error) {
	logger.FromCtx(ctx).Error("webhook rejected",
		zap.Error(reason),
		zap.String("method", req.Method),
		zap.String("uri", req.URI),
		zap.Any("payload", req.Payload),
	)
	return &WebhookAck{RedirectURL: s.settings.CallbackFailedURL}, reason
}
