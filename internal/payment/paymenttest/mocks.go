// Package paymenttest provides testify mocks for the collaborators drivers
// and the payment service depend on.
package paymenttest

import (
	"context"
	"time"

	"billing-be/internal/gateway"
	"billing-be/internal/payment"
	"billing-be/internal/plan"
	"billing-be/internal/transaction"
	"billing-be/internal/user"

	"github.com/stretchr/testify/mock"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, in transaction.NewTransaction) (*transaction.Transaction, error) {
	args := m.Called(ctx, in)
	tx, _ := args.Get(0).(*transaction.Transaction)
	return tx, args.Error(1)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id int64) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*transaction.Transaction)
	return tx, args.Error(1)
}

func (m *MockTransactionRepository) FindPendingByHash(ctx context.Context, salt, digest string) (*transaction.Transaction, error) {
	args := m.Called(ctx, salt, digest)
	tx, _ := args.Get(0).(*transaction.Transaction)
	return tx, args.Error(1)
}

func (m *MockTransactionRepository) FindActiveBySubscriptionID(ctx context.Context, subscriptionID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, subscriptionID)
	tx, _ := args.Get(0).(*transaction.Transaction)
	return tx, args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, upd transaction.StatusUpdate) (*transaction.Transaction, error) {
	args := m.Called(ctx, upd)
	tx, _ := args.Get(0).(*transaction.Transaction)
	return tx, args.Error(1)
}

func (m *MockTransactionRepository) Renew(ctx context.Context, id int64, metadata transaction.Metadata, amount *float64) (*transaction.Transaction, *transaction.Transaction, error) {
	args := m.Called(ctx, id, metadata, amount)
	cancelled, _ := args.Get(0).(*transaction.Transaction)
	renewed, _ := args.Get(1).(*transaction.Transaction)
	return cancelled, renewed, args.Error(2)
}

func (m *MockTransactionRepository) CreateLog(ctx context.Context, transactionID int64, statusCode int, message string) error {
	args := m.Called(ctx, transactionID, statusCode, message)
	return args.Error(0)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, req *payment.OutboundRequest, timeout time.Duration) (*payment.OutboundResponse, error) {
	args := m.Called(ctx, req, timeout)
	resp, _ := args.Get(0).(*payment.OutboundResponse)
	return resp, args.Error(1)
}

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindActiveByTitle(ctx context.Context, gatewayID int64, title string) (*plan.Plan, error) {
	args := m.Called(ctx, gatewayID, title)
	p, _ := args.Get(0).(*plan.Plan)
	return p, args.Error(1)
}

func (m *MockPlanRepository) FindActiveByTitleFragment(ctx context.Context, gatewayID int64, fragment string) (*plan.Plan, error) {
	args := m.Called(ctx, gatewayID, fragment)
	p, _ := args.Get(0).(*plan.Plan)
	return p, args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockGatewayRepository struct {
	mock.Mock
}

func (m *MockGatewayRepository) FindEnabledByName(ctx context.Context, name string) (*gateway.Gateway, error) {
	args := m.Called(ctx, name)
	g, _ := args.Get(0).(*gateway.Gateway)
	return g, args.Error(1)
}

func (m *MockGatewayRepository) ListEnabled(ctx context.Context) ([]gateway.Gateway, error) {
	args := m.Called(ctx)
	gws, _ := args.Get(0).([]gateway.Gateway)
	return gws, args.Error(1)
}

// Transitions returns a matcher for a status update with the given edge.
func Transitions(id int64, from, to transaction.Status) interface{} {
	return mock.MatchedBy(func(upd transaction.StatusUpdate) bool {
		return upd.ID == id && upd.From == from && upd.To == to
	})
}

// Intent builds a valid intent for tests.
func Intent(gw gateway.Gateway, userID int64, amount float64, plan string) payment.Intent {
	intent, err := payment.NewIntent(payment.IntentParams{
		User:      user.User{ID: userID, Email: "buyer@example.com"},
		Gateway:   gw,
		Currency:  "USD",
		Amount:    amount,
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "+15550100",
		Plan:      plan,
	})
	if err != nil {
		panic(err)
	}
	return intent
}

// MockDriver is a configurable payment.Driver.
type MockDriver struct {
	mock.Mock
	DriverName string
	Caps       gateway.Capabilities
}

func (m *MockDriver) Name() string { return m.DriverName }

func (m *MockDriver) Capabilities() gateway.Capabilities { return m.Caps }

func (m *MockDriver) CanAccept(p payment.Payload) bool {
	return m.Called(p).Bool(0)
}

func (m *MockDriver) ValidateRequest(ctx context.Context, req *payment.WebhookRequest) bool {
	return m.Called(ctx, req).Bool(0)
}

func (m *MockDriver) BuildOutboundRequest(intent payment.Intent, tx *transaction.Transaction) (*payment.OutboundRequest, error) {
	args := m.Called(intent, tx)
	req, _ := args.Get(0).(*payment.OutboundRequest)
	return req, args.Error(1)
}

func (m *MockDriver) Initiate(ctx context.Context, intent payment.Intent) (*payment.Initiation, error) {
	args := m.Called(ctx, intent)
	in, _ := args.Get(0).(*payment.Initiation)
	return in, args.Error(1)
}

func (m *MockDriver) HandleCallback(ctx context.Context, gw *gateway.Gateway, p payment.Payload) (*transaction.Transaction, error) {
	args := m.Called(ctx, gw, p)
	tx, _ := args.Get(0).(*transaction.Transaction)
	return tx, args.Error(1)
}

func (m *MockDriver) ResolvePlan(ctx context.Context, tx *transaction.Transaction) (*plan.Plan, error) {
	args := m.Called(ctx, tx)
	p, _ := args.Get(0).(*plan.Plan)
	return p, args.Error(1)
}
