package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"billing-be/internal/payment"
	"billing-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Pay(ctx context.Context, in payment.PayInput) (*payment.PayResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*payment.PayResult)
	return res, args.Error(1)
}

func (m *mockService) Webhook(ctx context.Context, req *payment.WebhookRequest) (*payment.WebhookAck, error) {
	args := m.Called(ctx, req)
	ack, _ := args.Get(0).(*payment.WebhookAck)
	return ack, args.Error(1)
}

func withUser(r *http.Request, id int64) *http.Request {
	return r.WithContext(utils.SetUserContext(r.Context(), id, "user@example.com"))
}

func TestPay(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(mockService)
		h := New(svc)

		svc.On("Pay", mock.Anything, payment.PayInput{
			UserID:         7,
			PaymentGateway: "arkpay",
			Plan:           "premium",
			FirstName:      "Ada",
			IsTest:         true,
		}).Return(&payment.PayResult{
			Status:        payment.StatusPaymentPending,
			TransactionID: 42,
			RedirectURL:   "https://arkpay.test/pay/42",
		}, nil)

		body := `{"payment_gateway":"arkpay","plan":"premium","first_name":"Ada","is_test":true}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(body)), 7)
		rec := httptest.NewRecorder()

		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"status":"Payment pending","transactionId":42,"redirectUrl":"https://arkpay.test/pay/42"}`,
			rec.Body.String(),
		)
		svc.AssertExpectations(t)
	})

	t.Run("No redirect url is omitted", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Pay", mock.Anything, mock.Anything).
			Return(&payment.PayResult{Status: payment.StatusPaymentPending, TransactionID: 3}, nil)

		req := withUser(httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(`{"payment_gateway":"myxspend","plan":"basic"}`)), 7)
		rec := httptest.NewRecorder()
		New(svc).Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"Payment pending","transactionId":3}`, rec.Body.String())
	})

	t.Run("Anonymous", func(t *testing.T) {
		svc := new(mockService)
		req := httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		New(svc).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "Pay", mock.Anything, mock.Anything)
	})

	t.Run("Malformed body", func(t *testing.T) {
		svc := new(mockService)
		req := withUser(httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(`{"plan":`)), 7)
		rec := httptest.NewRecorder()

		New(svc).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid request body")
		svc.AssertNotCalled(t, "Pay", mock.Anything, mock.Anything)
	})

	errCases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", fmt.Errorf("%w: plan required", payment.ErrInvalidInput), http.StatusBadRequest},
		{"user missing", payment.ErrUserNotAuthenticated, http.StatusUnauthorized},
		{"unknown gateway", fmt.Errorf("%w: nope", payment.ErrGatewayNotIdentified), http.StatusNotFound},
		{"unsupported gateway", payment.ErrGatewayUnsupported, http.StatusUnprocessableEntity},
		{"provider rejected", payment.NewProcessingError("arkpay", http.StatusPaymentRequired, "declined"), http.StatusPaymentRequired},
		{"provider odd status", payment.NewProcessingError("instaxchange", http.StatusOK, ""), http.StatusBadGateway},
		{"communication", &payment.CommunicationError{Gateway: "arkpay", Err: context.DeadlineExceeded}, http.StatusBadGateway},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range errCases {
		t.Run("Error "+tc.name, func(t *testing.T) {
			svc := new(mockService)
			svc.On("Pay", mock.Anything, mock.Anything).Return(nil, tc.err)

			req := withUser(httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(`{"payment_gateway":"x","plan":"y"}`)), 7)
			rec := httptest.NewRecorder()
			New(svc).Routes().ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			var out map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.NotEmpty(t, out["error"])
		})
	}

	t.Run("Internal errors are not leaked", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Pay", mock.Anything, mock.Anything).Return(nil, errors.New("pq: password authentication failed"))

		req := withUser(httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(`{}`)), 7)
		rec := httptest.NewRecorder()
		New(svc).Routes().ServeHTTP(rec, req)

		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func TestCallback(t *testing.T) {
	t.Run("JSON body merged with query", func(t *testing.T) {
		svc := new(mockService)
		body := `{"id":"10","status":"COMPLETED","amount":19.99}`

		svc.On("Webhook", mock.Anything, mock.MatchedBy(func(req *payment.WebhookRequest) bool {
			return req.Method == http.MethodPost &&
				req.URI == "/callback?src=ark" &&
				string(req.Body) == body &&
				req.Payload.String("id") == "10" &&
				req.Payload.String("src") == "ark" &&
				req.Header.Get("Signature") == "sig"
		})).Return(&payment.WebhookAck{Body: map[string]string{"status": payment.StatusWebhookProcessed}}, nil)

		req := httptest.NewRequest(http.MethodPost, "/callback?src=ark", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Signature", "sig")
		rec := httptest.NewRecorder()

		New(svc).Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"Webhook processed"}`, rec.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("Form body answered with redirect", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Webhook", mock.Anything, mock.MatchedBy(func(req *payment.WebhookRequest) bool {
			return req.Payload.String("eventType") == "NewSaleSuccess" && req.Payload.String("X-sales_id") == "5"
		})).Return(&payment.WebhookAck{RedirectURL: "https://billing.example.com/payment/success"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader("eventType=NewSaleSuccess&X-sales_id=5"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		New(svc).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://billing.example.com/payment/success", rec.Header().Get("Location"))
	})

	t.Run("GET callback uses the query", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Webhook", mock.Anything, mock.MatchedBy(func(req *payment.WebhookRequest) bool {
			return req.Method == http.MethodGet && req.Payload.String("sales_id") == "8"
		})).Return(&payment.WebhookAck{RedirectURL: "/payment/success"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/callback?sales_id=8", nil)
		rec := httptest.NewRecorder()

		New(svc).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Rejected webhook still acknowledged", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Webhook", mock.Anything, mock.Anything).
			Return(&payment.WebhookAck{RedirectURL: "https://billing.example.com/payment/failed"}, payment.ErrSignatureInvalid)

		req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"id":"1"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		New(svc).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://billing.example.com/payment/failed", rec.Header().Get("Location"))
	})

	t.Run("Unreadable body falls back to query", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Webhook", mock.Anything, mock.MatchedBy(func(req *payment.WebhookRequest) bool {
			return len(req.Payload) == 1 && req.Payload.String("ref") == "x"
		})).Return(&payment.WebhookAck{RedirectURL: "/payment/failed"}, payment.ErrGatewayNotIdentified)

		req := httptest.NewRequest(http.MethodPost, "/callback?ref=x", strings.NewReader("<xml/>"))
		req.Header.Set("Content-Type", "text/xml")
		rec := httptest.NewRecorder()

		New(svc).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		svc.AssertExpectations(t)
	})
}
