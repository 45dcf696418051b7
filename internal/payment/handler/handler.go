// Package handler exposes the payment service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"billing-be/internal/logger"
	"billing-be/internal/middleware"
	"billing-be/internal/payment"
	"billing-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Service interface {
	Pay(ctx context.Context, in payment.PayInput) (*payment.PayResult, error)
	Webhook(ctx context.Context, req *payment.WebhookRequest) (*payment.WebhookAck, error)
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes is mounted under /api/v1/payment.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(middleware.RequireAuth).Post("/pay", h.Pay)
	r.Get("/callback", h.Callback)
	r.Post("/callback", h.Callback)
	return r
}

type payRequest struct {
	PaymentGateway string `json:"payment_gateway"`
	Plan           string `json:"plan"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Phone          string `json:"phone"`
	IsTest         bool   `json:"is_test"`
}

type payResponse struct {
	Status        string `json:"status"`
	TransactionID int64  `json:"transactionId"`
	RedirectURL   string `json:"redirectUrl,omitempty"`
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req payRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Pay(r.Context(), payment.PayInput{
		UserID:         userID,
		PaymentGateway: req.PaymentGateway,
		Plan:           req.Plan,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		IsTest:         req.IsTest,
	})
	if err != nil {
		status, message := errorResponse(err)
		logger.FromCtx(r.Context()).Warn("payment request failed",
			zap.String("gateway", req.PaymentGateway),
			zap.Int("status", status),
			zap.Error(err),
		)
		utils.WriteJSONError(w, message, status)
		return
	}

	utils.WriteJSON(w, http.StatusOK, payResponse{
		Status:        res.Status,
		TransactionID: res.TransactionID,
		RedirectURL:   res.RedirectURL,
	})
}

// Callback receives provider webhooks. The reply always follows the ack so a
// provider sees an acknowledgement even when processing failed.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	req, err := parseWebhook(w, r)
	if err != nil {
		logger.FromCtx(r.Context()).Warn("unreadable webhook body", zap.Error(err))
	}

	ack, err := h.svc.Webhook(r.Context(), req)
	if err != nil {
		logger.FromCtx(r.Context()).Info("webhook not applied", zap.Error(err))
	}

	if ack.RedirectURL != "" {
		http.Redirect(w, r, ack.RedirectURL, http.StatusFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ack.Body)
}

// parseWebhook always returns a request; on a body error the payload holds
// only the query parameters.
func parseWebhook(w http.ResponseWriter, r *http.Request) (*payment.WebhookRequest, error) {
	req := &payment.WebhookRequest{
		Method: r.Method,
		URI:    r.URL.RequestURI(),
		Header: r.Header,
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		req.Body = body
		req.Payload, err = payment.DecodePayload(r.Header.Get("Content-Type"), body, r.URL.Query())
	}
	if err != nil {
		req.Payload, _ = payment.DecodePayload("", nil, r.URL.Query())
		return req, err
	}
	return req, nil
}

func errorResponse(err error) (int, string) {
	var (
		perr *payment.ProcessingError
		cerr *payment.CommunicationError
	)

	switch {
	case errors.Is(err, payment.ErrInvalidInput),
		errors.Is(err, payment.ErrInvalidIntent),
		errors.Is(err, payment.ErrIntentAlreadyPriced):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, payment.ErrUserNotAuthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, payment.ErrGatewayNotIdentified):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, payment.ErrGatewayUnsupported):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &perr):
		if perr.StatusCode >= http.StatusBadRequest && perr.StatusCode <= 599 {
			return perr.StatusCode, perr.Error()
		}
		return http.StatusBadGateway, perr.Error()
	case errors.As(err, &cerr):
		return http.StatusBadGateway, "payment gateway communication error"
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}
