package payment

import (
	"errors"
	"fmt"
)

var (
	ErrGatewayNotIdentified    = errors.New("payment gateway not identified")
	ErrGatewayUnsupported      = errors.New("payment gateway not supported")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrPaymentNotPending       = errors.New("payment is not pending")
	ErrSignatureInvalid        = errors.New("invalid webhook request")
	ErrTransactionInconsistent = errors.New("webhook does not match transaction")
	ErrPaymentFinishedFailure  = errors.New("payment finished with failure")
	ErrUserNotAuthenticated    = errors.New("user not authenticated")
	ErrInvalidInput            = errors.New("invalid payment request")
	ErrInvalidIntent           = errors.New("invalid payment intent")
	ErrIntentAlreadyPriced     = errors.New("payment intent amount already adjusted")
)

// ProcessingError is returned when a provider answered the initiation call
// with a status other than the one it documents for success.
type ProcessingError struct {
	Gateway    string
	StatusCode int
	Message    string
}

func NewProcessingError(gateway string, statusCode int, message string) *ProcessingError {
	return &ProcessingError{Gateway: gateway, StatusCode: statusCode, Message: message}
}

func (e *ProcessingError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: payment processing failed with status %d", e.Gateway, e.StatusCode)
	}
	return fmt.Sprintf("%s: payment processing failed with status %d: %s", e.Gateway, e.StatusCode, e.Message)
}

// CommunicationError wraps transport failures, timeouts and cancellations.
type CommunicationError struct {
	Gateway string
	Err     error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("%s: communication error: %v", e.Gateway, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }
