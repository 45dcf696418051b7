package myxspend

import (
	"encoding/json"

	"billing-be/internal/payment"
	"billing-be/internal/transaction"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type processRequest struct {
	CustomerOrderID string  `json:"customerOrderId"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Email           string  `json:"email"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	PhoneNo         string  `json:"phoneNo"`
}

type processResponse struct {
	PaymentLink string `json:"PaymentLink"`
	Message     string `json:"message"`
}

func buildProcessBody(intent payment.Intent, tx *transaction.Transaction, salt string) ([]byte, error) {
	return payment.MarshalJSON(processRequest{
		CustomerOrderID: transaction.HashID(tx.ID, salt),
		Amount:          tx.Amount,
		Currency:        intent.Currency(),
		Email:           intent.User().Email,
		FirstName:       intent.FirstName(),
		LastName:        intent.LastName(),
		PhoneNo:         intent.Phone(),
	})
}

// decode tolerates non JSON error bodies.
func decode[T any](body []byte) T {
	var out T
	_ = json.Unmarshal(body, &out)
	return out
}
