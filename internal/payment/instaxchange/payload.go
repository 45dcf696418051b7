package instaxchange

import (
	"strconv"

	"billing-be/internal/payment"
	"billing-be/internal/transaction"
)

const amountDirection = "sending"

type sessionRequest struct {
	AccountRefID    string  `json:"accountRefId"`
	ToAmount        float64 `json:"toAmount"`
	ToCurrency      string  `json:"toCurrency"`
	AmountDirection string  `json:"amountDirection"`
	WebhookRef      string  `json:"webhookRef"`
}

func buildSessionBody(accountRefID string, intent payment.Intent, tx *transaction.Transaction) ([]byte, error) {
	return payment.MarshalJSON(sessionRequest{
		AccountRefID:    accountRefID,
		ToAmount:        tx.Amount,
		ToCurrency:      intent.Currency(),
		AmountDirection: amountDirection,
		WebhookRef:      strconv.FormatInt(tx.ID, 10),
	})
}
