package arkpay

import (
	"strconv"

	"billing-be/internal/payment"
	"billing-be/internal/transaction"
)

const description = "Payment for subscription"

type transactionRequest struct {
	MerchantTransactionID string  `json:"merchantTransactionId"`
	Amount                float64 `json:"amount"`
	Currency              string  `json:"currency"`
	Description           string  `json:"description"`
	ExternalCustomerID    string  `json:"externalCustomerId"`
	HandlePayment         bool    `json:"handlePayment"`
	ReturnURL             string  `json:"returnUrl"`
}

func buildTransactionBody(intent payment.Intent, tx *transaction.Transaction, returnURL string) ([]byte, error) {
	return payment.MarshalJSON(transactionRequest{
		MerchantTransactionID: strconv.FormatInt(tx.ID, 10),
		Amount:                tx.Amount,
		Currency:              intent.Currency(),
		Description:           description,
		ExternalCustomerID:    strconv.FormatInt(intent.User().ID, 10),
		HandlePayment:         false,
		ReturnURL:             returnURL,
	})
}
