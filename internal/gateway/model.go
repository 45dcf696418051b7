package gateway

import "errors"

var ErrNotFound = errors.New("payment gateway not found")

// Gateway is a configured payment provider row.
type Gateway struct {
	ID        int64
	Name      string
	IsEnabled bool
}

// Capabilities describe how the HTTP layer must treat a provider's flows.
type Capabilities struct {
	NeedsPaymentRedirect      bool
	NeedsPostCallbackRedirect bool
	UsesHashedTransactionIDs  bool
}
