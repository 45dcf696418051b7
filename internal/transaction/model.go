package transaction

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusStart           Status = "start"
	StatusPending         Status = "pending"
	StatusSuccess         Status = "success"
	StatusFailureOnStart  Status = "failure_on_start"
	StatusFailureOnFinish Status = "failure_on_finish"
	StatusCancelled       Status = "cancelled"
	StatusRefunded        Status = "refunded"
)

// Documented metadata keys. Drivers may add their own.
const (
	MetaSubscriptionID  = "subscription_id"
	MetaPlanName        = "plan_name"
	MetaRecurringPeriod = "recurring_period"
	MetaMerchantID      = "merchant_id"
)

type Transaction struct {
	ID        int64
	UserID    int64
	GatewayID int64
	Amount    float64
	Currency  string
	Status    Status
	Metadata  Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTransaction carries the fields needed to open a payment attempt.
type NewTransaction struct {
	UserID    int64
	GatewayID int64
	Amount    float64
	Currency  string
}

// StatusUpdate is a compare-and-set: it only applies while the row is still in From.
// Amount is left untouched when nil.
type StatusUpdate struct {
	ID       int64
	From     Status
	To       Status
	Metadata Metadata
	Amount   *float64
}

type Log struct {
	ID            int64
	TransactionID int64
	StatusCode    int
	Message       string
	CreatedAt     time.Time
}

// Metadata is the provider bookkeeping bag, stored as jsonb.
type Metadata map[string]string

// Merge returns a copy of m overlaid with the non-empty values of other.
func (m Metadata) Merge(other Metadata) Metadata {
	out := make(Metadata, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}

	out := Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("metadata: %w", err)
		}
	}
	*m = out
	return nil
}
