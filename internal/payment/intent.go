package payment

import (
	"fmt"
	"strings"

	"billing-be/internal/gateway"
	"billing-be/internal/user"
)

type IntentParams struct {
	User      user.User
	Gateway   gateway.Gateway
	Currency  string
	Amount    float64
	FirstName string
	LastName  string
	Phone     string
	IsTest    bool
	Plan      string
}

// Intent describes one payment request before a transaction exists.
// It is a value: WithAmount returns a copy and can be applied once.
type Intent struct {
	p      IntentParams
	priced bool
}

func NewIntent(p IntentParams) (Intent, error) {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))

	switch {
	case p.User.ID <= 0:
		return Intent{}, fmt.Errorf("%w: missing user", ErrInvalidIntent)
	case p.Gateway.ID <= 0 || p.Gateway.Name == "":
		return Intent{}, fmt.Errorf("%w: missing gateway", ErrInvalidIntent)
	case len(p.Currency) != 3:
		return Intent{}, fmt.Errorf("%w: currency %q", ErrInvalidIntent, p.Currency)
	case p.Amount < 0:
		return Intent{}, fmt.Errorf("%w: negative amount", ErrInvalidIntent)
	}
	return Intent{p: p}, nil
}

// WithAmount applies plan specific pricing before the transaction is created.
func (i Intent) WithAmount(amount float64) (Intent, error) {
	if i.priced {
		return i, ErrIntentAlreadyPriced
	}
	if amount < 0 {
		return i, fmt.Errorf("%w: negative amount", ErrInvalidIntent)
	}
	i.p.Amount = amount
	i.priced = true
	return i, nil
}

func (i Intent) User() user.User          { return i.p.User }
func (i Intent) Gateway() gateway.Gateway { return i.p.Gateway }
func (i Intent) Currency() string         { return i.p.Currency }
func (i Intent) Amount() float64          { return i.p.Amount }
func (i Intent) FirstName() string        { return i.p.FirstName }
func (i Intent) LastName() string         { return i.p.LastName }
func (i Intent) Phone() string            { return i.p.Phone }
func (i Intent) IsTest() bool             { return i.p.IsTest }
func (i Intent) Plan() string             { return i.p.Plan }
