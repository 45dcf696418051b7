package plan

import "errors"

var ErrNotFound = errors.New("plan not found")

// Plan is a purchasable subscription bound to one gateway. Read only here.
type Plan struct {
	ID           int64
	Title        string
	Price        float64
	DurationDays int
	GatewayID    int64
	IsActive     bool
}
