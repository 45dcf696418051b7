package payment

import (
	"context"
	"fmt"

	"billing-be/internal/gateway"
	"billing-be/internal/logger"

	"go.uber.org/zap"
)

// Registry is the fixed table of drivers built at startup.
type Registry struct {
	order    []Driver
	byName   map[string]Driver
	gateways gateway.Repository
}

// NewRegistry keeps drivers in the given order. Duplicate names panic.
func NewRegistry(gateways gateway.Repository, drivers ...Driver) *Registry {
	r := &Registry{
		byName:   make(map[string]Driver, len(drivers)),
		gateways: gateways,
	}
	for _, d := range drivers {
		if _, dup := r.byName[d.Name()]; dup {
			panic(fmt.Sprintf("payment: driver %q registered twice", d.Name()))
		}
		r.byName[d.Name()] = d
		r.order = append(r.order, d)
	}
	return r
}

func (r *Registry) Driver(name string) (Driver, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnsupported, name)
	}
	return d, nil
}

func (r *Registry) Capabilities(name string) (gateway.Capabilities, error) {
	d, err := r.Driver(name)
	if err != nil {
		return gateway.Capabilities{}, err
	}
	return d.Capabilities(), nil
}

// Identify finds the enabled gateway whose driver accepts payload.
// More than one match is treated as unidentified rather than resolved by order.
func (r *Registry) Identify(ctx context.Context, payload Payload) (*gateway.Gateway, Driver, error) {
	enabled, err := r.gateways.ListEnabled(ctx)
	if err != nil {
		return nil, nil, err
	}
	byName := make(map[string]gateway.Gateway, len(enabled))
	for _, g := range enabled {
		byName[g.Name] = g
	}

	var (
		matchedGateway *gateway.Gateway
		matchedDriver  Driver
		matches        []string
	)
	for _, d := range r.order {
		g, ok := byName[d.Name()]
		if !ok || !d.CanAccept(payload) {
			continue
		}
		matches = append(matches, d.Name())
		if matchedDriver == nil {
			g := g
			matchedGateway, matchedDriver = &g, d
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil, ErrGatewayNotIdentified
	case 1:
		return matchedGateway, matchedDriver, nil
	default:
		logger.FromCtx(ctx).Warn("webhook payload matches several gateways",
			zap.Strings("gateways", matches),
		)
		return nil, nil, fmt.Errorf("%w: ambiguous payload", ErrGatewayNotIdentified)
	}
}
