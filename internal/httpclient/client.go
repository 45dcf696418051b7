// Package httpclient performs outbound provider calls through resty with one
// circuit breaker per provider host.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"billing-be/internal/logger"
	"billing-be/internal/metrics"
	"billing-be/internal/payment"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type Config struct {
	// BreakerMaxFailures consecutive failures open a host's breaker.
	BreakerMaxFailures uint32
	// BreakerOpenTimeout is how long an open breaker rejects calls.
	BreakerOpenTimeout time.Duration
}

// errServerStatus marks 5xx answers as breaker failures; Send still returns
// the response.
var errServerStatus = errors.New("provider answered with a server error")

type Client struct {
	cfg   Config
	resty *resty.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

var _ payment.Sender = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}

	rc := resty.New().
		SetRetryCount(0).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))

	return &Client{
		cfg:      cfg,
		resty:    rc,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *Client) breaker(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}

	maxFailures := c.cfg.BreakerMaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     c.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			logger.L().Warn("circuit breaker state changed",
				zap.String("circuit", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(host).Set(0)
	c.breakers[host] = cb
	return cb
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// Send performs req within timeout. Any HTTP status is returned as a response;
// transport errors, timeouts and an open breaker are errors. Nothing is retried.
func (c *Client) Send(ctx context.Context, req *payment.OutboundRequest, timeout time.Duration) (*payment.OutboundResponse, error) {
	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid provider url %q", req.URL)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	timer := metrics.StartTimer()
	var out *payment.OutboundResponse

	_, err = c.breaker(u.Host).Execute(func() (interface{}, error) {
		r := c.resty.R().SetContext(ctx).SetHeaders(req.Header)
		if len(req.Body) > 0 {
			r.SetBody(req.Body)
		}

		resp, err := r.Execute(req.Method, req.URL)
		if err != nil {
			return nil, err
		}
		out = &payment.OutboundResponse{StatusCode: resp.StatusCode(), Body: resp.Body()}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, errServerStatus
		}
		return nil, nil
	})

	outcome := metrics.OutcomeSuccess
	if err != nil && !errors.Is(err, errServerStatus) {
		outcome = metrics.OutcomeFailure
	} else if out.StatusCode >= http.StatusBadRequest {
		outcome = metrics.OutcomeRejected
	}
	metrics.ProviderRequestDuration.WithLabelValues(u.Host, outcome).Observe(timer.Seconds())

	log := logger.FromCtx(ctx).With(
		zap.String("method", req.Method),
		zap.String("host", u.Host),
		zap.String("path", u.Path),
		zap.Int64("duration_ms", timer.Duration().Milliseconds()),
	)
	if outcome == metrics.OutcomeFailure {
		log.Warn("provider request failed", zap.Error(err))
		return nil, err
	}
	log.Info("provider request", zap.Int("status", out.StatusCode))
	return out, nil
}
