package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billing-be/internal/config"
	"billing-be/internal/db"
	"billing-be/internal/gateway"
	"billing-be/internal/httpclient"
	"billing-be/internal/logger"
	"billing-be/internal/middleware"
	"billing-be/internal/notify"
	"billing-be/internal/payment"
	"billing-be/internal/payment/arkpay"
	"billing-be/internal/payment/ccbill"
	"billing-be/internal/payment/handler"
	"billing-be/internal/payment/instaxchange"
	"billing-be/internal/payment/myxspend"
	"billing-be/internal/plan"
	"billing-be/internal/transaction"
	"billing-be/internal/user"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, database),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("billing server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServer wires repositories, drivers and the payment service into a router.
func newServer(cfg *config.Config, database *sql.DB) http.Handler {
	transactions := transaction.NewRepository(database)
	gateways := gateway.NewRepository(database)
	plans := plan.NewRepository(database)
	users := user.NewRepository(database)

	deps := payment.Deps{
		Transactions: transactions,
		Resolver:     payment.NewResolver(transactions, cfg.Payment.TransactionSalt),
		Sender: httpclient.New(httpclient.Config{
			BreakerMaxFailures: cfg.HTTPClient.BreakerMaxFailures,
			BreakerOpenTimeout: cfg.HTTPClient.BreakerOpenTimeout,
		}),
		Plans: plans,
		Users: users,
	}

	ccbillPlans := make(map[string]ccbill.PlanForm, len(cfg.Ccbill.Plans))
	for name, p := range cfg.Ccbill.Plans {
		ccbillPlans[name] = ccbill.PlanForm{FormID: p.FormID, Price: p.Price}
	}

	registry := payment.NewRegistry(gateways,
		arkpay.New(arkpay.Config{
			APIURL: cfg.Arkpay.APIURL,
			APIKey: cfg.Arkpay.APIKey,
			Secret: cfg.Arkpay.Secret,
			AppURL: cfg.AppURL,
		}, deps),
		instaxchange.New(instaxchange.Config{
			APIURL:       cfg.Instaxchange.APIURL,
			AccountRefID: cfg.Instaxchange.AccountRefID,
			SecretKey:    cfg.Instaxchange.SecretKey,
		}, deps),
		ccbill.New(ccbill.Config{
			APIURL:     cfg.Ccbill.APIURL,
			APIURLTest: cfg.Ccbill.APIURLTest,
			Plans:      ccbillPlans,
		}, deps),
		myxspend.New(myxspend.Config{
			APIURL:    cfg.Myxspend.APIURL,
			APIKey:    cfg.Myxspend.APIKey,
			CompanyID: cfg.Myxspend.CompanyID,
			Email:     cfg.Myxspend.Email,
			Password:  cfg.Myxspend.Password,
		}, deps),
	)

	svc := payment.NewService(registry, gateways, plans, users, notify.Fanout{notify.Log{}}, payment.Settings{
		Currency:           cfg.Payment.Currency,
		DefaultAmount:      cfg.Payment.DefaultAmount,
		CallbackSuccessURL: cfg.CallbackSuccessURL(),
		CallbackFailedURL:  cfg.CallbackFailedURL(),
	})

	return setupRouter(handler.New(svc).Routes(), cfg.JWTSecret)
}

func setupRouter(payments http.Handler, jwtSecret string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.Recover)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))
		r.Use(middleware.RateLimitMiddleware)
		r.Mount("/api/v1/payment", payments)
	})

	return r
}
