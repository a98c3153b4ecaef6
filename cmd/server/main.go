package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"tourney-pay/internal/api"
	"tourney-pay/internal/config"
	"tourney-pay/internal/database"
	"tourney-pay/internal/identity"
	"tourney-pay/internal/metrics"
	"tourney-pay/internal/provider"
	"tourney-pay/internal/repo"
	"tourney-pay/internal/service"
	"tourney-pay/internal/webhook"
	"tourney-pay/internal/worker"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	db, err := database.NewPostgres(cfg)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	counters := metrics.New(promRegistry)

	attempts := repo.NewAttemptRepo(db)
	tournaments := repo.NewTournamentRepo(db)
	verifier := identity.NewHTTPVerifier(cfg.IdentityBaseURL)

	gateways := provider.Registry{
		"paystack": provider.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecretKey, logger),
	}
	if cfg.FastPayBaseURL != "" {
		gateways["fastpay"] = provider.NewFastPay(cfg.FastPayBaseURL, cfg.FastPayAPIKey, logger)
	}

	registrations := service.NewRegistrationService(
		attempts, tournaments, verifier, gateways, cfg.CallbackBaseURL, counters, logger)
	reconciler := service.NewReconcileService(attempts, verifier, counters, logger)

	hooks := make(map[string]*webhook.Handler)
	webhookSecrets := map[string]struct {
		secret string
		parse  webhook.EventParser
	}{
		"paystack": {cfg.PaystackWebhookSecret, webhook.ParsePaystack},
		"fastpay":  {cfg.FastPayWebhookSecret, webhook.ParseFastPay},
	}
	for name := range gateways {
		wh := webhookSecrets[name]
		hook, err := webhook.NewHandler(name, wh.secret, wh.parse, reconciler, counters, logger)
		if err != nil {
			logger.Fatal("webhook setup failed", zap.Error(err))
		}
		hooks[name] = hook
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweep := worker.NewExpirySweep(attempts, cfg.PendingTimeout, cfg.SweepInterval, counters, logger)
	go sweep.Run(ctx)

	handlers := api.NewHandlers(registrations, attempts, cfg.DefaultProvider, db, logger)
	router := api.NewRouter(handlers, hooks, promRegistry)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}
