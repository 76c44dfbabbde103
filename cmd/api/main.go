package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/digimartng/digimart-backend/api/routes"
	"github.com/digimartng/digimart-backend/internal/downloads"
	"github.com/digimartng/digimart-backend/internal/products"
	"github.com/digimartng/digimart-backend/internal/profiles"
	"github.com/digimartng/digimart-backend/internal/referrals"
	"github.com/digimartng/digimart-backend/internal/sales"
	"github.com/digimartng/digimart-backend/internal/settlement"
	"github.com/digimartng/digimart-backend/internal/subscriptions"
	"github.com/digimartng/digimart-backend/internal/wallets"
	paystackwebhook "github.com/digimartng/digimart-backend/internal/webhooks/paystack"
	"github.com/digimartng/digimart-backend/internal/withdrawals"
	"github.com/digimartng/digimart-backend/pkg/config"
	"github.com/digimartng/digimart-backend/pkg/db"
	"github.com/digimartng/digimart-backend/pkg/logger"
	"github.com/digimartng/digimart-backend/pkg/metrics"
	"github.com/digimartng/digimart-backend/pkg/migrate"
	"github.com/digimartng/digimart-backend/pkg/paystack"
	"github.com/digimartng/digimart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	paystackClient, err := paystack.NewClient(context.Background(), cfg.Paystack, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	profilesRepo := profiles.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	walletsRepo := wallets.NewRepository(dbClient.DB())
	salesRepo := sales.NewRepository(dbClient.DB())
	subscriptionsRepo := subscriptions.NewRepository(dbClient.DB())
	referralsRepo := referrals.NewRepository(dbClient.DB())
	downloadsRepo := downloads.NewRepository(dbClient.DB())
	withdrawalsRepo := withdrawals.NewRepository(dbClient.DB())

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Logger:        logg,
		Tx:            dbClient,
		Sales:         salesRepo,
		Products:      productsRepo,
		Profiles:      profilesRepo,
		Wallets:       walletsRepo,
		Subscriptions: subscriptionsRepo,
		Referrals:     referralsRepo,
		Downloads:     downloadsRepo,
		Commission:    cfg.Commission,
		DownloadsCfg:  cfg.Downloads,
		Metrics:       webhookMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	webhookGuard, err := paystackwebhook.NewIdempotencyGuard(redisClient, cfg.Paystack.IdempotencyTTL, "paystack")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	walletsService, err := wallets.NewService(walletsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallets service", err)
		os.Exit(1)
	}

	withdrawalsService, err := withdrawals.NewService(withdrawals.ServiceParams{
		Logger:   logg,
		Tx:       dbClient,
		Repo:     withdrawalsRepo,
		Wallets:  walletsRepo,
		Profiles: profilesRepo,
		Config:   cfg.Withdrawal,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawals service", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo: subscriptionsRepo,
		Tx:   dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	downloadsService, err := downloads.NewService(downloads.ServiceParams{
		Repo:     downloadsRepo,
		Products: productsRepo,
		Config:   cfg.Downloads,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create downloads service", err)
		os.Exit(1)
	}

	salesService, err := sales.NewService(salesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			paystackClient,
			webhookGuard,
			webhookMetrics,
			settlementService,
			walletsService,
			withdrawalsService,
			subscriptionsService,
			downloadsService,
			salesService,
			profilesRepo,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
