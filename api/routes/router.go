package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/digimartng/digimart-backend/api/controllers"
	webhookcontrollers "github.com/digimartng/digimart-backend/api/controllers/webhooks"
	"github.com/digimartng/digimart-backend/api/middleware"
	"github.com/digimartng/digimart-backend/internal/downloads"
	"github.com/digimartng/digimart-backend/internal/profiles"
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
	"github.com/digimartng/digimart-backend/pkg/paystack"
	"github.com/digimartng/digimart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsRegistry *prometheus.Registry,
	paystackClient *paystack.Client,
	webhookGuard *paystackwebhook.IdempotencyGuard,
	webhookMetrics *metrics.WebhookMetrics,
	settlementService settlement.Service,
	walletsService wallets.Service,
	withdrawalsService withdrawals.Service,
	subscriptionsService subscriptions.Service,
	downloadsService downloads.Service,
	salesService sales.Service,
	profilesRepo profiles.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	initializePolicy := middleware.NewRateLimitPolicy(
		"initialize",
		cfg.RateLimit.InitializeWindow,
		cfg.RateLimit.InitializeIPLimit,
		cfg.RateLimit.InitializeEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/paystack", func(r chi.Router) {
		r.Post("/webhook", webhookcontrollers.PaystackWebhook(settlementService, paystackClient, webhookGuard, webhookMetrics, logg))
		r.With(middleware.RateLimit(initializePolicy, redisClient, logg)).
			Post("/initialize", controllers.InitializePayment(paystackClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", controllers.ListPlans(subscriptionsService, logg))

		// Guest buyers exercise their grants by email, account holders by id.
		r.With(middleware.OptionalIdentity(logg)).
			Post("/downloads/link", controllers.GenerateDownloadLink(downloadsService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(logg))

			r.Post("/subscriptions/free", controllers.ActivateFreeSubscription(subscriptionsService, logg))
			r.Get("/subscriptions/active", controllers.GetActiveSubscription(subscriptionsService, logg))

			r.Get("/wallet", controllers.GetWallet(walletsService, logg))
			r.Route("/wallet/withdrawals", func(r chi.Router) {
				r.Post("/", controllers.CreateWithdrawal(withdrawalsService, logg))
				r.Get("/", controllers.ListWithdrawals(withdrawalsService, logg))
			})

			r.Get("/sales", controllers.ListSales(salesService, logg))
			r.Get("/downloads", controllers.ListDownloads(downloadsService, logg))

			r.Route("/admin/withdrawals", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(profilesRepo, logg))
				r.Post("/{withdrawalId}/complete", controllers.CompleteWithdrawal(withdrawalsService, logg))
				r.Post("/{withdrawalId}/fail", controllers.FailWithdrawal(withdrawalsService, logg))
			})
		})
	})

	return r
}
