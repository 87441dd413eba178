package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every API handler
type Handlers struct {
	Recipient *RecipientHandler
	Payment   *PaymentHandler
	Campaign  *CampaignHandler
	Health    *HealthHandler
}

// NewRouter registers the API routes
func NewRouter(h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggingMiddleware(logger))

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/recipients", h.Recipient.ListRecipients)
	r.Post("/quotes", h.Payment.CreateQuote)

	r.Route("/payment-authorizations", func(r chi.Router) {
		r.Post("/", h.Payment.CreateAuthorization)
		r.Post("/confirm", h.Payment.ConfirmPayment)
	})

	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", h.Campaign.CommitCampaign)
		r.Get("/", h.Campaign.ListCampaigns)
		r.Get("/{id}", h.Campaign.GetCampaign)
	})

	return r
}
