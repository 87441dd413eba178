package handler

import (
	"log/slog"
	"net/http"

	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/service"
)

// PaymentHandler handles pricing and payment requests
type PaymentHandler struct {
	pricingService service.PricingService
	paymentService service.PaymentService
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(pricingService service.PricingService, paymentService service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		pricingService: pricingService,
		paymentService: paymentService,
		logger:         logger,
	}
}

// CreateQuote handles POST /quotes
func (h *PaymentHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req models.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	total, err := h.pricingService.Quote(r.Context(), req.RecipientCount)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, models.QuoteResponse{TotalCost: total, Currency: h.pricingService.Currency()})
}

// CreateAuthorization handles POST /payment-authorizations
func (h *PaymentHandler) CreateAuthorization(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAuthorizationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	secret, err := h.paymentService.CreateAuthorization(r.Context(), req.Amount, req.Description)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondCreated(w, models.CreateAuthorizationResponse{AuthorizationSecret: secret})
}

// ConfirmPayment handles POST /payment-authorizations/confirm
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	confirmationID, err := h.paymentService.Confirm(r.Context(), req.AuthorizationSecret, req.Card)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, models.ConfirmPaymentResponse{ConfirmationID: confirmationID})
}
