package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Raymond9734/campaign-checkout/internal/gateway"
	"github.com/Raymond9734/campaign-checkout/internal/metrics"
	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/repository"
)

// maxDescriptionLength matches the longest campaign name
const maxDescriptionLength = 100

// PaymentService opens and confirms payment authorizations through the gateway
type PaymentService interface {
	CreateAuthorization(ctx context.Context, amount decimal.Decimal, description string) (string, error)
	Confirm(ctx context.Context, secret string, card models.Card) (string, error)
}

type paymentService struct {
	authRepo repository.AuthorizationRepository
	gateway  gateway.Gateway
	currency string
	logger   *slog.Logger
}

// NewPaymentService creates a payment service holding amounts in currency
func NewPaymentService(authRepo repository.AuthorizationRepository, gw gateway.Gateway, currency string, logger *slog.Logger) PaymentService {
	return &paymentService{
		authRepo: authRepo,
		gateway:  gw,
		currency: currency,
		logger:   logger,
	}
}

// CreateAuthorization opens a payment hold for amount and returns its secret
func (s *paymentService) CreateAuthorization(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	if !amount.IsPositive() {
		return "", models.ErrInvalidInput("amount must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return "", models.ErrInvalidInput("amount must not have more than 2 decimal places")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return "", models.ErrInvalidInput("description is required")
	}
	if len([]rune(description)) > maxDescriptionLength {
		return "", models.ErrInvalidInput(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}

	secret, err := s.gateway.CreateAuthorization(ctx, amount, description)
	if err != nil {
		metrics.AuthorizationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.logger.Error("gateway failed to create authorization",
			slog.String("amount", amount.StringFixed(2)),
			slog.String("error", err.Error()),
		)
		return "", models.ErrPaymentFailed("payment provider unavailable", err)
	}

	auth := &models.AuthorizationRecord{
		ID:          uuid.New(),
		Secret:      secret,
		Amount:      amount,
		Currency:    s.currency,
		Description: description,
		Status:      models.AuthorizationStatusCreated,
	}
	if err := s.authRepo.Create(ctx, auth); err != nil {
		metrics.AuthorizationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return "", fmt.Errorf("failed to store authorization: %w", err)
	}

	metrics.AuthorizationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("payment authorization created",
		slog.String("authorization_id", auth.ID.String()),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("currency", s.currency),
	)

	return secret, nil
}

// Confirm collects the payment for the authorization identified by secret.
// Card and validation class failures leave the authorization open for another
// attempt. Confirming an already confirmed authorization returns its id again.
func (s *paymentService) Confirm(ctx context.Context, secret string, card models.Card) (string, error) {
	if secret == "" {
		return "", models.ErrInvalidInput("authorization_secret is required")
	}

	auth, err := s.authRepo.GetBySecret(ctx, secret)
	if err != nil {
		return "", err
	}

	if auth.Status == models.AuthorizationStatusConfirmed && auth.ConfirmationID != nil {
		return *auth.ConfirmationID, nil
	}
	if !auth.CanConfirm() {
		return "", models.ErrConflictWithMsg(fmt.Sprintf("payment authorization is %s", auth.Status))
	}

	confirmationID, err := s.gateway.Confirm(ctx, secret, card)
	if err != nil {
		return "", s.recordFailure(ctx, auth, err)
	}

	auth.Status = models.AuthorizationStatusConfirmed
	auth.ConfirmationID = &confirmationID
	auth.LastError = nil
	if err := s.authRepo.UpdateStatus(ctx, auth); err != nil {
		// charged but not recorded; the commit cannot be matched to this payment
		s.logger.Error("failed to record payment confirmation",
			slog.String("authorization_id", auth.ID.String()),
			slog.String("confirmation_id", confirmationID),
			slog.String("error", err.Error()),
		)
		metrics.ConfirmationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return "", models.ErrPaymentFailed("payment could not be recorded", err)
	}

	metrics.ConfirmationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("payment confirmed",
		slog.String("authorization_id", auth.ID.String()),
		slog.String("confirmation_id", confirmationID),
		slog.String("amount", auth.Amount.StringFixed(2)),
	)

	return confirmationID, nil
}

func (s *paymentService) recordFailure(ctx context.Context, auth *models.AuthorizationRecord, err error) error {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		metrics.ConfirmationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.logger.Error("payment confirmation failed",
			slog.String("authorization_id", auth.ID.String()),
			slog.String("error", err.Error()),
		)
		return models.ErrPaymentFailed("payment provider unavailable", err)
	}

	declined := gwErr.Type == models.GatewayErrorCard || gwErr.Type == models.GatewayErrorValidation
	auth.Status = models.AuthorizationStatusFailed
	if declined {
		auth.Status = models.AuthorizationStatusDeclined
	}
	message := gwErr.Message
	auth.LastError = &message

	if updateErr := s.authRepo.UpdateStatus(ctx, auth); updateErr != nil {
		s.logger.Error("failed to record payment failure",
			slog.String("authorization_id", auth.ID.String()),
			slog.String("error", updateErr.Error()),
		)
	}

	if declined {
		metrics.ConfirmationsTotal.WithLabelValues(metrics.OutcomeDeclined).Inc()
		s.logger.Info("payment declined",
			slog.String("authorization_id", auth.ID.String()),
			slog.String("type", gwErr.Type),
			slog.String("code", gwErr.Code),
		)
		return models.ErrPaymentDeclined(gwErr.Type, gwErr.Message)
	}

	metrics.ConfirmationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	s.logger.Error("payment provider error",
		slog.String("authorization_id", auth.ID.String()),
		slog.String("code", gwErr.Code),
		slog.String("message", gwErr.Message),
	)
	return models.ErrPaymentFailed(gwErr.Message, gwErr)
}
