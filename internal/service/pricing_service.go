package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Raymond9734/campaign-checkout/internal/metrics"
	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/validation"
)

// PricingService prices campaigns by recipient count
type PricingService interface {
	Quote(ctx context.Context, recipientCount int) (decimal.Decimal, error)
	Currency() string
}

type pricingService struct {
	unitPrice decimal.Decimal
	currency  string
	logger    *slog.Logger
}

// NewPricingService creates a pricing service charging unitPrice per recipient in currency
func NewPricingService(unitPrice decimal.Decimal, currency string, logger *slog.Logger) PricingService {
	return &pricingService{
		unitPrice: unitPrice,
		currency:  currency,
		logger:    logger,
	}
}

// Currency returns the ISO 4217 code quotes are priced in
func (s *pricingService) Currency() string {
	return s.currency
}

// Quote returns the total cost rounded to cents
func (s *pricingService) Quote(ctx context.Context, recipientCount int) (decimal.Decimal, error) {
	if recipientCount < validation.MinRecipients {
		return decimal.Zero, models.ErrInvalidInput(fmt.Sprintf("recipient_count must be at least %d", validation.MinRecipients))
	}

	total := s.unitPrice.Mul(decimal.NewFromInt(int64(recipientCount))).Round(2)
	metrics.QuotesTotal.Inc()

	s.logger.Debug("campaign priced",
		slog.Int("recipient_count", recipientCount),
		slog.String("total_cost", total.StringFixed(2)),
		slog.String("currency", s.currency),
	)

	return total, nil
}
