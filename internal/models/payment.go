package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostQuote is the priced cost of messaging a recipient count.
// TotalCost is taken as returned by pricing; UnitPrice is derived from it.
type CostQuote struct {
	RecipientCount int             `json:"recipient_count"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Token          uint64          `json:"-"`
}

// NewCostQuote derives the unit price from a priced total
func NewCostQuote(recipientCount int, totalCost decimal.Decimal) CostQuote {
	unit := decimal.Zero
	if recipientCount > 0 {
		unit = totalCost.Div(decimal.NewFromInt(int64(recipientCount)))
	}
	return CostQuote{
		RecipientCount: recipientCount,
		UnitPrice:      unit,
		TotalCost:      totalCost,
	}
}

// PaymentAuthorization is a pending payment hold held by the checkout flow
type PaymentAuthorization struct {
	Secret      string
	Amount      decimal.Decimal
	Description string
	QuoteToken  uint64
}

// Payment authorization statuses on the server side
const (
	AuthorizationStatusCreated   = "created"
	AuthorizationStatusConfirmed = "confirmed"
	AuthorizationStatusDeclined  = "declined"
	AuthorizationStatusFailed    = "failed"
)

// AuthorizationRecord is a persisted payment authorization
type AuthorizationRecord struct {
	ID             uuid.UUID       `db:"id"`
	Secret         string          `db:"secret"`
	Amount         decimal.Decimal `db:"amount"`
	Currency       string          `db:"currency"`
	Description    string          `db:"description"`
	Status         string          `db:"status"`
	ConfirmationID *string         `db:"confirmation_id"`
	LastError      *string         `db:"last_error"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// CanConfirm reports whether the authorization may still be confirmed.
// Declined authorizations may be retried.
func (a *AuthorizationRecord) CanConfirm() bool {
	return a.Status == AuthorizationStatusCreated || a.Status == AuthorizationStatusDeclined
}

// Card holds the payment details entered on the collection surface
type Card struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// Gateway error classes reported on a failed confirmation
const (
	GatewayErrorCard       = "card_error"
	GatewayErrorValidation = "validation_error"
	GatewayErrorAPI        = "api_error"
)
