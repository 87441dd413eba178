package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// Test card numbers with a fixed outcome. Any other valid number is approved.
const (
	CardApproved          = "4242424242424242"
	CardDeclined          = "4000000000000002"
	CardInsufficientFunds = "4000000000009995"
	CardProcessingError   = "4000000000000119"
)

// Gateway defines the payment provider operations used by the backend
type Gateway interface {
	// CreateAuthorization opens a payment hold and returns its client secret
	CreateAuthorization(ctx context.Context, amount decimal.Decimal, description string) (string, error)

	// Confirm collects the payment for an authorization secret.
	// Provider-reported failures are returned as *Error.
	Confirm(ctx context.Context, secret string, card models.Card) (string, error)
}

// Error is a failed confirmation as reported by the provider
type Error struct {
	Type    string
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
}

// Option configures the mock gateway
type Option func(*mockGateway)

// WithLatency simulates a network delay between min and max on every call
func WithLatency(min, max time.Duration) Option {
	return func(g *mockGateway) {
		g.minDelay = min
		g.maxDelay = max
	}
}

// WithClock overrides the clock used for card expiry checks
func WithClock(now func() time.Time) Option {
	return func(g *mockGateway) { g.now = now }
}

// mockGateway simulates a card payment provider with deterministic test cards
type mockGateway struct {
	minDelay time.Duration
	maxDelay time.Duration
	now      func() time.Time
}

// NewMockGateway creates a new mock payment gateway
func NewMockGateway(opts ...Option) Gateway {
	g := &mockGateway{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateAuthorization issues a new authorization secret
func (g *mockGateway) CreateAuthorization(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("amount must be positive, got %s", amount.StringFixed(2))
	}

	id := compactUUID()
	return fmt.Sprintf("pi_%s_secret_%s", id, compactUUID()), nil
}

// Confirm validates the card and settles the payment
func (g *mockGateway) Confirm(ctx context.Context, secret string, card models.Card) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	if !strings.HasPrefix(secret, "pi_") || !strings.Contains(secret, "_secret_") {
		return "", &Error{Type: models.GatewayErrorAPI, Code: "resource_missing", Message: "No such payment authorization."}
	}

	if gwErr := g.checkCard(card); gwErr != nil {
		return "", gwErr
	}

	switch normalizeNumber(card.Number) {
	case CardDeclined:
		return "", &Error{Type: models.GatewayErrorCard, Code: "card_declined", Message: "Your card was declined."}
	case CardInsufficientFunds:
		return "", &Error{Type: models.GatewayErrorCard, Code: "insufficient_funds", Message: "Your card has insufficient funds."}
	case CardProcessingError:
		return "", &Error{Type: models.GatewayErrorAPI, Code: "processing_error", Message: "An error occurred while processing your card. Try again in a little bit."}
	}

	return "pi_" + strings.SplitN(strings.TrimPrefix(secret, "pi_"), "_secret_", 2)[0], nil
}

func (g *mockGateway) checkCard(card models.Card) *Error {
	number := normalizeNumber(card.Number)
	if len(number) < 13 || len(number) > 19 || !isDigits(number) {
		return &Error{Type: models.GatewayErrorValidation, Code: "incomplete_number", Message: "Your card number is incomplete."}
	}
	if !luhnValid(number) {
		return &Error{Type: models.GatewayErrorValidation, Code: "invalid_number", Message: "Your card number is invalid."}
	}
	if card.ExpMonth < 1 || card.ExpMonth > 12 {
		return &Error{Type: models.GatewayErrorValidation, Code: "invalid_expiry_month", Message: "Your card's expiration month is invalid."}
	}

	now := g.now()
	if card.ExpYear < now.Year() || (card.ExpYear == now.Year() && card.ExpMonth < int(now.Month())) {
		return &Error{Type: models.GatewayErrorValidation, Code: "expired_card", Message: "Your card has expired."}
	}
	if len(card.CVC) < 3 || len(card.CVC) > 4 || !isDigits(card.CVC) {
		return &Error{Type: models.GatewayErrorValidation, Code: "incomplete_cvc", Message: "Your card's security code is incomplete."}
	}
	return nil
}

// wait simulates network latency
func (g *mockGateway) wait(ctx context.Context) error {
	if g.maxDelay <= 0 {
		return ctx.Err()
	}

	delay := g.minDelay
	if g.maxDelay > g.minDelay {
		delay += time.Duration(rand.Int63n(int64(g.maxDelay - g.minDelay)))
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func compactUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func normalizeNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
