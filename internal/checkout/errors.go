package checkout

import (
	"errors"
	"fmt"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// RefundDisclaimer is shown whenever a step after a possible charge fails
const RefundDisclaimer = "We could not complete your payment. If you were charged, the charge will be refunded."

// Flow errors
var (
	ErrNotEnoughRecipients  = errors.New("select at least 2 recipients")
	ErrInvalidTransition    = errors.New("transition not allowed from the current step")
	ErrAuthorizationPending = errors.New("a payment authorization is already pending for this quote")
	ErrNoAuthorization      = errors.New("no active payment authorization")
	ErrPaymentInProgress    = errors.New("payment is being processed")
	ErrCancelled            = errors.New("checkout cancelled")
	ErrCommitFailed         = errors.New("campaign was not saved after payment")
)

// GatewayError is a failed confirmation reported by the payment gateway
type GatewayError struct {
	Type    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %s", e.Type, e.Message)
}

// Declined reports whether the failure is card or validation class, which the user may retry
func (e *GatewayError) Declined() bool {
	return e.Type == models.GatewayErrorCard || e.Type == models.GatewayErrorValidation
}

// DirectoryFetchError is a failed recipient directory page fetch
type DirectoryFetchError struct {
	Page int
	Err  error
}

func (e *DirectoryFetchError) Error() string {
	return fmt.Sprintf("failed to load recipients page %d: %v", e.Page, e.Err)
}

func (e *DirectoryFetchError) Unwrap() error { return e.Err }

// QuoteError is a failed cost quote; it blocks payment collection
type QuoteError struct {
	RecipientCount int
	Err            error
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("failed to price campaign for %d recipients: %v", e.RecipientCount, e.Err)
}

func (e *QuoteError) Unwrap() error { return e.Err }

// AuthorizationError is a failed authorization creation; it blocks payment collection
type AuthorizationError struct {
	Err error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("failed to create payment authorization: %v", e.Err)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// PaymentDeclineError is a card or validation class failure. The same
// authorization may be confirmed again.
type PaymentDeclineError struct {
	Type    string
	Message string
}

func (e *PaymentDeclineError) Error() string {
	return e.Message
}

// UnexpectedPaymentError is a network or gateway failure during collection.
// It is never retried automatically.
type UnexpectedPaymentError struct {
	Err error
}

func (e *UnexpectedPaymentError) Error() string {
	return RefundDisclaimer
}

func (e *UnexpectedPaymentError) Unwrap() error { return e.Err }

// CommitError is a failure to persist the campaign after a successful charge.
// Refunds are left to the backend.
type CommitError struct {
	Status int
	Err    error
}

func (e *CommitError) Error() string {
	return RefundDisclaimer
}

func (e *CommitError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrCommitFailed
}

// UserMessage returns the message to display for a checkout error
func UserMessage(err error) string {
	var (
		decline    *PaymentDeclineError
		unexpected *UnexpectedPaymentError
		commit     *CommitError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &decline):
		return decline.Message
	case errors.As(err, &unexpected), errors.As(err, &commit):
		return RefundDisclaimer
	}
	return err.Error()
}
