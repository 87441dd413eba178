package models

import "github.com/shopspring/decimal"

// QuoteRequest asks for the cost of messaging a recipient count
type QuoteRequest struct {
	RecipientCount int `json:"recipient_count"`
}

// QuoteResponse carries the priced total and its ISO 4217 currency
type QuoteResponse struct {
	TotalCost decimal.Decimal `json:"total_cost"`
	Currency  string          `json:"currency,omitempty"`
}

// CreateAuthorizationRequest opens a payment authorization
type CreateAuthorizationRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// CreateAuthorizationResponse carries the client secret of a new authorization
type CreateAuthorizationResponse struct {
	AuthorizationSecret string `json:"authorization_secret"`
}

// ConfirmPaymentRequest collects the payment for an authorization
type ConfirmPaymentRequest struct {
	AuthorizationSecret string `json:"authorization_secret"`
	Card                Card   `json:"card"`
}

// ConfirmPaymentResponse carries the id proving a successful charge
type ConfirmPaymentResponse struct {
	ConfirmationID string `json:"confirmation_id"`
}

// ErrorResponse is the error body returned by the API
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and message. Type is set for payment errors.
type ErrorDetail struct {
	Code    string `json:"code"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}
