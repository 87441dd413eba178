// Package checkout drives creation of a paid promotional campaign.
//
// A Wizard walks a campaign through recipient selection, detail entry and
// payment. The recipient set is owned by a Selector, field rules live in the
// validation package and the payment sequence (quote, authorize, collect,
// confirm, commit) is run by an Orchestrator. Every remote system is reached
// through the small interfaces below so the flow can be driven against the
// HTTP API (package client) or against fakes in tests.
package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// Directory lists recipients page by page
type Directory interface {
	Search(ctx context.Context, query models.DirectoryQuery) (*models.DirectoryPage, error)
}

// Pricer prices a campaign for a recipient count
type Pricer interface {
	Quote(ctx context.Context, recipientCount int) (decimal.Decimal, error)
}

// Authorizer opens a payment authorization and returns its secret
type Authorizer interface {
	CreateAuthorization(ctx context.Context, amount decimal.Decimal, description string) (string, error)
}

// Collector is the payment collection capability bound to an authorization secret.
// A failed confirmation reported by the gateway is returned as *GatewayError;
// any other error is treated as unexpected.
type Collector interface {
	Confirm(ctx context.Context, authorizationSecret string, card models.Card) (confirmationID string, err error)
}

// Committer persists a paid campaign and returns the backend status code
type Committer interface {
	Commit(ctx context.Context, req models.CommitCampaignRequest) (status int, err error)
}
