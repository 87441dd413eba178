package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newRecipient(id int64) models.Recipient {
	email := fmt.Sprintf("user%d@example.com", id)
	return models.Recipient{
		ID:        id,
		FirstName: fmt.Sprintf("First%d", id),
		LastName:  fmt.Sprintf("Last%d", id),
		Email:     &email,
	}
}

// fakeDirectory serves recipients from memory and can fail on a given page
type fakeDirectory struct {
	mu         sync.Mutex
	recipients []models.Recipient
	failPage   int
	queries    []models.DirectoryQuery
}

func newFakeDirectory(n int) *fakeDirectory {
	d := &fakeDirectory{failPage: -1}
	for i := 1; i <= n; i++ {
		d.recipients = append(d.recipients, newRecipient(int64(i)))
	}
	return d
}

func (d *fakeDirectory) Search(ctx context.Context, q models.DirectoryQuery) (*models.DirectoryPage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queries = append(d.queries, q)
	if q.Page == d.failPage {
		return nil, errors.New("directory unavailable")
	}

	start := q.Page * q.PageSize
	if start > len(d.recipients) {
		start = len(d.recipients)
	}
	end := start + q.PageSize
	if end > len(d.recipients) {
		end = len(d.recipients)
	}

	return &models.DirectoryPage{
		Items:      append([]models.Recipient(nil), d.recipients[start:end]...),
		TotalCount: int64(len(d.recipients)),
	}, nil
}

type fakePricer struct {
	unitPrice decimal.Decimal
	err       error
	calls     []int
}

func (p *fakePricer) Quote(ctx context.Context, recipientCount int) (decimal.Decimal, error) {
	p.calls = append(p.calls, recipientCount)
	if p.err != nil {
		return decimal.Zero, p.err
	}
	return p.unitPrice.Mul(decimal.NewFromInt(int64(recipientCount))), nil
}

type authorizeCall struct {
	amount      decimal.Decimal
	description string
}

type fakeAuthorizer struct {
	err   error
	calls []authorizeCall
	// block, when set, is waited on before answering
	block chan struct{}
}

func (a *fakeAuthorizer) CreateAuthorization(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	a.calls = append(a.calls, authorizeCall{amount: amount, description: description})
	if a.block != nil {
		<-a.block
	}
	if a.err != nil {
		return "", a.err
	}
	return fmt.Sprintf("pi_secret_%d", len(a.calls)), nil
}

type fakeCollector struct {
	results []error
	id      string
	secrets []string
}

func (c *fakeCollector) Confirm(ctx context.Context, secret string, card models.Card) (string, error) {
	c.secrets = append(c.secrets, secret)
	if len(c.results) > 0 {
		err := c.results[0]
		c.results = c.results[1:]
		if err != nil {
			return "", err
		}
	}
	return c.id, nil
}

type fakeCommitter struct {
	status   int
	err      error
	requests []models.CommitCampaignRequest
}

func (c *fakeCommitter) Commit(ctx context.Context, req models.CommitCampaignRequest) (int, error) {
	c.requests = append(c.requests, req)
	return c.status, c.err
}
