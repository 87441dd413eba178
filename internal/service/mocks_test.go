package service

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// mockRecipientRepository serves recipients from memory
type mockRecipientRepository struct {
	recipients []models.Recipient
	queries    []models.DirectoryQuery
	err        error
}

func (m *mockRecipientRepository) Search(ctx context.Context, q models.DirectoryQuery) ([]models.Recipient, int64, error) {
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, 0, m.err
	}

	filtered := []models.Recipient{}
	for _, r := range m.recipients {
		if q.ExcludeBlacklisted && r.Blacklisted {
			continue
		}
		if q.SearchTerm != "" && !strings.Contains(strings.ToLower(r.FirstName+" "+r.LastName), strings.ToLower(q.SearchTerm)) {
			continue
		}
		filtered = append(filtered, r)
	}

	start := q.Page * q.PageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + q.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], int64(len(filtered)), nil
}

func (m *mockRecipientRepository) SendableIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	found := []int64{}
	for _, id := range ids {
		for _, r := range m.recipients {
			if r.ID == id && !r.Blacklisted {
				found = append(found, id)
			}
		}
	}
	return found, nil
}

// mockAuthorizationRepository keeps authorizations in memory
type mockAuthorizationRepository struct {
	auths     []*models.AuthorizationRecord
	createErr error
	updateErr error
}

func (m *mockAuthorizationRepository) Create(ctx context.Context, auth *models.AuthorizationRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	stored := *auth
	m.auths = append(m.auths, &stored)
	return nil
}

func (m *mockAuthorizationRepository) GetBySecret(ctx context.Context, secret string) (*models.AuthorizationRecord, error) {
	for _, a := range m.auths {
		if a.Secret == secret {
			found := *a
			return &found, nil
		}
	}
	return nil, models.ErrNotFoundWithMsg("payment authorization not found")
}

func (m *mockAuthorizationRepository) GetByConfirmationID(ctx context.Context, confirmationID string) (*models.AuthorizationRecord, error) {
	for _, a := range m.auths {
		if a.ConfirmationID != nil && *a.ConfirmationID == confirmationID {
			found := *a
			return &found, nil
		}
	}
	return nil, models.ErrNotFoundWithMsg("payment confirmation not found")
}

func (m *mockAuthorizationRepository) UpdateStatus(ctx context.Context, auth *models.AuthorizationRecord) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for i, a := range m.auths {
		if a.ID == auth.ID {
			stored := *auth
			m.auths[i] = &stored
			return nil
		}
	}
	return models.ErrNotFoundWithMsg("payment authorization not found")
}

// mockCampaignRepository keeps campaigns in memory
type mockCampaignRepository struct {
	campaigns []*models.CampaignRecord
	createErr error
}

func (m *mockCampaignRepository) Create(ctx context.Context, campaign *models.CampaignRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	campaign.ID = int64(len(m.campaigns) + 1)
	m.campaigns = append(m.campaigns, campaign)
	return nil
}

func (m *mockCampaignRepository) GetByID(ctx context.Context, id int64) (*models.CampaignRecord, error) {
	for _, c := range m.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, models.ErrNotFoundWithMsg("campaign not found")
}

func (m *mockCampaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]*models.CampaignRecord, int64, error) {
	filtered := []*models.CampaignRecord{}
	for _, c := range m.campaigns {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		filtered = append(filtered, c)
	}

	models.ValidateAndSetDefaults(&filter.Page, &filter.PageSize)
	start := models.CalculateOffset(filter.Page, filter.PageSize)
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + filter.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], int64(len(filtered)), nil
}

func (m *mockCampaignRepository) ExistsByConfirmationID(ctx context.Context, confirmationID string) (bool, error) {
	for _, c := range m.campaigns {
		if c.ConfirmationID == confirmationID {
			return true, nil
		}
	}
	return false, nil
}

// mockQueue records published events
type mockQueue struct {
	events []*models.CampaignCommittedEvent
	err    error
}

func (m *mockQueue) Publish(ctx context.Context, event *models.CampaignCommittedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockQueue) Length(ctx context.Context) (int64, error) { return int64(len(m.events)), nil }
func (m *mockQueue) Close() error                              { return nil }
func (m *mockQueue) Health(ctx context.Context) error          { return m.err }

// mockGateway returns canned gateway results
type mockGateway struct {
	secret       string
	createErr    error
	confirmID    string
	confirmErrs  []error
	confirmCalls int
}

func (m *mockGateway) CreateAuthorization(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.secret, nil
}

func (m *mockGateway) Confirm(ctx context.Context, secret string, card models.Card) (string, error) {
	m.confirmCalls++
	if len(m.confirmErrs) > 0 {
		err := m.confirmErrs[0]
		m.confirmErrs = m.confirmErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return m.confirmID, nil
}
