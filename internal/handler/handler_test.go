package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakeRecipientService struct {
	queries []models.DirectoryQuery
	page    *models.DirectoryPage
	err     error
}

func (f *fakeRecipientService) Search(ctx context.Context, q models.DirectoryQuery) (*models.DirectoryPage, error) {
	f.queries = append(f.queries, q)
	return f.page, f.err
}

type fakePricingService struct {
	unitPrice decimal.Decimal
}

func (f *fakePricingService) Currency() string { return "USD" }

func (f *fakePricingService) Quote(ctx context.Context, recipientCount int) (decimal.Decimal, error) {
	if recipientCount < 2 {
		return decimal.Zero, models.ErrInvalidInput("recipient_count must be at least 2")
	}
	return f.unitPrice.Mul(decimal.NewFromInt(int64(recipientCount))), nil
}

type fakePaymentService struct {
	secret     string
	confirmErr []error
	confirmID  string
	created    int
}

func (f *fakePaymentService) CreateAuthorization(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	f.created++
	return f.secret, nil
}

func (f *fakePaymentService) Confirm(ctx context.Context, secret string, card models.Card) (string, error) {
	if secret != f.secret {
		return "", models.ErrNotFoundWithMsg("payment authorization not found")
	}
	if len(f.confirmErr) > 0 {
		err := f.confirmErr[0]
		f.confirmErr = f.confirmErr[1:]
		if err != nil {
			return "", err
		}
	}
	return f.confirmID, nil
}

type fakeCampaignService struct {
	requests []models.CommitCampaignRequest
	err      error
}

func (f *fakeCampaignService) Commit(ctx context.Context, req *models.CommitCampaignRequest) (*models.CampaignRecord, error) {
	f.requests = append(f.requests, *req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.CampaignRecord{ID: int64(len(f.requests)), Name: req.CampaignName, ConfirmationID: req.ConfirmationID}, nil
}

func (f *fakeCampaignService) GetByID(ctx context.Context, id int64) (*models.CampaignRecord, error) {
	if id > int64(len(f.requests)) {
		return nil, models.ErrNotFoundWithMsg("campaign not found")
	}
	return &models.CampaignRecord{ID: id}, nil
}

func (f *fakeCampaignService) List(ctx context.Context, filter models.CampaignFilter) (*service.CampaignListResult, error) {
	return &service.CampaignListResult{Data: []*models.CampaignRecord{}}, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) Health(ctx context.Context) error { return f.err }

type apiFixture struct {
	recipients *fakeRecipientService
	payments   *fakePaymentService
	campaigns  *fakeCampaignService
	db         *fakeHealth
	router     http.Handler
}

func newAPIFixture() *apiFixture {
	f := &apiFixture{
		recipients: &fakeRecipientService{page: &models.DirectoryPage{Items: []models.Recipient{}, TotalCount: 0}},
		payments:   &fakePaymentService{secret: "pi_1_secret_2", confirmID: "pi_1"},
		campaigns:  &fakeCampaignService{},
		db:         &fakeHealth{},
	}
	logger := testLogger()
	f.router = NewRouter(Handlers{
		Recipient: NewRecipientHandler(f.recipients, logger),
		Payment:   NewPaymentHandler(&fakePricingService{unitPrice: decimal.RequireFromString("5.00")}, f.payments, logger),
		Campaign:  NewCampaignHandler(f.campaigns, logger),
		Health:    NewHealthHandler(f.db, nil, logger),
	}, logger)
	return f
}

func (f *apiFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func TestListRecipients_ParsesQuery(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(http.MethodGet, "/recipients?page=3&page_size=10&sort=desc&exclude_blacklisted=false&search=ada", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.recipients.queries, 1)
	assert.Equal(t, models.DirectoryQuery{
		Page:               3,
		PageSize:           10,
		SortOrder:          models.SortDesc,
		ExcludeBlacklisted: false,
		SearchTerm:         "ada",
	}, f.recipients.queries[0])

	rec = f.do(http.MethodGet, "/recipients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.recipients.queries[1].ExcludeBlacklisted)
}

func TestListRecipients_BadQuery(t *testing.T) {
	f := newAPIFixture()

	for _, target := range []string{"/recipients?page=x", "/recipients?page_size=ten", "/recipients?exclude_blacklisted=maybe"} {
		rec := f.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, models.CodeInvalidInput, decodeError(t, rec).Code)
	}
	assert.Empty(t, f.recipients.queries)
}

func TestCreateQuote(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(http.MethodPost, "/quotes", `{"recipient_count": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.QuoteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.TotalCost.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, "USD", resp.Currency)

	rec = f.do(http.MethodPost, "/quotes", `{"recipient_count": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/quotes", `{"recipients": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JSON", decodeError(t, rec).Code)
}

func TestConfirmPayment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantType   string
	}{
		{
			name:       "declined",
			err:        models.ErrPaymentDeclined(models.GatewayErrorCard, "Your card was declined."),
			wantStatus: http.StatusPaymentRequired,
			wantCode:   models.CodePaymentDecline,
			wantType:   models.GatewayErrorCard,
		},
		{
			name:       "provider failure",
			err:        models.ErrPaymentFailed("payment provider unavailable", errors.New("timeout")),
			wantStatus: http.StatusBadGateway,
			wantCode:   models.CodePaymentFailed,
			wantType:   models.GatewayErrorAPI,
		},
		{
			name:       "already failed",
			err:        models.ErrConflictWithMsg("payment authorization is failed"),
			wantStatus: http.StatusConflict,
			wantCode:   models.CodeConflict,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture()
			f.payments.confirmErr = []error{tt.err}

			rec := f.do(http.MethodPost, "/payment-authorizations/confirm",
				`{"authorization_secret":"pi_1_secret_2","card":{"number":"4242424242424242","exp_month":12,"exp_year":2030,"cvc":"123"}}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, detail.Code)
			assert.Equal(t, tt.wantType, detail.Type)
		})
	}
}

func TestCommitCampaign(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(http.MethodPost, "/campaigns", `{
		"promotion_code": "SUMMER24",
		"campaign_name": "Summer Sale",
		"promotion_message": "Get 20% off everything this week!",
		"message_send_time": "13-06-2024 09:30",
		"recipients": [{"id": 1}, {"id": 2}],
		"confirmation_id": "pi_1"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.campaigns.requests, 1)
	assert.Equal(t, []models.RecipientRef{{ID: 1}, {ID: 2}}, f.campaigns.requests[0].Recipients)

	f.campaigns.err = models.ErrConflictWithMsg("payment confirmation already used by another campaign")
	rec = f.do(http.MethodPost, "/campaigns", `{"confirmation_id": "pi_1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetCampaign(t *testing.T) {
	f := newAPIFixture()

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/campaigns/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/campaigns/7", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/campaigns", "").Code)
}

func TestHealth(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "not_configured", resp.Services["queue"])

	f.db.err = errors.New("connection refused")
	rec = f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}
