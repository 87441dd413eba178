// Package client implements the checkout ports against the campaign API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Raymond9734/campaign-checkout/internal/checkout"
	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// Client talks to the campaign API. It satisfies every checkout port.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ checkout.Directory  = (*Client)(nil)
	_ checkout.Pricer     = (*Client)(nil)
	_ checkout.Authorizer = (*Client)(nil)
	_ checkout.Collector  = (*Client)(nil)
	_ checkout.Committer  = (*Client)(nil)
)

// New creates an API client for baseURL
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

// StatusError is a non-success response from the API
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Search fetches one page of the recipient directory
func (c *Client) Search(ctx context.Context, q models.DirectoryQuery) (*models.DirectoryPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	if q.SortOrder != "" {
		params.Set("sort", q.SortOrder)
	}
	params.Set("exclude_blacklisted", strconv.FormatBool(q.ExcludeBlacklisted))
	if q.SearchTerm != "" {
		params.Set("search", q.SearchTerm)
	}

	var page models.DirectoryPage
	if _, err := c.do(ctx, http.MethodGet, "/recipients?"+params.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Quote prices a campaign for recipientCount recipients
func (c *Client) Quote(ctx context.Context, recipientCount int) (decimal.Decimal, error) {
	var resp models.QuoteResponse
	if _, err := c.do(ctx, http.MethodPost, "/quotes", models.QuoteRequest{RecipientCount: recipientCount}, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.TotalCost, nil
}

// CreateAuthorization opens a payment authorization and returns its secret
func (c *Client) CreateAuthorization(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	req := models.CreateAuthorizationRequest{Amount: amount, Description: description}

	var resp models.CreateAuthorizationResponse
	if _, err := c.do(ctx, http.MethodPost, "/payment-authorizations", req, &resp); err != nil {
		return "", err
	}
	if resp.AuthorizationSecret == "" {
		return "", errors.New("empty authorization secret")
	}
	return resp.AuthorizationSecret, nil
}

// Confirm collects the payment. Payment errors reported by the API are
// returned as *checkout.GatewayError.
func (c *Client) Confirm(ctx context.Context, authorizationSecret string, card models.Card) (string, error) {
	req := models.ConfirmPaymentRequest{AuthorizationSecret: authorizationSecret, Card: card}

	var resp models.ConfirmPaymentResponse
	_, err := c.do(ctx, http.MethodPost, "/payment-authorizations/confirm", req, &resp)
	if err != nil {
		var apiErr *paymentError
		if errors.As(err, &apiErr) {
			return "", &checkout.GatewayError{Type: apiErr.detail.Type, Message: apiErr.detail.Message}
		}
		return "", err
	}
	return resp.ConfirmationID, nil
}

// Commit persists a paid campaign and returns the response status. A non-2xx
// status is returned without an error so the caller can apply its own rule.
func (c *Client) Commit(ctx context.Context, req models.CommitCampaignRequest) (int, error) {
	status, err := c.do(ctx, http.MethodPost, "/campaigns", req, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			c.logger.Warn("campaign commit rejected",
				slog.Int("status", statusErr.Status),
				slog.String("code", statusErr.Code),
				slog.String("message", statusErr.Message),
			)
			return statusErr.Status, nil
		}
		return 0, err
	}
	return status, nil
}

// do sends a JSON request and decodes a 2xx body into out
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp models.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error.Type != "" {
			return resp.StatusCode, &paymentError{status: resp.StatusCode, detail: errResp.Error}
		}
		return resp.StatusCode, &StatusError{
			Status:  resp.StatusCode,
			Code:    errResp.Error.Code,
			Message: errResp.Error.Message,
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// paymentError is an error body carrying a gateway error class
type paymentError struct {
	status int
	detail models.ErrorDetail
}

func (e *paymentError) Error() string {
	return fmt.Sprintf("http %d: %s: %s", e.status, e.detail.Type, e.detail.Message)
}
