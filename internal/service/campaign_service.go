package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Raymond9734/campaign-checkout/internal/metrics"
	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/queue"
	"github.com/Raymond9734/campaign-checkout/internal/repository"
	"github.com/Raymond9734/campaign-checkout/internal/validation"
)

// CampaignService handles campaign business logic
type CampaignService interface {
	Commit(ctx context.Context, req *models.CommitCampaignRequest) (*models.CampaignRecord, error)
	GetByID(ctx context.Context, id int64) (*models.CampaignRecord, error)
	List(ctx context.Context, filter models.CampaignFilter) (*CampaignListResult, error)
}

type campaignService struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo repository.RecipientRepository
	authRepo      repository.AuthorizationRepository
	queueClient   queue.Client
	logger        *slog.Logger
	now           func() time.Time
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	recipientRepo repository.RecipientRepository,
	authRepo repository.AuthorizationRepository,
	queueClient queue.Client,
	logger *slog.Logger,
) CampaignService {
	return &campaignService{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		authRepo:      authRepo,
		queueClient:   queueClient,
		logger:        logger,
		now:           time.Now,
	}
}

// Commit persists a paid campaign. The confirmation id must belong to a
// confirmed payment authorization and may back only one campaign.
func (s *campaignService) Commit(ctx context.Context, req *models.CommitCampaignRequest) (*models.CampaignRecord, error) {
	input, err := parseCommitRequest(req)
	if err != nil {
		metrics.CommitRejectionsTotal.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	if errs := validation.Validate(input.draft, s.now().UTC()); !errs.Empty() {
		metrics.CommitRejectionsTotal.WithLabelValues("invalid_fields").Inc()
		return nil, models.ErrInvalidInput(errs.Error())
	}

	auth, err := s.authRepo.GetByConfirmationID(ctx, input.confirmationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.CommitRejectionsTotal.WithLabelValues("unknown_payment").Inc()
			return nil, models.ErrInvalidInput("confirmation_id does not match a payment")
		}
		return nil, err
	}
	if auth.Status != models.AuthorizationStatusConfirmed {
		metrics.CommitRejectionsTotal.WithLabelValues("unconfirmed_payment").Inc()
		return nil, models.ErrInvalidInput("payment is not confirmed")
	}

	used, err := s.campaignRepo.ExistsByConfirmationID(ctx, input.confirmationID)
	if err != nil {
		return nil, err
	}
	if used {
		metrics.CommitRejectionsTotal.WithLabelValues("payment_reused").Inc()
		return nil, models.ErrConflictWithMsg("payment confirmation already used by another campaign")
	}

	sendable, err := s.recipientRepo.SendableIDs(ctx, input.recipientIDs)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(input.recipientIDs, sendable); len(missing) > 0 {
		metrics.CommitRejectionsTotal.WithLabelValues("invalid_recipients").Inc()
		return nil, models.ErrInvalidInput(fmt.Sprintf("recipients not found or blacklisted: %v", missing))
	}

	campaign := &models.CampaignRecord{
		Name:             input.draft.CampaignName,
		PromotionCode:    validation.NormalizePromotionCode(input.draft.PromotionCode),
		PromotionMessage: input.draft.PromotionMessage,
		SendAt:           input.draft.MessageSendTime,
		Status:           models.CampaignStatusScheduled,
		ConfirmationID:   input.confirmationID,
		TotalCost:        auth.Amount,
		Currency:         auth.Currency,
		RecipientIDs:     input.recipientIDs,
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		if errors.Is(err, models.ErrConflict) {
			metrics.CommitRejectionsTotal.WithLabelValues("payment_reused").Inc()
			return nil, err
		}
		s.logger.Error("failed to create campaign",
			slog.String("error", err.Error()),
			slog.String("confirmation_id", input.confirmationID),
		)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	metrics.CampaignsCommittedTotal.Inc()
	metrics.CampaignRecipients.Observe(float64(len(campaign.RecipientIDs)))

	s.logger.Info("campaign committed",
		slog.Int64("campaign_id", campaign.ID),
		slog.String("name", campaign.Name),
		slog.Int("recipient_count", len(campaign.RecipientIDs)),
		slog.String("total_cost", campaign.TotalCost.StringFixed(2)),
	)

	s.publish(ctx, campaign)

	return campaign, nil
}

// publish announces the campaign. The campaign stays committed when this fails.
func (s *campaignService) publish(ctx context.Context, campaign *models.CampaignRecord) {
	if s.queueClient == nil {
		return
	}

	event := &models.CampaignCommittedEvent{
		CampaignID:     campaign.ID,
		ConfirmationID: campaign.ConfirmationID,
		RecipientCount: len(campaign.RecipientIDs),
		SendAt:         campaign.SendAt.UTC().Format(time.RFC3339),
	}
	if err := s.queueClient.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish campaign event",
			slog.Int64("campaign_id", campaign.ID),
			slog.String("error", err.Error()),
		)
	}
}

// GetByID retrieves a campaign with its recipients
func (s *campaignService) GetByID(ctx context.Context, id int64) (*models.CampaignRecord, error) {
	return s.campaignRepo.GetByID(ctx, id)
}

// List retrieves campaigns with pagination
func (s *campaignService) List(ctx context.Context, filter models.CampaignFilter) (*CampaignListResult, error) {
	campaigns, totalCount, err := s.campaignRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	models.ValidateAndSetDefaults(&filter.Page, &filter.PageSize)

	return &CampaignListResult{
		Data:       campaigns,
		Pagination: models.NewPaginationResult(filter.Page, filter.PageSize, totalCount),
	}, nil
}

func missingIDs(want, found []int64) []int64 {
	have := make(map[int64]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}

	var missing []int64
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
