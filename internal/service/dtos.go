package service

import (
	"fmt"
	"time"

	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/validation"
)

// CampaignListResult represents a paginated list of campaigns
type CampaignListResult struct {
	Data       []*models.CampaignRecord `json:"data"`
	Pagination models.PaginationResult  `json:"pagination"`
}

// commitInput is a decoded, structurally checked commit request
type commitInput struct {
	draft          models.CampaignDraft
	recipientIDs   []int64
	confirmationID string
}

// parseCommitRequest checks the parts of a commit request that the field
// rules do not cover and converts it to a draft
func parseCommitRequest(req *models.CommitCampaignRequest) (*commitInput, error) {
	if req.ConfirmationID == "" {
		return nil, models.ErrInvalidInput("confirmation_id is required")
	}

	sendAt, err := time.ParseInLocation(models.SendTimeLayout, req.MessageSendTime, time.UTC)
	if err != nil {
		return nil, models.ErrInvalidInput(fmt.Sprintf("message_send_time must use the format %s", models.SendTimeLayout))
	}

	if len(req.Recipients) < validation.MinRecipients {
		return nil, models.ErrInvalidInput(fmt.Sprintf("at least %d recipients are required", validation.MinRecipients))
	}

	ids := make([]int64, 0, len(req.Recipients))
	seen := make(map[int64]struct{}, len(req.Recipients))
	for _, ref := range req.Recipients {
		if ref.ID <= 0 {
			return nil, models.ErrInvalidInput(fmt.Sprintf("invalid recipient id %d", ref.ID))
		}
		if _, dup := seen[ref.ID]; dup {
			return nil, models.ErrInvalidInput(fmt.Sprintf("recipient %d is listed more than once", ref.ID))
		}
		seen[ref.ID] = struct{}{}
		ids = append(ids, ref.ID)
	}

	return &commitInput{
		draft: models.CampaignDraft{
			CampaignName:     req.CampaignName,
			PromotionCode:    req.PromotionCode,
			PromotionMessage: req.PromotionMessage,
			MessageSendTime:  sendAt,
		},
		recipientIDs:   ids,
		confirmationID: req.ConfirmationID,
	}, nil
}
