package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SendTimeLayout is the day-month-year hour:minute format of message_send_time
// on the wire. Times are always expressed in UTC.
const SendTimeLayout = "02-01-2006 15:04"

// CampaignStatusScheduled is the status of a committed campaign awaiting its send time
const CampaignStatusScheduled = "scheduled"

// CampaignDraft is the in-progress campaign built field by field in the wizard
type CampaignDraft struct {
	CampaignName     string      `json:"campaign_name"`
	PromotionCode    string      `json:"promotion_code"`
	PromotionMessage string      `json:"promotion_message"`
	MessageSendTime  time.Time   `json:"message_send_time"`
	Recipients       []Recipient `json:"recipients"`
}

// FinalizedDraft is an immutable snapshot of a validated draft.
// It is only produced by the wizard when entering the payment stage.
type FinalizedDraft struct {
	draft CampaignDraft
}

// Finalize freezes the draft together with a copy of the given recipients
func Finalize(d CampaignDraft, recipients []Recipient) FinalizedDraft {
	frozen := d
	frozen.Recipients = append([]Recipient(nil), recipients...)
	return FinalizedDraft{draft: frozen}
}

// Draft returns a copy of the frozen draft
func (f FinalizedDraft) Draft() CampaignDraft {
	d := f.draft
	d.Recipients = append([]Recipient(nil), f.draft.Recipients...)
	return d
}

// RecipientCount returns the number of frozen recipients
func (f FinalizedDraft) RecipientCount() int {
	return len(f.draft.Recipients)
}

// CampaignName returns the frozen campaign name
func (f FinalizedDraft) CampaignName() string {
	return f.draft.CampaignName
}

// CommitRequest builds the wire payload persisting this draft with a payment confirmation
func (f FinalizedDraft) CommitRequest(confirmationID string) CommitCampaignRequest {
	refs := make([]RecipientRef, 0, len(f.draft.Recipients))
	for _, r := range f.draft.Recipients {
		refs = append(refs, RecipientRef{ID: r.ID})
	}
	return CommitCampaignRequest{
		PromotionCode:    f.draft.PromotionCode,
		CampaignName:     f.draft.CampaignName,
		PromotionMessage: f.draft.PromotionMessage,
		MessageSendTime:  f.draft.MessageSendTime.UTC().Format(SendTimeLayout),
		Recipients:       refs,
		ConfirmationID:   confirmationID,
	}
}

// CommitCampaignRequest is the payload persisting a paid campaign
type CommitCampaignRequest struct {
	PromotionCode    string         `json:"promotion_code"`
	CampaignName     string         `json:"campaign_name"`
	PromotionMessage string         `json:"promotion_message"`
	MessageSendTime  string         `json:"message_send_time"`
	Recipients       []RecipientRef `json:"recipients"`
	ConfirmationID   string         `json:"confirmation_id"`
}

// CampaignRecord is a persisted, paid campaign
type CampaignRecord struct {
	ID               int64           `json:"id" db:"id"`
	Name             string          `json:"campaign_name" db:"name"`
	PromotionCode    string          `json:"promotion_code" db:"promotion_code"`
	PromotionMessage string          `json:"promotion_message" db:"promotion_message"`
	SendAt           time.Time       `json:"message_send_time" db:"send_at"`
	Status           string          `json:"status" db:"status"`
	ConfirmationID   string          `json:"confirmation_id" db:"confirmation_id"`
	TotalCost        decimal.Decimal `json:"total_cost" db:"total_cost"`
	Currency         string          `json:"currency" db:"currency"`
	RecipientIDs     []int64         `json:"recipient_ids,omitempty" db:"-"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// CampaignFilter holds filtering options for listing campaigns
type CampaignFilter struct {
	Status   string
	Page     int
	PageSize int
}

// CampaignCommittedEvent is published once a paid campaign is persisted
type CampaignCommittedEvent struct {
	CampaignID     int64  `json:"campaign_id"`
	ConfirmationID string `json:"confirmation_id"`
	RecipientCount int    `json:"recipient_count"`
	SendAt         string `json:"send_at"`
}
