package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// uniqueViolation is the Postgres error code for a unique constraint failure
const uniqueViolation = "23505"

// CampaignRepository defines the interface for campaign data access
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.CampaignRecord) error
	GetByID(ctx context.Context, id int64) (*models.CampaignRecord, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]*models.CampaignRecord, int64, error)
	ExistsByConfirmationID(ctx context.Context, confirmationID string) (bool, error)
}

// campaignRepository implements CampaignRepository using PostgreSQL
type campaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sqlx.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, name, promotion_code, promotion_message, send_at, status, confirmation_id, total_cost, currency, created_at`

// Create inserts a campaign and its recipients in one transaction.
// A confirmation id already backing a campaign is a conflict.
func (r *campaignRepository) Create(ctx context.Context, campaign *models.CampaignRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Rollback is safe to call even after Commit
	}()

	query := `
		INSERT INTO campaigns (name, promotion_code, promotion_message, send_at, status, confirmation_id, total_cost, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err = tx.QueryRowxContext(
		ctx,
		query,
		campaign.Name,
		campaign.PromotionCode,
		campaign.PromotionMessage,
		campaign.SendAt,
		campaign.Status,
		campaign.ConfirmationID,
		campaign.TotalCost,
		campaign.Currency,
	).Scan(&campaign.ID, &campaign.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ErrConflictWithMsg("payment confirmation already used by another campaign")
		}
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO campaign_recipients (campaign_id, recipient_id, position)
		VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("failed to prepare recipient insert: %w", err)
	}
	defer stmt.Close()

	for i, recipientID := range campaign.RecipientIDs {
		if _, err := stmt.ExecContext(ctx, campaign.ID, recipientID, i); err != nil {
			return fmt.Errorf("failed to add recipient %d: %w", recipientID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign with its recipient ids in selection order
func (r *campaignRepository) GetByID(ctx context.Context, id int64) (*models.CampaignRecord, error) {
	campaign := &models.CampaignRecord{}
	err := r.db.GetContext(ctx, campaign, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("campaign with ID %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	campaign.RecipientIDs = []int64{}
	err = r.db.SelectContext(ctx, &campaign.RecipientIDs, `
		SELECT recipient_id FROM campaign_recipients
		WHERE campaign_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign recipients: %w", err)
	}

	return campaign, nil
}

// List retrieves campaigns with pagination and filtering
func (r *campaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]*models.CampaignRecord, int64, error) {
	models.ValidateAndSetDefaults(&filter.Page, &filter.PageSize)

	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		countQuery += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	// stable ordering, newest first
	offset := models.CalculateOffset(filter.Page, filter.PageSize)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.PageSize, offset)

	campaigns := []*models.CampaignRecord{}
	if err := r.db.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}

	return campaigns, totalCount, nil
}

// ExistsByConfirmationID reports whether a campaign was already committed for a confirmation id
func (r *campaignRepository) ExistsByConfirmationID(ctx context.Context, confirmationID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM campaigns WHERE confirmation_id = $1)`, confirmationID)
	if err != nil {
		return false, fmt.Errorf("failed to check confirmation: %w", err)
	}
	return exists, nil
}
