package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// RecipientRepository defines the interface for recipient directory access
type RecipientRepository interface {
	Search(ctx context.Context, q models.DirectoryQuery) ([]models.Recipient, int64, error)
	// SendableIDs returns the subset of ids that exist and are not blacklisted
	SendableIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// recipientRepository implements RecipientRepository using PostgreSQL
type recipientRepository struct {
	db *sqlx.DB
}

// NewRecipientRepository creates a new recipient repository
func NewRecipientRepository(db *sqlx.DB) RecipientRepository {
	return &recipientRepository{db: db}
}

// Search returns one zero-based page of recipients and the total match count
func (r *recipientRepository) Search(ctx context.Context, q models.DirectoryQuery) ([]models.Recipient, int64, error) {
	models.ValidateDirectoryQuery(&q)

	where := " WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if q.ExcludeBlacklisted {
		where += " AND NOT blacklisted"
	}

	if term := strings.TrimSpace(q.SearchTerm); term != "" {
		where += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos)
		args = append(args, "%"+escapeLike(term)+"%")
		argPos++
	}

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM recipients"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipients: %w", err)
	}

	direction := "ASC"
	if q.SortOrder == models.SortDesc {
		direction = "DESC"
	}

	query := `
		SELECT id, first_name, last_name, email, phone, blacklisted
		FROM recipients` + where +
		fmt.Sprintf(" ORDER BY last_name %[1]s, first_name %[1]s, id %[1]s LIMIT $%[2]d OFFSET $%[3]d", direction, argPos, argPos+1)
	args = append(args, q.PageSize, q.Page*q.PageSize)

	recipients := []models.Recipient{}
	if err := r.db.SelectContext(ctx, &recipients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to search recipients: %w", err)
	}

	return recipients, totalCount, nil
}

// SendableIDs returns the ids that exist and are not blacklisted
func (r *recipientRepository) SendableIDs(ctx context.Context, ids []int64) ([]int64, error) {
	query := `SELECT id FROM recipients WHERE id = ANY($1) AND NOT blacklisted`

	found := []int64{}
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to check recipients: %w", err)
	}
	return found, nil
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
