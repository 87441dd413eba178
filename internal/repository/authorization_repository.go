package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// AuthorizationRepository defines the interface for payment authorization data access
type AuthorizationRepository interface {
	Create(ctx context.Context, auth *models.AuthorizationRecord) error
	GetBySecret(ctx context.Context, secret string) (*models.AuthorizationRecord, error)
	GetByConfirmationID(ctx context.Context, confirmationID string) (*models.AuthorizationRecord, error)
	UpdateStatus(ctx context.Context, auth *models.AuthorizationRecord) error
}

// authorizationRepository implements AuthorizationRepository using PostgreSQL
type authorizationRepository struct {
	db *sqlx.DB
}

// NewAuthorizationRepository creates a new authorization repository
func NewAuthorizationRepository(db *sqlx.DB) AuthorizationRepository {
	return &authorizationRepository{db: db}
}

const authorizationColumns = `id, secret, amount, currency, description, status, confirmation_id, last_error, created_at, updated_at`

// Create inserts a new authorization
func (r *authorizationRepository) Create(ctx context.Context, auth *models.AuthorizationRecord) error {
	query := `
		INSERT INTO payment_authorizations (id, secret, amount, currency, description, status)
		VALUES (:id, :secret, :amount, :currency, :description, :status)
		RETURNING created_at, updated_at`

	rows, err := r.db.NamedQueryContext(ctx, query, auth)
	if err != nil {
		return fmt.Errorf("failed to create authorization: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&auth.CreatedAt, &auth.UpdatedAt); err != nil {
			return fmt.Errorf("failed to read authorization timestamps: %w", err)
		}
	}
	return rows.Err()
}

// GetBySecret retrieves an authorization by its client secret
func (r *authorizationRepository) GetBySecret(ctx context.Context, secret string) (*models.AuthorizationRecord, error) {
	auth := &models.AuthorizationRecord{}
	err := r.db.GetContext(ctx, auth,
		`SELECT `+authorizationColumns+` FROM payment_authorizations WHERE secret = $1`, secret)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFoundWithMsg("payment authorization not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization: %w", err)
	}
	return auth, nil
}

// GetByConfirmationID retrieves the authorization a confirmation id was issued for
func (r *authorizationRepository) GetByConfirmationID(ctx context.Context, confirmationID string) (*models.AuthorizationRecord, error) {
	auth := &models.AuthorizationRecord{}
	err := r.db.GetContext(ctx, auth,
		`SELECT `+authorizationColumns+` FROM payment_authorizations WHERE confirmation_id = $1`, confirmationID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("payment confirmation %s not found", confirmationID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization by confirmation: %w", err)
	}
	return auth, nil
}

// UpdateStatus stores the outcome of a confirmation attempt
func (r *authorizationRepository) UpdateStatus(ctx context.Context, auth *models.AuthorizationRecord) error {
	query := `
		UPDATE payment_authorizations
		SET status = $1, confirmation_id = $2, last_error = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &auth.UpdatedAt, query, auth.Status, auth.ConfirmationID, auth.LastError, auth.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFoundWithMsg(fmt.Sprintf("payment authorization %s not found", auth.ID))
	}
	if err != nil {
		return fmt.Errorf("failed to update authorization: %w", err)
	}
	return nil
}
