package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/repository"
)

// RecipientService serves the recipient directory
type RecipientService interface {
	Search(ctx context.Context, q models.DirectoryQuery) (*models.DirectoryPage, error)
}

type recipientService struct {
	recipientRepo repository.RecipientRepository
	logger        *slog.Logger
}

// NewRecipientService creates a new recipient service
func NewRecipientService(recipientRepo repository.RecipientRepository, logger *slog.Logger) RecipientService {
	return &recipientService{
		recipientRepo: recipientRepo,
		logger:        logger,
	}
}

// Search returns one zero-based page of the directory
func (s *recipientService) Search(ctx context.Context, q models.DirectoryQuery) (*models.DirectoryPage, error) {
	if q.Page < 0 {
		return nil, models.ErrInvalidInput("page must not be negative")
	}
	if q.SortOrder != "" && q.SortOrder != models.SortAsc && q.SortOrder != models.SortDesc {
		return nil, models.ErrInvalidInput("sort must be 'asc' or 'desc'")
	}
	models.ValidateDirectoryQuery(&q)

	recipients, totalCount, err := s.recipientRepo.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search recipients: %w", err)
	}

	return &models.DirectoryPage{
		Items:      recipients,
		TotalCount: totalCount,
	}, nil
}
