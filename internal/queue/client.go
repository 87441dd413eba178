package queue

import (
	"context"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// Client defines the interface for queue operations
type Client interface {
	// Publish announces a committed campaign to downstream consumers
	Publish(ctx context.Context, event *models.CampaignCommittedEvent) error

	// Length returns the number of events waiting to be consumed
	Length(ctx context.Context) (int64, error)

	// Close closes the queue connection
	Close() error

	// Health checks if the queue is healthy
	Health(ctx context.Context) error
}
