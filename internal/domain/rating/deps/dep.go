// Package deps contains interface definitions for the rating domain dependencies
package deps

import (
	"context"

	"github.com/Conte777/newsdigest/internal/domain/rating/dto"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
)

// SnapshotRepository defines interface for loading and saving the rating store state
type SnapshotRepository interface {
	// Load returns the last saved snapshot or errors.ErrSnapshotNotFound
	Load(ctx context.Context) (*entities.Snapshot, error)

	// Save replaces the stored snapshot
	Save(ctx context.Context, snapshot *entities.Snapshot) error
}

// EventPublisher defines interface for publishing rating events to Kafka
type EventPublisher interface {
	// PublishRatingUpdated sends rating updated event
	PublishRatingUpdated(ctx context.Context, event *dto.RatingUpdatedEvent) error

	// PublishDigestPlanned sends digest planned event
	PublishDigestPlanned(ctx context.Context, plan *dto.DigestPlan) error

	// Close closes the publisher
	Close() error
}

// TelegramSender defines interface for sending messages via Telegram
// This interface is used to break the cyclic dependency between UseCase and TelegramHandler
type TelegramSender interface {
	// SendMessage sends a text message to a chat
	SendMessage(ctx context.Context, chatID int64, text string) error
}
