// Package kafka contains Kafka delivery handlers
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Conte777/newsdigest/internal/domain/rating/dto"
	"github.com/Conte777/newsdigest/internal/domain/rating/usecase/buissines"
)

// Handlers contains Kafka message handlers
type Handlers struct {
	uc     *buissines.UseCase
	logger zerolog.Logger
}

// NewHandlers creates new Kafka handlers
func NewHandlers(uc *buissines.UseCase, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:     uc,
		logger: logger,
	}
}

// HandleMessageSent tracks a digest message posted by the sender service
func (h *Handlers) HandleMessageSent(ctx context.Context, data []byte) error {
	var event dto.MessageSentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error().Err(err).Str("data", string(data)).Msg("Failed to unmarshal message sent event")
		return err
	}
	if event.MessageID == "" || event.SourceID == "" {
		return fmt.Errorf("message sent event without message or source id")
	}

	err := h.uc.RegisterMessage(ctx, &dto.RegisterMessageRequest{
		MessageID: event.MessageID,
		ChatID:    event.ChatID,
		SourceID:  event.SourceID,
		ExpertID:  event.ExpertID,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("message_id", event.MessageID).Msg("Failed to register sent message")
		return err
	}
	return nil
}

// HandleItemDiscovered registers a source or expert found by a connector
func (h *Handlers) HandleItemDiscovered(ctx context.Context, data []byte) error {
	var event dto.ItemDiscoveredEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error().Err(err).Str("data", string(data)).Msg("Failed to unmarshal item discovered event")
		return err
	}

	created, err := h.uc.RegisterItem(ctx, &dto.RegisterItemRequest{
		Kind:      event.Kind,
		ID:        event.ID,
		Category:  event.Category,
		Reference: event.Reference,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("kind", event.Kind).Str("item_id", event.ID).Msg("Failed to register discovered item")
		return err
	}

	h.logger.Debug().Str("kind", event.Kind).Str("item_id", event.ID).Bool("created", created).Msg("Discovered item processed")
	return nil
}
