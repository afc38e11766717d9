// Package dto contains data transfer objects for the rating domain
package dto

import (
	"time"

	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
)

// ReactionEvent represents an emoji reaction decoded from a Telegram update
type ReactionEvent struct {
	MessageID string    `json:"messageId"`
	ChatID    string    `json:"chatId"`
	UserID    int64     `json:"userId"`
	Emoji     string    `json:"emoji"`
	AppliedAt time.Time `json:"appliedAt"`
}

// ReactionOutcome represents the result of applying one reaction to every rated target
type ReactionOutcome struct {
	Applied []entities.ReactionResult `json:"applied"`
	Skipped []entities.SkipReason     `json:"skipped,omitempty"`
}

// RegisterItemRequest represents a request to register a source or expert
type RegisterItemRequest struct {
	Kind      string `json:"kind"`
	ID        string `json:"id"`
	Category  string `json:"category"`
	Reference string `json:"reference"`
}

// RegisterMessageRequest represents a request to track a sent digest message
type RegisterMessageRequest struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
	SourceID  string `json:"sourceId"`
	ExpertID  string `json:"expertId,omitempty"`
}

// SelectionRequest represents a request to pick items for a digest
type SelectionRequest struct {
	Kind             string   `json:"kind"`
	CandidatePool    []string `json:"candidatePool"`
	TargetCount      int      `json:"targetCount"`
	ExplorationRatio *float64 `json:"explorationRatio,omitempty"`
}

// TopRequest represents a request for the best rated items
type TopRequest struct {
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

// DigestPlanRequest represents a request to plan the next digest.
// Empty PerCategory falls back to the configured digest sizes.
type DigestPlanRequest struct {
	PerCategory map[string]int `json:"perCategory,omitempty"`
}

// DigestEntry is one source (optionally paired with an expert) planned for a digest
type DigestEntry struct {
	Category        string `json:"category"`
	SourceID        string `json:"sourceId"`
	SourceReference string `json:"sourceReference,omitempty"`
	ExpertID        string `json:"expertId,omitempty"`
	ExpertReference string `json:"expertReference,omitempty"`
	Exploration     bool   `json:"exploration"`
}

// CategoryPlan groups the planned entries of one category
type CategoryPlan struct {
	Category string                  `json:"category"`
	Entries  []DigestEntry           `json:"entries"`
	Stats    entities.SelectionStats `json:"stats"`
}

// DigestPlan represents the full digest plan
type DigestPlan struct {
	ID          string         `json:"id"`
	Categories  []CategoryPlan `json:"categories"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// MessageSentEvent represents a Kafka event emitted by the digest sender for every posted message
type MessageSentEvent struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
	SourceID  string `json:"source_id"`
	ExpertID  string `json:"expert_id,omitempty"`
	SentAt    string `json:"sent_at"`
}

// ItemDiscoveredEvent represents a Kafka event announcing a new source or expert
type ItemDiscoveredEvent struct {
	Kind      string `json:"kind"`
	ID        string `json:"id"`
	Category  string `json:"category"`
	Reference string `json:"reference,omitempty"`
}

// RatingUpdatedEvent represents a Kafka event published after a reaction changed a rating
type RatingUpdatedEvent struct {
	EventID        string  `json:"event_id"`
	ItemID         string  `json:"item_id"`
	Kind           string  `json:"kind"`
	Emoji          string  `json:"emoji"`
	Points         int     `json:"points"`
	AverageScore   float64 `json:"average_score"`
	Status         string  `json:"status"`
	PreviousStatus string  `json:"previous_status"`
	ReactionCount  int     `json:"reaction_count"`
	UpdatedAt      string  `json:"updated_at"`
}

// CommandResponse represents a response for bot commands
type CommandResponse struct {
	Message string `json:"message"`
}
