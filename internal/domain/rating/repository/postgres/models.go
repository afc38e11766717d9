package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
)

// RatedItemModel is the rated_items row
type RatedItemModel struct {
	Kind           string `gorm:"primaryKey;size:16"`
	ID             string `gorm:"primaryKey;size:255"`
	Category       string `gorm:"size:64;index"`
	Reference      string
	Seq            uint64 `gorm:"not null"`
	ReactionCount  int    `gorm:"not null;default:0"`
	ScoreSum       int64  `gorm:"not null;default:0"`
	Status         string `gorm:"size:16;not null"`
	LastReactionAt *time.Time
	TimesSelected  int `gorm:"not null;default:0"`
	LastSelectedAt *time.Time
	RegisteredAt   time.Time
	Reactions      datatypes.JSON
}

// TableName returns the table name for RatedItemModel
func (RatedItemModel) TableName() string {
	return "rated_items"
}

// TrackedMessageModel is the tracked_messages row
type TrackedMessageModel struct {
	MessageID    string    `gorm:"primaryKey;size:64"`
	ChatID       string    `gorm:"size:64"`
	SourceItemID string    `gorm:"size:255;not null"`
	ExpertItemID string    `gorm:"size:255"`
	RegisteredAt time.Time `gorm:"index"`
}

// TableName returns the table name for TrackedMessageModel
func (TrackedMessageModel) TableName() string {
	return "tracked_messages"
}

// RatingConfigModel is the single rating_config row
type RatingConfigModel struct {
	ID               uint `gorm:"primaryKey"`
	PrivilegedUserID int64
	ReactionPoints   datatypes.JSON
	SavedAt          time.Time
}

// TableName returns the table name for RatingConfigModel
func (RatingConfigModel) TableName() string {
	return "rating_config"
}

func toItemModel(item *entities.RatedItem) (RatedItemModel, error) {
	m := RatedItemModel{
		Kind:           string(item.Kind),
		ID:             item.ID,
		Category:       item.Category,
		Reference:      item.Reference,
		Seq:            item.Seq,
		ReactionCount:  item.ReactionCount,
		ScoreSum:       item.ScoreSum,
		Status:         string(item.Status),
		LastReactionAt: item.LastReactionAt,
		TimesSelected:  item.TimesSelected,
		LastSelectedAt: item.LastSelectedAt,
		RegisteredAt:   item.RegisteredAt,
	}
	if len(item.Reactions) > 0 {
		data, err := json.Marshal(item.Reactions)
		if err != nil {
			return m, fmt.Errorf("failed to encode reactions of %q: %w", item.ID, err)
		}
		m.Reactions = datatypes.JSON(data)
	}
	return m, nil
}

func fromItemModel(m *RatedItemModel) (entities.RatedItem, error) {
	item := entities.RatedItem{
		Kind:           entities.Kind(m.Kind),
		ID:             m.ID,
		Category:       m.Category,
		Reference:      m.Reference,
		Seq:            m.Seq,
		ReactionCount:  m.ReactionCount,
		ScoreSum:       m.ScoreSum,
		Status:         entities.Status(m.Status),
		LastReactionAt: utcPtr(m.LastReactionAt),
		TimesSelected:  m.TimesSelected,
		LastSelectedAt: utcPtr(m.LastSelectedAt),
		RegisteredAt:   m.RegisteredAt.UTC(),
	}
	if len(m.Reactions) > 0 {
		if err := json.Unmarshal(m.Reactions, &item.Reactions); err != nil {
			return item, fmt.Errorf("failed to decode reactions of %q: %w", m.ID, err)
		}
	}
	return item, nil
}

func toMessageModel(msg *entities.TrackedMessage) TrackedMessageModel {
	return TrackedMessageModel{
		MessageID:    msg.MessageID,
		ChatID:       msg.ChatID,
		SourceItemID: msg.SourceItemID,
		ExpertItemID: msg.ExpertItemID,
		RegisteredAt: msg.RegisteredAt,
	}
}

func fromMessageModel(m *TrackedMessageModel) entities.TrackedMessage {
	return entities.TrackedMessage{
		MessageID:    m.MessageID,
		ChatID:       m.ChatID,
		SourceItemID: m.SourceItemID,
		ExpertItemID: m.ExpertItemID,
		RegisteredAt: m.RegisteredAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
