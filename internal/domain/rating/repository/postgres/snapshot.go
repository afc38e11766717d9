// Package postgres stores the rating snapshot in PostgreSQL tables via gorm
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Conte777/newsdigest/internal/domain/rating/deps"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
)

const (
	configRowID = 1
	batchSize   = 200
)

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new snapshot repository and migrates its tables
func NewSnapshotRepository(db *gorm.DB) (deps.SnapshotRepository, error) {
	if err := db.AutoMigrate(&RatedItemModel{}, &TrackedMessageModel{}, &RatingConfigModel{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	return &snapshotRepository{db: db}, nil
}

// Load reads every table into a snapshot
func (r *snapshotRepository) Load(ctx context.Context) (*entities.Snapshot, error) {
	db := r.db.WithContext(ctx)

	var cfg RatingConfigModel
	if err := db.First(&cfg, configRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ratingerrors.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load rating config: %w", err)
	}

	snap := &entities.Snapshot{
		Sources:  make(map[string]entities.RatedItem),
		Experts:  make(map[string]entities.RatedItem),
		Messages: make(map[string]entities.TrackedMessage),
		Config:   entities.RatingConfig{PrivilegedUserID: cfg.PrivilegedUserID},
	}
	if len(cfg.ReactionPoints) > 0 {
		if err := json.Unmarshal(cfg.ReactionPoints, &snap.Config.ReactionPoints); err != nil {
			return nil, &ratingerrors.InvalidSnapshotError{Reason: "reaction points", Err: err}
		}
	}

	var items []RatedItemModel
	if err := db.Order("seq").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load rated items: %w", err)
	}
	for i := range items {
		item, err := fromItemModel(&items[i])
		if err != nil {
			return nil, &ratingerrors.InvalidSnapshotError{Reason: "rated item", Err: err}
		}
		switch item.Kind {
		case entities.KindSource:
			snap.Sources[item.ID] = item
		case entities.KindExpert:
			snap.Experts[item.ID] = item
		default:
			return nil, &ratingerrors.InvalidSnapshotError{Reason: fmt.Sprintf("item %q has kind %q", item.ID, item.Kind)}
		}
	}

	var messages []TrackedMessageModel
	if err := db.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load tracked messages: %w", err)
	}
	for i := range messages {
		msg := fromMessageModel(&messages[i])
		snap.Messages[msg.MessageID] = msg
	}

	return snap, nil
}

// Save replaces all tables with the snapshot in one transaction
func (r *snapshotRepository) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	items := make([]RatedItemModel, 0, len(snapshot.Sources)+len(snapshot.Experts))
	for _, group := range []map[string]entities.RatedItem{snapshot.Sources, snapshot.Experts} {
		for _, item := range group {
			m, err := toItemModel(&item)
			if err != nil {
				return err
			}
			items = append(items, m)
		}
	}

	messages := make([]TrackedMessageModel, 0, len(snapshot.Messages))
	for _, msg := range snapshot.Messages {
		messages = append(messages, toMessageModel(&msg))
	}

	points, err := json.Marshal(snapshot.Config.ReactionPoints)
	if err != nil {
		return fmt.Errorf("failed to encode reaction points: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&TrackedMessageModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear tracked messages: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&RatedItemModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear rated items: %w", err)
		}
		if len(items) > 0 {
			if err := tx.CreateInBatches(items, batchSize).Error; err != nil {
				return fmt.Errorf("failed to save rated items: %w", err)
			}
		}
		if len(messages) > 0 {
			if err := tx.CreateInBatches(messages, batchSize).Error; err != nil {
				return fmt.Errorf("failed to save tracked messages: %w", err)
			}
		}

		cfg := RatingConfigModel{
			ID:               configRowID,
			PrivilegedUserID: snapshot.Config.PrivilegedUserID,
			ReactionPoints:   datatypes.JSON(points),
			SavedAt:          tx.NowFunc(),
		}
		if err := tx.Save(&cfg).Error; err != nil {
			return fmt.Errorf("failed to save rating config: %w", err)
		}
		return nil
	})
}
