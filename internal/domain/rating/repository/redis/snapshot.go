// Package redis stores the rating snapshot as a JSON value under one Redis key
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Conte777/newsdigest/internal/domain/rating/deps"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
)

type snapshotRepository struct {
	rdb *redis.Client
	key string
}

// NewSnapshotRepository creates a new Redis snapshot repository
func NewSnapshotRepository(rdb *redis.Client, key string) deps.SnapshotRepository {
	return &snapshotRepository{rdb: rdb, key: key}
}

// Load reads and decodes the snapshot key
func (r *snapshotRepository) Load(ctx context.Context) (*entities.Snapshot, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ratingerrors.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", r.key, err)
	}

	var snap entities.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &ratingerrors.InvalidSnapshotError{Reason: r.key, Err: err}
	}
	return &snap, nil
}

// Save overwrites the snapshot key
func (r *snapshotRepository) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot %s: %w", r.key, err)
	}
	return nil
}
