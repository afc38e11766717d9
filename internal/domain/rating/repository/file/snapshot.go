// Package file stores the rating snapshot as a JSON file
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Conte777/newsdigest/internal/domain/rating/deps"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
)

// SnapshotRepository implements deps.SnapshotRepository on a local JSON file
type SnapshotRepository struct {
	path   string
	mu     sync.Mutex
	logger zerolog.Logger
}

var _ deps.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates the repository and its parent directory
func NewSnapshotRepository(path string, logger zerolog.Logger) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotRepository{path: path, logger: logger}, nil
}

// Load reads and decodes the snapshot file
func (r *SnapshotRepository) Load(_ context.Context) (*entities.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ratingerrors.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", r.path, err)
	}

	var snap entities.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &ratingerrors.InvalidSnapshotError{Reason: r.path, Err: err}
	}
	return &snap, nil
}

// Save writes the snapshot to a temp file and renames it over the old one
func (r *SnapshotRepository) Save(_ context.Context, snapshot *entities.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	r.logger.Debug().Str("path", r.path).Int("bytes", len(data)).Msg("Snapshot saved")
	return nil
}
