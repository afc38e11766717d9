package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
)

func TestSnapshotRepository_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	repo := NewSnapshotRepository(rdb, "test:snapshot")

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ratingerrors.ErrSnapshotNotFound)

	assert.Error(t, repo.Save(context.Background(), &entities.Snapshot{}))
}

// TestSnapshotRepository_Integration runs against TEST_REDIS_URL when set
func TestSnapshotRepository_Integration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" || testing.Short() {
		t.Skip("skipping integration test")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	key := "test:rating:snapshot"
	require.NoError(t, rdb.Del(ctx, key).Err())
	repo := NewSnapshotRepository(rdb, key)

	_, err = repo.Load(ctx)
	assert.ErrorIs(t, err, ratingerrors.ErrSnapshotNotFound)

	snap := &entities.Snapshot{
		Sources: map[string]entities.RatedItem{
			"Alpha": {Kind: entities.KindSource, ID: "Alpha", Category: "AI", Seq: 1, Status: entities.StatusCandidate},
		},
		Experts:  map[string]entities.RatedItem{},
		Messages: map[string]entities.TrackedMessage{},
		Config:   entities.RatingConfig{PrivilegedUserID: 1, ReactionPoints: entities.DefaultReactionPoints()},
	}
	require.NoError(t, repo.Save(ctx, snap))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}
