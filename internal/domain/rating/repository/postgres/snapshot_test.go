package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Conte777/newsdigest/internal/domain/rating/deps"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
)

// newTestRepository runs the gorm repository against in-memory sqlite
func newTestRepository(t *testing.T) deps.SnapshotRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo, err := NewSnapshotRepository(db)
	require.NoError(t, err)
	return repo
}

func testSnapshot() *entities.Snapshot {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	return &entities.Snapshot{
		Sources: map[string]entities.RatedItem{
			"Alpha": {
				Kind: entities.KindSource, ID: "Alpha", Category: "AI", Reference: "https://alpha.example",
				Seq: 1, ReactionCount: 2, ScoreSum: 15, Status: entities.StatusCandidate,
				LastReactionAt: &at, RegisteredAt: at,
				Reactions: []entities.ReactionRecord{{Emoji: "🔥", Points: 10, At: at}, {Emoji: "👍", Points: 5, At: at}},
			},
		},
		Experts: map[string]entities.RatedItem{
			"@ylecun": {
				Kind: entities.KindExpert, ID: "@ylecun", Category: "AI", Seq: 2,
				Status: entities.StatusCandidate, TimesSelected: 3, LastSelectedAt: &at, RegisteredAt: at,
			},
		},
		Messages: map[string]entities.TrackedMessage{
			"42": {MessageID: "42", ChatID: "-1001", SourceItemID: "Alpha", ExpertItemID: "@ylecun", RegisteredAt: at},
		},
		Config: entities.RatingConfig{PrivilegedUserID: 685668909, ReactionPoints: entities.DefaultReactionPoints()},
	}
}

func TestSnapshotRepository_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ratingerrors.ErrSnapshotNotFound)
}

func TestSnapshotRepository_SaveLoad(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	snap := testSnapshot()

	require.NoError(t, repo.Save(ctx, snap))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSnapshotRepository_SaveReplaces(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, testSnapshot()))

	next := testSnapshot()
	delete(next.Messages, "42")
	delete(next.Experts, "@ylecun")
	require.NoError(t, repo.Save(ctx, next))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
	assert.Empty(t, got.Experts)
	assert.Len(t, got.Sources, 1)
}

func TestItemModel_Conversion(t *testing.T) {
	item := testSnapshot().Sources["Alpha"]

	m, err := toItemModel(&item)
	require.NoError(t, err)
	assert.Equal(t, "source", m.Kind)
	assert.NotEmpty(t, m.Reactions)

	back, err := fromItemModel(&m)
	require.NoError(t, err)
	assert.Equal(t, item, back)
}
