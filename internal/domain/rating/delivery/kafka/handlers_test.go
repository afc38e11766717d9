package kafka

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
	"github.com/Conte777/newsdigest/internal/domain/rating/repository/file"
	kafkaRepo "github.com/Conte777/newsdigest/internal/domain/rating/repository/kafka"
	"github.com/Conte777/newsdigest/internal/domain/rating/selection"
	"github.com/Conte777/newsdigest/internal/domain/rating/store"
	"github.com/Conte777/newsdigest/internal/domain/rating/usecase/buissines"
)

func newTestHandlers(t *testing.T) (*Handlers, *store.Store) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	st := store.New(entities.RatingConfig{PrivilegedUserID: 1}, clock)
	repo, err := file.NewSnapshotRepository(filepath.Join(t.TempDir(), "snap.json"), zerolog.Nop())
	require.NoError(t, err)

	uc := buissines.NewUseCase(
		st,
		selection.NewEngine(st, 0.3),
		repo,
		kafkaRepo.NoopPublisher{},
		clock,
		&config.RatingConfig{PrivilegedUserID: 1, MessageRetentionDays: 30},
		&config.DigestConfig{},
		zerolog.Nop(),
	)
	return NewHandlers(uc, zerolog.Nop()), st
}

func TestHandlers_HandleItemDiscovered(t *testing.T) {
	h, st := newTestHandlers(t)

	err := h.HandleItemDiscovered(context.Background(),
		[]byte(`{"kind":"expert","id":"@ylecun","category":"AI","reference":"https://x.com/ylecun"}`))
	require.NoError(t, err)

	item, ok := st.GetItem(entities.KindExpert, "@ylecun")
	require.True(t, ok)
	assert.Equal(t, "https://x.com/ylecun", item.Reference)

	assert.Error(t, h.HandleItemDiscovered(context.Background(), []byte(`{`)))
	assert.ErrorIs(t,
		h.HandleItemDiscovered(context.Background(), []byte(`{"kind":"podcast","id":"x"}`)),
		ratingerrors.ErrInvalidKind)
}

func TestHandlers_HandleMessageSent(t *testing.T) {
	h, st := newTestHandlers(t)
	_, err := st.RegisterItem(entities.KindSource, "Alpha", "AI", "")
	require.NoError(t, err)

	err = h.HandleMessageSent(context.Background(),
		[]byte(`{"message_id":"77","chat_id":"-100123","source_id":"Alpha","sent_at":"2026-06-01T00:00:00Z"}`))
	require.NoError(t, err)

	msg, ok := st.GetMessage("77")
	require.True(t, ok)
	assert.Equal(t, "Alpha", msg.SourceItemID)
	assert.Equal(t, "-100123", msg.ChatID)

	err = h.HandleMessageSent(context.Background(), []byte(`{"message_id":"78","source_id":"Ghost"}`))
	assert.ErrorIs(t, err, ratingerrors.ErrUnknownItem)

	assert.Error(t, h.HandleMessageSent(context.Background(), []byte(`{"message_id":"79"}`)))
}
