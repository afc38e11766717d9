package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	"github.com/Conte777/newsdigest/internal/domain/rating/repository/file"
	kafkaRepo "github.com/Conte777/newsdigest/internal/domain/rating/repository/kafka"
	"github.com/Conte777/newsdigest/internal/domain/rating/selection"
	"github.com/Conte777/newsdigest/internal/domain/rating/store"
	"github.com/Conte777/newsdigest/internal/domain/rating/usecase/buissines"
)

const (
	owner     int64 = 685668909
	channelID int64 = -1001234567890
)

// fakeTelegram records sendMessage calls of the Bot API
type fakeTelegram struct {
	mu    sync.Mutex
	sent  []string
	chats []string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
		return
	}

	f.mu.Lock()
	f.sent = append(f.sent, r.FormValue("text"))
	f.chats = append(f.chats, r.FormValue("chat_id"))
	f.mu.Unlock()

	_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":%s,"type":"private"}}}`, r.FormValue("chat_id"))
}

func (f *fakeTelegram) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fixture struct {
	handlers *Handlers
	store    *store.Store
	api      *fakeTelegram
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	api := &fakeTelegram{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	bot, err := tgbot.New("123:test", tgbot.WithSkipGetMe(), tgbot.WithServerURL(srv.URL))
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	st := store.New(entities.RatingConfig{PrivilegedUserID: owner}, clock)
	repo, err := file.NewSnapshotRepository(filepath.Join(t.TempDir(), "snap.json"), zerolog.Nop())
	require.NoError(t, err)

	ratingCfg := &config.RatingConfig{PrivilegedUserID: owner, ExplorationRatio: 0.3, MessageRetentionDays: 30}
	uc := buissines.NewUseCase(st, selection.NewEngine(st, 0.3), repo, kafkaRepo.NoopPublisher{}, clock,
		ratingCfg,
		&config.DigestConfig{Categories: []string{"AI"}, PerCategory: map[string]int{"AI": 1}},
		zerolog.Nop())

	h := NewHandlers(uc, bot, &config.TelegramConfig{ChannelID: fmt.Sprint(channelID)}, ratingCfg, zerolog.Nop())
	uc.SetSender(h)

	_, err = st.RegisterItem(entities.KindSource, "Alpha", "AI", "https://alpha.example")
	require.NoError(t, err)
	require.NoError(t, st.RegisterMessage("10", fmt.Sprint(channelID), "Alpha", ""))

	return &fixture{handlers: h, store: st, api: api}
}

func reactionUpdate(chatID, userID int64, emojis ...string) *models.Update {
	next := make([]models.ReactionType, 0, len(emojis))
	for _, e := range emojis {
		next = append(next, emoji(e))
	}
	return &models.Update{MessageReaction: &models.MessageReactionUpdated{
		Chat:        models.Chat{ID: chatID},
		MessageID:   10,
		User:        &models.User{ID: userID},
		NewReaction: next,
	}}
}

func commandUpdate(userID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		Text: text,
		From: &models.User{ID: userID},
		Chat: models.Chat{ID: userID, Type: models.ChatTypePrivate},
	}}
}

func TestHandleReaction_AppliesInDigestChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handlers.HandleReaction(ctx, nil, reactionUpdate(channelID, owner, "🔥"))

	item, ok := f.store.GetItem(entities.KindSource, "Alpha")
	require.True(t, ok)
	assert.Equal(t, 1, item.ReactionCount)
	assert.Equal(t, int64(10), item.ScoreSum)
}

func TestHandleReaction_FiltersChannelAndUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handlers.HandleReaction(ctx, nil, reactionUpdate(-100999, owner, "🔥"))
	f.handlers.HandleReaction(ctx, nil, reactionUpdate(channelID, 7, "🔥"))

	item, _ := f.store.GetItem(entities.KindSource, "Alpha")
	assert.Zero(t, item.ReactionCount)
}

func TestHandleReaction_StatusChangeNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.handlers.HandleReaction(ctx, nil, reactionUpdate(channelID, owner, "🔥"))
	}

	msgs := f.api.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Alpha: candidate → proven")
}

func TestHandleReport_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handlers.HandleReport(ctx, nil, commandUpdate(7, "/report"))
	f.handlers.HandleReport(ctx, nil, commandUpdate(owner, "/report"))

	msgs := f.api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "owner only")
	assert.Contains(t, msgs[1], "Rating report")
}

func TestHandleTopAndDigest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handlers.HandleReaction(ctx, nil, reactionUpdate(channelID, owner, "👍"))
	f.handlers.HandleTop(ctx, nil, commandUpdate(owner, "/top source AI"))
	f.handlers.HandleDigest(ctx, nil, commandUpdate(owner, "/digest"))

	msgs := f.api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "Alpha [AI] avg 5.0 (1 reactions)")
	assert.Contains(t, msgs[1], "📂 AI")
	assert.Contains(t, msgs[1], "Alpha")
}

func TestSendMessage_Empty(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.handlers.SendMessage(context.Background(), owner, ""))
}

func TestHandleStart_IgnoresUpdatesWithoutSender(t *testing.T) {
	f := newFixture(t)
	f.handlers.HandleStart(context.Background(), nil, &models.Update{Message: &models.Message{Text: "/start"}})
	assert.Empty(t, f.api.messages())
}
