package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBot_RequiresToken(t *testing.T) {
	_, err := NewBot("", zerolog.Nop())
	assert.Error(t, err)
}

func TestNewBot_SkipGetMe(t *testing.T) {
	bot, err := NewBot("123:abc", zerolog.Nop(), tgbot.WithSkipGetMe())
	require.NoError(t, err)
	assert.NotNil(t, bot.Raw())
}

func TestAllowedUpdates_IncludeReactions(t *testing.T) {
	assert.Contains(t, AllowedUpdates, "message_reaction")
	assert.Contains(t, AllowedUpdates, "message")
}

func TestBot_StartStop(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer srv.Close()

	bot, err := NewBot("123:abc", zerolog.Nop(), tgbot.WithSkipGetMe(), tgbot.WithServerURL(srv.URL))
	require.NoError(t, err)

	require.NoError(t, bot.Stop(context.Background()), "stop before start is a no-op")

	bot.Start()
	bot.Start()
	require.Eventually(t, func() bool { return polls.Load() > 0 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bot.Stop(ctx))
	require.NoError(t, bot.Stop(ctx))
}
