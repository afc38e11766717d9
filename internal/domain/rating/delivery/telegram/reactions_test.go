package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/newsdigest/config"
)

func emoji(e string) models.ReactionType {
	return models.ReactionType{
		Type:              models.ReactionTypeTypeEmoji,
		ReactionTypeEmoji: &models.ReactionTypeEmoji{Type: models.ReactionTypeTypeEmoji, Emoji: e},
	}
}

func TestAddedEmojis(t *testing.T) {
	tests := []struct {
		name string
		prev []models.ReactionType
		next []models.ReactionType
		want []string
	}{
		{"first reaction", nil, []models.ReactionType{emoji("🔥")}, []string{"🔥"}},
		{"removed", []models.ReactionType{emoji("🔥")}, nil, nil},
		{"replaced", []models.ReactionType{emoji("👍")}, []models.ReactionType{emoji("👎")}, []string{"👎"}},
		{"kept and added", []models.ReactionType{emoji("👍")}, []models.ReactionType{emoji("👍"), emoji("🔥")}, []string{"🔥"}},
		{"custom ignored", nil, []models.ReactionType{{Type: models.ReactionTypeTypeCustomEmoji}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddedEmojis(tt.prev, tt.next))
		})
	}
}

func TestFromDigestChannel(t *testing.T) {
	chat := models.Chat{ID: -100123, Username: "ai_digest"}

	assert.True(t, FromDigestChannel(chat, &config.TelegramConfig{}))
	assert.True(t, FromDigestChannel(chat, &config.TelegramConfig{ChannelID: "-100123"}))
	assert.True(t, FromDigestChannel(chat, &config.TelegramConfig{ChannelUsername: "@AI_Digest"}))
	assert.False(t, FromDigestChannel(chat, &config.TelegramConfig{ChannelID: "-100999"}))
	assert.False(t, FromDigestChannel(models.Chat{ID: 5}, &config.TelegramConfig{ChannelUsername: "@ai_digest"}))
}

func TestReactionEvents(t *testing.T) {
	update := &models.MessageReactionUpdated{
		Chat:        models.Chat{ID: -100123},
		MessageID:   77,
		User:        &models.User{ID: 42},
		Date:        1780000000,
		OldReaction: []models.ReactionType{emoji("👍")},
		NewReaction: []models.ReactionType{emoji("👍"), emoji("🔥")},
	}

	events := ReactionEvents(update)
	require.Len(t, events, 1)
	assert.Equal(t, "77", events[0].MessageID)
	assert.Equal(t, "-100123", events[0].ChatID)
	assert.Equal(t, int64(42), events[0].UserID)
	assert.Equal(t, "🔥", events[0].Emoji)
	assert.Equal(t, int64(1780000000), events[0].AppliedAt.Unix())

	update.User = nil
	assert.Empty(t, ReactionEvents(update), "anonymous reactions are dropped")
}

func TestIsReactionUpdate(t *testing.T) {
	assert.True(t, IsReactionUpdate(&models.Update{MessageReaction: &models.MessageReactionUpdated{}}))
	assert.False(t, IsReactionUpdate(&models.Update{Message: &models.Message{}}))
	assert.False(t, IsReactionUpdate(nil))
}
