package telegram

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain/rating/dto"
)

// IsReactionUpdate matches updates carrying a message reaction change
func IsReactionUpdate(update *models.Update) bool {
	return update != nil && update.MessageReaction != nil
}

// FromDigestChannel reports whether chat is the configured digest channel.
// With no channel configured every chat is accepted.
func FromDigestChannel(chat models.Chat, cfg *config.TelegramConfig) bool {
	if cfg == nil || (cfg.ChannelID == "" && cfg.ChannelUsername == "") {
		return true
	}
	if cfg.ChannelID != "" && cfg.ChannelID == strconv.FormatInt(chat.ID, 10) {
		return true
	}
	username := strings.TrimPrefix(cfg.ChannelUsername, "@")
	return username != "" && strings.EqualFold(username, chat.Username)
}

// AddedEmojis returns emojis present in next but not in prev, in order.
// Custom and paid reactions are ignored.
func AddedEmojis(prev, next []models.ReactionType) []string {
	before := emojis(prev)
	var added []string
	for _, e := range emojis(next) {
		if !slices.Contains(before, e) && !slices.Contains(added, e) {
			added = append(added, e)
		}
	}
	return added
}

func emojis(reactions []models.ReactionType) []string {
	out := make([]string, 0, len(reactions))
	for _, r := range reactions {
		if r.ReactionTypeEmoji != nil && r.ReactionTypeEmoji.Emoji != "" {
			out = append(out, r.ReactionTypeEmoji.Emoji)
		}
	}
	return out
}

// ReactionEvents decodes one reaction update into rating events, one per
// newly added emoji. Anonymous reactions have no user and yield nothing.
func ReactionEvents(r *models.MessageReactionUpdated) []dto.ReactionEvent {
	if r == nil || r.User == nil {
		return nil
	}

	added := AddedEmojis(r.OldReaction, r.NewReaction)
	if len(added) == 0 {
		return nil
	}

	at := time.Unix(int64(r.Date), 0).UTC()
	events := make([]dto.ReactionEvent, 0, len(added))
	for _, emoji := range added {
		events = append(events, dto.ReactionEvent{
			MessageID: strconv.Itoa(r.MessageID),
			ChatID:    strconv.FormatInt(r.Chat.ID, 10),
			UserID:    r.User.ID,
			Emoji:     emoji,
			AppliedAt: at,
		})
	}
	return events
}
