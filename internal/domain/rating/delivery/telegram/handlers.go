// Package telegram contains the Telegram delivery of the rating domain
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain/rating/consts"
	"github.com/Conte777/newsdigest/internal/domain/rating/dto"
	"github.com/Conte777/newsdigest/internal/domain/rating/usecase/buissines"
	"github.com/Conte777/newsdigest/internal/infrastructure/metrics"
)

// Constants for Telegram API
const (
	MaxMessageLength = 4096
	// room for the "(i/n)\n" header of a multi-part message
	PartHeaderReserve = 16
	RequestTimeout    = 30 * time.Second
	// Telegram allows about one message per second per chat with short bursts
	SendRate  = rate.Limit(1)
	SendBurst = 5
)

// Handlers contains Telegram update handlers
// Implements deps.TelegramSender interface
type Handlers struct {
	uc        *buissines.UseCase
	bot       *tgbot.Bot
	tgCfg     *config.TelegramConfig
	ratingCfg *config.RatingConfig
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewHandlers creates new Telegram handlers
func NewHandlers(
	uc *buissines.UseCase,
	bot *tgbot.Bot,
	tgCfg *config.TelegramConfig,
	ratingCfg *config.RatingConfig,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		uc:        uc,
		bot:       bot,
		tgCfg:     tgCfg,
		ratingCfg: ratingCfg,
		limiter:   rate.NewLimiter(SendRate, SendBurst),
		metrics:   metrics.GetDefaultMetrics(),
		logger:    logger,
	}
}

// SendMessage implements deps.TelegramSender interface
func (h *Handlers) SendMessage(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		h.logger.Warn().Int64("chat_id", chatID).Msg("Attempt to send empty message")
		return fmt.Errorf("message text cannot be empty")
	}

	for _, part := range splitMessage(text) {
		if err := h.sendSingleMessage(ctx, chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) sendSingleMessage(ctx context.Context, chatID int64, text string) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send rate limiter: %w", err)
	}

	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.metrics.RecordTelegramSendError()
		return h.handleSendMessageError(chatID, err)
	}

	h.logger.Debug().Int64("chat_id", chatID).Int("message_length", len(text)).Msg("Message sent")
	return nil
}

func (h *Handlers) handleSendMessageError(chatID int64, err error) error {
	msg := err.Error()

	switch {
	case strings.Contains(msg, "Forbidden"):
		h.logger.Warn().Int64("chat_id", chatID).Msg("User blocked the bot or chat not found")
		return fmt.Errorf("user blocked the bot or chat not found")
	case strings.Contains(msg, "chat not found"):
		h.logger.Warn().Int64("chat_id", chatID).Msg("Chat not found")
		return fmt.Errorf("chat not found")
	case strings.Contains(msg, "Too Many Requests"):
		h.logger.Warn().Int64("chat_id", chatID).Msg("Rate limit exceeded")
		return fmt.Errorf("rate limit exceeded, please try again later")
	default:
		h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Unknown error while sending message")
		return fmt.Errorf("failed to send message: %w", err)
	}
}

// HandleReaction applies emoji reactions left in the digest channel
func (h *Handlers) HandleReaction(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	reaction := update.MessageReaction
	if !FromDigestChannel(reaction.Chat, h.tgCfg) {
		h.logger.Debug().Int64("chat_id", reaction.Chat.ID).Msg("Reaction outside digest channel ignored")
		return
	}

	for _, event := range ReactionEvents(reaction) {
		outcome, err := h.uc.HandleReaction(ctx, &event)
		if err != nil {
			h.logger.Error().Err(err).Str("message_id", event.MessageID).Msg("Failed to handle reaction")
			continue
		}
		h.logger.Debug().
			Str("message_id", event.MessageID).
			Str("emoji", event.Emoji).
			Int("applied", len(outcome.Applied)).
			Msg("Reaction processed")
	}
}

// HandleStart handles /start command
func (h *Handlers) HandleStart(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	userID, chatID, ok := sender(update)
	if !ok {
		return
	}
	h.logCommand(userID, "/start", "success")

	text := "👋 Hi! I rate news sources and experts from your reactions in the digest channel."
	if userID != h.ratingCfg.PrivilegedUserID {
		text = "👋 Hi! This bot serves a single owner."
	}
	h.sendResponse(ctx, chatID, text+"\n\n"+FormatHelp(userID == h.ratingCfg.PrivilegedUserID))
}

// HandleHelp handles /help command
func (h *Handlers) HandleHelp(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	userID, chatID, ok := sender(update)
	if !ok {
		return
	}
	h.logCommand(userID, "/help", "success")
	h.sendResponse(ctx, chatID, FormatHelp(userID == h.ratingCfg.PrivilegedUserID))
}

// HandleReport handles /report command
func (h *Handlers) HandleReport(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	chatID, ok := h.authorize(ctx, update, consts.CommandReport)
	if !ok {
		return
	}
	h.sendResponse(ctx, chatID, FormatReport(h.uc.Report(ctx)))
}

// HandleTop handles /top [kind] [category] command
func (h *Handlers) HandleTop(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	chatID, ok := h.authorize(ctx, update, consts.CommandTop)
	if !ok {
		return
	}

	kind, category := ParseTopArgs(update.Message.Text)
	items, err := h.uc.Top(ctx, &dto.TopRequest{Kind: string(kind), Category: category})
	if err != nil {
		h.logError(update.Message.From.ID, "/top", err)
		h.sendResponse(ctx, chatID, "❌ Failed to build top list")
		return
	}
	h.sendResponse(ctx, chatID, FormatTop(kind, category, items))
}

// HandleDigest handles /digest command
func (h *Handlers) HandleDigest(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	chatID, ok := h.authorize(ctx, update, consts.CommandDigest)
	if !ok {
		return
	}

	plan, err := h.uc.PlanDigest(ctx, &dto.DigestPlanRequest{})
	if err != nil {
		h.logError(update.Message.From.ID, "/digest", err)
		h.sendResponse(ctx, chatID, "❌ Failed to plan digest")
		return
	}
	h.sendResponse(ctx, chatID, FormatDigest(plan))
}

// authorize lets only the rating owner run privileged commands
func (h *Handlers) authorize(ctx context.Context, update *models.Update, cmd consts.Command) (int64, bool) {
	userID, chatID, ok := sender(update)
	if !ok {
		return 0, false
	}
	if cmd.Privileged && userID != h.ratingCfg.PrivilegedUserID {
		h.logCommand(userID, "/"+cmd.Name, "denied")
		h.sendResponse(ctx, chatID, "⛔ This command is available to the bot owner only")
		return 0, false
	}
	h.logCommand(userID, "/"+cmd.Name, "processing")
	return chatID, true
}

func sender(update *models.Update) (userID, chatID int64, ok bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, 0, false
	}
	return update.Message.From.ID, update.Message.Chat.ID, true
}

func (h *Handlers) sendResponse(ctx context.Context, chatID int64, text string) {
	if err := h.SendMessage(ctx, chatID, text); err != nil {
		h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Failed to send Telegram response")
	}
}

// logCommand logs processed commands
func (h *Handlers) logCommand(userID int64, command, result string) {
	h.logger.Info().Int64("user_id", userID).Str("command", command).Str("result", result).Msg("Telegram command processed")
}

// logError logs command errors
func (h *Handlers) logError(userID int64, command string, err error) {
	h.logger.Error().Int64("user_id", userID).Str("command", command).Err(err).Msg("Telegram command failed")
}

// splitMessage splits text on line boundaries into Telegram-sized parts
func splitMessage(text string) []string {
	if len(text) <= MaxMessageLength {
		return []string{text}
	}

	parts := splitText(text, MaxMessageLength-PartHeaderReserve)
	for i, part := range parts {
		parts[i] = fmt.Sprintf("(%d/%d)\n%s", i+1, len(parts), part)
	}
	return parts
}

// splitText cuts text into chunks of at most limit bytes, preferring line breaks
func splitText(text string, limit int) []string {
	var parts []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if current.Len()+len(line)+1 > limit && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
		if len(line) > limit {
			parts = append(parts, splitLongLine(line, limit)...)
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// splitLongLine cuts a line at spaces, falling back to rune boundaries
func splitLongLine(line string, limit int) []string {
	var parts []string
	runes := []rune(line)

	for len(runes) > 0 {
		end := len(runes)
		for len(string(runes[:end])) > limit {
			end = end * 3 / 4
		}
		if end < len(runes) {
			if i := lastSpace(runes[:end]); i > 0 {
				end = i
			}
		}
		parts = append(parts, string(runes[:end]))
		runes = []rune(strings.TrimLeft(string(runes[end:]), " "))
	}
	return parts
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
