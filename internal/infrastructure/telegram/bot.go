// Package telegram contains Telegram bot infrastructure
package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// AllowedUpdates lists the update types the rating bot consumes.
// Reactions are only delivered when requested explicitly.
var AllowedUpdates = tgbot.AllowedUpdates{
	"message",
	"message_reaction",
}

// Bot wraps the Telegram bot for infrastructure layer
type Bot struct {
	bot    *tgbot.Bot
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBot creates a new Telegram bot wrapper
func NewBot(token string, logger zerolog.Logger, extra ...tgbot.Option) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	opts := append([]tgbot.Option{
		tgbot.WithDefaultHandler(defaultHandler),
		tgbot.WithAllowedUpdates(AllowedUpdates),
	}, extra...)

	bot, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info().Msg("Telegram bot created successfully")

	return &Bot{
		bot:    bot,
		logger: logger,
	}, nil
}

// Raw returns the underlying telegram bot for handler registration
func (b *Bot) Raw() *tgbot.Bot {
	return b.bot
}

// Start begins polling updates in the background until Stop is called
func (b *Bot) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})

	b.logger.Info().Msg("Starting Telegram bot...")
	go func(done chan struct{}) {
		defer close(done)
		b.bot.Start(ctx)
	}(b.done)
}

// Stop cancels polling and waits for in-flight handlers to return
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if done == nil {
		return nil
	}

	b.logger.Info().Msg("Stopping Telegram bot...")
	cancel()
	select {
	case <-done:
		b.logger.Info().Msg("Telegram bot stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram bot stop: %w", ctx.Err())
	}
}

// defaultHandler answers plain text in private chats; channel posts are ignored
func defaultHandler(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	if update.Message.Chat.Type != models.ChatTypePrivate {
		return
	}

	_, _ = bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "🤖 Use commands to talk to the rating bot. Send /help for the list.",
	})
}
