package telegram

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/Conte777/newsdigest/internal/domain/rating/consts"
)

// Router registers Telegram bot handlers
type Router struct {
	handlers *Handlers
	logger   zerolog.Logger
}

// NewRouter creates new Telegram router
func NewRouter(handlers *Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterRoutes registers reaction and command handlers on the bot
func (r *Router) RegisterRoutes(bot *tgbot.Bot) {
	bot.RegisterHandlerMatchFunc(IsReactionUpdate, r.handlers.HandleReaction)

	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, r.handlers.HandleStart)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/help", tgbot.MatchTypeExact, r.handlers.HandleHelp)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/report", tgbot.MatchTypeExact, r.handlers.HandleReport)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/top", tgbot.MatchTypePrefix, r.handlers.HandleTop)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/digest", tgbot.MatchTypeExact, r.handlers.HandleDigest)

	r.logger.Info().Msg("All Telegram handlers registered successfully")
}

// SetCommands publishes the command menu
func (r *Router) SetCommands(ctx context.Context, bot *tgbot.Bot) {
	commands := make([]models.BotCommand, 0, len(consts.AllCommands))
	for _, c := range consts.AllCommands {
		commands = append(commands, models.BotCommand{Command: c.Name, Description: c.Description})
	}

	if _, err := bot.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: commands}); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to set bot commands")
	}
}
