package telegram

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/newsdigest/config"
	applog "github.com/Conte777/newsdigest/internal/infrastructure/logger"
)

// Module provides Telegram bot for fx dependency injection
var Module = fx.Module("telegram",
	fx.Provide(provideBot),
	fx.Invoke(registerLifecycle),
)

// provideBot creates Telegram bot from config
func provideBot(cfg *config.TelegramConfig, logger zerolog.Logger) (*Bot, error) {
	return NewBot(cfg.BotToken, applog.Component(logger, "telegram"))
}

// registerLifecycle registers bot lifecycle hooks
func registerLifecycle(lc fx.Lifecycle, bot *Bot) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			bot.Start()
			return nil
		},
		OnStop: bot.Stop,
	})
}
