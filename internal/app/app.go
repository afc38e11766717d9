// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain"
	"github.com/Conte777/newsdigest/internal/infrastructure"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, metrics, http, telegram bot)
		infrastructure.Module,

		// Domain (rating store, selection, delivery, workers)
		domain.Module,
	)
}
