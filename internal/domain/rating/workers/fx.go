package workers

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/newsdigest/config"
	kafkaHandlers "github.com/Conte777/newsdigest/internal/domain/rating/delivery/kafka"
	applog "github.com/Conte777/newsdigest/internal/infrastructure/logger"
)

// Module provides workers for fx dependency injection
var Module = fx.Module("rating-workers",
	fx.Provide(NewCleanupWorker),
	fx.Provide(NewFlushWorker),
	fx.Invoke(registerPeriodicLifecycle),
	fx.Invoke(registerConsumersLifecycle),
)

// registerPeriodicLifecycle registers cleanup and flush worker lifecycle hooks
func registerPeriodicLifecycle(lc fx.Lifecycle, cleanup *CleanupWorker, flush *FlushWorker) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			cleanup.Start()
			flush.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := cleanup.Stop(ctx); err != nil {
				return err
			}
			return flush.Stop(ctx)
		},
	})
}

// registerConsumersLifecycle creates topic consumers when Kafka is enabled
func registerConsumersLifecycle(lc fx.Lifecycle, cfg *config.KafkaConfig, handlers *kafkaHandlers.Handlers, logger zerolog.Logger) {
	if !cfg.Enabled {
		return
	}

	consumers := []*TopicConsumer{
		NewTopicConsumer(cfg, cfg.MessagesSentTopic, handlers.HandleMessageSent,
			applog.Component(logger, "messages-sent-consumer")),
		NewTopicConsumer(cfg, cfg.ItemsDiscoveredTopic, handlers.HandleItemDiscovered,
			applog.Component(logger, "items-discovered-consumer")),
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			for _, c := range consumers {
				c.Start()
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			var firstErr error
			for _, c := range consumers {
				if err := c.Stop(); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	})
}
