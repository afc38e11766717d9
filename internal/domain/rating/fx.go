// Package rating contains the rating domain module
package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/newsdigest/config"
	httpDelivery "github.com/Conte777/newsdigest/internal/domain/rating/delivery/http"
	kafkaDelivery "github.com/Conte777/newsdigest/internal/domain/rating/delivery/kafka"
	telegramDelivery "github.com/Conte777/newsdigest/internal/domain/rating/delivery/telegram"
	"github.com/Conte777/newsdigest/internal/domain/rating/deps"
	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	"github.com/Conte777/newsdigest/internal/domain/rating/repository/file"
	kafkaRepo "github.com/Conte777/newsdigest/internal/domain/rating/repository/kafka"
	postgresRepo "github.com/Conte777/newsdigest/internal/domain/rating/repository/postgres"
	redisRepo "github.com/Conte777/newsdigest/internal/domain/rating/repository/redis"
	"github.com/Conte777/newsdigest/internal/domain/rating/selection"
	"github.com/Conte777/newsdigest/internal/domain/rating/store"
	"github.com/Conte777/newsdigest/internal/domain/rating/usecase/buissines"
	"github.com/Conte777/newsdigest/internal/domain/rating/workers"
	"github.com/Conte777/newsdigest/internal/infrastructure/database"
	"github.com/Conte777/newsdigest/internal/infrastructure/http/server"
	applog "github.com/Conte777/newsdigest/internal/infrastructure/logger"
	infraRedis "github.com/Conte777/newsdigest/internal/infrastructure/redis"
	"github.com/Conte777/newsdigest/internal/infrastructure/telegram"
)

// BootstrapTimeout bounds loading the snapshot on startup
const BootstrapTimeout = 30 * time.Second

// Module provides rating domain components for fx dependency injection
var Module = fx.Module("rating",
	// Core
	fx.Provide(provideClock),
	fx.Provide(provideStore),
	fx.Provide(provideEngine),

	// Repository
	fx.Provide(provideSnapshotRepository),
	fx.Provide(provideProducer),

	// UseCase
	fx.Provide(provideUseCase),

	// Delivery - Telegram (needs raw bot from infrastructure)
	fx.Provide(provideTelegramHandlers),
	fx.Provide(provideTelegramRouter),

	// Delivery - Kafka
	fx.Provide(provideKafkaHandlers),

	// Delivery - HTTP
	fx.Provide(provideHTTPHandlers),
	fx.Provide(provideHealthHandler),

	// Workers
	workers.Module,

	// Wire cyclic dependency, register routes and restore state
	fx.Invoke(wireAndRegister),
)

func provideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

// provideStore builds the in-memory rating store with injected rating config
func provideStore(cfg *config.RatingConfig, clock clockwork.Clock) *store.Store {
	points := entities.ReactionPoints(cfg.ReactionPoints)
	if len(points) == 0 {
		points = entities.DefaultReactionPoints()
	}
	return store.New(entities.RatingConfig{
		PrivilegedUserID: cfg.PrivilegedUserID,
		ReactionPoints:   points,
	}, clock)
}

func provideEngine(st *store.Store, cfg *config.RatingConfig) *selection.Engine {
	return selection.NewEngine(st, cfg.ExplorationRatio)
}

// provideSnapshotRepository opens only the backend selected by STORAGE_BACKEND
func provideSnapshotRepository(
	lc fx.Lifecycle,
	storageCfg *config.StorageConfig,
	dbCfg *config.DatabaseConfig,
	redisCfg *config.RedisConfig,
	logger zerolog.Logger,
) (deps.SnapshotRepository, error) {
	log := applog.Component(logger, "snapshot-"+storageCfg.Backend)

	switch storageCfg.Backend {
	case config.StorageBackendPostgres:
		db, err := database.NewPostgresDB(dbCfg)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return database.Close(db, log)
			},
		})
		log.Info().
			Str("host", dbCfg.Host).
			Str("port", dbCfg.Port).
			Str("database", dbCfg.Name).
			Msg("Database connected")
		return postgresRepo.NewSnapshotRepository(db)

	case config.StorageBackendRedis:
		client, err := infraRedis.NewClient(redisCfg.URL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), BootstrapTimeout)
		defer cancel()
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return client.Close()
			},
		})
		log.Info().Str("key", redisCfg.Key).Msg("Redis connected")
		return redisRepo.NewSnapshotRepository(client.Underlying(), redisCfg.Key), nil

	default:
		return file.NewSnapshotRepository(storageCfg.SnapshotPath, log)
	}
}

// provideProducer creates the event publisher and closes it on stop
func provideProducer(lc fx.Lifecycle, cfg *config.KafkaConfig, logger zerolog.Logger) (deps.EventPublisher, error) {
	producer, err := kafkaRepo.NewProducer(cfg, applog.Component(logger, "kafka-producer"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return producer.Close()
		},
	})
	return producer, nil
}

// provideUseCase creates the use case and restores the rating state.
// Restore must finish before the bot and HTTP server start.
func provideUseCase(
	st *store.Store,
	engine *selection.Engine,
	repo deps.SnapshotRepository,
	publisher deps.EventPublisher,
	clock clockwork.Clock,
	ratingCfg *config.RatingConfig,
	digestCfg *config.DigestConfig,
	logger zerolog.Logger,
) (*buissines.UseCase, error) {
	uc := buissines.NewUseCase(st, engine, repo, publisher, clock, ratingCfg, digestCfg,
		applog.Component(logger, "rating-usecase"))

	ctx, cancel := context.WithTimeout(context.Background(), BootstrapTimeout)
	defer cancel()

	if err := uc.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("failed to bootstrap rating state: %w", err)
	}
	return uc, nil
}

// provideTelegramHandlers creates Telegram handlers with raw bot
func provideTelegramHandlers(
	uc *buissines.UseCase,
	bot *telegram.Bot,
	tgCfg *config.TelegramConfig,
	ratingCfg *config.RatingConfig,
	logger zerolog.Logger,
) *telegramDelivery.Handlers {
	return telegramDelivery.NewHandlers(uc, bot.Raw(), tgCfg, ratingCfg, applog.Component(logger, "telegram-handlers"))
}

func provideTelegramRouter(handlers *telegramDelivery.Handlers, logger zerolog.Logger) *telegramDelivery.Router {
	return telegramDelivery.NewRouter(handlers, applog.Component(logger, "telegram-router"))
}

func provideKafkaHandlers(uc *buissines.UseCase, logger zerolog.Logger) *kafkaDelivery.Handlers {
	return kafkaDelivery.NewHandlers(uc, applog.Component(logger, "kafka-handlers"))
}

func provideHTTPHandlers(uc *buissines.UseCase, serviceCfg *config.ServiceConfig, logger zerolog.Logger) *httpDelivery.Handlers {
	return httpDelivery.NewHandlers(uc, serviceCfg.APIToken, applog.Component(logger, "http-handlers"))
}

func provideHealthHandler(
	uc *buissines.UseCase,
	storageCfg *config.StorageConfig,
	kafkaCfg *config.KafkaConfig,
	clock clockwork.Clock,
	logger zerolog.Logger,
) *httpDelivery.HealthHandler {
	return httpDelivery.NewHealthHandler(uc, storageCfg, kafkaCfg, clock, applog.Component(logger, "health"))
}

// wireAndRegister resolves the cyclic dependency and registers routes
func wireAndRegister(
	lc fx.Lifecycle,
	uc *buissines.UseCase,
	tgHandlers *telegramDelivery.Handlers,
	tgRouter *telegramDelivery.Router,
	bot *telegram.Bot,
	httpHandlers *httpDelivery.Handlers,
	health *httpDelivery.HealthHandler,
	srv *server.Server,
	logger zerolog.Logger,
) {
	// Handlers implements deps.TelegramSender interface
	// This resolves the cyclic dependency: UseCase -> TelegramSender <- Handlers -> UseCase
	uc.SetSender(tgHandlers)

	tgRouter.RegisterRoutes(bot.Raw())

	srv.Router.GET("/health", health.Handle)
	httpHandlers.RegisterRoutes(srv.Router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			tgRouter.SetCommands(ctx, bot.Raw())
			logger.Info().Msg("Rating service wired")
			return nil
		},
	})
}
