package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Storage backends for the rating snapshot
const (
	StorageBackendFile     = "file"
	StorageBackendPostgres = "postgres"
	StorageBackendRedis    = "redis"
)

// Config holds all configuration for the digest rating service
type Config struct {
	Telegram TelegramConfig
	Rating   RatingConfig
	Digest   DigestConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
	Service  ServiceConfig
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string
	// ChannelID and ChannelUsername identify the digest channel; reactions from
	// any other chat are dropped before they reach the rating store
	ChannelID       string
	ChannelUsername string
}

// RatingConfig holds reaction scoring configuration
type RatingConfig struct {
	PrivilegedUserID int64
	// ReactionPoints overrides the default emoji point map when non-empty
	ReactionPoints       map[string]int
	ExplorationRatio     float64
	MessageRetentionDays int
	CleanupInterval      time.Duration
	RateExperts          bool
	CatalogPath          string
}

// DigestConfig holds digest planning configuration
type DigestConfig struct {
	Categories   []string
	PerCategory  map[string]int
	DefaultCount int
}

// StorageConfig holds snapshot persistence configuration
type StorageConfig struct {
	Backend       string
	SnapshotPath  string
	FlushInterval time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL string
	Key string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled              bool
	Brokers              []string
	GroupID              string
	MessagesSentTopic    string
	ItemsDiscoveredTopic string
	RatingsUpdatedTopic  string
	DigestPlannedTopic   string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
	// APIToken guards the /api routes; empty keeps them locked
	APIToken string
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config   *Config
	Telegram *TelegramConfig
	Rating   *RatingConfig
	Digest   *DigestConfig
	Storage  *StorageConfig
	Database *DatabaseConfig
	Redis    *RedisConfig
	Kafka    *KafkaConfig
	Logging  *LoggingConfig
	Service  *ServiceConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   cfg,
		Telegram: &cfg.Telegram,
		Rating:   &cfg.Rating,
		Digest:   &cfg.Digest,
		Storage:  &cfg.Storage,
		Database: &cfg.Database,
		Redis:    &cfg.Redis,
		Kafka:    &cfg.Kafka,
		Logging:  &cfg.Logging,
		Service:  &cfg.Service,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	userID, err := strconv.ParseInt(getEnv("RATING_PRIVILEGED_USER_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATING_PRIVILEGED_USER_ID: %w", err)
	}

	ratio, err := strconv.ParseFloat(getEnv("RATING_EXPLORATION_RATIO", "0.30"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATING_EXPLORATION_RATIO: %w", err)
	}

	retentionDays, err := strconv.Atoi(getEnv("RATING_MESSAGE_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATING_MESSAGE_RETENTION_DAYS: %w", err)
	}

	cleanupInterval, err := time.ParseDuration(getEnv("RATING_CLEANUP_INTERVAL", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATING_CLEANUP_INTERVAL: %w", err)
	}

	flushInterval, err := time.ParseDuration(getEnv("STORAGE_FLUSH_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORAGE_FLUSH_INTERVAL: %w", err)
	}

	points, err := parseIntMap(getEnv("RATING_REACTION_POINTS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid RATING_REACTION_POINTS: %w", err)
	}

	perCategory, err := parseIntMap(getEnv("DIGEST_PER_CATEGORY", "AI=5,Robotics=3,eVTOL=2,Tech=3"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIGEST_PER_CATEGORY: %w", err)
	}

	defaultCount, err := strconv.Atoi(getEnv("DIGEST_DEFAULT_COUNT", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIGEST_DEFAULT_COUNT: %w", err)
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChannelID:       getEnv("TELEGRAM_CHANNEL_ID", ""),
			ChannelUsername: getEnv("TELEGRAM_CHANNEL_USERNAME", ""),
		},
		Rating: RatingConfig{
			PrivilegedUserID:     userID,
			ReactionPoints:       points,
			ExplorationRatio:     ratio,
			MessageRetentionDays: retentionDays,
			CleanupInterval:      cleanupInterval,
			RateExperts:          getEnvBool("RATING_RATE_EXPERTS", false),
			CatalogPath:          getEnv("RATING_CATALOG_PATH", ""),
		},
		Digest: DigestConfig{
			Categories:   splitList(getEnv("DIGEST_CATEGORIES", "AI,Robotics,eVTOL,Tech")),
			PerCategory:  perCategory,
			DefaultCount: defaultCount,
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendFile)),
			SnapshotPath:  getEnv("STORAGE_SNAPSHOT_PATH", "data/dual-rating-data.json"),
			FlushInterval: flushInterval,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "newsdigest"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Key: getEnv("REDIS_SNAPSHOT_KEY", "newsdigest:rating:snapshot"),
		},
		Kafka: KafkaConfig{
			Enabled:              getEnvBool("KAFKA_ENABLED", false),
			Brokers:              splitList(getEnv("KAFKA_BROKERS", "localhost:9093")),
			GroupID:              getEnv("KAFKA_GROUP_ID", "rating-service-group"),
			MessagesSentTopic:    getEnv("KAFKA_TOPIC_MESSAGES_SENT", "digest.messages.sent"),
			ItemsDiscoveredTopic: getEnv("KAFKA_TOPIC_ITEMS_DISCOVERED", "digest.items.discovered"),
			RatingsUpdatedTopic:  getEnv("KAFKA_TOPIC_RATINGS_UPDATED", "ratings.updated"),
			DigestPlannedTopic:   getEnv("KAFKA_TOPIC_DIGEST_PLANNED", "digest.planned"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name:     getEnv("SERVICE_NAME", "rating-service"),
			Port:     getEnv("SERVICE_PORT", "8085"),
			APIToken: getEnv("RATING_API_TOKEN", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.Rating.PrivilegedUserID == 0 {
		return fmt.Errorf("RATING_PRIVILEGED_USER_ID is required")
	}

	if c.Rating.ExplorationRatio < 0 || c.Rating.ExplorationRatio > 1 {
		return fmt.Errorf("RATING_EXPLORATION_RATIO must be within [0,1], got %v", c.Rating.ExplorationRatio)
	}

	if c.Rating.MessageRetentionDays <= 0 {
		return fmt.Errorf("RATING_MESSAGE_RETENTION_DAYS must be positive")
	}

	switch c.Storage.Backend {
	case StorageBackendFile, StorageBackendPostgres, StorageBackendRedis:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}

	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseIntMap parses "key=1,other=-2" pairs
func parseIntMap(value string) (map[string]int, error) {
	out := make(map[string]int)
	for _, pair := range splitList(value) {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("pair %q is not key=value", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("pair %q: %w", pair, err)
		}
		out[strings.TrimSpace(key)] = n
	}
	return out, nil
}
