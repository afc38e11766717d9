// Package kafka contains Kafka repository implementations
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain/rating/deps"
	"github.com/Conte777/newsdigest/internal/domain/rating/dto"
	ratingerrors "github.com/Conte777/newsdigest/internal/domain/rating/errors"
	"github.com/Conte777/newsdigest/internal/infrastructure/metrics"
)

// Producer implements deps.EventPublisher
type Producer struct {
	producer     sarama.SyncProducer
	ratingsTopic string
	digestTopic  string
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewProducer creates a Kafka producer, or a no-op publisher when Kafka is disabled
func NewProducer(cfg *config.KafkaConfig, logger zerolog.Logger) (deps.EventPublisher, error) {
	if !cfg.Enabled {
		logger.Info().Msg("Kafka disabled, rating events will not be published")
		return NoopPublisher{}, nil
	}

	brokers := cfg.Brokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9093"}
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info().Strs("brokers", brokers).Msg("Kafka producer initialized successfully")

	return newProducer(producer, cfg, logger), nil
}

func newProducer(producer sarama.SyncProducer, cfg *config.KafkaConfig, logger zerolog.Logger) *Producer {
	return &Producer{
		producer:     producer,
		ratingsTopic: cfg.RatingsUpdatedTopic,
		digestTopic:  cfg.DigestPlannedTopic,
		metrics:      metrics.GetDefaultMetrics(),
		logger:       logger,
	}
}

// PublishRatingUpdated sends rating updated event keyed by item id
func (p *Producer) PublishRatingUpdated(ctx context.Context, event *dto.RatingUpdatedEvent) error {
	return p.sendEvent(ctx, p.ratingsTopic, event.Kind+":"+event.ItemID, event)
}

// PublishDigestPlanned sends digest planned event keyed by plan id
func (p *Producer) PublishDigestPlanned(ctx context.Context, plan *dto.DigestPlan) error {
	return p.sendEvent(ctx, p.digestTopic, plan.ID, plan)
}

// sendEvent sends an event to specified Kafka topic
func (p *Producer) sendEvent(ctx context.Context, topic, key string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		p.metrics.RecordKafkaError("marshal")
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(jsonData),
	}

	start := time.Now()
	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.metrics.RecordKafkaError("send")
		p.logger.Error().Err(err).Str("topic", topic).Msg("Failed to send Kafka message")
		return fmt.Errorf("%w: %w", ratingerrors.ErrEventPublish, err)
	}
	p.metrics.RecordKafkaMessage(time.Since(start).Seconds())

	p.logger.Debug().
		Str("topic", topic).
		Str("key", key).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Kafka message sent successfully")

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		p.logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	p.logger.Info().Msg("Kafka producer closed successfully")
	return nil
}

// NoopPublisher drops every event
type NoopPublisher struct{}

// PublishRatingUpdated implements deps.EventPublisher
func (NoopPublisher) PublishRatingUpdated(context.Context, *dto.RatingUpdatedEvent) error { return nil }

// PublishDigestPlanned implements deps.EventPublisher
func (NoopPublisher) PublishDigestPlanned(context.Context, *dto.DigestPlan) error { return nil }

// Close implements deps.EventPublisher
func (NoopPublisher) Close() error { return nil }
