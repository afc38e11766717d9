// Package workers contains background workers for the rating domain
package workers

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/infrastructure/metrics"
)

// MessageHandler processes one Kafka message value
type MessageHandler func(ctx context.Context, data []byte) error

// TopicConsumer consumes one Kafka topic and hands every message to a handler
type TopicConsumer struct {
	reader  *kafka.Reader
	topic   string
	handle  MessageHandler
	metrics *metrics.Metrics
	logger  zerolog.Logger
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewTopicConsumer creates new Kafka consumer for topic
func NewTopicConsumer(cfg *config.KafkaConfig, topic string, handle MessageHandler, logger zerolog.Logger) *TopicConsumer {
	brokers := cfg.Brokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9093"}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  cfg.GroupID,
		Topic:    topic,
		MinBytes: 1,    // 1 byte - return immediately when message available
		MaxBytes: 10e6, // 10MB
	})

	logger.Info().
		Strs("brokers", brokers).
		Str("group_id", cfg.GroupID).
		Str("topic", topic).
		Msg("Kafka consumer initialized")

	ctx, cancel := context.WithCancel(context.Background())

	return &TopicConsumer{
		reader:  reader,
		topic:   topic,
		handle:  handle,
		metrics: metrics.GetDefaultMetrics(),
		logger:  logger,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts consuming messages from Kafka
func (c *TopicConsumer) Start() {
	c.logger.Info().Str("topic", c.topic).Msg("Starting Kafka consumer...")

	go func() {
		for {
			select {
			case <-c.done:
				return
			case <-c.ctx.Done():
				return
			default:
				msg, err := c.reader.ReadMessage(c.ctx)
				if err != nil {
					if c.ctx.Err() != nil {
						return
					}
					c.logger.Error().Err(err).Msg("Failed to read message from Kafka")
					continue
				}

				c.metrics.RecordKafkaConsumed(msg.Topic)
				c.logger.Debug().
					Str("topic", msg.Topic).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Received message from Kafka")

				if err := c.handle(c.ctx, msg.Value); err != nil {
					c.logger.Error().Err(err).Str("topic", msg.Topic).Msg("Failed to handle Kafka message")
				}
			}
		}
	}()
}

// Stop stops the consumer gracefully
func (c *TopicConsumer) Stop() error {
	c.logger.Info().Str("topic", c.topic).Msg("Stopping Kafka consumer...")
	c.cancel()
	close(c.done)

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to close Kafka reader")
		return err
	}

	c.logger.Info().Str("topic", c.topic).Msg("Kafka consumer stopped successfully")
	return nil
}
