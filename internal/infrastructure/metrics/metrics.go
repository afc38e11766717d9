package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the rating service
type Metrics struct {
	// Reaction metrics
	ReactionsApplied *prometheus.CounterVec
	ReactionsSkipped *prometheus.CounterVec

	// Rating state
	RatedItems      *prometheus.GaugeVec
	TrackedMessages prometheus.Gauge
	MessagesExpired prometheus.Counter

	// Selection metrics
	ItemsSelected     *prometheus.CounterVec
	SelectionDuration prometheus.Histogram

	// Persistence metrics
	SnapshotSaves        *prometheus.CounterVec
	SnapshotSaveDuration prometheus.Histogram

	// Kafka metrics
	KafkaMessagesProduced prometheus.Counter
	KafkaProduceErrors    *prometheus.CounterVec
	KafkaProduceDuration  prometheus.Histogram
	KafkaMessagesConsumed *prometheus.CounterVec

	// Telegram metrics
	TelegramSendErrors prometheus.Counter
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

// NewMetrics creates a new Metrics instance registered in the default registry.
// Call it once per process; use GetDefaultMetrics everywhere else.
func NewMetrics() *Metrics {
	return &Metrics{
		ReactionsApplied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rating_service_reactions_applied_total",
				Help: "Total number of reactions that changed a rating",
			},
			[]string{"kind", "status"},
		),
		ReactionsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rating_service_reactions_skipped_total",
				Help: "Total number of reactions ignored by the rating store",
			},
			[]string{"reason"},
		),

		RatedItems: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rating_service_rated_items",
				Help: "Current number of rated items by kind and status",
			},
			[]string{"kind", "status"},
		),
		TrackedMessages: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rating_service_tracked_messages",
			Help: "Current number of tracked digest messages",
		}),
		MessagesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rating_service_messages_expired_total",
			Help: "Total number of tracked messages removed by retention cleanup",
		}),

		ItemsSelected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rating_service_items_selected_total",
				Help: "Total number of items selected for digests",
			},
			[]string{"kind", "bucket"},
		),
		SelectionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rating_service_selection_duration_seconds",
			Help:    "Duration of selection operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		SnapshotSaves: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rating_service_snapshot_saves_total",
				Help: "Total number of snapshot saves by result",
			},
			[]string{"result"},
		),
		SnapshotSaveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rating_service_snapshot_save_duration_seconds",
			Help:    "Duration of snapshot saves in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),

		KafkaMessagesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rating_service_kafka_messages_produced_total",
			Help: "Total number of messages produced to Kafka",
		}),
		KafkaProduceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rating_service_kafka_produce_errors_total",
				Help: "Total number of Kafka produce errors",
			},
			[]string{"error_type"},
		),
		KafkaProduceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rating_service_kafka_produce_duration_seconds",
			Help:    "Duration of Kafka produce operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		KafkaMessagesConsumed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rating_service_kafka_messages_consumed_total",
				Help: "Total number of Kafka messages consumed by topic",
			},
			[]string{"topic"},
		),

		TelegramSendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rating_service_telegram_send_errors_total",
			Help: "Total number of failed Telegram sends",
		}),
	}
}

// RecordReactionApplied records a reaction that changed a rating
func (m *Metrics) RecordReactionApplied(kind, status string) {
	m.ReactionsApplied.WithLabelValues(kind, status).Inc()
}

// RecordReactionSkipped records an ignored reaction with its reason
func (m *Metrics) RecordReactionSkipped(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.ReactionsSkipped.WithLabelValues(reason).Inc()
}

// UpdateRatedItems sets the rated items gauge for one kind
func (m *Metrics) UpdateRatedItems(kind string, proven, candidates, rejected int) {
	m.RatedItems.WithLabelValues(kind, "proven").Set(float64(proven))
	m.RatedItems.WithLabelValues(kind, "candidate").Set(float64(candidates))
	m.RatedItems.WithLabelValues(kind, "rejected").Set(float64(rejected))
}

// UpdateTrackedMessages sets the tracked messages gauge
func (m *Metrics) UpdateTrackedMessages(count int) {
	m.TrackedMessages.Set(float64(count))
}

// RecordMessagesExpired records removed tracked messages
func (m *Metrics) RecordMessagesExpired(count int) {
	// Only add positive values to prevent counter from going backwards
	if count > 0 {
		m.MessagesExpired.Add(float64(count))
	}
}

// RecordSelection records a selection with bucket sizes
func (m *Metrics) RecordSelection(kind string, exploitation, exploration int, duration float64) {
	if exploitation > 0 {
		m.ItemsSelected.WithLabelValues(kind, "exploitation").Add(float64(exploitation))
	}
	if exploration > 0 {
		m.ItemsSelected.WithLabelValues(kind, "exploration").Add(float64(exploration))
	}
	m.SelectionDuration.Observe(duration)
}

// RecordSnapshotSave records a snapshot save attempt
func (m *Metrics) RecordSnapshotSave(err error, duration float64) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.SnapshotSaves.WithLabelValues(result).Inc()
	m.SnapshotSaveDuration.Observe(duration)
}

// RecordKafkaMessage records a Kafka message production with duration
func (m *Metrics) RecordKafkaMessage(duration float64) {
	m.KafkaMessagesProduced.Inc()
	m.KafkaProduceDuration.Observe(duration)
}

// RecordKafkaError records a Kafka production error with error type
func (m *Metrics) RecordKafkaError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.KafkaProduceErrors.WithLabelValues(errorType).Inc()
}

// RecordKafkaConsumed records a consumed Kafka message
func (m *Metrics) RecordKafkaConsumed(topic string) {
	m.KafkaMessagesConsumed.WithLabelValues(topic).Inc()
}

// RecordTelegramSendError records a failed Telegram send
func (m *Metrics) RecordTelegramSendError() {
	m.TelegramSendErrors.Inc()
}
