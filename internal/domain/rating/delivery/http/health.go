package http

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain/rating/usecase/buissines"
)

// HealthStatus is the aggregated service state
type HealthStatus string

// Health states
const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth is the state of one dependency
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentHealth `json:"components"`
}

// HealthHandler reports store, persistence and broker health
type HealthHandler struct {
	uc         *buissines.UseCase
	storageCfg *config.StorageConfig
	kafkaCfg   *config.KafkaConfig
	clock      clockwork.Clock
	logger     zerolog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(
	uc *buissines.UseCase,
	storageCfg *config.StorageConfig,
	kafkaCfg *config.KafkaConfig,
	clock clockwork.Clock,
	logger zerolog.Logger,
) *HealthHandler {
	return &HealthHandler{
		uc:         uc,
		storageCfg: storageCfg,
		kafkaCfg:   kafkaCfg,
		clock:      clock,
		logger:     logger,
	}
}

// Handle serves GET /health. Only an unhealthy service answers 503.
func (h *HealthHandler) Handle(ctx *fasthttp.RequestCtx) {
	components := []ComponentHealth{
		h.storeHealth(ctx),
		h.persistenceHealth(),
		h.kafkaHealth(),
	}
	status := determineOverallStatus(components)

	code := fasthttp.StatusOK
	if status == HealthStatusUnhealthy {
		code = fasthttp.StatusServiceUnavailable
	}

	if status != HealthStatusHealthy {
		h.logger.Warn().Str("status", string(status)).Interface("components", components).Msg("Rating service not healthy")
	}

	body, err := json.Marshal(HealthResponse{
		Status:     status,
		Timestamp:  h.clock.Now().UTC(),
		Components: components,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode health check response")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(code)
	ctx.SetBody(body)
}

// storeHealth fails when no sources are registered: nothing could be selected
func (h *HealthHandler) storeHealth(ctx *fasthttp.RequestCtx) ComponentHealth {
	report := h.uc.Report(ctx)
	c := ComponentHealth{Name: "rating_store", Healthy: report.Sources.Total > 0}
	if c.Healthy {
		c.Message = fmt.Sprintf("%d sources, %d experts, %d tracked messages",
			report.Sources.Total, report.Experts.Total, report.ActiveMessages)
	} else {
		c.Message = "No sources registered"
	}
	return c
}

func (h *HealthHandler) persistenceHealth() ComponentHealth {
	c := ComponentHealth{Name: "snapshot_" + h.storageCfg.Backend, Healthy: !h.uc.Dirty()}
	if !c.Healthy {
		c.Message = "Last snapshot save failed, unsaved changes pending"
	}
	return c
}

func (h *HealthHandler) kafkaHealth() ComponentHealth {
	if !h.kafkaCfg.Enabled {
		return ComponentHealth{Name: "kafka", Healthy: true, Message: "disabled"}
	}
	return ComponentHealth{Name: "kafka", Healthy: true, Message: strings.Join(h.kafkaCfg.Brokers, ",")}
}

// determineOverallStatus: all healthy, none healthy, or degraded in between
func determineOverallStatus(components []ComponentHealth) HealthStatus {
	failed := 0
	for _, c := range components {
		if !c.Healthy {
			failed++
		}
	}

	switch failed {
	case 0:
		return HealthStatusHealthy
	case len(components):
		return HealthStatusUnhealthy
	default:
		return HealthStatusDegraded
	}
}
