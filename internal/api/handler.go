// Package api exposes the health monitor over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"healthwatch/internal/model"
	"healthwatch/internal/service"
)

// AlertManager is the alert lifecycle surface used by the handlers.
type AlertManager interface {
	Create(alertType string, severity model.AlertSeverity, message string) (*model.Alert, error)
	List(filter model.AlertFilter) []*model.Alert
	Acknowledge(id, userID, comment string) (*model.Alert, error)
	Resolve(id, userID, note string) (*model.Alert, error)
	Dismiss(id string) error
}

// MetricsReader reads recorded samples.
type MetricsReader interface {
	Latest() (model.MetricSample, bool)
	History(limit int) []model.MetricSample
}

// Aggregator builds summary views.
type Aggregator interface {
	Summary() model.HealthSummary
	Dashboard(ctx context.Context) model.Dashboard
}

// LoopReporter reports scheduler loop state.
type LoopReporter interface {
	Running() bool
	Status() []service.LoopStatus
}

// Handler serves the /api/v1/health routes.
type Handler struct {
	metrics    MetricsReader
	services   service.StatusSource
	alerts     AlertManager
	aggregator Aggregator
	loops      LoopReporter // may be nil
	logger     zerolog.Logger
}

// NewHandler creates a handler over the monitor components.
func NewHandler(
	metrics MetricsReader,
	services service.StatusSource,
	alerts AlertManager,
	aggregator Aggregator,
	loops LoopReporter,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		metrics:    metrics,
		services:   services,
		alerts:     alerts,
		aggregator: aggregator,
		loops:      loops,
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

type createAlertRequest struct {
	Type     string `json:"type" binding:"required"`
	Severity string `json:"severity" binding:"required,oneof=info warning critical"`
	Message  string `json:"message" binding:"required"`
}

type acknowledgeRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Comment string `json:"comment"`
}

type resolveRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Note   string `json:"note"`
}

// GetMetrics returns the latest sample and the recorded history.
// The optional limit query parameter keeps only the most recent samples.
func (h *Handler) GetMetrics(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	var current *model.MetricSample
	if latest, ok := h.metrics.Latest(); ok {
		current = &latest
	}

	c.JSON(http.StatusOK, gin.H{
		"current": current,
		"history": h.metrics.History(limit),
	})
}

// ListAlerts returns alerts filtered by type, severity and resolved state.
func (h *Handler) ListAlerts(c *gin.Context) {
	filter := model.AlertFilter{Type: c.Query("type")}

	if raw := c.Query("severity"); raw != "" {
		sev, err := model.ParseAlertSeverity(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Severity = sev
	}
	if raw := c.Query("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resolved must be true or false"})
			return
		}
		filter.Resolved = &resolved
	}

	alerts := h.alerts.List(filter)
	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// CreateAlert records an operator alert.
func (h *Handler) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	alert, err := h.alerts.Create(req.Type, model.AlertSeverity(req.Severity), req.Message)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

// AcknowledgeAlert records an acknowledgement on an alert.
func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	var req acknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	alert, err := h.alerts.Acknowledge(c.Param("id"), req.UserID, req.Comment)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// ResolveAlert resolves an alert.
func (h *Handler) ResolveAlert(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	alert, err := h.alerts.Resolve(c.Param("id"), req.UserID, req.Note)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// DismissAlert removes an alert from the active collection.
func (h *Handler) DismissAlert(c *gin.Context) {
	id := c.Param("id")
	if err := h.alerts.Dismiss(id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "state": model.AlertStateDismissed})
}

// GetServices returns the latest status of every configured service.
func (h *Handler) GetServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": h.services.Statuses()})
}

// GetSummary returns the aggregated health summary.
func (h *Handler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.aggregator.Summary())
}

// GetDashboard returns the summary plus the external dashboard counters.
func (h *Handler) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.aggregator.Dashboard(c.Request.Context()))
}

// Healthz is the liveness probe of the monitor itself.
func (h *Handler) Healthz(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.loops != nil {
		body["scheduler_running"] = h.loops.Running()
		body["loops"] = h.loops.Status()
	}
	c.JSON(http.StatusOK, body)
}

// writeError maps lifecycle errors onto HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrAlertNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrAlertTerminal):
		status = http.StatusConflict
	case errors.Is(err, model.ErrInvalidAlert):
		status = http.StatusBadRequest
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
