package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"healthwatch/internal/model"
)

// StatusSource supplies the latest per-service status map.
type StatusSource interface {
	Statuses() map[string]model.ServiceStatus
}

// AlertCounter supplies aggregate alert counts.
type AlertCounter interface {
	Counts() model.AlertCounts
}

// ActiveUserCounter reports the number of active users.
type ActiveUserCounter interface {
	ActiveUsers() int
}

// IssueCounter reports the number of open issues.
type IssueCounter interface {
	OpenIssues(ctx context.Context) (int, error)
}

// AggregatorOptions carries the optional dashboard collaborators.
type AggregatorOptions struct {
	Sessions      ActiveUserCounter // nil reports 0 active users
	Issues        IssueCounter      // nil reports 0 open issues
	LatencyWindow int               // samples averaged for the dashboard response time
	StartedAt     time.Time
}

// SummaryAggregator composes history, service statuses and alert counts
// into dashboard snapshots on demand.
type SummaryAggregator struct {
	history       *MetricsHistory
	services      StatusSource
	alerts        AlertCounter
	sessions      ActiveUserCounter
	issues        IssueCounter
	latencyWindow int
	startedAt     time.Time
	now           func() time.Time
	logger        zerolog.Logger

	mu             sync.Mutex
	lastOpenIssues int
}

// NewSummaryAggregator creates an aggregator.
func NewSummaryAggregator(
	history *MetricsHistory,
	services StatusSource,
	alerts AlertCounter,
	opts AggregatorOptions,
	logger zerolog.Logger,
) *SummaryAggregator {
	startedAt := opts.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	window := opts.LatencyWindow
	if window <= 0 {
		window = 10
	}
	return &SummaryAggregator{
		history:       history,
		services:      services,
		alerts:        alerts,
		sessions:      opts.Sessions,
		issues:        opts.Issues,
		latencyWindow: window,
		startedAt:     startedAt,
		now:           time.Now,
		logger:        logger.With().Str("component", "aggregator").Logger(),
	}
}

// Summary returns the current health snapshot. Metrics is nil until the
// first sample has been recorded; after a failed sampling cycle it keeps
// the last good sample.
func (a *SummaryAggregator) Summary() model.HealthSummary {
	now := a.now()
	services := a.services.Statuses()
	counts := a.alerts.Counts()

	var metrics *model.MetricSample
	if latest, ok := a.history.Latest(); ok {
		metrics = &latest
	}

	uptime := now.Sub(a.startedAt)
	return model.HealthSummary{
		OverallStatus: model.DeriveOverallStatus(services, counts.Unresolved()),
		Metrics:       metrics,
		Services:      services,
		AlertCounts:   counts,
		Uptime:        uptime,
		UptimeSeconds: uptime.Seconds(),
		GeneratedAt:   now,
	}
}

// Dashboard returns the summary together with the external counters. When
// the issue tracker fails the last known count is served.
func (a *SummaryAggregator) Dashboard(ctx context.Context) model.Dashboard {
	d := model.Dashboard{
		AvgResponseTimeMs: a.history.AverageResponseTime(a.latencyWindow),
		Summary:           a.Summary(),
	}
	if a.sessions != nil {
		d.ActiveUsers = a.sessions.ActiveUsers()
	}
	d.OpenIssues = a.openIssues(ctx)
	return d
}

func (a *SummaryAggregator) openIssues(ctx context.Context) int {
	if a.issues == nil {
		return 0
	}

	n, err := a.issues.OpenIssues(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.logger.Warn().Err(err).Int("last_known", a.lastOpenIssues).Msg("issue count unavailable, serving last known value")
		return a.lastOpenIssues
	}
	a.lastOpenIssues = n
	return n
}
