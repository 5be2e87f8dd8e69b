package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"healthwatch/internal/model"
)

// Monitor wires the sampling and probing pipelines to history and alerts.
// Its two cycle methods are the bodies of the scheduler loops.
type Monitor struct {
	sampler            *MetricsSampler
	history            *MetricsHistory
	checker            *ServiceHealthChecker
	alerts             *AlertStore
	thresholds         map[string]float64
	raiseOnServiceDown bool
	logger             zerolog.Logger
}

// MonitorOptions selects optional monitor behaviour.
type MonitorOptions struct {
	Thresholds         map[string]float64
	RaiseOnServiceDown bool
}

// NewMonitor creates a monitor over the given components.
func NewMonitor(
	sampler *MetricsSampler,
	history *MetricsHistory,
	checker *ServiceHealthChecker,
	alerts *AlertStore,
	opts MonitorOptions,
	logger zerolog.Logger,
) *Monitor {
	return &Monitor{
		sampler:            sampler,
		history:            history,
		checker:            checker,
		alerts:             alerts,
		thresholds:         opts.Thresholds,
		raiseOnServiceDown: opts.RaiseOnServiceDown,
		logger:             logger.With().Str("component", "monitor").Logger(),
	}
}

// CollectMetrics runs one metrics cycle: sample, record, evaluate, raise,
// strictly in that order. A failed sample leaves history untouched.
func (m *Monitor) CollectMetrics(ctx context.Context) error {
	sample, err := m.sampler.Sample(ctx)
	if err != nil {
		return fmt.Errorf("failed to sample metrics: %w", err)
	}
	m.history.Record(sample)

	breaches := Evaluate(sample, m.thresholds)
	raised := m.alerts.RaiseAll(breaches)
	m.endRecoveredMetrics(sample, breaches)

	m.logger.Debug().
		Float64("cpu_usage", sample.CPUUsage).
		Float64("memory_usage", sample.MemoryUsage).
		Int("alerts_raised", len(raised)).
		Msg("metrics cycle completed")
	return nil
}

// CheckHealth runs one health-check cycle, raising dependency-down alerts
// when enabled.
func (m *Monitor) CheckHealth(ctx context.Context) error {
	statuses := m.checker.CheckAll(ctx)
	if !m.raiseOnServiceDown {
		return nil
	}

	raised := m.alerts.RaiseAll(EvaluateServices(statuses))
	if len(raised) > 0 {
		m.logger.Info().Int("alerts_raised", len(raised)).Msg("dependency alerts raised")
	}
	for name, st := range statuses {
		if st.Status != model.ServiceStateDown {
			m.alerts.EndEpisode(model.AlertTypeServiceDown, name)
		}
	}
	return nil
}

// endRecoveredMetrics ends the episode of every thresholded metric that is
// back within its limit in sample.
func (m *Monitor) endRecoveredMetrics(sample model.MetricSample, breaches []*model.Alert) {
	breached := make(map[string]bool, len(breaches))
	for _, a := range breaches {
		breached[a.Source] = true
	}
	for name := range m.thresholds {
		if _, ok := sample.Value(name); !ok || breached[name] {
			continue
		}
		m.alerts.EndEpisode(model.ThresholdAlertType(name), name)
	}
}

// Loops returns the two scheduler loops for this monitor.
func (m *Monitor) Loops(metricsInterval, healthInterval time.Duration) []Loop {
	return []Loop{
		{Name: "metrics", Interval: metricsInterval, Run: m.CollectMetrics},
		{Name: "health_check", Interval: healthInterval, Run: m.CheckHealth},
	}
}

// Snapshot runs one metrics and one health cycle immediately and returns
// the resulting sample and statuses.
func (m *Monitor) Snapshot(ctx context.Context) (model.MetricSample, map[string]model.ServiceStatus, error) {
	if err := m.CollectMetrics(ctx); err != nil {
		return model.MetricSample{}, nil, err
	}
	if err := m.CheckHealth(ctx); err != nil {
		return model.MetricSample{}, nil, err
	}
	sample, _ := m.history.Latest()
	return sample, m.checker.Statuses(), nil
}
