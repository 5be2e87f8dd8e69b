package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthwatch/internal/model"
)

type staticStatuses map[string]model.ServiceStatus

func (s staticStatuses) Statuses() map[string]model.ServiceStatus { return s }

type staticCounts model.AlertCounts

func (c staticCounts) Counts() model.AlertCounts { return model.AlertCounts(c) }

type staticUsers int

func (u staticUsers) ActiveUsers() int { return int(u) }

type flakyIssues struct {
	counts []int
	errs   []error
	calls  int
}

func (f *flakyIssues) OpenIssues(context.Context) (int, error) {
	i := f.calls
	f.calls++
	return f.counts[i], f.errs[i]
}

func TestSummaryAggregator_Summary(t *testing.T) {
	started := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		services staticStatuses
		counts   model.AlertCounts
		want     model.OverallStatus
	}{
		{
			name:     "down dependency is critical",
			services: staticStatuses{"db": {Status: model.ServiceStateUp}, "cache": {Status: model.ServiceStateDown}},
			want:     model.OverallCritical,
		},
		{
			name:     "down wins over open alerts",
			services: staticStatuses{"cache": {Status: model.ServiceStateDown}},
			counts:   model.AlertCounts{Open: 3},
			want:     model.OverallCritical,
		},
		{
			name:     "mock dependency is degraded",
			services: staticStatuses{"db": {Status: model.ServiceStateUp}, "llm": {Status: model.ServiceStateMock}},
			want:     model.OverallDegraded,
		},
		{
			name:     "unresolved alert is degraded",
			services: staticStatuses{"db": {Status: model.ServiceStateUp}},
			counts:   model.AlertCounts{Acknowledged: 1},
			want:     model.OverallDegraded,
		},
		{
			name:     "resolved alerts only is healthy",
			services: staticStatuses{"db": {Status: model.ServiceStateUp}},
			counts:   model.AlertCounts{Resolved: 4},
			want:     model.OverallHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewSummaryAggregator(NewMetricsHistory(5), tt.services, staticCounts(tt.counts),
				AggregatorOptions{StartedAt: started}, zerolog.Nop())
			agg.now = func() time.Time { return started.Add(90 * time.Second) }

			s := agg.Summary()
			assert.Equal(t, tt.want, s.OverallStatus)
			assert.Nil(t, s.Metrics)
			assert.Equal(t, 90*time.Second, s.Uptime)
			assert.Equal(t, 90.0, s.UptimeSeconds)
		})
	}
}

func TestSummaryAggregator_KeepsLastGoodSample(t *testing.T) {
	history := NewMetricsHistory(5)
	history.Record(model.MetricSample{CPUUsage: 12})
	agg := NewSummaryAggregator(history, staticStatuses{}, staticCounts{}, AggregatorOptions{}, zerolog.Nop())

	s := agg.Summary()
	require.NotNil(t, s.Metrics)
	assert.Equal(t, 12.0, s.Metrics.CPUUsage)
}

func TestSummaryAggregator_Dashboard(t *testing.T) {
	history := NewMetricsHistory(5)
	for _, rt := range []float64{100, 200, 600} {
		history.Record(model.MetricSample{ResponseTimeMs: rt})
	}
	issues := &flakyIssues{
		counts: []int{4, 0},
		errs:   []error{nil, errors.New("tracker offline")},
	}
	agg := NewSummaryAggregator(history, staticStatuses{}, staticCounts{},
		AggregatorOptions{Sessions: staticUsers(3), Issues: issues, LatencyWindow: 2}, zerolog.Nop())

	first := agg.Dashboard(context.Background())
	assert.Equal(t, 3, first.ActiveUsers)
	assert.Equal(t, 4, first.OpenIssues)
	assert.InDelta(t, 400.0, first.AvgResponseTimeMs, 0.001)
	assert.Equal(t, model.OverallHealthy, first.Summary.OverallStatus)

	second := agg.Dashboard(context.Background())
	assert.Equal(t, 4, second.OpenIssues, "last known count served when the tracker fails")
}

func TestSummaryAggregator_DashboardWithoutCollaborators(t *testing.T) {
	agg := NewSummaryAggregator(NewMetricsHistory(5), staticStatuses{}, staticCounts{}, AggregatorOptions{}, zerolog.Nop())

	d := agg.Dashboard(context.Background())
	assert.Zero(t, d.ActiveUsers)
	assert.Zero(t, d.OpenIssues)
	assert.Zero(t, d.AvgResponseTimeMs)
}

func TestSessionTracker(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	tracker := NewSessionTracker(15 * time.Minute)
	tracker.now = func() time.Time { return now }

	tracker.Touch("alice")
	tracker.Touch("bob")
	tracker.Touch("alice")
	tracker.Touch("")
	assert.Equal(t, 2, tracker.ActiveUsers())

	now = now.Add(10 * time.Minute)
	tracker.Touch("carol")
	now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, tracker.ActiveUsers())
}

func TestSessionTracker_TouchForgetsExpiredUsers(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	tracker := NewSessionTracker(time.Minute)
	tracker.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		tracker.Touch(fmt.Sprintf("user-%d", i))
	}

	now = now.Add(2 * time.Minute)
	tracker.Touch("late")

	tracker.mu.Lock()
	held := len(tracker.lastSeen)
	tracker.mu.Unlock()
	assert.Equal(t, 1, held)
}
