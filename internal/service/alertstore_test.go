package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthwatch/internal/model"
)

// stepClock advances by one second on every call.
type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(opts ...AlertStoreOption) *AlertStore {
	clock := &stepClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	seq := 0
	base := []AlertStoreOption{
		WithAlertClock(clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("alert-%d", seq)
		}),
	}
	return NewAlertStore(zerolog.Nop(), append(base, opts...)...)
}

func mustCreate(t *testing.T, s *AlertStore) *model.Alert {
	t.Helper()
	a, err := s.Create("manual_check", model.AlertSeverityInfo, "disk replacement scheduled")
	require.NoError(t, err)
	return a
}

func cpuCandidate(value float64) *model.Alert {
	alerts := Evaluate(model.MetricSample{CPUUsage: value}, map[string]float64{model.MetricCPUUsage: 80})
	return alerts[0]
}

// =============================================================================
// Create / Raise
// =============================================================================

func TestAlertStore_Create(t *testing.T) {
	s := newTestStore()

	a := mustCreate(t, s)
	assert.Equal(t, "alert-1", a.ID)
	assert.Equal(t, model.AlertStateOpen, a.State)
	assert.Equal(t, model.AlertOriginOperator, a.Origin)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestAlertStore_CreateInvalid(t *testing.T) {
	s := newTestStore()
	tests := []struct {
		name     string
		typ      string
		severity model.AlertSeverity
		message  string
	}{
		{"missing type", " ", model.AlertSeverityInfo, "msg"},
		{"missing message", "manual", model.AlertSeverityInfo, ""},
		{"bad severity", "manual", "urgent", "msg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(tt.typ, tt.severity, tt.message)
			assert.ErrorIs(t, err, model.ErrInvalidAlert)
		})
	}
	assert.Empty(t, s.List(model.AlertFilter{}))
}

func TestAlertStore_RaiseDeduplicatesEpisode(t *testing.T) {
	s := newTestStore()

	first, created := s.Raise(cpuCandidate(91))
	require.True(t, created)

	again, created := s.Raise(cpuCandidate(95))
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, s.List(model.AlertFilter{}), 1)

	// acknowledged alerts still belong to the open episode
	_, err := s.Acknowledge(first.ID, "ops", "looking")
	require.NoError(t, err)
	_, created = s.Raise(cpuCandidate(97))
	assert.False(t, created)

	// once resolved, a new breach starts a new episode
	_, err = s.Resolve(first.ID, "ops", "scaled up")
	require.NoError(t, err)
	next, created := s.Raise(cpuCandidate(92))
	require.True(t, created)
	assert.NotEqual(t, first.ID, next.ID)
}

func TestAlertStore_RaiseAll(t *testing.T) {
	s := newTestStore()
	down := "refused"
	statuses := map[string]model.ServiceStatus{
		"cache": {Name: "cache", Status: model.ServiceStateDown, ErrorMessage: &down},
		"db":    {Name: "db", Status: model.ServiceStateDown, ErrorMessage: &down},
	}

	raised := s.RaiseAll(EvaluateServices(statuses))
	assert.Len(t, raised, 2)
	assert.Empty(t, s.RaiseAll(EvaluateServices(statuses)))

	for _, a := range s.List(model.AlertFilter{}) {
		assert.False(t, a.CreatedAt.IsZero())
		assert.Equal(t, model.AlertSeverityCritical, a.Severity)
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestAlertStore_AcknowledgeTwiceOverwrites(t *testing.T) {
	s := newTestStore()
	a := mustCreate(t, s)

	first, err := s.Acknowledge(a.ID, "alice", "on it")
	require.NoError(t, err)
	second, err := s.Acknowledge(a.ID, "bob", "taking over")
	require.NoError(t, err)

	assert.Equal(t, model.AlertStateAcknowledged, second.State)
	assert.Equal(t, "bob", second.Acknowledgement.UserID)
	assert.Equal(t, "taking over", second.Acknowledgement.Comment)
	assert.True(t, second.Acknowledgement.Timestamp.After(first.Acknowledgement.Timestamp))
}

func TestAlertStore_AcknowledgeResolve(t *testing.T) {
	s := newTestStore()
	a := mustCreate(t, s)

	acked, err := s.Acknowledge(a.ID, "alice", "on it")
	require.NoError(t, err)
	resolved, err := s.Resolve(a.ID, "alice", "fixed")
	require.NoError(t, err)

	assert.Equal(t, model.AlertStateResolved, resolved.State)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, "alice", resolved.Resolution.ResolvedBy)
	assert.Equal(t, "fixed", resolved.Resolution.Note)
	assert.False(t, resolved.Resolution.ResolvedAt.Before(acked.Acknowledgement.Timestamp))

	_, err = s.Acknowledge(a.ID, "bob", "late")
	assert.ErrorIs(t, err, model.ErrAlertTerminal)
}

func TestAlertStore_ResolvedAtNeverBeforeAcknowledgement(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewAlertStore(zerolog.Nop(), WithAlertClock(func() time.Time { return now }))
	a := mustCreate(t, s)

	_, err := s.Acknowledge(a.ID, "alice", "")
	require.NoError(t, err)
	// wall clock stepped backwards
	now = now.Add(-time.Minute)
	resolved, err := s.Resolve(a.ID, "alice", "")
	require.NoError(t, err)

	assert.Equal(t, resolved.Acknowledgement.Timestamp, resolved.Resolution.ResolvedAt)
}

func TestAlertStore_TerminalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(s *AlertStore, id string) error
		act     func(s *AlertStore, id string) error
	}{
		{
			name:    "resolve after dismiss",
			prepare: func(s *AlertStore, id string) error { return s.Dismiss(id) },
			act: func(s *AlertStore, id string) error {
				_, err := s.Resolve(id, "ops", "")
				return err
			},
		},
		{
			name: "acknowledge after resolve",
			prepare: func(s *AlertStore, id string) error {
				_, err := s.Resolve(id, "ops", "")
				return err
			},
			act: func(s *AlertStore, id string) error {
				_, err := s.Acknowledge(id, "ops", "")
				return err
			},
		},
		{
			name: "resolve twice",
			prepare: func(s *AlertStore, id string) error {
				_, err := s.Resolve(id, "ops", "")
				return err
			},
			act: func(s *AlertStore, id string) error {
				_, err := s.Resolve(id, "ops", "")
				return err
			},
		},
		{
			name: "dismiss after resolve",
			prepare: func(s *AlertStore, id string) error {
				_, err := s.Resolve(id, "ops", "")
				return err
			},
			act: func(s *AlertStore, id string) error { return s.Dismiss(id) },
		},
		{
			name:    "dismiss twice",
			prepare: func(s *AlertStore, id string) error { return s.Dismiss(id) },
			act:     func(s *AlertStore, id string) error { return s.Dismiss(id) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			a := mustCreate(t, s)
			require.NoError(t, tt.prepare(s, a.ID))

			err := tt.act(s, a.ID)
			assert.ErrorIs(t, err, model.ErrAlertTerminal)
		})
	}
}

func TestAlertStore_NotFound(t *testing.T) {
	s := newTestStore()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, model.ErrAlertNotFound)
	_, err = s.Acknowledge("missing", "ops", "")
	assert.ErrorIs(t, err, model.ErrAlertNotFound)
	_, err = s.Resolve("missing", "ops", "")
	assert.ErrorIs(t, err, model.ErrAlertNotFound)
	assert.ErrorIs(t, s.Dismiss("missing"), model.ErrAlertNotFound)
}

func TestAlertStore_DismissCompacts(t *testing.T) {
	s := newTestStore()
	a := mustCreate(t, s)
	b := mustCreate(t, s)

	require.NoError(t, s.Dismiss(a.ID))

	list := s.List(model.AlertFilter{})
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	_, err := s.Get(a.ID)
	assert.ErrorIs(t, err, model.ErrAlertNotFound)
	assert.Equal(t, 1, s.Counts().Total)
}

func TestAlertStore_DismissReleasesEpisode(t *testing.T) {
	s := newTestStore()
	first, _ := s.Raise(cpuCandidate(91))
	require.NoError(t, s.Dismiss(first.ID))

	_, created := s.Raise(cpuCandidate(91))
	assert.True(t, created)
}

// =============================================================================
// Queries
// =============================================================================

func TestAlertStore_ListFilter(t *testing.T) {
	s := newTestStore()
	cpu, _ := s.Raise(cpuCandidate(91))
	manual := mustCreate(t, s)
	_, err := s.Resolve(manual.ID, "ops", "")
	require.NoError(t, err)

	yes, no := true, false
	tests := []struct {
		name   string
		filter model.AlertFilter
		want   []string
	}{
		{"all", model.AlertFilter{}, []string{cpu.ID, manual.ID}},
		{"by type", model.AlertFilter{Type: "high_cpu_usage"}, []string{cpu.ID}},
		{"by severity", model.AlertFilter{Severity: model.AlertSeverityInfo}, []string{manual.ID}},
		{"resolved", model.AlertFilter{Resolved: &yes}, []string{manual.ID}},
		{"unresolved", model.AlertFilter{Resolved: &no}, []string{cpu.ID}},
		{"no match", model.AlertFilter{Type: "nope"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, a := range s.List(tt.filter) {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestAlertStore_ReturnsCopies(t *testing.T) {
	s := newTestStore()
	a := mustCreate(t, s)

	a.Message = "tampered"
	list := s.List(model.AlertFilter{})
	list[0].State = model.AlertStateResolved

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "disk replacement scheduled", got.Message)
	assert.Equal(t, model.AlertStateOpen, got.State)
}

func TestAlertStore_Counts(t *testing.T) {
	s := newTestStore()
	a := mustCreate(t, s)
	b := mustCreate(t, s)
	_, _ = s.Raise(cpuCandidate(91))

	_, err := s.Acknowledge(a.ID, "ops", "")
	require.NoError(t, err)
	_, err = s.Resolve(b.ID, "ops", "")
	require.NoError(t, err)

	counts := s.Counts()
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 1, counts.Open)
	assert.Equal(t, 1, counts.Acknowledged)
	assert.Equal(t, 1, counts.Resolved)
	assert.Equal(t, 2, counts.Unresolved())
	assert.Equal(t, 1, counts.BySeverity[model.AlertSeverityWarning])
	assert.Equal(t, 1, counts.BySeverity[model.AlertSeverityInfo])
}

func TestAlertStore_ResolvedRetention(t *testing.T) {
	s := newTestStore(WithMaxResolved(2))
	var ids []string
	for i := 0; i < 4; i++ {
		a := mustCreate(t, s)
		_, err := s.Resolve(a.ID, "ops", "")
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}
	open := mustCreate(t, s)

	list := s.List(model.AlertFilter{})
	var got []string
	for _, a := range list {
		got = append(got, a.ID)
	}
	assert.Equal(t, []string{ids[2], ids[3], open.ID}, got)

	_, err := s.Resolve(ids[0], "ops", "")
	assert.ErrorIs(t, err, model.ErrAlertTerminal)
}

func TestAlertStore_TerminatedIdsAreBounded(t *testing.T) {
	s := newTestStore(WithMaxResolved(3))
	var ids []string
	for i := 0; i < 1000; i++ {
		a := mustCreate(t, s)
		if i%2 == 0 {
			require.NoError(t, s.Dismiss(a.ID))
		} else {
			_, err := s.Resolve(a.ID, "ops", "")
			require.NoError(t, err)
		}
		ids = append(ids, a.ID)
	}

	s.mu.RLock()
	held, remembered, order := len(s.alerts), len(s.terminated), len(s.tombstones)
	s.mu.RUnlock()
	assert.Equal(t, 3, held)
	assert.LessOrEqual(t, remembered, 3)
	assert.Equal(t, remembered, order)

	// The most recently dismissed id is still remembered as terminal.
	err := s.Dismiss(ids[998])
	assert.ErrorIs(t, err, model.ErrAlertTerminal)

	// Ids that fell out of the set are simply unknown.
	_, err = s.Acknowledge(ids[0], "ops", "")
	assert.ErrorIs(t, err, model.ErrAlertNotFound)
}

func TestAlertStore_EndEpisode(t *testing.T) {
	s := newTestStore()
	first, _ := s.Raise(cpuCandidate(91))

	assert.True(t, s.EndEpisode("high_cpu_usage", model.MetricCPUUsage))
	assert.False(t, s.EndEpisode("high_cpu_usage", model.MetricCPUUsage), "already ended")

	got, err := s.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStateOpen, got.State)

	second, created := s.Raise(cpuCandidate(93))
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)

	// Resolving the earlier alert must not release the new episode.
	_, err = s.Resolve(first.ID, "ops", "")
	require.NoError(t, err)
	_, created = s.Raise(cpuCandidate(95))
	assert.False(t, created)
}
