package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnsupported = errors.New("not supported on this platform")

// fakeHost returns fixed readings; fields named in fail return errUnsupported.
type fakeHost struct {
	fail map[string]bool
	cpu  *float64 // nil reads 42.5
}

func (f *fakeHost) err(name string) error {
	if f.fail[name] {
		return errUnsupported
	}
	return nil
}

func (f *fakeHost) CPUPercent(context.Context) (float64, error) {
	if f.cpu != nil {
		return *f.cpu, f.err("cpu")
	}
	return 42.5, f.err("cpu")
}
func (f *fakeHost) MemoryPercent(context.Context) (float64, error) { return 61.0, f.err("mem") }
func (f *fakeHost) DiskPercent(context.Context) (float64, error)   { return 70.2, f.err("disk") }
func (f *fakeHost) NetworkIO(context.Context) (uint64, uint64, error) {
	if f.fail["net"] {
		return 0, 0, errUnsupported
	}
	return 1024, 2048, nil
}
func (f *fakeHost) ActiveConnections(context.Context) (int, error) { return 12, f.err("conns") }
func (f *fakeHost) ProcessCount(context.Context) (int, error)      { return 210, f.err("procs") }
func (f *fakeHost) ThreadCount(context.Context) (int, error)       { return 16, f.err("threads") }
func (f *fakeHost) OpenFDs(context.Context) (int, error)           { return 33, f.err("fds") }

type fixedRequests RequestSnapshot

func (f fixedRequests) Snapshot() RequestSnapshot { return RequestSnapshot(f) }

func TestMetricsSampler_Sample(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMetricsSampler(&fakeHost{}, fixedRequests{Count: 4, AvgLatencyMs: 120.5, ErrorRate: 25},
		zerolog.Nop(), WithSamplerClock(func() time.Time { return now }))

	got, err := s.Sample(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, 42.5, got.CPUUsage)
	assert.Equal(t, 61.0, got.MemoryUsage)
	assert.Equal(t, 70.2, got.DiskUsage)
	assert.Equal(t, 12, got.ActiveConnections)
	assert.Equal(t, 210, got.ProcessCount)
	assert.Equal(t, 16, got.ThreadCount)
	assert.Equal(t, 33, got.OpenFDs)
	assert.Equal(t, uint64(1024), got.NetworkIO.BytesSent)
	assert.Equal(t, uint64(2048), got.NetworkIO.BytesRecv)
	assert.Equal(t, 120.5, got.ResponseTimeMs)
	assert.Equal(t, 25.0, got.ErrorRate)
}

func TestMetricsSampler_PartialDegradation(t *testing.T) {
	host := &fakeHost{fail: map[string]bool{"fds": true, "threads": true, "net": true}}
	s := NewMetricsSampler(host, nil, zerolog.Nop())

	got, err := s.Sample(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 42.5, got.CPUUsage)
	assert.Zero(t, got.OpenFDs)
	assert.Zero(t, got.ThreadCount)
	assert.Zero(t, got.NetworkIO.BytesSent)
	assert.Zero(t, got.ResponseTimeMs)
	assert.False(t, got.Timestamp.IsZero())
}

func TestMetricsSampler_AllReadingsFailed(t *testing.T) {
	host := &fakeHost{fail: map[string]bool{
		"cpu": true, "mem": true, "disk": true, "net": true,
		"conns": true, "procs": true, "threads": true, "fds": true,
	}}
	s := NewMetricsSampler(host, nil, zerolog.Nop())

	_, err := s.Sample(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSampleUnavailable)
}

func TestRequestRecorder_Snapshot(t *testing.T) {
	r := NewRequestRecorder(time.Minute)
	assert.Equal(t, RequestSnapshot{}, r.Snapshot())

	r.Observe(100*time.Millisecond, false)
	r.Observe(300*time.Millisecond, true)

	snap := r.Snapshot()
	assert.Equal(t, 2, snap.Count)
	assert.InDelta(t, 200.0, snap.AvgLatencyMs, 0.001)
	assert.InDelta(t, 50.0, snap.ErrorRate, 0.001)
}

func TestRequestRecorder_WindowExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRequestRecorder(time.Minute)
	r.now = func() time.Time { return now }

	r.Observe(500*time.Millisecond, true)
	now = now.Add(45 * time.Second)
	r.Observe(100*time.Millisecond, false)
	now = now.Add(30 * time.Second)

	snap := r.Snapshot()
	assert.Equal(t, 1, snap.Count)
	assert.InDelta(t, 100.0, snap.AvgLatencyMs, 0.001)
	assert.Zero(t, snap.ErrorRate)
}
