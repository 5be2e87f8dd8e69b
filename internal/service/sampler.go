package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"healthwatch/internal/model"
)

// ErrSampleUnavailable is returned when no host metric could be read at all.
var ErrSampleUnavailable = errors.New("no host metrics available")

// HostStats is the source of host resource readings.
type HostStats interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskPercent(ctx context.Context) (float64, error)
	NetworkIO(ctx context.Context) (sent, recv uint64, err error)
	ActiveConnections(ctx context.Context) (int, error)
	ProcessCount(ctx context.Context) (int, error)
	ThreadCount(ctx context.Context) (int, error)
	OpenFDs(ctx context.Context) (int, error)
}

// RequestStats reports request-serving statistics over a recent window.
type RequestStats interface {
	Snapshot() RequestSnapshot
}

// MetricsSampler reads one MetricSample per call. A reading that fails is
// left at zero; the sample only fails when every host reading failed.
type MetricsSampler struct {
	host     HostStats
	requests RequestStats
	now      func() time.Time
	logger   zerolog.Logger
}

// SamplerOption is a functional option for configuring a MetricsSampler.
type SamplerOption func(*MetricsSampler)

// WithSamplerClock overrides the sample timestamp source.
func WithSamplerClock(now func() time.Time) SamplerOption {
	return func(s *MetricsSampler) {
		s.now = now
	}
}

// NewMetricsSampler creates a sampler. requests may be nil, in which case
// response time and error rate stay at zero.
func NewMetricsSampler(host HostStats, requests RequestStats, logger zerolog.Logger, opts ...SamplerOption) *MetricsSampler {
	s := &MetricsSampler{
		host:     host,
		requests: requests,
		now:      time.Now,
		logger:   logger.With().Str("component", "sampler").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample reads the current host metrics.
func (s *MetricsSampler) Sample(ctx context.Context) (model.MetricSample, error) {
	sample := model.MetricSample{Timestamp: s.now()}
	var failed []string

	readFloat := func(name string, read func(context.Context) (float64, error), dst *float64) {
		v, err := read(ctx)
		if err != nil {
			failed = append(failed, name)
			s.logger.Debug().Err(err).Str("metric", name).Msg("metric unavailable, defaulting to 0")
			return
		}
		*dst = v
	}
	readInt := func(name string, read func(context.Context) (int, error), dst *int) {
		v, err := read(ctx)
		if err != nil {
			failed = append(failed, name)
			s.logger.Debug().Err(err).Str("metric", name).Msg("metric unavailable, defaulting to 0")
			return
		}
		*dst = v
	}

	readFloat(model.MetricCPUUsage, s.host.CPUPercent, &sample.CPUUsage)
	readFloat(model.MetricMemoryUsage, s.host.MemoryPercent, &sample.MemoryUsage)
	readFloat(model.MetricDiskUsage, s.host.DiskPercent, &sample.DiskUsage)
	readInt(model.MetricActiveConnections, s.host.ActiveConnections, &sample.ActiveConnections)
	readInt(model.MetricProcessCount, s.host.ProcessCount, &sample.ProcessCount)
	readInt(model.MetricThreadCount, s.host.ThreadCount, &sample.ThreadCount)
	readInt(model.MetricOpenFDs, s.host.OpenFDs, &sample.OpenFDs)

	if sent, recv, err := s.host.NetworkIO(ctx); err != nil {
		failed = append(failed, "network_io")
		s.logger.Debug().Err(err).Str("metric", "network_io").Msg("metric unavailable, defaulting to 0")
	} else {
		sample.NetworkIO = model.NetworkIO{BytesSent: sent, BytesRecv: recv}
	}

	// 7 scalar readings plus network io
	const hostReadings = 8
	if len(failed) == hostReadings {
		return model.MetricSample{}, fmt.Errorf("%w: %v", ErrSampleUnavailable, failed)
	}

	if s.requests != nil {
		snap := s.requests.Snapshot()
		sample.ResponseTimeMs = snap.AvgLatencyMs
		sample.ErrorRate = snap.ErrorRate
	}

	if len(failed) > 0 {
		s.logger.Debug().Strs("unavailable", failed).Msg("partial sample")
	}
	return sample, nil
}
