package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"healthwatch/internal/model"
)

const (
	defaultProbeConcurrency = 8
	defaultProbeTimeout     = 5 * time.Second
)

// Prober performs one health probe against a service.
type Prober interface {
	Probe(ctx context.Context, svc model.ServiceDefinition) model.ProbeResult
}

// HealthCheckerOptions tunes the fan-out of a check cycle.
type HealthCheckerOptions struct {
	Concurrency    int
	DefaultTimeout time.Duration
}

// ServiceHealthChecker probes the configured services and keeps the latest
// status of each.
type ServiceHealthChecker struct {
	services       []model.ServiceDefinition
	prober         Prober
	concurrency    int
	defaultTimeout time.Duration
	now            func() time.Time
	logger         zerolog.Logger

	mu       sync.RWMutex
	statuses map[string]model.ServiceStatus
}

// NewServiceHealthChecker creates a checker for the given registry.
func NewServiceHealthChecker(
	services []model.ServiceDefinition,
	prober Prober,
	opts HealthCheckerOptions,
	logger zerolog.Logger,
) *ServiceHealthChecker {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultProbeConcurrency
	}
	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	defs := make([]model.ServiceDefinition, len(services))
	copy(defs, services)

	return &ServiceHealthChecker{
		services:       defs,
		prober:         prober,
		concurrency:    concurrency,
		defaultTimeout: timeout,
		now:            time.Now,
		logger:         logger.With().Str("component", "health-checker").Logger(),
		statuses:       make(map[string]model.ServiceStatus, len(defs)),
	}
}

// CheckAll probes every service once and returns the fresh status map.
//
// Flow:
//  1. Mock services are recorded as mock without probing
//  2. Remaining services are probed concurrently (errgroup + concurrency limit)
//  3. Each probe is bounded by its own timeout
//  4. The new map replaces the previous one as a whole
//
// A failed probe only marks its own service down.
func (c *ServiceHealthChecker) CheckAll(ctx context.Context) map[string]model.ServiceStatus {
	results := make(map[string]model.ServiceStatus, len(c.services))
	var mu sync.Mutex

	// Mock statuses are filled in before any probe goroutine touches results.
	probed := make([]model.ServiceDefinition, 0, len(c.services))
	for _, svc := range c.services {
		if svc.Kind.Normalize() == model.ServiceKindMock {
			results[svc.Name] = model.ServiceStatus{
				Name:      svc.Name,
				Status:    model.ServiceStateMock,
				LastCheck: c.now(),
			}
			continue
		}
		probed = append(probed, svc)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, svc := range probed {
		g.Go(func() error {
			status := c.checkOne(gctx, svc)
			mu.Lock()
			results[svc.Name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	down := 0
	for _, st := range results {
		if st.Status == model.ServiceStateDown {
			down++
		}
	}

	c.mu.Lock()
	c.statuses = results
	c.mu.Unlock()

	c.logger.Debug().
		Int("services", len(results)).
		Int("down", down).
		Msg("health check cycle completed")

	return copyStatuses(results)
}

// checkOne runs a single probe and converts its outcome. The probe runs in
// its own goroutine so that a prober ignoring ctx still cannot hold the
// cycle past the timeout.
func (c *ServiceHealthChecker) checkOne(ctx context.Context, svc model.ServiceDefinition) model.ServiceStatus {
	if svc.Timeout <= 0 {
		svc.Timeout = c.defaultTimeout
	}
	timeout := svc.Timeout

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan model.ProbeResult, 1)
	go func() {
		done <- c.prober.Probe(probeCtx, svc)
	}()

	var result model.ProbeResult
	select {
	case result = <-done:
	case <-probeCtx.Done():
		result = model.ProbeFailure(fmt.Sprintf("timeout after %s", timeout))
	}

	status := result.ToStatus(svc.Name, c.now(), svc.DegradedLatency)
	if !result.OK() {
		c.logger.Warn().
			Str("service", svc.Name).
			Str("target", svc.Target).
			Str("reason", result.Reason()).
			Msg("service probe failed")
	}
	return status
}

// Statuses returns a copy of the latest status map. Services that have not
// been checked yet are reported as unknown.
func (c *ServiceHealthChecker) Statuses() map[string]model.ServiceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]model.ServiceStatus, len(c.services))
	for _, svc := range c.services {
		if st, ok := c.statuses[svc.Name]; ok {
			out[svc.Name] = cloneStatus(st)
		} else {
			out[svc.Name] = model.NewUnknownStatus(svc.Name)
		}
	}
	return out
}

// Services returns the configured registry.
func (c *ServiceHealthChecker) Services() []model.ServiceDefinition {
	out := make([]model.ServiceDefinition, len(c.services))
	copy(out, c.services)
	return out
}

func copyStatuses(in map[string]model.ServiceStatus) map[string]model.ServiceStatus {
	out := make(map[string]model.ServiceStatus, len(in))
	for k, v := range in {
		out[k] = cloneStatus(v)
	}
	return out
}

func cloneStatus(st model.ServiceStatus) model.ServiceStatus {
	if st.ResponseTimeMs != nil {
		v := *st.ResponseTimeMs
		st.ResponseTimeMs = &v
	}
	if st.ErrorMessage != nil {
		v := *st.ErrorMessage
		st.ErrorMessage = &v
	}
	return st
}
