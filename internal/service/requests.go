package service

import (
	"sync"
	"time"
)

// RequestSnapshot summarises the requests observed inside the window.
type RequestSnapshot struct {
	Count        int     `json:"count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	ErrorRate    float64 `json:"error_rate"` // % of requests answered with 5xx
}

type requestObservation struct {
	at      time.Time
	latency time.Duration
	failed  bool
}

// RequestRecorder keeps a rolling window of request outcomes for the sampler.
type RequestRecorder struct {
	mu     sync.Mutex
	window time.Duration
	obs    []requestObservation
	now    func() time.Time
}

// NewRequestRecorder creates a recorder over the given window (default 1m).
func NewRequestRecorder(window time.Duration) *RequestRecorder {
	if window <= 0 {
		window = time.Minute
	}
	return &RequestRecorder{window: window, now: time.Now}
}

// Observe records one finished request.
func (r *RequestRecorder) Observe(latency time.Duration, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.obs = append(r.obs, requestObservation{at: now, latency: latency, failed: failed})
	r.pruneLocked(now)
}

// Snapshot returns the statistics for requests inside the window.
func (r *RequestRecorder) Snapshot() RequestSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(r.now())
	if len(r.obs) == 0 {
		return RequestSnapshot{}
	}

	var total time.Duration
	failed := 0
	for _, o := range r.obs {
		total += o.latency
		if o.failed {
			failed++
		}
	}
	n := len(r.obs)
	return RequestSnapshot{
		Count:        n,
		AvgLatencyMs: float64(total.Microseconds()) / 1000.0 / float64(n),
		ErrorRate:    float64(failed) / float64(n) * 100,
	}
}

// pruneLocked drops observations older than the window. Observations arrive
// in time order, so the expired ones form a prefix.
func (r *RequestRecorder) pruneLocked(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.obs) && r.obs[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		r.obs = append(r.obs[:0], r.obs[i:]...)
	}
}
