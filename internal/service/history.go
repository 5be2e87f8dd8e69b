// Package service provides the health monitoring services: sampling,
// history, probing, evaluation, alert lifecycle, scheduling and aggregation.
package service

import (
	"sync"

	"healthwatch/internal/model"
)

// DefaultHistoryCapacity is used when a non-positive capacity is requested.
const DefaultHistoryCapacity = 1000

// MetricsHistory is a fixed-capacity, chronologically ordered buffer of
// samples. When full, recording evicts the oldest sample.
type MetricsHistory struct {
	mu       sync.RWMutex
	buf      []model.MetricSample
	start    int // index of the oldest sample
	size     int
	capacity int
}

// NewMetricsHistory creates an empty history holding at most capacity samples.
func NewMetricsHistory(capacity int) *MetricsHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &MetricsHistory{
		buf:      make([]model.MetricSample, capacity),
		capacity: capacity,
	}
}

// Record appends a sample, evicting the oldest one when the buffer is full.
func (h *MetricsHistory) Record(sample model.MetricSample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.size < h.capacity {
		h.buf[(h.start+h.size)%h.capacity] = sample
		h.size++
		return
	}
	h.buf[h.start] = sample
	h.start = (h.start + 1) % h.capacity
}

// History returns a copy of the most recent limit samples, oldest first.
// A non-positive limit returns everything held.
func (h *MetricsHistory) History(limit int) []model.MetricSample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := h.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.MetricSample, n)
	skip := h.size - n
	for i := 0; i < n; i++ {
		out[i] = h.buf[(h.start+skip+i)%h.capacity]
	}
	return out
}

// Latest returns the newest sample, if any.
func (h *MetricsHistory) Latest() (model.MetricSample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.size == 0 {
		return model.MetricSample{}, false
	}
	return h.buf[(h.start+h.size-1)%h.capacity], true
}

// Len returns the number of samples held.
func (h *MetricsHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Capacity returns the maximum number of samples held.
func (h *MetricsHistory) Capacity() int {
	return h.capacity
}

// AverageResponseTime averages response_time_ms over the most recent window
// samples. It returns 0 for an empty history.
func (h *MetricsHistory) AverageResponseTime(window int) float64 {
	samples := h.History(window)
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		total += s.ResponseTimeMs
	}
	return total / float64(len(samples))
}
