// Package model provides data models for the health monitor.
package model

import "time"

// Metric names used as threshold keys and alert type suffixes.
const (
	MetricCPUUsage          = "cpu_usage"
	MetricMemoryUsage       = "memory_usage"
	MetricDiskUsage         = "disk_usage"
	MetricActiveConnections = "active_connections"
	MetricResponseTimeMs    = "response_time_ms"
	MetricErrorRate         = "error_rate"
	MetricProcessCount      = "process_count"
	MetricThreadCount       = "thread_count"
	MetricOpenFDs           = "open_fds"
)

// MetricCategory groups metrics for severity derivation.
type MetricCategory string

const (
	MetricCategoryResource MetricCategory = "resource" // host resource usage
	MetricCategoryTraffic  MetricCategory = "traffic"  // request-serving layer
	MetricCategoryProcess  MetricCategory = "process"  // process table counters
)

// KnownMetrics lists every metric a sample carries, with its category.
var KnownMetrics = map[string]MetricCategory{
	MetricCPUUsage:          MetricCategoryResource,
	MetricMemoryUsage:       MetricCategoryResource,
	MetricDiskUsage:         MetricCategoryResource,
	MetricActiveConnections: MetricCategoryTraffic,
	MetricResponseTimeMs:    MetricCategoryTraffic,
	MetricErrorRate:         MetricCategoryTraffic,
	MetricProcessCount:      MetricCategoryProcess,
	MetricThreadCount:       MetricCategoryProcess,
	MetricOpenFDs:           MetricCategoryProcess,
}

// IsKnownMetric reports whether name is a metric carried by MetricSample.
func IsKnownMetric(name string) bool {
	_, ok := KnownMetrics[name]
	return ok
}

// NetworkIO holds cumulative network counters across all interfaces.
type NetworkIO struct {
	BytesSent uint64 `json:"bytes_sent"`
	BytesRecv uint64 `json:"bytes_recv"`
}

// MetricSample is one point-in-time measurement of host resource metrics.
// Samples are values; they are never mutated once recorded.
type MetricSample struct {
	Timestamp         time.Time `json:"timestamp"`
	CPUUsage          float64   `json:"cpu_usage"`    // %
	MemoryUsage       float64   `json:"memory_usage"` // %
	DiskUsage         float64   `json:"disk_usage"`   // %
	ActiveConnections int       `json:"active_connections"`
	ResponseTimeMs    float64   `json:"response_time_ms"`
	ErrorRate         float64   `json:"error_rate"` // %
	NetworkIO         NetworkIO `json:"network_io"`
	ProcessCount      int       `json:"process_count"`
	ThreadCount       int       `json:"thread_count"`
	OpenFDs           int       `json:"open_fds"`
}

// Value returns the numeric value of the named metric.
// The second result is false for names the sample does not carry.
func (s MetricSample) Value(name string) (float64, bool) {
	switch name {
	case MetricCPUUsage:
		return s.CPUUsage, true
	case MetricMemoryUsage:
		return s.MemoryUsage, true
	case MetricDiskUsage:
		return s.DiskUsage, true
	case MetricActiveConnections:
		return float64(s.ActiveConnections), true
	case MetricResponseTimeMs:
		return s.ResponseTimeMs, true
	case MetricErrorRate:
		return s.ErrorRate, true
	case MetricProcessCount:
		return float64(s.ProcessCount), true
	case MetricThreadCount:
		return float64(s.ThreadCount), true
	case MetricOpenFDs:
		return float64(s.OpenFDs), true
	default:
		return 0, false
	}
}
