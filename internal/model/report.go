package model

import (
	"sort"
	"time"
)

// HealthReport is the exportable result of a one-shot check.
type HealthReport struct {
	GeneratedAt time.Time
	Version     string
	Summary     HealthSummary
	Alerts      []*Alert
	History     []MetricSample
	Thresholds  map[string]float64
}

// SortedServices returns the summary's service statuses ordered by name.
func (r *HealthReport) SortedServices() []ServiceStatus {
	out := make([]ServiceStatus, 0, len(r.Summary.Services))
	for _, st := range r.Summary.Services {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
