package model

import "time"

// OverallStatus is the aggregate health of the system.
type OverallStatus string

const (
	OverallHealthy  OverallStatus = "healthy"
	OverallDegraded OverallStatus = "degraded"
	OverallCritical OverallStatus = "critical"
)

// DeriveOverallStatus is total and deterministic: critical if any service is
// down, degraded if any service is degraded or mocked or any alert is
// unresolved, healthy otherwise.
func DeriveOverallStatus(services map[string]ServiceStatus, unresolvedAlerts int) OverallStatus {
	degraded := unresolvedAlerts > 0
	for _, st := range services {
		switch st.Status {
		case ServiceStateDown:
			return OverallCritical
		case ServiceStateDegraded, ServiceStateMock:
			degraded = true
		case ServiceStateUp, ServiceStateUnknown:
		}
	}
	if degraded {
		return OverallDegraded
	}
	return OverallHealthy
}

// HealthSummary is the dashboard-ready snapshot of the whole system.
type HealthSummary struct {
	OverallStatus OverallStatus            `json:"overall_status"`
	Metrics       *MetricSample            `json:"metrics"` // nil until the first sample
	Services      map[string]ServiceStatus `json:"services"`
	AlertCounts   AlertCounts              `json:"alert_counts"`
	Uptime        time.Duration            `json:"-"`
	UptimeSeconds float64                  `json:"uptime"`
	GeneratedAt   time.Time                `json:"generated_at"`
}

// Dashboard is the composite view served to the admin dashboard.
type Dashboard struct {
	ActiveUsers       int           `json:"active_users"`
	OpenIssues        int           `json:"open_issues"`
	AvgResponseTimeMs float64       `json:"avg_response_time_ms"`
	Summary           HealthSummary `json:"summary"`
}
