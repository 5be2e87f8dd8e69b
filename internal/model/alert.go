package model

import (
	"errors"
	"fmt"
	"time"
)

// Lifecycle errors surfaced to callers of the alert store.
var (
	ErrAlertNotFound = errors.New("alert not found")
	ErrAlertTerminal = errors.New("alert already terminal")
	ErrInvalidAlert  = errors.New("invalid alert")
)

// AlertSeverity represents the severity level of an alert.
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

// ParseAlertSeverity converts a string into an AlertSeverity.
func ParseAlertSeverity(s string) (AlertSeverity, error) {
	switch sev := AlertSeverity(s); sev {
	case AlertSeverityInfo, AlertSeverityWarning, AlertSeverityCritical:
		return sev, nil
	default:
		return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidAlert, s)
	}
}

// AlertState is the lifecycle state of an alert.
type AlertState string

const (
	AlertStateOpen         AlertState = "open"
	AlertStateAcknowledged AlertState = "acknowledged"
	AlertStateResolved     AlertState = "resolved"
	AlertStateDismissed    AlertState = "dismissed"
)

// IsTerminal reports whether no further transition is allowed.
func (s AlertState) IsTerminal() bool {
	return s == AlertStateResolved || s == AlertStateDismissed
}

// AlertOrigin records who raised an alert.
type AlertOrigin string

const (
	AlertOriginSystem   AlertOrigin = "system"
	AlertOriginOperator AlertOrigin = "operator"
)

// Alert types raised by the evaluator. Threshold breaches use "high_<metric>".
const (
	AlertTypeServiceDown = "service_down"
)

// ThresholdAlertType returns the alert type for a breached metric.
func ThresholdAlertType(metric string) string {
	return "high_" + metric
}

// Acknowledgement records an operator taking ownership of an alert.
type Acknowledgement struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Comment   string    `json:"comment,omitempty"`
}

// Resolution records how an alert was closed.
type Resolution struct {
	ResolvedAt time.Time `json:"resolved_at"`
	ResolvedBy string    `json:"resolved_by"`
	Note       string    `json:"note,omitempty"`
}

// Alert is a detected anomaly or an operator-raised concern.
type Alert struct {
	ID              string           `json:"id"`
	Type            string           `json:"type"`
	Severity        AlertSeverity    `json:"severity"`
	Message         string           `json:"message"`
	CreatedAt       time.Time        `json:"created_at"`
	State           AlertState       `json:"state"`
	Origin          AlertOrigin      `json:"origin"`
	Source          string           `json:"source,omitempty"` // metric or service name
	Value           *float64         `json:"value,omitempty"`
	Threshold       *float64         `json:"threshold,omitempty"`
	Acknowledgement *Acknowledgement `json:"acknowledgement"`
	Resolution      *Resolution      `json:"resolution"`
}

// IsResolved returns true once the alert reached the resolved state.
func (a *Alert) IsResolved() bool {
	return a.State == AlertStateResolved
}

// IsUnresolved returns true for open and acknowledged alerts.
func (a *Alert) IsUnresolved() bool {
	return a.State == AlertStateOpen || a.State == AlertStateAcknowledged
}

// EpisodeKey identifies the breach episode an alert belongs to.
func (a *Alert) EpisodeKey() string {
	return a.Type + "|" + a.Source
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	c := *a
	if a.Value != nil {
		v := *a.Value
		c.Value = &v
	}
	if a.Threshold != nil {
		t := *a.Threshold
		c.Threshold = &t
	}
	if a.Acknowledgement != nil {
		ack := *a.Acknowledgement
		c.Acknowledgement = &ack
	}
	if a.Resolution != nil {
		res := *a.Resolution
		c.Resolution = &res
	}
	return &c
}

// AlertFilter selects alerts for listing. Zero values match everything.
type AlertFilter struct {
	Type     string
	Severity AlertSeverity
	Resolved *bool
}

// Match reports whether the alert satisfies the filter.
func (f AlertFilter) Match(a *Alert) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.Resolved != nil && a.IsResolved() != *f.Resolved {
		return false
	}
	return true
}

// AlertCounts provides aggregated alert statistics.
type AlertCounts struct {
	Total        int                   `json:"total"`
	Open         int                   `json:"open"`
	Acknowledged int                   `json:"acknowledged"`
	Resolved     int                   `json:"resolved"`
	BySeverity   map[AlertSeverity]int `json:"by_severity"` // unresolved only
}

// Unresolved returns the number of open and acknowledged alerts.
func (c AlertCounts) Unresolved() int {
	return c.Open + c.Acknowledged
}

// NewAlertCounts builds counts from a list of alerts.
func NewAlertCounts(alerts []*Alert) AlertCounts {
	counts := AlertCounts{BySeverity: make(map[AlertSeverity]int)}
	for _, a := range alerts {
		if a == nil {
			continue
		}
		counts.Total++
		switch a.State {
		case AlertStateOpen:
			counts.Open++
		case AlertStateAcknowledged:
			counts.Acknowledged++
		case AlertStateResolved:
			counts.Resolved++
		}
		if a.IsUnresolved() {
			counts.BySeverity[a.Severity]++
		}
	}
	return counts
}
