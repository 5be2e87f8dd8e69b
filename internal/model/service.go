package model

import (
	"fmt"
	"strings"
	"time"
)

// ServiceState is the closed set of states a probed dependency can be in.
type ServiceState string

const (
	ServiceStateUp       ServiceState = "up"       // probe succeeded
	ServiceStateDegraded ServiceState = "degraded" // probe succeeded but slow
	ServiceStateMock     ServiceState = "mock"     // documented fallback, not probed
	ServiceStateDown     ServiceState = "down"     // probe failed or timed out
	ServiceStateUnknown  ServiceState = "unknown"  // not checked yet
)

// ParseServiceState converts a string into a ServiceState.
func ParseServiceState(s string) (ServiceState, error) {
	switch st := ServiceState(s); st {
	case ServiceStateUp, ServiceStateDegraded, ServiceStateMock, ServiceStateDown, ServiceStateUnknown:
		return st, nil
	default:
		return "", fmt.Errorf("unknown service state %q", s)
	}
}

// ServiceKind selects how a dependency is probed.
type ServiceKind string

const (
	ServiceKindHTTP ServiceKind = "http"
	ServiceKindTCP  ServiceKind = "tcp"
	ServiceKindMock ServiceKind = "mock"
)

// Normalize lowercases the kind; an empty kind means http.
func (k ServiceKind) Normalize() ServiceKind {
	n := ServiceKind(strings.ToLower(strings.TrimSpace(string(k))))
	if n == "" {
		return ServiceKindHTTP
	}
	return n
}

// ServiceDefinition names one dependency from the service registry.
type ServiceDefinition struct {
	Name            string        `yaml:"name" mapstructure:"name" json:"name"`
	Kind            ServiceKind   `yaml:"kind" mapstructure:"kind" json:"kind"`
	Target          string        `yaml:"target" mapstructure:"target" json:"target,omitempty"` // URL for http, host:port for tcp
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout,omitempty"`
	DegradedLatency time.Duration `yaml:"degraded_latency" mapstructure:"degraded_latency" json:"degraded_latency,omitempty"`
	Note            string        `yaml:"note,omitempty" mapstructure:"note" json:"note,omitempty"` // why a mock is in place
}

// ServiceStatus is the latest check outcome for one service. Only the most
// recent check is kept.
type ServiceStatus struct {
	Name           string       `json:"name"`
	Status         ServiceState `json:"status"`
	LastCheck      time.Time    `json:"last_check"`
	ResponseTimeMs *float64     `json:"response_time_ms"`
	ErrorMessage   *string      `json:"error_message"`
}

// NewUnknownStatus returns the placeholder status for a service never checked.
func NewUnknownStatus(name string) ServiceStatus {
	return ServiceStatus{Name: name, Status: ServiceStateUnknown}
}

// ProbeResult is the outcome of a single probe: either success with a
// measured latency or failure with a reason.
type ProbeResult struct {
	ok      bool
	latency time.Duration
	reason  string
}

// ProbeSuccess builds a successful probe outcome.
func ProbeSuccess(latency time.Duration) ProbeResult {
	return ProbeResult{ok: true, latency: latency}
}

// ProbeFailure builds a failed probe outcome.
func ProbeFailure(reason string) ProbeResult {
	return ProbeResult{reason: reason}
}

// OK reports whether the probe succeeded.
func (r ProbeResult) OK() bool { return r.ok }

// Latency is only meaningful when OK is true.
func (r ProbeResult) Latency() time.Duration { return r.latency }

// Reason is only meaningful when OK is false.
func (r ProbeResult) Reason() string { return r.reason }

// ToStatus converts a probe outcome into a ServiceStatus. A successful probe
// slower than degradedAfter (when set) is reported as degraded.
func (r ProbeResult) ToStatus(name string, checkedAt time.Time, degradedAfter time.Duration) ServiceStatus {
	st := ServiceStatus{Name: name, LastCheck: checkedAt}
	if !r.ok {
		reason := r.reason
		st.Status = ServiceStateDown
		st.ErrorMessage = &reason
		return st
	}
	ms := float64(r.latency.Microseconds()) / 1000.0
	st.ResponseTimeMs = &ms
	st.Status = ServiceStateUp
	if degradedAfter > 0 && r.latency > degradedAfter {
		st.Status = ServiceStateDegraded
	}
	return st
}
