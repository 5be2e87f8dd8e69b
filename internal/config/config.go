// Package config provides configuration management for the health monitor.
package config

import (
	"time"

	"healthwatch/internal/model"
)

// Config is the root configuration structure for the health monitor.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	History     HistoryConfig     `mapstructure:"history"`
	Sampler     SamplerConfig     `mapstructure:"sampler"`
	Thresholds  ThresholdsConfig  `mapstructure:"thresholds"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`
	Alerts      AlertsConfig      `mapstructure:"alerts"`
	Dashboard   DashboardConfig   `mapstructure:"dashboard"`
	Report      ReportConfig      `mapstructure:"report"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	HTTP        HTTPConfig        `mapstructure:"http"`
}

// ServerConfig configures the API listener.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr" validate:"required"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	Mode        string        `mapstructure:"mode" validate:"oneof=debug release test"` // gin mode
}

// SchedulerConfig configures the two periodic loops.
type SchedulerConfig struct {
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
	MetricsInterval     time.Duration `mapstructure:"metrics_interval"`
	ErrorBackoff        time.Duration `mapstructure:"error_backoff"`
	RunOnStart          bool          `mapstructure:"run_on_start"` // run one cycle before the first sleep
}

// HistoryConfig configures the bounded sample buffer.
type HistoryConfig struct {
	Capacity int `mapstructure:"capacity" validate:"gte=1"`
}

// SamplerConfig configures host metric sampling.
type SamplerConfig struct {
	DiskPath string `mapstructure:"disk_path" validate:"required"`
}

// ThresholdsConfig maps a metric name to the limit that, when exceeded,
// raises an alert. It is read once at startup and never modified.
type ThresholdsConfig map[string]float64

// Names returns the configured metric names.
func (t ThresholdsConfig) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	return names
}

// HealthCheckConfig configures the service health checker.
type HealthCheckConfig struct {
	Concurrency    int                       `mapstructure:"concurrency" validate:"gte=1,lte=100"`
	DefaultTimeout time.Duration             `mapstructure:"default_timeout"`
	ServicesFile   string                    `mapstructure:"services_file"`
	Services       []model.ServiceDefinition `mapstructure:"services"`
}

// AlertsConfig configures alert raising and retention.
type AlertsConfig struct {
	RaiseOnServiceDown bool `mapstructure:"raise_on_service_down"`
	MaxResolved        int  `mapstructure:"max_resolved" validate:"gte=0"`
}

// DashboardConfig configures the external counters aggregated on the dashboard.
type DashboardConfig struct {
	SessionWindow time.Duration      `mapstructure:"session_window"`
	IssueTracker  IssueTrackerConfig `mapstructure:"issue_tracker"`
	LatencyWindow int                `mapstructure:"latency_window" validate:"gte=0"` // samples averaged for response time
}

// IssueTrackerConfig points at an endpoint returning {"count": n}.
type IssueTrackerConfig struct {
	Endpoint string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ReportConfig contains configurations for one-shot report generation.
type ReportConfig struct {
	OutputDir        string   `mapstructure:"output_dir"`
	Formats          []string `mapstructure:"formats" validate:"dive,oneof=excel html"`
	FilenameTemplate string   `mapstructure:"filename_template"`
	Timezone         string   `mapstructure:"timezone"`
}

// LoggingConfig contains configurations for logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// HTTPConfig contains HTTP client configurations including retry settings.
type HTTPConfig struct {
	Retry RetryConfig `mapstructure:"retry"`
}

// RetryConfig defines retry behavior for HTTP requests.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}
