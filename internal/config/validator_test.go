package config

import (
	"strings"
	"testing"
	"time"

	"healthwatch/internal/model"
)

// newValidConfig creates a valid configuration for testing.
func newValidConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", ReadTimeout: 15 * time.Second, Mode: "release"},
		Scheduler: SchedulerConfig{
			HealthCheckInterval: 60 * time.Second,
			MetricsInterval:     30 * time.Second,
			ErrorBackoff:        5 * time.Second,
		},
		History:    HistoryConfig{Capacity: 1000},
		Sampler:    SamplerConfig{DiskPath: "/"},
		Thresholds: ThresholdsConfig{"cpu_usage": 80, "memory_usage": 85},
		HealthCheck: HealthCheckConfig{
			Concurrency:    8,
			DefaultTimeout: 5 * time.Second,
			Services: []model.ServiceDefinition{
				{Name: "db", Kind: model.ServiceKindTCP, Target: "localhost:5432"},
				{Name: "api", Kind: model.ServiceKindHTTP, Target: "http://localhost:8000/health"},
				{Name: "llm", Kind: model.ServiceKindMock},
			},
		},
		Alerts:  AlertsConfig{RaiseOnServiceDown: true, MaxResolved: 500},
		Report:  ReportConfig{Formats: []string{"excel", "html"}, Timezone: "UTC"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		HTTP:    HTTPConfig{Retry: RetryConfig{MaxRetries: 0, BaseDelay: 200 * time.Millisecond}},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(newValidConfig()); err != nil {
		t.Errorf("Validate() error = %v, want nil for valid config", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"zero capacity", func(c *Config) { c.History.Capacity = 0 }, "history.capacity"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad report format", func(c *Config) { c.Report.Formats = []string{"pdf"} }, "report.formats"},
		{"negative threshold", func(c *Config) { c.Thresholds["cpu_usage"] = -1 }, "thresholds.cpu_usage"},
		{"unknown threshold", func(c *Config) { c.Thresholds["gpu_usage"] = 1 }, "thresholds.gpu_usage"},
		{"zero interval", func(c *Config) { c.Scheduler.MetricsInterval = 0 }, "scheduler.metrics_interval"},
		{"bad timezone", func(c *Config) { c.Report.Timezone = "Mars/Olympus" }, "report.timezone"},
		{"bad http target", func(c *Config) { c.HealthCheck.Services[1].Target = "not-a-url" }, "health_check.services[1].target"},
		{"bad tcp target", func(c *Config) { c.HealthCheck.Services[0].Target = "localhost" }, "health_check.services[0].target"},
		{"bad kind", func(c *Config) { c.HealthCheck.Services[0].Kind = "grpc" }, "health_check.services[0].kind"},
		{"duplicate name", func(c *Config) { c.HealthCheck.Services[2].Name = "db" }, "health_check.services[2].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newValidConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() should return error")
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error should mention field %q, got: %s", tt.wantField, err.Error())
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var empty ValidationErrors
	if empty.Error() != "" {
		t.Errorf("empty ValidationErrors.Error() = %q, want empty", empty.Error())
	}

	errs := ValidationErrors{
		{Field: "server.addr", Message: "this field is required"},
	}
	if !strings.Contains(errs.Error(), "config validation failed") {
		t.Errorf("ValidationErrors.Error() missing header: %s", errs.Error())
	}
}

func TestFormatFieldName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Config.Server.Addr", "server.addr"},
		{"Config.History.Capacity", "history.capacity"},
		{"Addr", "addr"},
	}

	for _, tt := range tests {
		if got := formatFieldName(tt.input); got != tt.expected {
			t.Errorf("formatFieldName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
