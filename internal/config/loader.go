package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultThresholds are the limits applied when the config file omits them.
var DefaultThresholds = map[string]float64{
	"cpu_usage":        80.0,
	"memory_usage":     85.0,
	"disk_usage":       90.0,
	"response_time_ms": 2000.0,
	"error_rate":       5.0,
}

// Load reads configuration from the specified YAML file and environment variables.
// Environment variables take precedence over file values.
// Environment variable format: HEALTHWATCH_<SECTION>_<KEY> (e.g., HEALTHWATCH_SERVER_ADDR)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("HEALTHWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The services file is resolved relative to the config file.
	if cfg.HealthCheck.ServicesFile != "" {
		path := cfg.HealthCheck.ServicesFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(configPath), path)
		}
		services, err := LoadServices(path)
		if err != nil {
			return nil, err
		}
		cfg.HealthCheck.Services = append(cfg.HealthCheck.Services, services...)
	}

	applyServiceDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.mode", "release")

	// Scheduler defaults
	v.SetDefault("scheduler.health_check_interval", 60*time.Second)
	v.SetDefault("scheduler.metrics_interval", 30*time.Second)
	v.SetDefault("scheduler.error_backoff", 5*time.Second)
	v.SetDefault("scheduler.run_on_start", false)

	// History and sampler defaults
	v.SetDefault("history.capacity", 1000)
	v.SetDefault("sampler.disk_path", "/")

	// Threshold defaults
	for name, limit := range DefaultThresholds {
		v.SetDefault("thresholds."+name, limit)
	}

	// Health check defaults
	v.SetDefault("health_check.concurrency", 8)
	v.SetDefault("health_check.default_timeout", 5*time.Second)

	// Alert defaults
	v.SetDefault("alerts.raise_on_service_down", true)
	v.SetDefault("alerts.max_resolved", 500)

	// Dashboard defaults
	v.SetDefault("dashboard.session_window", 15*time.Minute)
	v.SetDefault("dashboard.issue_tracker.timeout", 5*time.Second)
	v.SetDefault("dashboard.latency_window", 10)

	// Report defaults
	v.SetDefault("report.output_dir", "./reports")
	v.SetDefault("report.formats", []string{"excel", "html"})
	v.SetDefault("report.filename_template", "health_report_{{.Date}}")
	v.SetDefault("report.timezone", "UTC")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// HTTP retry defaults
	v.SetDefault("http.retry.max_retries", 0)
	v.SetDefault("http.retry.base_delay", 200*time.Millisecond)
}

// applyServiceDefaults fills in per-service timeouts from the health check default.
func applyServiceDefaults(cfg *Config) {
	for i := range cfg.HealthCheck.Services {
		svc := &cfg.HealthCheck.Services[i]
		if svc.Timeout == 0 {
			svc.Timeout = cfg.HealthCheck.DefaultTimeout
		}
		svc.Kind = svc.Kind.Normalize()
	}
}
