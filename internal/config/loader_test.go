package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"healthwatch/internal/model"
)

// writeTempFile writes content into dir/name and returns the path.
func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_Success(t *testing.T) {
	content := `
server:
  addr: ":9090"
thresholds:
  cpu_usage: 75
health_check:
  services:
    - name: db
      kind: tcp
      target: "localhost:5432"
    - name: llm
      kind: mock
      note: "offline fallback"
`
	path := writeTempFile(t, t.TempDir(), "config.yaml", content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %v, want :9090", cfg.Server.Addr)
	}
	if cfg.Thresholds["cpu_usage"] != 75 {
		t.Errorf("cpu_usage threshold = %v, want 75", cfg.Thresholds["cpu_usage"])
	}

	// Defaults are merged with the file
	if cfg.Thresholds["memory_usage"] != 85 {
		t.Errorf("memory_usage threshold = %v, want default 85", cfg.Thresholds["memory_usage"])
	}
	if cfg.Scheduler.HealthCheckInterval != 60*time.Second {
		t.Errorf("HealthCheckInterval = %v, want 60s", cfg.Scheduler.HealthCheckInterval)
	}
	if cfg.Scheduler.MetricsInterval != 30*time.Second {
		t.Errorf("MetricsInterval = %v, want 30s", cfg.Scheduler.MetricsInterval)
	}
	if cfg.Scheduler.ErrorBackoff != 5*time.Second {
		t.Errorf("ErrorBackoff = %v, want 5s", cfg.Scheduler.ErrorBackoff)
	}
	if cfg.History.Capacity != 1000 {
		t.Errorf("History.Capacity = %v, want 1000", cfg.History.Capacity)
	}

	if len(cfg.HealthCheck.Services) != 2 {
		t.Fatalf("len(Services) = %d, want 2", len(cfg.HealthCheck.Services))
	}
	if cfg.HealthCheck.Services[0].Timeout != 5*time.Second {
		t.Errorf("service timeout = %v, want default 5s", cfg.HealthCheck.Services[0].Timeout)
	}
	if cfg.HealthCheck.Services[1].Kind != model.ServiceKindMock {
		t.Errorf("service kind = %v, want mock", cfg.HealthCheck.Services[1].Kind)
	}
}

func TestLoad_ServicesFile(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "services.yaml", `
services:
  - name: api
    target: "http://localhost:8000/health"
    timeout: 2s
    degraded_latency: 500ms
`)
	path := writeTempFile(t, dir, "config.yaml", `
health_check:
  services_file: services.yaml
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.HealthCheck.Services) != 1 {
		t.Fatalf("len(Services) = %d, want 1", len(cfg.HealthCheck.Services))
	}
	svc := cfg.HealthCheck.Services[0]
	if svc.Kind != model.ServiceKindHTTP {
		t.Errorf("Kind = %v, want http (default)", svc.Kind)
	}
	if svc.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", svc.Timeout)
	}
	if svc.DegradedLatency != 500*time.Millisecond {
		t.Errorf("DegradedLatency = %v, want 500ms", svc.DegradedLatency)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	if err == nil {
		t.Error("Load() should return error for empty path")
	}
}

func TestLoad_UnknownThreshold(t *testing.T) {
	path := writeTempFile(t, t.TempDir(), "config.yaml", `
thresholds:
  gpu_usage: 50
`)
	if _, err := Load(path); err == nil {
		t.Error("Load() should reject thresholds for unknown metrics")
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	path := writeTempFile(t, t.TempDir(), "config.yaml", `
server:
  addr: ":9090"
`)

	t.Setenv("HEALTHWATCH_SERVER_ADDR", ":7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %v, want :7070 (env override)", cfg.Server.Addr)
	}
}

func TestLoadServices(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing name", func(t *testing.T) {
		path := writeTempFile(t, dir, "bad.yaml", "services:\n  - kind: mock\n")
		if _, err := LoadServices(path); err == nil {
			t.Error("LoadServices() should reject a service without a name")
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := LoadServices(filepath.Join(dir, "missing.yaml")); err == nil {
			t.Error("LoadServices() should return error for missing file")
		}
	})

	t.Run("count probed", func(t *testing.T) {
		path := writeTempFile(t, dir, "ok.yaml", `
services:
  - name: db
    kind: tcp
    target: "localhost:5432"
  - name: s3
    kind: MOCK
`)
		services, err := LoadServices(path)
		if err != nil {
			t.Fatalf("LoadServices() error = %v", err)
		}
		if got := CountProbedServices(services); got != 1 {
			t.Errorf("CountProbedServices() = %d, want 1", got)
		}
	})
}
