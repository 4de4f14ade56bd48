package config

import (
	"testing"
	"time"
)

func TestLoaderApplyEnv(t *testing.T) {
	t.Setenv("KNOWHOOK_HOOKS_DIR", "env/hooks")
	t.Setenv("KNOWHOOK_DATA_DIR", "env/data")
	t.Setenv("KNOWHOOK_REPO_PATH", "/env/repo")
	t.Setenv("KNOWHOOK_NATS_URL", "nats://env:4222")
	t.Setenv("KNOWHOOK_NATS_SUBJECT", "env.receipts")
	t.Setenv("KNOWHOOK_REPORTS_DIR", "env/reports")
	t.Setenv("KNOWHOOK_TIMEOUT", "45s")
	t.Setenv("KNOWHOOK_REPORTS_DISABLED", "true")

	cfg := DefaultConfig()
	NewLoader(nil).applyEnv(cfg)

	if cfg.Engine.HooksDir != "env/hooks" {
		t.Errorf("expected env hooks dir, got %s", cfg.Engine.HooksDir)
	}
	if cfg.Engine.DataDir != "env/data" {
		t.Errorf("expected env data dir, got %s", cfg.Engine.DataDir)
	}
	if cfg.Repo.Path != "/env/repo" {
		t.Errorf("expected env repo path, got %s", cfg.Repo.Path)
	}
	if cfg.NATS.URL != "nats://env:4222" {
		t.Errorf("expected env NATS URL, got %s", cfg.NATS.URL)
	}
	if cfg.NATS.Subject != "env.receipts" {
		t.Errorf("expected env NATS subject, got %s", cfg.NATS.Subject)
	}
	if cfg.Reports.Dir != "env/reports" {
		t.Errorf("expected env reports dir, got %s", cfg.Reports.Dir)
	}
	if cfg.Engine.Timeout != 45*time.Second {
		t.Errorf("expected env timeout 45s, got %s", cfg.Engine.Timeout)
	}
	if !cfg.Reports.Disabled {
		t.Error("expected reports disabled from env")
	}
}

func TestLoaderApplyEnv_UnsetLeavesDefaults(t *testing.T) {
	// t.Setenv registers cleanup and marks the test as non-parallel.
	t.Setenv("KNOWHOOK_HOOKS_DIR", "")

	cfg := DefaultConfig()
	NewLoader(nil).applyEnv(cfg)

	if cfg.Engine.HooksDir != ".knowhook/hooks" {
		t.Errorf("empty env var changed hooks dir: %s", cfg.Engine.HooksDir)
	}
	if cfg.Engine.Timeout != 5*time.Minute {
		t.Errorf("expected default timeout, got %s", cfg.Engine.Timeout)
	}
}

func TestLoaderApplyEnv_InvalidTimeoutIgnored(t *testing.T) {
	t.Setenv("KNOWHOOK_TIMEOUT", "soon")

	cfg := DefaultConfig()
	NewLoader(nil).applyEnv(cfg)

	if cfg.Engine.Timeout != 5*time.Minute {
		t.Errorf("invalid timeout should keep previous value, got %s", cfg.Engine.Timeout)
	}
}

func TestLoaderApplyEnv_ReportsDisabledFlag(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"false", false},
		{"0", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("KNOWHOOK_REPORTS_DISABLED", tt.value)

			cfg := DefaultConfig()
			NewLoader(nil).applyEnv(cfg)
			if cfg.Reports.Disabled != tt.want {
				t.Errorf("KNOWHOOK_REPORTS_DISABLED=%s: disabled = %v, want %v",
					tt.value, cfg.Reports.Disabled, tt.want)
			}
		})
	}
}
