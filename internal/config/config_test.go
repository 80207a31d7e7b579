package config

import (
	"testing"
	"time"

	"github.com/lottostack/draw-engine/internal/platform/logging"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load with defaults failed: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Fatalf("app env = %s, want %s", cfg.AppEnv, EnvDev)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("http addr = %s", cfg.HTTPAddr)
	}
	if cfg.DrawCadence != time.Minute {
		t.Fatalf("draw cadence = %s, want 1m", cfg.DrawCadence)
	}
	if cfg.DrawLockStaleAfter != 30*time.Second {
		t.Fatalf("lock stale after = %s, want 30s", cfg.DrawLockStaleAfter)
	}
	if cfg.DrawScoreWorkers != 8 {
		t.Fatalf("score workers = %d, want 8", cfg.DrawScoreWorkers)
	}
	if !cfg.DrawCadenceTriggerEnabled {
		t.Fatal("cadence trigger must default to enabled")
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("log level = %s, want info", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("cors origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DRAW_CADENCE", "5m")
	t.Setenv("DRAW_LOCK_STALE_AFTER", "2m")
	t.Setenv("DRAW_SCORE_WORKERS", "16")
	t.Setenv("DRAW_CADENCE_TRIGGER_ENABLED", "false")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("INTERNAL_JOB_TOKEN", "  secret  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.AppEnv != EnvProd {
		t.Fatalf("app env = %s", cfg.AppEnv)
	}
	if cfg.DrawCadence != 5*time.Minute {
		t.Fatalf("draw cadence = %s", cfg.DrawCadence)
	}
	if cfg.DrawLockStaleAfter != 2*time.Minute {
		t.Fatalf("lock stale after = %s", cfg.DrawLockStaleAfter)
	}
	if cfg.DrawScoreWorkers != 16 {
		t.Fatalf("score workers = %d", cfg.DrawScoreWorkers)
	}
	if cfg.DrawCadenceTriggerEnabled {
		t.Fatal("cadence trigger should be disabled")
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Fatalf("log level = %s", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.InternalJobToken != "secret" {
		t.Fatalf("internal job token = %q", cfg.InternalJobToken)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad app env", "APP_ENV", "production"},
		{"bad cadence", "DRAW_CADENCE", "soon"},
		{"zero cadence", "DRAW_CADENCE", "0s"},
		{"negative stale after", "DRAW_LOCK_STALE_AFTER", "-1s"},
		{"zero workers", "DRAW_SCORE_WORKERS", "0"},
		{"non-numeric workers", "DRAW_SCORE_WORKERS", "many"},
		{"bad trigger flag", "DRAW_CADENCE_TRIGGER_ENABLED", "maybe"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoadUptraceRequiresDSN(t *testing.T) {
	t.Setenv("UPTRACE_ENABLED", "true")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when uptrace is enabled without a DSN")
	}

	t.Setenv("UPTRACE_DSN", "https://token@api.uptrace.dev/123")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.UptraceEnabled || cfg.UptraceDSN == "" {
		t.Fatalf("uptrace config = %+v", cfg)
	}
}
