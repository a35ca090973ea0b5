package config

import (
	"testing"
	"time"
)

// TestLoadDevGuard は開発用認可サービスの設定の読み込みを検証する。
func TestLoadDevGuard(t *testing.T) {
	t.Parallel()

	t.Run("設定された値が使われること", func(t *testing.T) {
		t.Parallel()

		cfg := LoadDevGuard(envOf(map[string]string{
			EnvPort:             "9000",
			EnvDevGuardSecret:   "s3cr3t",
			EnvDevGuardTokenTTL: "1h",
			EnvLogLevel:         "warn",
		}))

		if cfg.Port != "9000" {
			t.Errorf("Port = %q, want %q", cfg.Port, "9000")
		}
		if cfg.Secret != "s3cr3t" {
			t.Errorf("Secret = %q, want %q", cfg.Secret, "s3cr3t")
		}
		if cfg.TokenTTL != time.Hour {
			t.Errorf("TokenTTL = %v, want 1h", cfg.TokenTTL)
		}
		if cfg.Log.Level != "warn" {
			t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
		}
		if cfg.Log.Service != DevGuardService {
			t.Errorf("Log.Service = %q, want %q", cfg.Log.Service, DevGuardService)
		}
		if len(cfg.Warnings) != 0 {
			t.Errorf("Warnings = %v, want none", cfg.Warnings)
		}
	})

	t.Run("未設定の場合は既定値と警告になること", func(t *testing.T) {
		t.Parallel()

		cfg := LoadDevGuard(envOf(nil))

		if cfg.Port != "8000" {
			t.Errorf("Port = %q, want %q", cfg.Port, "8000")
		}
		if cfg.Secret != defaultDevGuardSecret {
			t.Errorf("Secret = %q, want %q", cfg.Secret, defaultDevGuardSecret)
		}
		if cfg.TokenTTL != 24*time.Hour {
			t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
		}
		if len(cfg.Warnings) != 1 {
			t.Errorf("Warnings = %v, want 1 warning", cfg.Warnings)
		}
	})

	t.Run("不正な有効期間は既定値と警告になること", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"forever", "0s", "-5m"} {
			cfg := LoadDevGuard(envOf(map[string]string{
				EnvDevGuardSecret:   "s3cr3t",
				EnvDevGuardTokenTTL: raw,
			}))
			if cfg.TokenTTL != 24*time.Hour {
				t.Errorf("%s: TokenTTL = %v, want 24h", raw, cfg.TokenTTL)
			}
			if len(cfg.Warnings) != 1 {
				t.Errorf("%s: Warnings = %v, want 1 warning", raw, cfg.Warnings)
			}
		}
	})
}
