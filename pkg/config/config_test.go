package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}

	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}

	if got := cfg.Quotes.CacheTTL; got != 600*time.Second {
		t.Fatalf("expected default cache TTL 600s, got %v", got)
	}

	if got := cfg.Quotes.ProviderTimeout; got != 2*time.Second {
		t.Fatalf("expected default provider timeout 2s, got %v", got)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_AuthEnabledRequiresSecret(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("COVERLANE_AUTH_ENABLED", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected enabled auth without secret to return an error")
	}

	t.Setenv(EnvAuthSecret, "secret")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error once secret is set: %v", err)
	}
}

func TestRedisConfigured(t *testing.T) {
	if (RedisConfig{}).Configured() {
		t.Fatal("empty redis config should not report configured")
	}
	if !(RedisConfig{URL: "redis://x"}).Configured() {
		t.Fatal("redis url should report configured")
	}
	if !(RedisConfig{Address: "localhost:6379"}).Configured() {
		t.Fatal("redis address should report configured")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "Production"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvAppPort, "8081")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
}
