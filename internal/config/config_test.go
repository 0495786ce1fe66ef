package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
	if !cfg.Features.HotReload {
		t.Error("expected hot reload enabled by default")
	}
	if cfg.IsAPIEnabled() {
		t.Error("API should be disabled by default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected defaults, got port %d", cfg.Server.Port)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	content := `
title: "My Courses"
server:
  port: 9000
  debug: true
ai:
  model: gemini-2.5-pro
  timeout: 30s
  cache_ttl: 10m
storage:
  driver: postgres
  dsn: "postgres://localhost/stepwise"
workspace:
  line_height: 20
  viewport_height: 800
courses:
  dir: ./my-courses
api:
  enabled: true
  rate_limit:
    requests_per_second: 5
    burst: 10
`
	if err := os.WriteFile(filepath.Join(dir, "stepwise.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Title != "My Courses" {
		t.Errorf("unexpected title %q", cfg.Title)
	}
	if cfg.Server.Port != 9000 || !cfg.Server.Debug {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.AI.GetModel() != "gemini-2.5-pro" {
		t.Errorf("unexpected model %q", cfg.AI.GetModel())
	}
	if cfg.AI.GetTimeout() != 30*time.Second {
		t.Errorf("unexpected timeout %v", cfg.AI.GetTimeout())
	}
	if !cfg.AI.IsCacheEnabled() || cfg.AI.GetCacheTTL() != 10*time.Minute {
		t.Errorf("unexpected cache ttl %v", cfg.AI.GetCacheTTL())
	}
	if cfg.Storage.GetDriver() != "postgres" {
		t.Errorf("unexpected driver %q", cfg.Storage.GetDriver())
	}
	if cfg.Workspace.GetLineHeight() != 20 || cfg.Workspace.GetViewportHeight() != 800 {
		t.Errorf("unexpected workspace config: %+v", cfg.Workspace)
	}
	if cfg.Courses.GetDir() != "./my-courses" {
		t.Errorf("unexpected courses dir %q", cfg.Courses.GetDir())
	}
	if !cfg.IsAPIEnabled() {
		t.Error("expected API enabled")
	}
	if cfg.API.GetRateLimitRPS() != 5 || cfg.API.GetRateLimitBurst() != 10 {
		t.Errorf("unexpected rate limit: %v/%d", cfg.API.GetRateLimitRPS(), cfg.API.GetRateLimitBurst())
	}
}

func TestGetterDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.AI.GetModel(); got != "gemini-2.0-flash" {
		t.Errorf("unexpected default model %q", got)
	}
	if got := cfg.AI.GetTimeout(); got != 60*time.Second {
		t.Errorf("unexpected default timeout %v", got)
	}
	if got := cfg.AI.GetRetryMaxRetries(); got != 3 {
		t.Errorf("unexpected default retries %d", got)
	}
	if cfg.AI.IsCacheEnabled() {
		t.Error("cache should be disabled by default")
	}
	if got := cfg.Storage.GetDriver(); got != "sqlite" {
		t.Errorf("unexpected default driver %q", got)
	}
	if got := cfg.Storage.GetPath(); got != "./stepwise.db" {
		t.Errorf("unexpected default path %q", got)
	}
	if got := cfg.Workspace.GetLineHeight(); got != 24 {
		t.Errorf("unexpected default line height %d", got)
	}
	if got := cfg.Workspace.GetViewportHeight(); got != 600 {
		t.Errorf("unexpected default viewport height %d", got)
	}
	if got := cfg.Workspace.GetAdvanceNotice(); got != 2*time.Second {
		t.Errorf("unexpected default advance notice %v", got)
	}
	if got := cfg.Courses.GetDir(); got != "./courses" {
		t.Errorf("unexpected default courses dir %q", got)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	ai := AIConfig{Timeout: "not-a-duration", CacheTTL: "bogus"}
	if ai.GetTimeout() != 60*time.Second {
		t.Errorf("expected fallback timeout, got %v", ai.GetTimeout())
	}
	if ai.GetCacheTTL() != 0 {
		t.Errorf("expected zero cache ttl, got %v", ai.GetCacheTTL())
	}
}

func TestAuthConfigExpansion(t *testing.T) {
	t.Setenv("STEPWISE_TEST_KEY", "sekrit")

	api := &APIConfig{Enabled: true, Auth: &AuthConfig{APIKey: "${STEPWISE_TEST_KEY}"}}
	if !api.IsAuthEnabled() {
		t.Error("expected auth enabled")
	}
	if got := api.Auth.GetAPIKey(); got != "sekrit" {
		t.Errorf("expected expanded key, got %q", got)
	}
	if got := api.Auth.GetHeaderName(); got != "X-API-Key" {
		t.Errorf("unexpected default header %q", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepwise.yaml")

	cfg := DefaultConfig()
	cfg.Title = "Saved"
	cfg.Server.Port = 7777
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Title != "Saved" || loaded.Server.Port != 7777 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}
