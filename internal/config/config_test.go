package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q, expected %q", cfg.Server.Port, "8080")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver = %q, expected %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.Jira.AuthType != "basic" {
		t.Errorf("default jira auth type = %q, expected %q", cfg.Jira.AuthType, "basic")
	}
	if cfg.Jira.TimeoutSeconds != 10 {
		t.Errorf("default jira timeout = %d, expected 10", cfg.Jira.TimeoutSeconds)
	}
	if cfg.RiskEngine.TimeoutSeconds != 10 {
		t.Errorf("default risk engine timeout = %d, expected 10", cfg.RiskEngine.TimeoutSeconds)
	}
	if cfg.Import.DemoMode {
		t.Error("demo mode should be disabled by default")
	}
	if cfg.Import.PageSize != 50 {
		t.Errorf("default page size = %d, expected 50", cfg.Import.PageSize)
	}
	if cfg.Redis.Enabled {
		t.Error("redis should be disabled by default")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, expected default", cfg.Server.Host)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9090"
  mode: release
jira:
  base_url: https://example.atlassian.net
  auth_type: bearer
  bearer_token: tok-123
import:
  demo_mode: true
  page_size: 25
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, expected %q", cfg.Server.Port, "9090")
	}
	if cfg.Jira.BaseURL != "https://example.atlassian.net" {
		t.Errorf("jira base url = %q", cfg.Jira.BaseURL)
	}
	if cfg.Jira.AuthType != "bearer" {
		t.Errorf("auth type = %q, expected bearer", cfg.Jira.AuthType)
	}
	if !cfg.Import.DemoMode {
		t.Error("demo mode should be enabled")
	}
	if cfg.Import.PageSize != 25 {
		t.Errorf("page size = %d, expected 25", cfg.Import.PageSize)
	}
	// Unset fields keep their defaults
	if cfg.Jira.TimeoutSeconds != 10 {
		t.Errorf("jira timeout = %d, expected default 10", cfg.Jira.TimeoutSeconds)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JIRA_BEARER_TOKEN", "env-token")
	t.Setenv("IMPORT_DEMO_MODE", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, expected env override 7070", cfg.Server.Port)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %q, expected memory", cfg.Database.Driver)
	}
	if cfg.Jira.BearerToken != "env-token" {
		t.Errorf("bearer token = %q", cfg.Jira.BearerToken)
	}
	// Providing a bearer token switches the auth type
	if cfg.Jira.AuthType != "bearer" {
		t.Errorf("auth type = %q, expected bearer", cfg.Jira.AuthType)
	}
	if !cfg.Import.DemoMode {
		t.Error("demo mode should be enabled via env")
	}
}

func TestParseRedisURL(t *testing.T) {
	cases := []struct {
		url      string
		addr     string
		password string
		db       int
	}{
		{"redis://localhost:6379", "localhost:6379", "", 0},
		{"redis://:secret@redis.internal:6380/2", "redis.internal:6380", "secret", 2},
		{"redis://user:pw@host:6379/1", "host:6379", "pw", 1},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		cfg.parseRedisURL(tc.url)
		if cfg.Redis.Addr != tc.addr {
			t.Errorf("parseRedisURL(%q) addr = %q, expected %q", tc.url, cfg.Redis.Addr, tc.addr)
		}
		if cfg.Redis.Password != tc.password {
			t.Errorf("parseRedisURL(%q) password = %q, expected %q", tc.url, cfg.Redis.Password, tc.password)
		}
		if cfg.Redis.DB != tc.db {
			t.Errorf("parseRedisURL(%q) db = %d, expected %d", tc.url, cfg.Redis.DB, tc.db)
		}
	}
}
