package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{"returns default when not set", "SF_TEST_KEY_UNSET", "default", "", "default"},
		{"returns env value when set", "SF_TEST_KEY_SET", "default", "custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{"returns default when not set", "SF_TEST_INT_UNSET", 100, "", 100},
		{"parses valid int", "SF_TEST_INT_VALID", 100, "42", 42},
		{"returns default on invalid int", "SF_TEST_INT_INVALID", 100, "not-a-number", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt(%q, %d) = %d, want %d", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("SF_TEST_BOOL", "true")
	if !getEnvBool("SF_TEST_BOOL", false) {
		t.Error("getEnvBool() = false, want true")
	}

	t.Setenv("SF_TEST_BOOL_BAD", "maybe")
	if !getEnvBool("SF_TEST_BOOL_BAD", true) {
		t.Error("getEnvBool() should fall back to default on invalid value")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv(nil, "/tmp/sf")

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.Backend != BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Backend)
	}
	if cfg.DataDir != "/tmp/sf" {
		t.Errorf("DataDir = %q, want /tmp/sf", cfg.DataDir)
	}
	if cfg.LoginPath != "/login" {
		t.Errorf("LoginPath = %q, want /login", cfg.LoginPath)
	}
	if cfg.RetryReads {
		t.Error("RetryReads should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("VITE_API_URL", "http://vite.example/api")
	t.Setenv("STOREFRONT_STORE", BackendSQLite)
	t.Setenv("STOREFRONT_RATE_PER_SECOND", "3")

	cfg := FromEnv(DefaultLocalConfig(), "/tmp/sf")
	if cfg.APIURL != "http://vite.example/api" {
		t.Errorf("APIURL = %q, want VITE_API_URL value", cfg.APIURL)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Backend)
	}
	if cfg.RatePerSecond != 3 {
		t.Errorf("RatePerSecond = %d, want 3", cfg.RatePerSecond)
	}

	t.Setenv("STOREFRONT_API_URL", "https://shop.example/api")
	cfg = FromEnv(DefaultLocalConfig(), "/tmp/sf")
	if cfg.APIURL != "https://shop.example/api" {
		t.Errorf("APIURL = %q, STOREFRONT_API_URL should win", cfg.APIURL)
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config { return FromEnv(DefaultLocalConfig(), "/tmp/sf") }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad url", func(c *Config) { c.APIURL = "not a url" }, true},
		{"unknown backend", func(c *Config) { c.Backend = "redis" }, true},
		{"postgres without dsn", func(c *Config) { c.Backend = BackendPostgres }, true},
		{"postgres with dsn", func(c *Config) { c.Backend = BackendPostgres; c.DatabaseURL = "postgres://x" }, false},
		{"relative login path", func(c *Config) { c.LoginPath = "login" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	if err := loadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("loadDotEnv() on missing file error = %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SF_TEST_DOTENV=from-file\n"), 0600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("SF_TEST_DOTENV", "")
	os.Unsetenv("SF_TEST_DOTENV")

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv() error = %v", err)
	}
	if got := os.Getenv("SF_TEST_DOTENV"); got != "from-file" {
		t.Errorf("SF_TEST_DOTENV = %q, want from-file", got)
	}
}
