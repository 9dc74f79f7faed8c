package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the on-disk configuration in ~/.storefront/config.yaml
type LocalConfig struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig holds REST service settings
type APIConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RatePerSecond  int    `yaml:"rate_per_second"`
	MaxConcurrent  int    `yaml:"max_concurrent"`
	RetryReads     bool   `yaml:"retry_reads"`
}

// StorageConfig selects the durable side-store
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path,omitempty"`
	Namespace   string `yaml:"namespace,omitempty"`
	DatabaseURL string `yaml:"-"` // Loaded from secrets.yaml
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// SecretsConfig holds credentials loaded from secrets.yaml
type SecretsConfig struct {
	DatabaseURL string `yaml:"database_url"`
}

// StorefrontDir returns the path to ~/.storefront
func StorefrontDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".storefront"), nil
}

// EnsureStorefrontDir creates ~/.storefront and its subdirectories
func EnsureStorefrontDir() (string, error) {
	dir, err := StorefrontDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "data", "logs"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0700); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns the defaults used when config.yaml is absent
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		API: APIConfig{
			URL:            DefaultAPIURL,
			TimeoutSeconds: 30,
			RatePerSecond:  10,
			MaxConcurrent:  8,
			RetryReads:     false,
		},
		Storage: StorageConfig{
			Backend:   BackendFile,
			Namespace: "default",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadLocalConfig loads ~/.storefront/config.yaml, falling back to defaults
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := StorefrontDir()
	if err != nil {
		return nil, err
	}
	return LoadLocalConfigFrom(dir)
}

// LoadLocalConfigFrom loads config.yaml and secrets.yaml from dir
func LoadLocalConfigFrom(dir string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig()

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	return cfg, nil
}

// loadSecrets loads the database URL from secrets.yaml
func loadSecrets(dir string, cfg *LocalConfig) error {
	data, err := os.ReadFile(filepath.Join(dir, "secrets.yaml"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}

	cfg.Storage.DatabaseURL = secrets.DatabaseURL
	return nil
}

// SaveLocalConfig writes cfg to dir/config.yaml and, when a database URL
// is set, dir/secrets.yaml with owner-only permissions
func SaveLocalConfig(dir string, cfg *LocalConfig) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if cfg.Storage.DatabaseURL == "" {
		return nil
	}

	secrets, err := yaml.Marshal(SecretsConfig{DatabaseURL: cfg.Storage.DatabaseURL})
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), secrets, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}

	return nil
}

// SettableKeys lists the keys accepted by LocalConfig.Set.
var SettableKeys = []string{
	"api.url",
	"api.timeout_seconds",
	"api.rate_per_second",
	"api.max_concurrent",
	"api.retry_reads",
	"storage.backend",
	"storage.path",
	"storage.namespace",
	"storage.database_url",
	"log.level",
}

// Set assigns one dotted key, e.g. "api.url". Values are checked before
// anything is changed.
func (c *LocalConfig) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "api.url":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid API URL %q", value)
		}
		c.API.URL = value
	case "api.timeout_seconds":
		return setCount(key, value, &c.API.TimeoutSeconds, 1)
	case "api.rate_per_second":
		return setCount(key, value, &c.API.RatePerSecond, 0)
	case "api.max_concurrent":
		return setCount(key, value, &c.API.MaxConcurrent, 1)
	case "api.retry_reads":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		c.API.RetryReads = b
	case "storage.backend":
		switch value {
		case BackendFile, BackendSQLite, BackendPostgres, BackendMemory:
			c.Storage.Backend = value
		default:
			return fmt.Errorf("unknown store backend %q (valid: file, sqlite, postgres, memory)", value)
		}
	case "storage.path":
		c.Storage.Path = value
	case "storage.namespace":
		if value == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
		c.Storage.Namespace = value
	case "storage.database_url":
		c.Storage.DatabaseURL = value
	case "log.level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
			c.Log.Level = strings.ToLower(value)
		default:
			return fmt.Errorf("unknown log level %q", value)
		}
	default:
		return fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(SettableKeys, ", "))
	}
	return nil
}

func setCount(key, value string, dst *int, min int) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < min {
		return fmt.Errorf("%s must be a whole number >= %d", key, min)
	}
	*dst = n
	return nil
}
