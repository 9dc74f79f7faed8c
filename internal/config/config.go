package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// DefaultAPIURL is used when neither the environment nor config.yaml sets one.
const DefaultAPIURL = "http://localhost:5000/api"

// Config holds the effective configuration for the storefront client
type Config struct {
	// API
	APIURL        string
	HTTPTimeout   time.Duration
	RatePerSecond int
	MaxConcurrent int
	RetryReads    bool

	// Storage
	Backend     string
	DataDir     string
	DatabaseURL string
	Namespace   string

	// Navigation
	LoginPath string

	LogLevel string
}

// Load reads .env (if present), ~/.storefront/config.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	local, err := LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load local config: %w", err)
	}

	dir, err := StorefrontDir()
	if err != nil {
		return nil, err
	}

	cfg := FromEnv(local, dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from local with environment overrides applied.
func FromEnv(local *LocalConfig, dir string) *Config {
	if local == nil {
		local = DefaultLocalConfig()
	}

	dataDir := local.Storage.Path
	if dataDir == "" {
		dataDir = dir
	}

	apiURL := local.API.URL
	if v := os.Getenv("VITE_API_URL"); v != "" {
		apiURL = v
	}

	return &Config{
		APIURL:        getEnv("STOREFRONT_API_URL", apiURL),
		HTTPTimeout:   time.Duration(getEnvInt("STOREFRONT_HTTP_TIMEOUT", local.API.TimeoutSeconds)) * time.Second,
		RatePerSecond: getEnvInt("STOREFRONT_RATE_PER_SECOND", local.API.RatePerSecond),
		MaxConcurrent: getEnvInt("STOREFRONT_MAX_CONCURRENT", local.API.MaxConcurrent),
		RetryReads:    getEnvBool("STOREFRONT_RETRY_READS", local.API.RetryReads),
		Backend:       getEnv("STOREFRONT_STORE", local.Storage.Backend),
		DataDir:       getEnv("STOREFRONT_DATA_DIR", dataDir),
		DatabaseURL:   getEnv("STOREFRONT_DATABASE_URL", local.Storage.DatabaseURL),
		Namespace:     getEnv("STOREFRONT_NAMESPACE", local.Storage.Namespace),
		LoginPath:     getEnv("STOREFRONT_LOGIN_PATH", "/login"),
		LogLevel:      getEnv("STOREFRONT_LOG_LEVEL", local.Log.Level),
	}
}

// Validate checks settings that would otherwise fail later and obscurely.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API URL %q", c.APIURL)
	}

	switch c.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STOREFRONT_DATABASE_URL must be set for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store backend %q (valid: file, sqlite, postgres, memory)", c.Backend)
	}

	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("login path must start with /: %q", c.LoginPath)
	}
	return nil
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
