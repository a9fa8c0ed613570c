// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	Sync      SyncConfig
	Recommend RecommendConfig
	Import    ImportConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates on-disk state: the SQLite database, the search index,
// the recommendation cache and the auth key all live under BasePath.
type DataConfig struct {
	BasePath string
}

// DatabasePath returns the SQLite database file.
func (d DataConfig) DatabasePath() string { return filepath.Join(d.BasePath, "inkwell.db") }

// CachePath returns the Badger directory for cached recommendations.
func (d DataConfig) CachePath() string { return filepath.Join(d.BasePath, "cache") }

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key, set from auth.LoadOrGenerateKey at startup.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
	// AdminEmails may use the index sync admin endpoints.
	AdminEmails []string
}

// SyncConfig tunes the search index synchronizer.
type SyncConfig struct {
	PollInterval      time.Duration // between incremental polls (default 30s)
	ReconcileInterval time.Duration // between full reconciliations (default 24h)
	BatchSize         int           // concurrent pushes per bulk-load batch (default 100)
	PageSize          int           // ids per page during deletion reconciliation (default 500)
	RetryAttempts     int           // per-item push attempts (default 3)
	RetryBase         time.Duration // first backoff interval (default 1s)
	RetryCap          time.Duration // maximum backoff interval (default 10s)
	QueueSize         int           // buffered write-path enqueue hints (default 1024)
	CursorLag         time.Duration // how far the poll cursor trails the poll time (default 10s)
}

// RecommendConfig tunes the recommendation engine.
type RecommendConfig struct {
	CacheTTL     time.Duration
	DefaultLimit int
}

// ImportConfig bounds EPUB uploads.
type ImportConfig struct {
	MaxEPUBBytes int64
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("inkwell", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for database, index and cache")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	origins := fs.String("allowed-origins", "", "Comma separated CORS origins (default: *)")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 24h)")
	adminEmails := fs.String("admin-emails", "", "Comma separated emails of administrators")
	pollInterval := fs.String("sync-poll-interval", "", "Search index poll interval (default: 30s)")
	reconcileInterval := fs.String("sync-reconcile-interval", "", "Full reconciliation interval (default: 24h)")
	batchSize := fs.String("sync-batch-size", "", "Bulk load batch size (default: 100)")
	cacheTTL := fs.String("recommend-cache-ttl", "", "Recommendation cache TTL (default: 24h)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*origins, "ALLOWED_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			AdminEmails: splitList(getConfigValue(*adminEmails, "ADMIN_EMAILS", "")),
		},
		Sync: SyncConfig{
			BatchSize:     getIntConfigValue(*batchSize, "SYNC_BATCH_SIZE", 100),
			PageSize:      getIntConfigValue("", "SYNC_PAGE_SIZE", 500),
			RetryAttempts: getIntConfigValue("", "SYNC_RETRY_ATTEMPTS", 3),
			QueueSize:     getIntConfigValue("", "SYNC_QUEUE_SIZE", 1024),
		},
		Recommend: RecommendConfig{
			DefaultLimit: getIntConfigValue("", "RECOMMEND_DEFAULT_LIMIT", 10),
		},
		Import: ImportConfig{
			MaxEPUBBytes: int64(getIntConfigValue("", "IMPORT_MAX_EPUB_BYTES", 50<<20)),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dst       *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h", &cfg.Auth.AccessTokenDuration},
		{*pollInterval, "SYNC_POLL_INTERVAL", "30s", &cfg.Sync.PollInterval},
		{*reconcileInterval, "SYNC_RECONCILE_INTERVAL", "24h", &cfg.Sync.ReconcileInterval},
		{"", "SYNC_RETRY_BASE", "1s", &cfg.Sync.RetryBase},
		{"", "SYNC_RETRY_CAP", "10s", &cfg.Sync.RetryCap},
		{"", "SYNC_CURSOR_LAG", "10s", &cfg.Sync.CursorLag},
		{*cacheTTL, "RECOMMEND_CACHE_TTL", "24h", &cfg.Recommend.CacheTTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Sync.PollInterval <= 0 || c.Sync.ReconcileInterval <= 0 {
		return errors.New("sync intervals must be positive")
	}
	if c.Sync.BatchSize <= 0 || c.Sync.PageSize <= 0 {
		return errors.New("sync batch and page sizes must be positive")
	}
	if c.Sync.RetryAttempts < 1 {
		return errors.New("sync retry attempts must be at least 1")
	}
	if c.Sync.RetryBase <= 0 || c.Sync.RetryCap < c.Sync.RetryBase {
		return fmt.Errorf("sync retry cap (%s) must be >= base (%s) > 0", c.Sync.RetryCap, c.Sync.RetryBase)
	}
	if c.Sync.CursorLag < 0 {
		return errors.New("sync cursor lag cannot be negative")
	}

	if c.Recommend.CacheTTL <= 0 {
		return errors.New("recommendation cache TTL must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "Inkwell", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment wins over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
