// Package config loads server configuration from flags, environment variables and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Source    SourceConfig
	Table     TableConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// SourceConfig describes where the book payload comes from.
type SourceConfig struct {
	// Location is a file path, an http(s) URL or sqlite://path (default: books.json).
	Location string
	// Watch reloads file sources when they change on disk (default: true).
	Watch bool
	// SettleDelay is how long the file must stay quiet before a reload (default: 250ms).
	SettleDelay time.Duration
	// HTTPTimeout bounds a single fetch of an http(s) source (default: 10s).
	HTTPTimeout time.Duration
}

// TableConfig holds the table presentation options.
type TableConfig struct {
	FilterMode      string // and | or (default: and)
	DateDisplay     string // source | dmy (default: source)
	CollationLocale string // BCP 47 tag used for the publisher sort (default: en)
	ShowPublisher   bool   // default: true
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // default: 8080
	CORSOrigins  []string      // default: *
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 15s; 0 disables it for SSE streams
	IdleTimeout  time.Duration // default: 60s
}

// RateLimitConfig holds per-client API rate limits.
type RateLimitConfig struct {
	RPS   int // requests per second per client, 0 disables limiting (default: 20)
	Burst int // default: 40
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("booktable-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	source := fs.String("source", "", "Book payload: file path, http(s) URL or sqlite://path (default: books.json)")
	watch := fs.String("watch", "", "Reload file sources when they change (default: true)")
	settleDelay := fs.String("settle-delay", "", "Quiet period before reloading a changed file (default: 250ms)")
	httpTimeout := fs.String("http-source-timeout", "", "Timeout for http(s) sources (default: 10s)")

	filterMode := fs.String("filter-mode", "", "How filter conditions combine: and, or (default: and)")
	dateDisplay := fs.String("date-display", "", "Publication date display: source, dmy (default: source)")
	locale := fs.String("collation-locale", "", "Locale for the publisher sort (default: en)")
	showPublisher := fs.String("show-publisher", "", "Show the publisher column (default: true)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed origins (default: *)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	rateRPS := fs.String("rate-limit-rps", "", "Requests per second per client, 0 disables (default: 20)")
	rateBurst := fs.String("rate-limit-burst", "", "Rate limit burst (default: 40)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Source: SourceConfig{
			Location: getConfigValue(*source, "BOOKS_SOURCE", "books.json"),
			Watch:    getBoolConfigValue(*watch, "WATCH_SOURCE", true),
		},
		Table: TableConfig{
			FilterMode:      strings.ToLower(getConfigValue(*filterMode, "FILTER_MODE", "and")),
			DateDisplay:     strings.ToLower(getConfigValue(*dateDisplay, "DATE_DISPLAY", "source")),
			CollationLocale: getConfigValue(*locale, "COLLATION_LOCALE", "en"),
			ShowPublisher:   getBoolConfigValue(*showPublisher, "SHOW_PUBLISHER", true),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		RateLimit: RateLimitConfig{
			RPS:   getIntConfigValue(*rateRPS, "RATE_LIMIT_RPS", 20),
			Burst: getIntConfigValue(*rateBurst, "RATE_LIMIT_BURST", 40),
		},
	}

	durations := []struct {
		target *time.Duration
		flag   string
		envKey string
		def    string
		name   string
	}{
		{&cfg.Source.SettleDelay, *settleDelay, "WATCH_SETTLE_DELAY", "250ms", "settle delay"},
		{&cfg.Source.HTTPTimeout, *httpTimeout, "HTTP_SOURCE_TIMEOUT", "10s", "http source timeout"},
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
	}
	for _, d := range durations {
		value := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, value, err)
		}
		*d.target = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if strings.TrimSpace(c.Source.Location) == "" {
		return errors.New("BOOKS_SOURCE cannot be empty")
	}

	switch c.Table.FilterMode {
	case "and", "or":
	default:
		return fmt.Errorf("invalid filter mode: %s (must be and or or)", c.Table.FilterMode)
	}

	switch c.Table.DateDisplay {
	case "source", "dmy":
	default:
		return fmt.Errorf("invalid date display: %s (must be source or dmy)", c.Table.DateDisplay)
	}

	if _, err := language.Parse(c.Table.CollationLocale); err != nil {
		return fmt.Errorf("invalid collation locale %q: %w", c.Table.CollationLocale, err)
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate limits cannot be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		return errors.New("RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	return nil
}

// Locale returns the parsed collation locale, falling back to English.
func (c *Config) Locale() language.Tag {
	tag, err := language.Parse(c.Table.CollationLocale)
	if err != nil {
		return language.English
	}
	return tag
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

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
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

		// Variables already in the environment win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
