package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// clearEnv blanks every variable LoadConfig reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "BOOKS_SOURCE", "WATCH_SOURCE", "WATCH_SETTLE_DELAY",
		"HTTP_SOURCE_TIMEOUT", "FILTER_MODE", "DATE_DISPLAY", "COLLATION_LOCALE",
		"SHOW_PUBLISHER", "SERVER_PORT", "CORS_ORIGINS", "SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func noEnvFile(t *testing.T) string {
	t.Helper()
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Environment: "development"},
		Logger:    LoggerConfig{Level: "info"},
		Source:    SourceConfig{Location: "books.json"},
		Table:     TableConfig{FilterMode: "and", DateDisplay: "source", CollationLocale: "en", ShowPublisher: true},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "books.json", cfg.Source.Location)
	assert.True(t, cfg.Source.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.Source.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.Source.HTTPTimeout)
	assert.Equal(t, "and", cfg.Table.FilterMode)
	assert.Equal(t, "source", cfg.Table.DateDisplay)
	assert.True(t, cfg.Table.ShowPublisher)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 20, cfg.RateLimit.RPS)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.Equal(t, language.English, cfg.Locale())
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOKS_SOURCE", "from-env.json")
	t.Setenv("FILTER_MODE", "OR")
	t.Setenv("SHOW_PUBLISHER", "no")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := LoadConfig([]string{
		noEnvFile(t),
		"-source", "https://example.test/books.json",
		"-date-display", "dmy",
		"-port", "9000",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/books.json", cfg.Source.Location)
	assert.Equal(t, "or", cfg.Table.FilterMode)
	assert.Equal(t, "dmy", cfg.Table.DateDisplay)
	assert.False(t, cfg.Table.ShowPublisher)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BOOKS_SOURCE=sqlite://catalog.db\nLOG_LEVEL=debug\n"), 0o644))

	cfg, err := LoadConfig([]string{"-env-file", envFile})
	require.NoError(t, err)

	assert.Equal(t, "sqlite://catalog.db", cfg.Source.Location)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	_, err := LoadConfig([]string{noEnvFile(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid read timeout")
}

func TestLoadConfig_InvalidMode(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig([]string{noEnvFile(t), "-filter-mode", "xor"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter mode")
}

func TestLoadConfig_UnknownFlag(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig([]string{"-metadata-path", "/tmp"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "staging", mutate: func(c *Config) { c.App.Environment = "staging" }},
		{name: "missing env", mutate: func(c *Config) { c.App.Environment = "" }, wantErr: "ENV is required"},
		{name: "case sensitive env", mutate: func(c *Config) { c.App.Environment = "PRODUCTION" }, wantErr: "invalid environment"},
		{name: "upper-case level", mutate: func(c *Config) { c.Logger.Level = "DEBUG" }},
		{name: "bad level", mutate: func(c *Config) { c.Logger.Level = "trace" }, wantErr: "invalid log level"},
		{name: "empty source", mutate: func(c *Config) { c.Source.Location = " " }, wantErr: "BOOKS_SOURCE"},
		{name: "or mode", mutate: func(c *Config) { c.Table.FilterMode = "or" }},
		{name: "bad display", mutate: func(c *Config) { c.Table.DateDisplay = "ymd" }, wantErr: "invalid date display"},
		{name: "locale with region", mutate: func(c *Config) { c.Table.CollationLocale = "fr-CA" }},
		{name: "bad locale", mutate: func(c *Config) { c.Table.CollationLocale = "not a locale" }, wantErr: "invalid collation locale"},
		{name: "limiting disabled", mutate: func(c *Config) { c.RateLimit = RateLimitConfig{} }},
		{name: "negative rps", mutate: func(c *Config) { c.RateLimit.RPS = -1 }, wantErr: "negative"},
		{name: "zero burst", mutate: func(c *Config) { c.RateLimit.Burst = 0 }, wantErr: "RATE_LIMIT_BURST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TEST_BOOKS_KEY", "env-value")

	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_BOOKS_KEY", "default"))
	assert.Equal(t, "env-value", getConfigValue("", "TEST_BOOKS_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "TEST_BOOKS_MISSING", "default"))
}

func TestGetBoolAndIntConfigValue(t *testing.T) {
	assert.True(t, getBoolConfigValue("YES", "X", false))
	assert.True(t, getBoolConfigValue("1", "X", false))
	assert.False(t, getBoolConfigValue("off", "X", true))
	assert.True(t, getBoolConfigValue("", "TEST_BOOKS_MISSING", true))

	assert.Equal(t, 7, getIntConfigValue("7", "X", 1))
	assert.Equal(t, 1, getIntConfigValue("seven", "X", 1))
	assert.Equal(t, 1, getIntConfigValue("", "TEST_BOOKS_MISSING", 1))
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("TEST_BOOKS_A", "")
	t.Setenv("TEST_BOOKS_QUOTED", "")
	t.Setenv("TEST_BOOKS_KEEP", "original")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# comment

TEST_BOOKS_A = value with spaces
TEST_BOOKS_QUOTED="quoted value"
TEST_BOOKS_KEEP=overwritten
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "value with spaces", os.Getenv("TEST_BOOKS_A"))
	assert.Equal(t, "quoted value", os.Getenv("TEST_BOOKS_QUOTED"))
	assert.Equal(t, "original", os.Getenv("TEST_BOOKS_KEEP"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	t.Setenv("TEST_BOOKS_VALID", "")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEST_BOOKS_VALID=1\nNOT A PAIR\n"), 0o644))

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format at line 2")
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
}
