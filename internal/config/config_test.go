package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expenses/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.local/share/expenses/expenses.db", cfg.DatabasePath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "en-US", cfg.Locale.String())
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, time.Minute, cfg.ImportInterval)
	assert.False(t, cfg.SampleEnabled)
	assert.Equal(t, 50, cfg.SampleVendors)
	assert.Equal(t, 5000, cfg.SamplePurchases)

	sc := cfg.SampleConfig()
	assert.Equal(t, 50, sc.Vendors)
	assert.Equal(t, time.Local, sc.Base.Location())
}

func TestInit_ReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
database:
  path: /tmp/expenses.db
logging:
  level: debug
locale: de-DE
timezone: UTC
sample:
  enabled: true
  vendors: 5
`), 0o600))
	t.Setenv("EXPENSES_LOGGING_FORMAT", "json")
	t.Setenv("EXPENSES_IMPORT_DEFAULT_CURRENCY", "eur")

	v := viper.New()
	require.NoError(t, Init(v, file))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/expenses.db", cfg.DatabasePath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "de-DE", cfg.Locale.String())
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.True(t, cfg.SampleEnabled)
	assert.Equal(t, 5, cfg.SampleVendors)
}

func TestInit_MissingExplicitFile(t *testing.T) {
	v := viper.New()
	assert.Error(t, Init(v, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"empty database path", KeyDatabasePath, ""},
		{"log level", KeyLogLevel, "loud"},
		{"log format", KeyLogFormat, "xml"},
		{"locale", KeyLocale, "not a locale!"},
		{"timezone", KeyTimezone, "Mars/Olympus"},
		{"currency", KeyDefaultCurrency, "ZZZZ"},
		{"sample vendors", KeySampleVendors, 0},
		{"import interval", KeyImportInterval, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("EXPENSES_TEST_A=from-file\nEXPENSES_TEST_B=from-file\n"), 0o600))
	t.Setenv("EXPENSES_TEST_B", "from-env")

	require.NoError(t, LoadDotEnv(file, filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { _ = os.Unsetenv("EXPENSES_TEST_A") })

	assert.Equal(t, "from-file", os.Getenv("EXPENSES_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("EXPENSES_TEST_B"))
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("EXPENSES_DATA", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/db.sqlite", "/home/tester/db.sqlite"},
		{"$EXPENSES_DATA/db.sqlite", "/data/db.sqlite"},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}
