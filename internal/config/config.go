package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/Veraticus/expenses/internal/common"
	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/sample"
)

// Configuration keys.
const (
	KeyDatabasePath     = "database.path"
	KeyLogLevel         = "logging.level"
	KeyLogFormat        = "logging.format"
	KeyLocale           = "locale"
	KeyTimezone         = "timezone"
	KeyRulesDir         = "rules.dir"
	KeySampleEnabled    = "sample.enabled"
	KeySampleVendors    = "sample.vendors"
	KeySamplePurchases  = "sample.purchases"
	KeyDefaultCurrency  = "import.default_currency"
	KeyImportInterval   = "import.interval"
	DefaultDatabasePath = "$HOME/.local/share/expenses/expenses.db"
	EnvPrefix           = "EXPENSES"
)

// Config is the resolved application configuration.
type Config struct {
	Locale          language.Tag
	Location        *time.Location
	DatabasePath    string
	LogLevel        slog.Level
	LogFormat       string
	RulesDir        string
	DefaultCurrency string
	ImportInterval  time.Duration
	SampleVendors   int
	SamplePurchases int
	SampleEnabled   bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyLocale, "en-US")
	v.SetDefault(KeyTimezone, "Local")
	v.SetDefault(KeyRulesDir, "")
	v.SetDefault(KeySampleEnabled, false)
	v.SetDefault(KeySampleVendors, sample.DefaultVendors)
	v.SetDefault(KeySamplePurchases, sample.DefaultPurchases)
	v.SetDefault(KeyDefaultCurrency, "USD")
	v.SetDefault(KeyImportInterval, time.Minute)
}

// Init points v at the config file and environment. An explicit file must
// exist; otherwise config.yaml is looked up in $HOME/.config/expenses and the
// working directory and may be absent.
func Init(v *viper.Viper, file string) error {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(ExpandPath(file))
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "expenses"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// LoadDotEnv loads .env style files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load resolves the typed configuration from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DatabasePath:    ExpandPath(v.GetString(KeyDatabasePath)),
		LogFormat:       v.GetString(KeyLogFormat),
		RulesDir:        ExpandPath(v.GetString(KeyRulesDir)),
		SampleEnabled:   v.GetBool(KeySampleEnabled),
		SampleVendors:   v.GetInt(KeySampleVendors),
		SamplePurchases: v.GetInt(KeySamplePurchases),
		ImportInterval:  v.GetDuration(KeyImportInterval),
	}

	if cfg.DatabasePath == "" {
		return cfg, fmt.Errorf("%w: %s is empty", common.ErrInvalidConfig, KeyDatabasePath)
	}

	level, err := common.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = level

	switch cfg.LogFormat {
	case "console", "json":
	default:
		return cfg, fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, cfg.LogFormat)
	}

	if cfg.Locale, err = language.Parse(v.GetString(KeyLocale)); err != nil {
		return cfg, fmt.Errorf("%w: locale %q: %w", common.ErrInvalidConfig, v.GetString(KeyLocale), err)
	}

	if cfg.Location, err = time.LoadLocation(v.GetString(KeyTimezone)); err != nil {
		return cfg, fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, v.GetString(KeyTimezone), err)
	}

	if cfg.DefaultCurrency, err = model.ParseCurrency(v.GetString(KeyDefaultCurrency)); err != nil {
		return cfg, fmt.Errorf("%w: default currency: %w", common.ErrInvalidConfig, err)
	}

	if cfg.SampleVendors <= 0 || cfg.SamplePurchases < 0 {
		return cfg, fmt.Errorf("%w: sample size %d vendors, %d purchases",
			common.ErrInvalidConfig, cfg.SampleVendors, cfg.SamplePurchases)
	}
	if cfg.ImportInterval <= 0 {
		return cfg, fmt.Errorf("%w: import interval %v", common.ErrInvalidConfig, cfg.ImportInterval)
	}

	return cfg, nil
}

// SampleConfig returns the generator settings for this configuration.
func (c Config) SampleConfig() sample.Config {
	sc := sample.DefaultConfig(c.Location)
	sc.Vendors = c.SampleVendors
	sc.Purchases = c.SamplePurchases
	return sc
}
