package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is constructed once
// at process entry and passed by reference into every component; there is
// no ambient settings global.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Projection ProjectionConfig `yaml:"projection" mapstructure:"projection"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // DSN; file path for sqlite
}

// DataConfig locates data directories and auxiliary files.
type DataConfig struct {
	RawDir        string `yaml:"raw_dir" mapstructure:"raw_dir"`
	SnapshotsDir  string `yaml:"snapshots_dir" mapstructure:"snapshots_dir"`
	OverridesFile string `yaml:"overrides_file" mapstructure:"overrides_file"`
	ChangelogFile string `yaml:"changelog_file" mapstructure:"changelog_file"`
	MinDate       string `yaml:"min_date" mapstructure:"min_date"` // lookback floor, YYYY-MM-DD
}

// FetchConfig configures the HTTP fetcher.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// ProjectionConfig holds the default fitting parameters.
type ProjectionConfig struct {
	WindowMonths   int    `yaml:"window_months" mapstructure:"window_months"`
	ForecastMonths int    `yaml:"forecast_months" mapstructure:"forecast_months"`
	BootstrapSeed  uint64 `yaml:"bootstrap_seed" mapstructure:"bootstrap_seed"` // 0 = time-seeded
}

// ServerConfig configures the read-only JSON API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and BENCH_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/bench.db")
	v.SetDefault("data.raw_dir", "data/raw")
	v.SetDefault("data.snapshots_dir", "data/snapshots")
	v.SetDefault("data.overrides_file", "data/overrides.yml")
	v.SetDefault("data.changelog_file", "data/changelog.jsonl")
	v.SetDefault("data.min_date", "2024-01-01")
	v.SetDefault("fetch.user_agent", "bench-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("projection.window_months", 12)
	v.SetDefault("projection.forecast_months", 12)
	v.SetDefault("projection.bootstrap_seed", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
