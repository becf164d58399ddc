package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/forest-guardian/index-series/internal/properties"
	"github.com/forest-guardian/index-series/internal/series"
)

// Config holds the full application configuration.
type Config struct {
	Engine       series.Config      `yaml:"engine" mapstructure:"engine"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Notification NotificationConfig `yaml:"notification" mapstructure:"notification"`
	Workers      int                `yaml:"workers" mapstructure:"workers"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OutputConfig sets where CSV, metadata and plots are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// CacheConfig controls the on-disk cache of engine results.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// NotificationConfig holds Discord webhook URLs. An empty URL disables
// that notification.
type NotificationConfig struct {
	DiscordSuccessURL string `yaml:"discord_success_url" mapstructure:"discord_success_url"`
	DiscordErrorURL   string `yaml:"discord_error_url" mapstructure:"discord_error_url"`
}

const envPrefix = "INDEX_SERIES"

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if root := properties.RootPath(); root != "" {
		v.AddConfigPath(root)
	}

	// Environment
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("notification.discord_success_url", envPrefix+"_NOTIFICATION_DISCORD_SUCCESS_URL", "DISCORD_SUCCESS_NOTIFICATION_URL")
	_ = v.BindEnv("notification.discord_error_url", envPrefix+"_NOTIFICATION_DISCORD_ERROR_URL", "DISCORD_ERROR_NOTIFICATION_URL")

	// Defaults
	engine := series.DefaultConfig()
	v.SetDefault("engine.cloud_cover_threshold", engine.CloudCoverThreshold)
	v.SetDefault("engine.max_gap_days", engine.MaxGapDays)
	v.SetDefault("engine.lambda", engine.Lambda)
	v.SetDefault("engine.order", engine.Order)
	v.SetDefault("engine.spline_anchors", engine.SplineAnchors)
	v.SetDefault("engine.robust_iterations", engine.RobustIterations)
	v.SetDefault("engine.min_valid", engine.MinValid)
	v.SetDefault("engine.max_valid", engine.MaxValid)
	v.SetDefault("engine.consistency_multiplier", engine.ConsistencyMultiplier)
	v.SetDefault("engine.consistency_window", engine.ConsistencyWindow)
	v.SetDefault("engine.min_coverage_days", engine.MinCoverageDays)
	v.SetDefault("engine.issue_gap_days", engine.IssueGapDays)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("output.dir", "output")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", filepath.Join("data", "cache"))
	v.SetDefault("workers", 3)

	// Read config file (optional)
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

// loadDotEnv loads .env from the working directory and the project root.
// Variables already set in the environment win.
func loadDotEnv() error {
	paths := []string{".env"}
	if root := properties.RootPath(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return eris.Wrapf(err, "config: load %s", p)
		}
	}
	return nil
}

// Validate checks the settings the engine does not own and then the
// engine settings themselves.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return eris.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if c.Output.Dir == "" {
		return eris.New("config: output.dir is required")
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return eris.New("config: cache.dir is required when the cache is enabled")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return eris.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}
	return c.Engine.Validate()
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
