package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/application/services"
	"cloudsync-pg-backend/internal/infrastructure/repositories"
)

// Log levels accepted by the logger section
const (
	LogLevelError = "error"
	LogLevelInfo  = "info"
	LogLevelDebug = "debug"
	LogLevelTrace = "trace"
)

type (
	// Config - main application configuration
	Config struct {
		App           `yaml:"app"`
		Log           `yaml:"logger"`
		Storage       repositories.Config   `yaml:"storage"`
		Executor      async.ExecutorConfig  `yaml:"executor"`
		ReferenceData services.BufferConfig `yaml:"reference-data"`
		Templates     `yaml:"templates"`
		Sync          SyncConfig `yaml:"sync"`
	}

	// App - application identity
	App struct {
		Name    string `yaml:"name" env:"APP_NAME"`
		Version string `yaml:"version" env:"APP_VERSION"`
	}

	// Log - logging configuration
	Log struct {
		Level string `yaml:"log-level" env:"LOG_LEVEL"`
	}

	// Templates - where plugin templates are loaded from
	Templates struct {
		Dir    string `yaml:"dir" env:"CLOUDSYNC_TEMPLATES_DIR"`
		Prefix string `yaml:"prefix" env:"CLOUDSYNC_TEMPLATES_PREFIX"`
		Suffix string `yaml:"suffix" env:"CLOUDSYNC_TEMPLATES_SUFFIX"`
	}
)

// NewConfig builds the configuration from defaults, the optional file at
// path and the environment, in that order of precedence
func NewConfig(path string) (*Config, error) {
	cfg := &Config{}

	cfg.App.Name = "cloudsync"
	cfg.App.Version = "v1.0.0"
	cfg.Log.Level = LogLevelInfo
	cfg.Storage = repositories.DefaultConfig()
	cfg.Executor = async.DefaultExecutorConfig()
	cfg.ReferenceData = services.DefaultBufferConfig()
	cfg.Templates.Dir = "."
	cfg.Templates.Prefix = "hbs/"
	cfg.Templates.Suffix = ".hbs"
	cfg.Sync = DefaultSyncConfig()

	if path != "" {
		err := cleanenv.ReadConfig(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Verbosity maps the log level onto a klog/logr verbosity
func (l Log) Verbosity() int {
	switch l.Level {
	case LogLevelError:
		return 0
	case LogLevelDebug:
		return 4
	case LogLevelTrace:
		return 6
	default:
		return 2
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Log.Level {
	case LogLevelError, LogLevelInfo, LogLevelDebug, LogLevelTrace:
	default:
		return fmt.Errorf("unknown log level: %q", c.Log.Level)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config validation failed: %w", err)
	}

	if c.Executor.Workers <= 0 {
		return fmt.Errorf("executor workers must be positive, got %d", c.Executor.Workers)
	}
	if c.Executor.RateLimit < 0 {
		return fmt.Errorf("executor rate limit must not be negative")
	}

	if c.ReferenceData.FlushInterval < 0 {
		return fmt.Errorf("reference data flush interval must not be negative")
	}
	if c.ReferenceData.MaxBuffered < 0 {
		return fmt.Errorf("reference data max buffered must not be negative")
	}

	if err := c.Sync.Validate(); err != nil {
		return fmt.Errorf("sync config validation failed: %w", err)
	}

	return nil
}
