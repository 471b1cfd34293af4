package repositories

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/mem"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg"
	"cloudsync-pg-backend/internal/infrastructure/repositories/rdb"
)

// RepositoryType represents the type of repository backend
type RepositoryType string

const (
	RepositoryTypeMemory     RepositoryType = "memory"
	RepositoryTypePostgreSQL RepositoryType = "postgres"
	RepositoryTypeSQLite     RepositoryType = "sqlite"
)

// Config holds configuration for repository factory
type Config struct {
	Type RepositoryType `yaml:"driver" env:"CLOUDSYNC_STORAGE_DRIVER"`
	// Migrate applies the embedded schema on open; sqlite always migrates
	Migrate    bool                `yaml:"migrate" env:"CLOUDSYNC_STORAGE_MIGRATE"`
	PostgreSQL pg.ConnectionConfig `yaml:"postgres"`
	SQLite     SQLiteConfig        `yaml:"sqlite"`
}

// SQLiteConfig holds the gorm/sqlite backend settings
type SQLiteConfig struct {
	URL string `yaml:"url" env:"CLOUDSYNC_SQLITE_URL"`
}

// DefaultConfig returns default configuration for the repository factory
func DefaultConfig() Config {
	return Config{
		Type:       RepositoryTypeMemory,
		PostgreSQL: pg.DefaultConnectionConfig(),
		SQLite:     SQLiteConfig{URL: "sqlite:cloudsync.db"},
	}
}

// Validate checks that the selected backend has what it needs
func (c Config) Validate() error {
	switch c.Type {
	case RepositoryTypeMemory:
	case RepositoryTypePostgreSQL:
		if c.PostgreSQL.URI == "" {
			return errors.New("postgres uri is required")
		}
	case RepositoryTypeSQLite:
		if c.SQLite.URL == "" {
			return errors.New("sqlite url is required")
		}
	default:
		return fmt.Errorf("unsupported repository type: %q", c.Type)
	}
	return nil
}

// Factory creates repository instances based on configuration
type Factory struct {
	config Config
}

// NewFactory creates a new repository factory
func NewFactory(config Config) *Factory {
	return &Factory{config: config}
}

// CreateRegistry creates a registry based on the configured type
func (f *Factory) CreateRegistry(ctx context.Context) (ports.Registry, error) {
	if err := f.config.Validate(); err != nil {
		return nil, err
	}
	switch f.config.Type {
	case RepositoryTypePostgreSQL:
		r, err := pg.NewRegistry(ctx, f.config.PostgreSQL, f.config.Migrate)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create PostgreSQL registry")
		}
		return r, nil
	case RepositoryTypeSQLite:
		r, err := rdb.NewRegistryFromURL(ctx, f.config.SQLite.URL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create SQLite registry")
		}
		return r, nil
	default:
		return mem.NewRegistry(), nil
	}
}
