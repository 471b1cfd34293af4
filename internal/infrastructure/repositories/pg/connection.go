package pg

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ConnectionConfig holds PostgreSQL connection configuration
type ConnectionConfig struct {
	URI             string        `yaml:"uri" env:"CLOUDSYNC_PG_URI"`
	MaxConns        int32         `yaml:"max-conns"`
	MinConns        int32         `yaml:"min-conns"`
	MaxConnLifetime time.Duration `yaml:"max-conn-lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max-conn-idle-time"`
	ConnectTimeout  time.Duration `yaml:"connect-timeout"`
	// ConnectRetryMaxElapsed bounds how long Connect keeps retrying; zero disables retries
	ConnectRetryMaxElapsed time.Duration `yaml:"connect-retry-max-elapsed"`
	HealthInterval         time.Duration `yaml:"health-interval"`
	HealthTimeout          time.Duration `yaml:"health-timeout"`
	StatementTimeout       time.Duration `yaml:"statement-timeout"`
}

// DefaultConnectionConfig returns production-ready defaults
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxConns:               30,
		MinConns:               3,
		MaxConnLifetime:        time.Hour,
		MaxConnIdleTime:        30 * time.Minute,
		ConnectTimeout:         5 * time.Second,
		ConnectRetryMaxElapsed: time.Minute,
		HealthInterval:         30 * time.Second,
		HealthTimeout:          5 * time.Second,
		StatementTimeout:       time.Minute,
	}
}

// ConnectionManager manages PostgreSQL connections with health monitoring
type ConnectionManager struct {
	config ConnectionConfig
	pool   atomic.Pointer[pgxpool.Pool]

	stopHealth chan struct{}
	stopOnce   sync.Once
	isHealthy  atomic.Bool
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		config:     config,
		stopHealth: make(chan struct{}),
	}
}

func (cm *ConnectionManager) poolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cm.config.URI)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse connection URI")
	}
	if cm.config.MaxConns > 0 {
		poolConfig.MaxConns = cm.config.MaxConns
	}
	if cm.config.MinConns > 0 {
		poolConfig.MinConns = cm.config.MinConns
	}
	if cm.config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cm.config.MaxConnLifetime
	}
	if cm.config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cm.config.MaxConnIdleTime
	}
	if cm.config.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cm.config.ConnectTimeout
	}
	if cm.config.StatementTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cm.config.StatementTimeout.Milliseconds())
	}
	return poolConfig, nil
}

// Connect establishes the database connection, retrying with exponential
// backoff while the server is unreachable, and starts health monitoring.
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	poolConfig, err := cm.poolConfig()
	if err != nil {
		return err
	}

	attempt := 0
	connect := func() error {
		attempt++
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, "failed to create connection pool"))
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return errors.Wrap(err, "failed to ping database")
		}
		cm.pool.Store(pool)
		return nil
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if cm.config.ConnectRetryMaxElapsed > 0 {
		expo := backoff.NewExponentialBackOff()
		expo.InitialInterval = 250 * time.Millisecond
		expo.MaxInterval = 5 * time.Second
		expo.MaxElapsedTime = cm.config.ConnectRetryMaxElapsed
		policy = expo
	}
	notify := func(err error, next time.Duration) {
		klog.InfoS("PostgreSQL not reachable, retrying", "attempt", attempt, "retryIn", next, "error", err)
	}
	if err := backoff.RetryNotify(connect, backoff.WithContext(policy, ctx), notify); err != nil {
		return err
	}

	cm.isHealthy.Store(true)
	klog.InfoS("PostgreSQL connection established", "attempts", attempt,
		"maxConns", poolConfig.MaxConns, "minConns", poolConfig.MinConns)
	if cm.config.HealthInterval > 0 {
		go cm.monitorHealth(cm.config.HealthInterval)
	}
	return nil
}

// Close closes the connection pool and stops health monitoring
func (cm *ConnectionManager) Close() error {
	cm.stopOnce.Do(func() { close(cm.stopHealth) })
	if pool := cm.pool.Swap(nil); pool != nil {
		pool.Close()
	}
	cm.isHealthy.Store(false)
	return nil
}

// Pool returns the current connection pool
func (cm *ConnectionManager) Pool() *pgxpool.Pool {
	return cm.pool.Load()
}

// IsHealthy returns the current health status
func (cm *ConnectionManager) IsHealthy() bool {
	return cm.isHealthy.Load()
}

// BeginTx starts a new read-write transaction
func (cm *ConnectionManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	pool := cm.Pool()
	if pool == nil {
		return nil, errors.New("connection pool not initialized")
	}
	return pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
}

func (cm *ConnectionManager) monitorHealth(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cm.performHealthCheck()
		case <-cm.stopHealth:
			return
		}
	}
}

func (cm *ConnectionManager) performHealthCheck() {
	pool := cm.Pool()
	if pool == nil {
		cm.isHealthy.Store(false)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cm.config.HealthTimeout)
	defer cancel()

	healthy := pool.Ping(ctx) == nil
	if was := cm.isHealthy.Swap(healthy); was != healthy {
		klog.InfoS("PostgreSQL health changed", "healthy", healthy)
	}
}

// HealthStatus returns detailed health information
func (cm *ConnectionManager) HealthStatus() HealthStatus {
	pool := cm.Pool()
	if pool == nil {
		return HealthStatus{
			Error:     "connection pool not initialized",
			CheckedAt: time.Now(),
		}
	}
	stat := pool.Stat()
	return HealthStatus{
		IsHealthy:     cm.IsHealthy(),
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		CheckedAt:     time.Now(),
	}
}

// HealthStatus provides connection pool health information
type HealthStatus struct {
	IsHealthy     bool      `json:"isHealthy"`
	TotalConns    int32     `json:"totalConns"`
	IdleConns     int32     `json:"idleConns"`
	AcquiredConns int32     `json:"acquiredConns"`
	Error         string    `json:"error,omitempty"`
	CheckedAt     time.Time `json:"checkedAt"`
}

func (hs HealthStatus) String() string {
	status := "HEALTHY"
	if !hs.IsHealthy {
		status = "UNHEALTHY"
	}
	if hs.Error != "" {
		return fmt.Sprintf("PostgreSQL: %s (%s)", status, hs.Error)
	}
	return fmt.Sprintf("PostgreSQL: %s (total:%d, idle:%d, acquired:%d) at %s",
		status, hs.TotalConns, hs.IdleConns, hs.AcquiredConns,
		hs.CheckedAt.Format(time.RFC3339))
}
