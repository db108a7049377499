package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/govdesk/govdesk/pkg/observability"
)

// Pool manages the PostgreSQL connection pool
type Pool struct {
	db     *sql.DB
	config Config
	logger *observability.Logger
}

// Open connects to PostgreSQL and verifies the connection
func Open(config Config, logger *observability.Logger) (*Pool, error) {
	db, err := sql.Open("postgres", config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(config.PostgresMaxConns)
	db.SetMaxIdleConns(config.PostgresMinConns)
	db.SetConnMaxLifetime(config.PostgresMaxLifetime)
	db.SetConnMaxIdleTime(config.PostgresMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.PostgresTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithField("max_conns", config.PostgresMaxConns).Info("Database pool initialized")

	return &Pool{
		db:     db,
		config: config,
		logger: logger,
	}, nil
}

// DB returns the underlying connection pool
func (p *Pool) DB() *sql.DB {
	return p.db
}

// HealthCheck pings the database
func (p *Pool) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics
func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

// StartStatsRoutine publishes pool statistics to the metrics gauges until
// ctx is cancelled.
func (p *Pool) StartStatsRoutine(ctx context.Context, metrics *observability.Metrics, interval time.Duration) {
	if interval == 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBStats(p.db.Stats())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close closes the connection pool
func (p *Pool) Close() error {
	return p.db.Close()
}
