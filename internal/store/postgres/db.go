// Package postgres is a factors.ReferenceStore backed by PostgreSQL through
// sqlx and lib/pq.
//
// DB wraps the connection pool and times every statement into the metrics
// recorder. Store implements the read contracts with hand-written SQL, and
// Import upserts seed records by natural key in chunked transactions.
// Connection-level failures are reported as factors.ErrStoreUnavailable so
// the activity pipeline can abort the batch.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/logging"
	"github.com/rshade/carbonledger/internal/metrics"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// Config holds connection settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultConfig returns pool settings suited to a CLI run against dsn.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// DB is an instrumented sqlx connection pool.
type DB struct {
	db      *sqlx.DB
	metrics *metrics.Recorder
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg Config, rec *metrics.Recorder) (*DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sqlx.Open(DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %w", factors.ErrStoreUnavailable, err)
	}

	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "postgres").
		Str("operation", "open").
		Int("max_open_conns", cfg.MaxOpenConns).
		Dur("conn_max_lifetime", cfg.ConnMaxLifetime).
		Msg("postgres connection established")

	return &DB{db: db, metrics: rec}, nil
}

// NewDB wraps an existing pool.
func NewDB(db *sqlx.DB, rec *metrics.Recorder) *DB {
	return &DB{db: db, metrics: rec}
}

// Close closes the pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// HealthCheck pings the database.
func (d *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.db.PingContext(ctx); err != nil {
		return classify(fmt.Errorf("health check: %w", err))
	}
	return nil
}

func (d *DB) selectContext(ctx context.Context, queryType string, dest any, query string, args ...any) error {
	start := time.Now()
	err := d.db.SelectContext(ctx, dest, query, args...)
	return d.finish(ctx, queryType, start, err)
}

// getContext returns sql.ErrNoRows unwrapped when nothing matches.
func (d *DB) getContext(ctx context.Context, queryType string, dest any, query string, args ...any) error {
	start := time.Now()
	err := d.db.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		d.metrics.ObserveDBQuery(queryType, time.Since(start), nil)
		return err
	}
	return d.finish(ctx, queryType, start, err)
}

func (d *DB) execContext(ctx context.Context, queryType, query string, args ...any) error {
	start := time.Now()
	_, err := d.db.ExecContext(ctx, query, args...)
	return d.finish(ctx, queryType, start, err)
}

func (d *DB) finish(ctx context.Context, queryType string, start time.Time, err error) error {
	elapsed := time.Since(start)
	d.metrics.ObserveDBQuery(queryType, elapsed, err)

	log := logging.FromContext(ctx)
	if err != nil {
		log.Error().
			Ctx(ctx).
			Str("component", "postgres").
			Str("query_type", queryType).
			Dur("duration_ms", elapsed).
			Err(err).
			Msg("query failed")
		return classify(fmt.Errorf("%s: %w", queryType, err))
	}
	log.Debug().
		Ctx(ctx).
		Str("component", "postgres").
		Str("query_type", queryType).
		Dur("duration_ms", elapsed).
		Msg("query executed")
	return nil
}

// classify marks connection-level failures as factors.ErrStoreUnavailable.
// Context cancellation and deadlines pass through unchanged.
func classify(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %w", factors.ErrStoreUnavailable, err)
	}
	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			// connection exception, insufficient resources, operator intervention
			return true
		}
	}
	return false
}
