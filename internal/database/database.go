// Package database centralises sqlx connection helpers.  The driver is
// go-sql-driver/mysql, which also works with MariaDB.  Site boards are
// stored in JSON columns, so MySQL 5.7+ / MariaDB 10.2+ is required.
//
// Public entry points:
//
//	Open(ctx, dsn)                         – helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opts)        – fine-grained control.
//	Migrate(ctx, db, stmts)                – idempotent DDL runner.
//
// Both open helpers Ping the database before returning so callers can fail
// fast during bootstrap.  Callers should Close() the returned *sqlx.DB when
// no longer needed.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int
	RetryBackoff    time.Duration
}

// DefaultOptions suits a single small web process.
var DefaultOptions = Options{
	MaxOpenConns:    15,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	Retries:         3,
	RetryBackoff:    time.Second,
}

// Open returns a *sqlx.DB using DefaultOptions.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions)
}

// OpenWithOptions opens the pool and pings it, retrying the ping so the
// service can start alongside a database container that is still booting.
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	var pingErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			return db, nil
		}
		zap.S().Warnw("database ping failed", "attempt", attempt+1, "err", pingErr)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryBackoff):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("ping database: %w", pingErr)
}

// Migrate executes each DDL statement in order.  Statements must be
// idempotent (CREATE TABLE IF NOT EXISTS …); blank entries are skipped.
func Migrate(ctx context.Context, db *sqlx.DB, stmts []string) error {
	for i, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	zap.S().Infow("schema migrated", "statements", len(stmts))
	return nil
}
