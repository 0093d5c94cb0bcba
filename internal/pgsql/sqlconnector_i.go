package pgsql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	ilog "spacewars/internal/log"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories run the
// same queries inside and outside a transaction.
type DBTX interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type SQLConnector interface {
	DBTX
	Connect(ctx context.Context) error
	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
	Driver() string
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
}

// Driver names understood by NewConnector.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var sqlDriverNames = map[string]string{
	DriverPostgres: "pgx",
	DriverSQLite:   "sqlite",
}

type Connector struct {
	driver string
	dsn    string
	db     *sql.DB
}

func NewConnector(driver, dsn string) *Connector {
	return &Connector{driver: driver, dsn: dsn}
}

func (c *Connector) Driver() string { return c.driver }

func (c *Connector) Connect(ctx context.Context) error {
	logger := ilog.Component("pgsql")
	name, ok := sqlDriverNames[c.driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", c.driver)
	}
	logger.Infof("opening database connection (driver=%s)", c.driver)
	db, err := sql.Open(name, c.dsn)
	if err != nil {
		logger.Errorf("sql.Open failed: %v", err)
		return err
	}
	if c.driver == DriverSQLite {
		// one writer; an in-memory database also lives on a single connection
		db.SetMaxOpenConns(1)
	}
	c.db = db
	logger.Infof("pinging database")
	if err := c.db.PingContext(ctx); err != nil {
		logger.Errorf("ping failed: %v", err)
		return err
	}
	if c.driver == DriverSQLite {
		if _, err := c.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	logger.Infof("database connection ready")
	return nil
}

func (c *Connector) Close() error {
	logger := ilog.Component("pgsql")
	if c.db == nil {
		logger.Warnf("close skipped (db is nil)")
		return nil
	}
	logger.Infof("closing database connection")
	return c.db.Close()
}

func (c *Connector) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

func (c *Connector) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

func (c *Connector) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

func (c *Connector) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if c.db == nil {
		return nil, sql.ErrConnDone
	}
	return c.db.BeginTx(ctx, opts)
}

func (c *Connector) PingContext(ctx context.Context) error {
	logger := ilog.Component("pgsql")
	if c.db == nil {
		logger.Warnf("ping requested but db is nil")
		return sql.ErrConnDone
	}
	logger.Debugf("pinging database")
	return c.db.PingContext(ctx)
}

func (c *Connector) SetMaxOpenConns(n int) {
	if c.db != nil {
		c.db.SetMaxOpenConns(n)
	}
}

func (c *Connector) SetMaxIdleConns(n int) {
	if c.db != nil {
		c.db.SetMaxIdleConns(n)
	}
}

func (c *Connector) SetConnMaxLifetime(d time.Duration) {
	if c.db != nil {
		c.db.SetConnMaxLifetime(d)
	}
}
