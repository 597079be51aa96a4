// Package client provides the runtime client for worm.
//
// A Client owns a connection pool and a prepared statement cache. Both live
// exactly as long as the client is connected; nothing is stored in package
// level state, so independent clients can talk to different databases.
package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/hashicorp/go-version"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/satishbabariya/worm-go/internal/debug"
	"github.com/satishbabariya/worm-go/query/cache"
	"github.com/satishbabariya/worm-go/query/executor"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

var (
	// ErrNotConnected is returned when the client is used before Connect or
	// after Disconnect
	ErrNotConnected = errors.New("not connected to database")
	// ErrAlreadyConnected is returned by a second Connect
	ErrAlreadyConnected = errors.New("already connected to database")
	// ErrTxDone is returned when a finished transaction is used
	ErrTxDone = sql.ErrTxDone
)

// Config holds connection pool configuration.
type Config struct {
	// MaxOpenConns is the maximum number of open connections (0 = unlimited).
	MaxOpenConns int
	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum lifetime of a connection.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum idle time of a connection.
	ConnMaxIdleTime time.Duration
	// HealthCheckInterval is how often to ping the database (0 = never).
	HealthCheckInterval time.Duration
	// StatementCache prepares every statement once and reuses it.
	StatementCache bool
	// StatementCacheSize bounds the cached statements, least recently used
	// first out (0 = unbounded).
	StatementCacheSize int
}

// DefaultConfig returns sensible default pool configuration.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:        25,
		MaxIdleConns:        5,
		ConnMaxLifetime:     30 * time.Minute,
		ConnMaxIdleTime:     10 * time.Minute,
		HealthCheckInterval: 1 * time.Minute,
		StatementCache:      true,
		StatementCacheSize:  256,
	}
}

// PoolStats represents pool statistics.
type PoolStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
	FailedHealthChecks int64
	LastHealthCheck    time.Time
	Statements         cache.Stats
}

// Client is the main database client
type Client struct {
	provider string
	driver   string
	dsn      string
	dialect  sqlgen.Dialect
	config   Config

	mu           sync.RWMutex
	db           *sql.DB
	stmts        *cache.StatementCache[*sql.Stmt]
	middlewares  []executor.Middleware
	failedChecks int64
	lastCheck    time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a client for the provider. It does not connect.
func New(provider, dsn string, config Config) (*Client, error) {
	driver := getDriverName(provider)
	if driver == "" {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	dialect, err := sqlgen.DialectFor(provider)
	if err != nil {
		return nil, err
	}

	return &Client{
		provider: provider,
		driver:   driver,
		dsn:      dsn,
		dialect:  dialect,
		config:   config,
	}, nil
}

// getDriverName maps provider names to Go database driver names
func getDriverName(provider string) string {
	switch strings.ToLower(provider) {
	case "postgresql", "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return ""
	}
}

// Dialect returns the placeholder dialect of the provider
func (c *Client) Dialect() sqlgen.Dialect {
	return c.dialect
}

// Provider returns the provider name the client was created with
func (c *Client) Provider() string {
	return c.provider
}

// Use appends middleware to every statement executed by the client and its
// transactions
func (c *Client) Use(middleware ...executor.Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, middleware...)
}

// Connect opens the connection pool and verifies it with a ping
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return ErrAlreadyConnected
	}

	db, err := sql.Open(c.driver, c.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Apply pool configuration
	db.SetMaxOpenConns(c.config.MaxOpenConns)
	db.SetMaxIdleConns(c.config.MaxIdleConns)
	db.SetConnMaxLifetime(c.config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(c.config.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	c.db = db
	if c.config.StatementCache {
		c.stmts = cache.New(func(ctx context.Context, query string) (*sql.Stmt, error) {
			return db.PrepareContext(ctx, query)
		}, c.config.StatementCacheSize)
	}

	healthCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	if c.config.HealthCheckInterval > 0 {
		c.wg.Add(1)
		go c.healthCheckLoop(healthCtx)
	}

	debug.Debug("connected", "provider", c.provider, "statement_cache", c.config.StatementCache)
	return nil
}

// Disconnect stops the health checks, closes cached statements and closes
// the pool. The client can be connected again afterwards.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	db, stmts, cancel := c.db, c.stmts, c.cancel
	c.db, c.stmts, c.cancel = nil, nil, nil
	c.mu.Unlock()

	if db == nil {
		return ErrNotConnected
	}

	cancel()
	c.wg.Wait()

	if stmts != nil {
		if err := stmts.Clear(); err != nil {
			debug.Warn("failed to close prepared statements", "error", err)
		}
	}

	debug.Debug("disconnected", "provider", c.provider)
	return db.Close()
}

// DB returns the underlying connection pool
func (c *Client) DB() (*sql.DB, error) {
	db, _, err := c.handles()
	return db, err
}

func (c *Client) handles() (*sql.DB, *cache.StatementCache[*sql.Stmt], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, nil, ErrNotConnected
	}
	return c.db, c.stmts, nil
}

func (c *Client) executor(conn executor.Conn) *executor.Executor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return executor.New(conn, c.middlewares...)
}

// Query runs a row-returning statement on a pooled connection
func (c *Client) Query(ctx context.Context, query string, args ...interface{}) (executor.Rows, error) {
	return c.executor(poolConn{c: c, prepared: true}).Query(ctx, query, args...)
}

// Exec runs a statement on a pooled connection and returns the number of
// affected rows
func (c *Client) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return c.executor(poolConn{c: c, prepared: true}).Exec(ctx, query, args...)
}

// HealthCheck pings the database
func (c *Client) HealthCheck(ctx context.Context) error {
	db, _, err := c.handles()
	if err != nil {
		return err
	}

	err = db.PingContext(ctx)

	c.mu.Lock()
	c.lastCheck = time.Now()
	if err != nil {
		c.failedChecks++
	}
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func (c *Client) healthCheckLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := c.HealthCheck(checkCtx); err != nil {
				debug.Warn("database health check failed", "provider", c.provider, "error", err)
			}
			cancel()
		}
	}
}

// Stats returns current pool statistics.
func (c *Client) Stats() (PoolStats, error) {
	db, stmts, err := c.handles()
	if err != nil {
		return PoolStats{}, err
	}

	dbStats := db.Stats()

	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := PoolStats{
		MaxOpenConnections: dbStats.MaxOpenConnections,
		OpenConnections:    dbStats.OpenConnections,
		InUse:              dbStats.InUse,
		Idle:               dbStats.Idle,
		WaitCount:          dbStats.WaitCount,
		WaitDuration:       dbStats.WaitDuration,
		FailedHealthChecks: c.failedChecks,
		LastHealthCheck:    c.lastCheck,
	}
	if stmts != nil {
		stats.Statements = stmts.GetStats()
	}
	return stats, nil
}

// ServerVersion returns the version reported by the database server
func (c *Client) ServerVersion(ctx context.Context) (*version.Version, error) {
	var query string
	switch c.dialect {
	case sqlgen.Postgres:
		query = "SHOW server_version"
	case sqlgen.MySQL:
		query = "SELECT VERSION()"
	default:
		query = "SELECT sqlite_version()"
	}

	db, _, err := c.handles()
	if err != nil {
		return nil, err
	}

	var raw string
	if err := db.QueryRowContext(ctx, query).Scan(&raw); err != nil {
		return nil, &executor.ProtocolError{SQL: query, Err: err}
	}
	return parseServerVersion(raw)
}

// parseServerVersion parses version strings such as
// "16.2 (Debian 16.2-1.pgdg120+2)" or "8.0.36-0ubuntu0.22.04.1"
func parseServerVersion(raw string) (*version.Version, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty server version")
	}
	v, err := version.NewVersion(fields[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse server version %q: %w", raw, err)
	}
	return v, nil
}

// poolConn runs statements on the pool, through the statement cache when
// prepared is set and the cache is enabled
type poolConn struct {
	c        *Client
	prepared bool
}

func (p poolConn) Query(ctx context.Context, query string, args ...interface{}) (executor.Rows, error) {
	db, stmts, err := p.c.handles()
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if p.prepared && stmts != nil {
		stmt, release, err := stmts.Get(ctx, query)
		if err != nil {
			return nil, err
		}
		// open rows keep the statement alive past release
		rows, err = stmt.QueryContext(ctx, args...)
		release()
		if err != nil {
			return nil, err
		}
		return rows, nil
	}

	rows, err = db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (p poolConn) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	db, stmts, err := p.c.handles()
	if err != nil {
		return 0, err
	}

	var res sql.Result
	if p.prepared && stmts != nil {
		stmt, release, err := stmts.Get(ctx, query)
		if err != nil {
			return 0, err
		}
		res, err = stmt.ExecContext(ctx, args...)
		release()
		if err != nil {
			return 0, err
		}
	} else {
		res, err = db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
	}
	return res.RowsAffected()
}
