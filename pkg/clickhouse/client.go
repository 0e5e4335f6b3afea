// Package clickhouse provides a thin database/sql wrapper for the candle
// archive. The pipeline only ever appends; pool sizing stays conservative.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Option configures the client.
type Option func(*settings)

type settings struct {
	host         string
	port         int
	database     string
	user         string
	password     string
	useHTTP      bool
	asyncInsert  bool
	waitForAsync bool
	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxExecTime  time.Duration
}

// WithAddress sets host and port.
func WithAddress(host string, port int) Option {
	return func(s *settings) {
		s.host = host
		s.port = port
	}
}

// WithDatabase sets the database name.
func WithDatabase(database string) Option {
	return func(s *settings) {
		s.database = database
	}
}

// WithCredentials sets username and password.
func WithCredentials(user, password string) Option {
	return func(s *settings) {
		s.user = user
		s.password = password
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(useHTTP bool) Option {
	return func(s *settings) {
		s.useHTTP = useHTTP
	}
}

// WithAsyncInsert configures async_insert and wait behavior.
func WithAsyncInsert(enabled, wait bool) Option {
	return func(s *settings) {
		s.asyncInsert = enabled
		s.waitForAsync = wait
	}
}

// WithTimeouts sets dial/read/write timeouts.
func WithTimeouts(dial, read, write time.Duration) Option {
	return func(s *settings) {
		s.dialTimeout = dial
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// WithMaxExecutionTime caps per-query execution time.
func WithMaxExecutionTime(d time.Duration) Option {
	return func(s *settings) {
		s.maxExecTime = d
	}
}

// Client manages the ClickHouse connection pool.
type Client struct {
	db *sql.DB
}

// NewClient opens and pings a pooled connection.
func NewClient(opts ...Option) (*Client, error) {
	s := &settings{
		dialTimeout:  5 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.host == "" {
		return nil, fmt.Errorf("host is required")
	}

	db, err := sql.Open("clickhouse", buildDSN(s))
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Client{db: db}, nil
}

// DB returns the underlying *sql.DB.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func buildDSN(s *settings) string {
	scheme := "clickhouse://"
	if s.useHTTP {
		scheme = "clickhouse+http://"
	}
	dsn := fmt.Sprintf("%s%s:%s@%s:%d/%s",
		scheme, s.user, s.password, s.host, s.port, s.database)

	first := true
	add := func(key string, val any) {
		sep := "&"
		if first {
			sep = "?"
			first = false
		}
		dsn += fmt.Sprintf("%s%s=%v", sep, key, val)
	}

	if s.dialTimeout > 0 {
		add("dial_timeout", s.dialTimeout)
	}
	if s.readTimeout > 0 {
		add("read_timeout", s.readTimeout)
	}
	// write_timeout is not a server setting on all versions; client-side only.
	if s.maxExecTime > 0 {
		add("max_execution_time", int(s.maxExecTime.Seconds()))
	}
	if s.asyncInsert {
		add("async_insert", 1)
		if s.waitForAsync {
			add("wait_for_async_insert", 1)
		} else {
			add("wait_for_async_insert", 0)
		}
	}
	return dsn
}
