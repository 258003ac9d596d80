package morm

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	// 驱动需由调用方导入，例如：
	// _ "github.com/zzguang83325/morm/drivers/mysql"
	// _ "github.com/zzguang83325/morm/drivers/postgres"
	// _ "github.com/zzguang83325/morm/drivers/sqlite"
)

// Config holds the database configuration
type Config struct {
	Name     string     // Name used in logs and pool stats, defaults to Database
	Driver   DriverType // Database driver type, defaults to MySQL
	Host     string     // defaults to 127.0.0.1
	Port     int        // defaults to 3306 (5432 for PostgreSQL)
	User     string
	Password string
	Database string // database name, or the file path for SQLite
	Charset  string // defaults to utf8

	// DisableAutocommit turns session autocommit off (MySQL only).
	DisableAutocommit bool

	MinSize int // connections opened eagerly, defaults to 1
	MaxSize int // upper bound of open connections, defaults to 10

	DSN             string        // raw data source name, overrides the fields above
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	QueryTimeout    time.Duration // Default query timeout (0 means no timeout)

	// 连接监控：正常检查间隔（0 表示禁用），故障时按 MonitorErrorInterval 检查
	MonitorInterval      time.Duration
	MonitorErrorInterval time.Duration

	// StrictRowCount makes Save/Update/Remove return *RowCountError instead of
	// logging a warning when a statement does not affect exactly one row.
	StrictRowCount bool

	Cache    CacheProvider // optional row cache used by Schema.Find
	CacheTTL time.Duration
}

// NewConfig returns a Config filled with the defaults.
func NewConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = MySQL
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = c.Driver.defaultPort()
	}
	if c.Charset == "" {
		c.Charset = "utf8"
	}
	if c.MinSize <= 0 {
		c.MinSize = 1
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 10
	}
	if c.MinSize > c.MaxSize {
		c.MinSize = c.MaxSize
	}
	if c.MonitorInterval > 0 && c.MonitorErrorInterval <= 0 {
		c.MonitorErrorInterval = c.MonitorInterval / 6
		if c.MonitorErrorInterval < time.Second {
			c.MonitorErrorInterval = time.Second
		}
	}
	if c.Name == "" {
		c.Name = c.Database
		if c.Name == "" {
			c.Name = string(c.Driver)
		}
	}
}

// dataSourceName builds the driver-specific connection string.
func (c *Config) dataSourceName() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	switch c.Driver {
	case MySQL:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		mc.DBName = c.Database
		// 按匹配行数而非实际修改行数返回 affected rows
		mc.ClientFoundRows = true
		autocommit := "1"
		if c.DisableAutocommit {
			autocommit = "0"
		}
		mc.Params = map[string]string{
			"charset":    c.Charset,
			"autocommit": autocommit,
		}
		return mc.FormatDSN(), nil
	case PostgreSQL:
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:   "/" + c.Database,
		}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		q := url.Values{}
		q.Set("client_encoding", c.Charset)
		u.RawQuery = q.Encode()
		return u.String(), nil
	case SQLite:
		if c.Database == "" {
			return "", fmt.Errorf("morm: sqlite requires a database file path")
		}
		if strings.Contains(c.Database, "?") {
			return c.Database, nil
		}
		return c.Database + "?_pragma=busy_timeout(5000)", nil
	case SQLite3:
		if c.Database == "" {
			return "", fmt.Errorf("morm: sqlite3 requires a database file path")
		}
		if strings.Contains(c.Database, "?") {
			return c.Database, nil
		}
		return c.Database + "?_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("morm: unsupported driver %q", c.Driver)
	}
}

// dbManager owns one connection pool. Every *DB derived from it shares the pool.
type dbManager struct {
	name      string
	config    *Config
	db        *sql.DB
	monitor   *ConnectionMonitor
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// DB is a handle on a connection pool. It implements Executor.
type DB struct {
	dbMgr         *dbManager
	cacheProvider CacheProvider
	cacheTTL      time.Duration
}

// Open creates the connection pool described by cfg, verifies it with a ping
// and opens MinSize connections eagerly.
func Open(ctx context.Context, cfg *Config) (*DB, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	config := *cfg
	config.applyDefaults()
	if !IsValidDriver(config.Driver) {
		return nil, fmt.Errorf("morm: unsupported driver %q", config.Driver)
	}
	if config.DisableAutocommit && config.Driver != MySQL {
		LogWarn("autocommit setting ignored", map[string]interface{}{"db": config.Name, "driver": string(config.Driver)})
	}

	dsn, err := config.dataSourceName()
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(string(config.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("morm: failed to open database: %w", err)
	}

	db := newDB(sqlDB, &config)
	if err := db.dbMgr.initPool(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("morm: failed to initialize database: %w", err)
	}
	LogInfo("create database connection pool", map[string]interface{}{
		"db":       config.Name,
		"driver":   string(config.Driver),
		"min_size": config.MinSize,
		"max_size": config.MaxSize,
	})
	return db, nil
}

// NewWithDB wraps an existing *sql.DB. The pool settings of cfg are applied
// but no connection is opened eagerly.
func NewWithDB(sqlDB *sql.DB, cfg *Config) *DB {
	if cfg == nil {
		cfg = NewConfig()
	}
	config := *cfg
	config.applyDefaults()
	return newDB(sqlDB, &config)
}

func newDB(sqlDB *sql.DB, config *Config) *DB {
	sqlDB.SetMaxOpenConns(config.MaxSize)
	sqlDB.SetMaxIdleConns(config.MaxSize)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	mgr := &dbManager{name: config.Name, config: config, db: sqlDB}
	return &DB{dbMgr: mgr, cacheProvider: config.Cache, cacheTTL: config.CacheTTL}
}

func (mgr *dbManager) initPool(ctx context.Context) error {
	if err := mgr.db.PingContext(ctx); err != nil {
		return err
	}

	// 预先建立 MinSize 个连接，归还后留在空闲池中
	conns := make([]*sql.Conn, 0, mgr.config.MinSize)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	for i := 0; i < mgr.config.MinSize; i++ {
		c, err := mgr.db.Conn(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, c)
	}

	if mgr.config.MonitorInterval > 0 {
		mgr.monitor = newConnectionMonitor(mgr.db, mgr.name, mgr.config.MonitorInterval, mgr.config.MonitorErrorInterval)
		mgr.monitor.Start()
	}
	return nil
}

// manager returns the pool or the reason it cannot be used.
func (db *DB) manager() (*dbManager, error) {
	if db == nil || db.dbMgr == nil || db.dbMgr.db == nil {
		return nil, ErrNotInitialized
	}
	if db.dbMgr.closed.Load() {
		return nil, ErrPoolClosed
	}
	return db.dbMgr, nil
}

// Close stops the monitor and closes the pool, waiting for borrowed
// connections to be returned. Calling it again is a no-op.
func (db *DB) Close() error {
	if db == nil || db.dbMgr == nil {
		return nil
	}
	mgr := db.dbMgr
	mgr.closeOnce.Do(func() {
		mgr.closed.Store(true)
		mgr.monitor.Stop()
		mgr.closeErr = mgr.db.Close()
		LogInfo("close database connection pool", map[string]interface{}{"db": mgr.name})
	})
	return mgr.closeErr
}

// SqlDB returns the underlying *sql.DB.
func (db *DB) SqlDB() (*sql.DB, error) {
	mgr, err := db.manager()
	if err != nil {
		return nil, err
	}
	return mgr.db, nil
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	mgr, err := db.manager()
	if err != nil {
		return err
	}
	return mgr.db.PingContext(ctx)
}

// Driver returns the driver the pool was opened with.
func (db *DB) Driver() DriverType {
	if db == nil || db.dbMgr == nil {
		return MySQL
	}
	return db.dbMgr.config.Driver
}

// Name returns the configured name of the pool.
func (db *DB) Name() string {
	if db == nil || db.dbMgr == nil {
		return ""
	}
	return db.dbMgr.name
}

// StrictRowCount reports whether row-count mismatches are returned as errors.
func (db *DB) StrictRowCount() bool {
	return db != nil && db.dbMgr != nil && db.dbMgr.config.StrictRowCount
}

// WithCache returns a handle on the same pool that reads Schema.Find results
// through provider. A ttl of 0 keeps entries until they are invalidated.
func (db *DB) WithCache(provider CacheProvider, ttl time.Duration) *DB {
	if db == nil {
		return nil
	}
	return &DB{dbMgr: db.dbMgr, cacheProvider: provider, cacheTTL: ttl}
}

func (db *DB) rowCache() (CacheProvider, time.Duration) {
	if db == nil {
		return nil, 0
	}
	return db.cacheProvider, db.cacheTTL
}

// withTimeout derives a deadline from Config.QueryTimeout when one is set.
func (mgr *dbManager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if mgr.config.QueryTimeout > 0 {
		return context.WithTimeout(ctx, mgr.config.QueryTimeout)
	}
	return ctx, func() {}
}

// PoolStats represents database connection pool statistics
type PoolStats struct {
	DBName             string        `json:"db_name"`
	Driver             string        `json:"driver"`
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
	MaxIdleClosed      int64         `json:"max_idle_closed"`
	MaxLifetimeClosed  int64         `json:"max_lifetime_closed"`
}

// Stats returns the connection pool statistics, nil for an unusable handle.
func (db *DB) Stats() *PoolStats {
	mgr, err := db.manager()
	if err != nil {
		return nil
	}
	stats := mgr.db.Stats()
	return &PoolStats{
		DBName:             mgr.name,
		Driver:             string(mgr.config.Driver),
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

// ToMap returns the statistics as a map (for JSON serialization)
func (ps *PoolStats) ToMap() map[string]interface{} {
	if ps == nil {
		return nil
	}
	return map[string]interface{}{
		"db_name":              ps.DBName,
		"driver":               ps.Driver,
		"max_open_connections": ps.MaxOpenConnections,
		"open_connections":     ps.OpenConnections,
		"in_use":               ps.InUse,
		"idle":                 ps.Idle,
		"wait_count":           ps.WaitCount,
		"wait_duration_ms":     ps.WaitDuration.Milliseconds(),
		"max_idle_closed":      ps.MaxIdleClosed,
		"max_lifetime_closed":  ps.MaxLifetimeClosed,
	}
}

func (ps *PoolStats) String() string {
	if ps == nil {
		return "PoolStats: nil"
	}
	return fmt.Sprintf(
		"PoolStats[%s/%s]: Open=%d (InUse=%d, Idle=%d), MaxOpen=%d, WaitCount=%d, WaitDuration=%v",
		ps.DBName, ps.Driver,
		ps.OpenConnections, ps.InUse, ps.Idle,
		ps.MaxOpenConnections, ps.WaitCount, ps.WaitDuration,
	)
}

// PrometheusMetrics returns the statistics in Prometheus text exposition format.
func (ps *PoolStats) PrometheusMetrics() string {
	if ps == nil {
		return ""
	}
	labels := fmt.Sprintf(`db="%s",driver="%s"`, ps.DBName, ps.Driver)

	var b strings.Builder
	metric := func(name, help, kind string, value interface{}) {
		fmt.Fprintf(&b, "# HELP morm_pool_%s %s\n# TYPE morm_pool_%s %s\nmorm_pool_%s{%s} %v\n", name, help, name, kind, name, labels, value)
	}
	metric("max_open_connections", "Maximum number of open connections to the database.", "gauge", ps.MaxOpenConnections)
	metric("open_connections", "The number of established connections both in use and idle.", "gauge", ps.OpenConnections)
	metric("in_use", "The number of connections currently in use.", "gauge", ps.InUse)
	metric("idle", "The number of idle connections.", "gauge", ps.Idle)
	metric("wait_count_total", "The total number of connections waited for.", "counter", ps.WaitCount)
	metric("wait_duration_seconds_total", "The total time blocked waiting for a new connection.", "counter", ps.WaitDuration.Seconds())
	metric("max_idle_closed_total", "The total number of connections closed due to SetMaxIdleConns.", "counter", ps.MaxIdleClosed)
	metric("max_lifetime_closed_total", "The total number of connections closed due to SetConnMaxLifetime.", "counter", ps.MaxLifetimeClosed)
	return b.String()
}
