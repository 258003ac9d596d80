// Command blog serves the blog JSON API on top of morm.
//
//	blog init-db --db-driver=sqlite --db-name=blog.db
//	blog serve --db-driver=sqlite --db-name=blog.db --addr=127.0.0.1:9000
//
// Every flag can also come from the environment (BLOG_DB_HOST, ...) or from a
// JSON file passed with --config, whose keys are the flag names in snake case:
//
//	{"db_host": "10.0.0.5", "db_user": "www", "db_password": "www", "log_format": "zap"}
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/zzguang83325/morm"
	_ "github.com/zzguang83325/morm/drivers/mysql"
	_ "github.com/zzguang83325/morm/drivers/postgres"
	"github.com/zzguang83325/morm/drivers/sqlite"
	"github.com/zzguang83325/morm/redis"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config kong.ConfigFlag `name:"config" help:"JSON config file overriding the defaults"`

	DBDriver   string `name:"db-driver" default:"mysql" enum:"mysql,postgres,sqlite,sqlite3" env:"BLOG_DB_DRIVER" help:"Database driver (${enum})"`
	DBHost     string `name:"db-host" default:"127.0.0.1" env:"BLOG_DB_HOST" help:"Database host"`
	DBPort     int    `name:"db-port" env:"BLOG_DB_PORT" help:"Database port, 0 for the driver default"`
	DBUser     string `name:"db-user" default:"www" env:"BLOG_DB_USER" help:"Database user"`
	DBPassword string `name:"db-password" default:"www" env:"BLOG_DB_PASSWORD" help:"Database password"`
	DBName     string `name:"db-name" default:"webdata" env:"BLOG_DB_NAME" help:"Database name, or file path for SQLite"`
	DBCharset  string `name:"db-charset" default:"utf8" env:"BLOG_DB_CHARSET" help:"Connection charset"`
	DBMinSize  int    `name:"db-min-size" default:"1" env:"BLOG_DB_MIN_SIZE" help:"Connections opened at startup"`
	DBMaxSize  int    `name:"db-max-size" default:"10" env:"BLOG_DB_MAX_SIZE" help:"Maximum open connections"`
	StrictRows bool   `name:"strict-rows" env:"BLOG_STRICT_ROWS" help:"Fail writes that do not affect exactly one row"`

	LogFormat string `name:"log-format" default:"slog" enum:"slog,zap,zerolog,logrus" env:"BLOG_LOG_FORMAT" help:"Logging backend (${enum})"`
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" env:"BLOG_LOG_LEVEL" help:"Log level (${enum})"`
}

// CLI is the command line of blog.
type CLI struct {
	Globals

	Serve  ServeCmd  `cmd:"" help:"Start the HTTP API server"`
	InitDB InitDBCmd `cmd:"" name:"init-db" help:"Create the tables if they do not exist"`
}

// dbConfig maps the flags onto a morm.Config.
func (g *Globals) dbConfig() *morm.Config {
	driver := morm.DriverType(g.DBDriver)
	if driver == morm.SQLite || driver == morm.SQLite3 {
		// 使用当前构建链接的 SQLite 驱动
		driver = morm.DriverType(sqlite.DriverName())
	}
	return &morm.Config{
		Driver:         driver,
		Host:           g.DBHost,
		Port:           g.DBPort,
		User:           g.DBUser,
		Password:       g.DBPassword,
		Database:       g.DBName,
		Charset:        g.DBCharset,
		MinSize:        g.DBMinSize,
		MaxSize:        g.DBMaxSize,
		StrictRowCount: g.StrictRows,
	}
}

func (g *Globals) open(ctx context.Context) (*morm.DB, error) {
	return morm.Open(ctx, g.dbConfig())
}

// InitDBCmd creates the blog tables.
type InitDBCmd struct{}

func (c *InitDBCmd) Run(g *Globals) error {
	flush, err := setupLogging(g.LogFormat, g.LogLevel, os.Stdout)
	if err != nil {
		return err
	}
	defer flush()

	ctx := context.Background()
	db, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return createTables(ctx, db)
}

func createTables(ctx context.Context, ex morm.Executor) error {
	for _, s := range schemas {
		if _, err := ex.Execute(ctx, s.CreateTableSQL(), nil); err != nil {
			return fmt.Errorf("create table %s: %w", s.Table(), err)
		}
		morm.LogInfo("table ready", map[string]interface{}{"table": s.Table()})
	}
	return nil
}

// ServeCmd runs the HTTP server until SIGINT or SIGTERM.
type ServeCmd struct {
	Addr      string        `name:"addr" default:"127.0.0.1:9000" env:"BLOG_ADDR" help:"Listen address"`
	RedisAddr string        `name:"redis-addr" env:"BLOG_REDIS_ADDR" help:"Redis address for the row cache; in-process cache when empty"`
	CacheTTL  time.Duration `name:"cache-ttl" default:"1m" env:"BLOG_CACHE_TTL" help:"Row cache TTL"`
}

func (c *ServeCmd) Run(g *Globals) error {
	flush, err := setupLogging(g.LogFormat, g.LogLevel, os.Stdout)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	cache, closeCache, err := c.newCache()
	if err != nil {
		return err
	}
	defer closeCache()
	db = db.WithCache(cache, c.CacheTTL)

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           (&server{db: db, cache: cache}).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		morm.LogInfo("server started", map[string]interface{}{"addr": "http://" + c.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	morm.LogInfo("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (c *ServeCmd) newCache() (morm.CacheProvider, func(), error) {
	if c.RedisAddr != "" {
		rc, err := redis.NewRedisCache(c.RedisAddr, "", "", 0)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { rc.Close() }, nil
	}
	lc := morm.NewLocalCache(morm.DefaultCacheCleanupInterval)
	return lc, lc.Close, nil
}

func newParser(cli *CLI) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("blog"),
		kong.Description("Blog JSON API backed by morm"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON),
		kong.Bind(&cli.Globals),
	)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
