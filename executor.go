package morm

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Executor runs SQL written with ? placeholders and backtick identifiers.
// *DB implements it on top of its connection pool.
type Executor interface {
	// Select runs a query and returns at most size rows keyed by column name.
	// A size <= 0 returns every row.
	Select(ctx context.Context, query string, args []interface{}, size int) ([]map[string]interface{}, error)
	// Execute runs a statement and returns the number of affected rows.
	Execute(ctx context.Context, query string, args []interface{}) (int64, error)
}

var _ Executor = (*DB)(nil)

// Select borrows a connection from the pool, runs the query and releases the
// connection before returning.
func (db *DB) Select(ctx context.Context, query string, args []interface{}, size int) ([]map[string]interface{}, error) {
	mgr, err := db.manager()
	if err != nil {
		return nil, err
	}
	query = mgr.config.Driver.rebind(query)
	mgr.logStatement(query, args)

	ctx, cancel := mgr.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var results []map[string]interface{}
	err = mgr.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		results, err = scanRows(rows, size)
		return err
	})
	mgr.logTrace(start, query, args, err)
	if err != nil {
		return nil, err
	}
	LogDebug("rows returned", map[string]interface{}{"db": mgr.name, "rows": len(results)})
	return results, nil
}

// Execute borrows a connection from the pool, runs the statement and releases
// the connection before returning.
func (db *DB) Execute(ctx context.Context, query string, args []interface{}) (int64, error) {
	mgr, err := db.manager()
	if err != nil {
		return 0, err
	}
	query = mgr.config.Driver.rebind(query)
	mgr.logStatement(query, args)

	ctx, cancel := mgr.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var affected int64
	err = mgr.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	mgr.logTrace(start, query, args, err)
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// withConn 从连接池借出一个连接，fn 返回（包括出错）后归还
func (mgr *dbManager) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := mgr.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

func (mgr *dbManager) logStatement(query string, args []interface{}) {
	fields := map[string]interface{}{
		"db":  mgr.name,
		"sql": cleanSQL(query),
	}
	if len(args) > 0 {
		fields["args"] = formatArgsForLog(args)
	}
	currentLogger.Log(LevelInfo, "SQL", fields)
}

// logTrace 记录执行耗时；失败时记录错误
func (mgr *dbManager) logTrace(start time.Time, query string, args []interface{}, err error) {
	duration := time.Since(start)
	displayArgs := formatArgsForLog(args)
	if err != nil {
		LogSQLError(mgr.name, query, displayArgs, duration, err)
		return
	}
	LogSQL(mgr.name, query, displayArgs, duration)
}

// formatArgsForLog 将 time.Time 参数格式化为字符串，便于阅读
func formatArgsForLog(args []interface{}) []interface{} {
	if len(args) == 0 {
		return args
	}
	formatted := make([]interface{}, len(args))
	for i, arg := range args {
		if t, ok := arg.(time.Time); ok {
			formatted[i] = t.Format("2006-01-02 15:04:05")
			continue
		}
		formatted[i] = arg
	}
	return formatted
}

// scanRows reads at most size rows (all when size <= 0) into maps keyed by column.
func scanRows(rows *sql.Rows, size int) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	dbTypes := make([]string, len(columns))
	for i, ct := range columnTypes {
		dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
	}

	numCols := len(columns)
	results := make([]map[string]interface{}, 0)
	// 重用扫描缓冲区
	values := make([]interface{}, numCols)
	valuePtrs := make([]interface{}, numCols)
	for i := range columns {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		entry := make(map[string]interface{}, numCols)
		for i, col := range columns {
			entry[col] = processDBValue(values[i], dbTypes[i])
		}
		results = append(results, entry)
		if size > 0 && len(results) >= size {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func processDBValue(val interface{}, dbType string) interface{} {
	if val == nil {
		return nil
	}
	b, ok := val.([]byte)
	if !ok {
		return val
	}
	if isNumericType(dbType) {
		if s := string(b); s != "" {
			return s
		}
		return nil
	}
	if !isBinaryType(dbType) {
		return string(b)
	}
	// 二进制类型复制一份，避免驱动复用底层缓冲区
	bCopy := make([]byte, len(b))
	copy(bCopy, b)
	return bCopy
}

func isNumericType(dbType string) bool {
	for _, t := range []string{"DECIMAL", "NUMERIC", "NUMBER", "MONEY", "DEC", "FIXED"} {
		if strings.Contains(dbType, t) {
			return true
		}
	}
	return false
}

func isBinaryType(dbType string) bool {
	for _, t := range []string{"BLOB", "BINARY", "VARBINARY", "BYTEA", "IMAGE", "RAW"} {
		if strings.Contains(dbType, t) {
			return true
		}
	}
	return false
}
