// Package postgres 提供PostgreSQL数据库驱动支持
// 使用 github.com/jackc/pgx/v5/stdlib 驱动
//
// 导入此包会自动注册驱动（名称 "postgres"）：
//
//	import _ "github.com/zzguang83325/morm/drivers/postgres"
package postgres

import (
	"database/sql"

	"github.com/jackc/pgx/v5/stdlib"
)

func init() {
	// 注册pgx驱动为"postgres"名称
	sql.Register("postgres", stdlib.GetDefaultDriver())
}
