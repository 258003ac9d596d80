// Package mysql 提供MySQL数据库驱动支持
// 使用 github.com/go-sql-driver/mysql 驱动
//
// 导入此包会自动注册MySQL驱动：
//
//	import _ "github.com/zzguang83325/morm/drivers/mysql"
package mysql

import (
	"github.com/go-sql-driver/mysql"
)

// SetLogger routes the driver's own error log (bad connections, packet errors) to fn.
func SetLogger(fn func(v ...interface{})) error {
	return mysql.SetLogger(loggerFunc(fn))
}

type loggerFunc func(v ...interface{})

func (f loggerFunc) Print(v ...interface{}) { f(v...) }
