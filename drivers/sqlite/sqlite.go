// Package sqlite 提供SQLite数据库驱动支持
//
// 默认使用纯 Go 实现 modernc.org/sqlite（驱动名 "sqlite"）；
// 使用 -tags cgo_sqlite 构建时改用 github.com/mattn/go-sqlite3（驱动名 "sqlite3"）。
//
// 使用方式：
//
//	import "github.com/zzguang83325/morm/drivers/sqlite"
//
//	cfg := &morm.Config{Driver: morm.DriverType(sqlite.DriverName()), Database: "blog.db"}
package sqlite

// DriverName returns the database/sql driver name registered by this build.
func DriverName() string {
	return driverName
}

// Info describes the linked SQLite implementation.
type Info struct {
	Name    string
	Type    string
	Package string
}

// GetInfo returns which SQLite implementation the binary was built with.
func GetInfo() Info {
	return Info{Name: driverName, Type: driverType, Package: driverPackage}
}
