//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite" // 纯 Go SQLite 驱动
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)
