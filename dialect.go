package morm

import (
	"strconv"
	"strings"
)

// DriverType represents the database driver type. Its value is the name the
// driver registers with database/sql.
type DriverType string

const (
	// MySQL database driver
	MySQL DriverType = "mysql"
	// PostgreSQL database driver (pgx registered as "postgres")
	PostgreSQL DriverType = "postgres"
	// SQLite pure Go driver (modernc.org/sqlite)
	SQLite DriverType = "sqlite"
	// SQLite3 cgo driver (github.com/mattn/go-sqlite3)
	SQLite3 DriverType = "sqlite3"
)

// SupportedDrivers returns a list of all supported database drivers
func SupportedDrivers() []DriverType {
	return []DriverType{MySQL, PostgreSQL, SQLite, SQLite3}
}

// IsValidDriver checks if the given driver is supported
func IsValidDriver(driver DriverType) bool {
	for _, d := range SupportedDrivers() {
		if d == driver {
			return true
		}
	}
	return false
}

func (d DriverType) isSQLite() bool {
	return d == SQLite || d == SQLite3
}

// defaultPort returns the standard port of the driver, 0 for file databases.
func (d DriverType) defaultPort() int {
	switch d {
	case PostgreSQL:
		return 5432
	case SQLite, SQLite3:
		return 0
	default:
		return 3306
	}
}

// rebind translates SQL written with ? placeholders and backtick identifiers
// into the driver's dialect. MySQL and SQLite accept both as is.
func (d DriverType) rebind(query string) string {
	if d != PostgreSQL {
		return query
	}

	var builder strings.Builder
	builder.Grow(len(query) + 10)
	paramIndex := 1
	inSingleQuote := false
	inDoubleQuote := false

	for i := 0; i < len(query); i++ {
		char := query[i]

		if char == '\'' && !inDoubleQuote {
			// '' 转义
			if inSingleQuote && i+1 < len(query) && query[i+1] == '\'' {
				builder.WriteString("''")
				i++
				continue
			}
			inSingleQuote = !inSingleQuote
			builder.WriteByte(char)
			continue
		}
		if char == '"' && !inSingleQuote {
			inDoubleQuote = !inDoubleQuote
			builder.WriteByte(char)
			continue
		}
		if inSingleQuote || inDoubleQuote {
			builder.WriteByte(char)
			continue
		}

		switch char {
		case '`':
			builder.WriteByte('"')
		case '?':
			builder.WriteByte('$')
			builder.WriteString(strconv.Itoa(paramIndex))
			paramIndex++
		default:
			builder.WriteByte(char)
		}
	}
	return builder.String()
}

// limitClause renders the LIMIT fragment for a count, or an offset/count pair,
// and returns the arguments in the order the fragment binds them.
func (d DriverType) limitClause(limit []int) (string, []interface{}) {
	if len(limit) == 1 {
		return "LIMIT ?", []interface{}{limit[0]}
	}
	offset, count := limit[0], limit[1]
	if d == PostgreSQL {
		return "LIMIT ? OFFSET ?", []interface{}{count, offset}
	}
	return "LIMIT ?, ?", []interface{}{offset, count}
}
