package morm

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var modelSeq atomic.Int64

// uniqueName returns a model name not yet used by any test; the schema
// registry rejects redefinitions.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, modelSeq.Add(1))
}

type logEntry struct {
	level  LogLevel
	msg    string
	fields map[string]interface{}
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (c *captureLogger) Log(level LogLevel, msg string, fields map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (c *captureLogger) find(msg string) (logEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func (c *captureLogger) count(level LogLevel) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

// captureLogs installs a recording logger for the duration of the test.
func captureLogs(t *testing.T) *captureLogger {
	t.Helper()
	c := &captureLogger{}
	SetLogger(c)
	t.Cleanup(func() { SetLogger(nil) })
	return c
}

// newMockDB wraps a sqlmock connection in a *DB that matches SQL text exactly.
func newMockDB(t *testing.T, cfg *Config) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	db := NewWithDB(sqlDB, cfg)
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		sqlDB.Close()
	})
	return db, mock
}

// defineUser declares the User model used across the tests.
func defineUser(t *testing.T) *Schema {
	t.Helper()
	s, err := Define(uniqueName("User"),
		Table("users"),
		Attr("id", StringField(PrimaryKey(), Default(NextID), MapType("varchar(50)"))),
		Attr("email", StringField(MapType("varchar(50)"))),
		Attr("passwd", StringField(MapType("varchar(50)"))),
		Attr("admin", BooleanField()),
		Attr("name", StringField(MapType("varchar(50)"))),
		Attr("image", StringField(MapType("varchar(500)"))),
		Attr("created_at", FloatField(Default(Now))),
	)
	if err != nil {
		t.Fatalf("define user: %v", err)
	}
	return s
}

const (
	userSelect = "SELECT `id`, `email`, `passwd`, `admin`, `name`, `image`, `created_at` FROM `users`"
	userInsert = "INSERT INTO `users` (`email`, `passwd`, `admin`, `name`, `image`, `created_at`, `id`) VALUES (?, ?, ?, ?, ?, ?, ?)"
	userUpdate = "UPDATE `users` SET `email`=?, `passwd`=?, `admin`=?, `name`=?, `image`=?, `created_at`=? WHERE `id`=?"
	userDelete = "DELETE FROM `users` WHERE `id`=?"
)

var userColumns = []string{"id", "email", "passwd", "admin", "name", "image", "created_at"}
