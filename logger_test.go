package morm

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSlogLoggerKeyOrder(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	l.Log(LevelWarn, "SQL", map[string]interface{}{
		"zeta":     1,
		"error":    "boom",
		"args":     []interface{}{"a", 1},
		"sql":      "SELECT 1",
		"db":       "blog",
		"alpha":    true,
		"duration": "1ms",
	})
	out := buf.String()
	keys := []string{"level=WARN", "db=", "duration=", "sql=", "args=", "error=", "alpha=", "zeta="}
	last := -1
	for _, k := range keys {
		i := strings.Index(out, k)
		if i <= last {
			t.Fatalf("%q out of order in %s", k, out)
		}
		last = i
	}
	if !strings.Contains(out, `"['a', 1]"`) {
		t.Errorf("args not formatted: %s", out)
	}
}

func TestFixStringEncoding(t *testing.T) {
	if got := fixStringEncoding("plain ascii"); got != "plain ascii" {
		t.Errorf("got %q", got)
	}
	gbk := string([]byte{0xD6, 0xD0, 0xCE, 0xC4})
	if got := fixStringEncoding(gbk); got != "中文" {
		t.Errorf("got %q", got)
	}
}

func TestLogSQLNeedsDebug(t *testing.T) {
	logs := captureLogs(t)
	t.Cleanup(func() { debug = false })

	debug = false
	LogSQL("blog", "SELECT 1", nil, time.Millisecond)
	LogDebug("hidden")
	if _, ok := logs.find("SQL done"); ok {
		t.Fatal("LogSQL should be silent outside debug mode")
	}

	debug = true
	LogSQL("blog", "SELECT\n  1", []interface{}{1}, time.Millisecond)
	e, ok := logs.find("SQL done")
	if !ok {
		t.Fatal("LogSQL not logged in debug mode")
	}
	if e.level != LevelDebug || e.fields["sql"] != "SELECT 1" {
		t.Errorf("unexpected entry %+v", e)
	}

	LogSQLError("blog", "SELECT 1", nil, time.Millisecond, errors.New("bad"))
	failed, _ := logs.find("SQL failed")
	if caller, _ := failed.fields["caller"].(string); !strings.HasPrefix(caller, "logger_test.go:") {
		t.Errorf("caller = %q", caller)
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" || LogLevel(9).String() != "UNKNOWN" {
		t.Error("unexpected level names")
	}
}
