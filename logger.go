package morm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// LogLevel defines the severity of the log
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger interface defines simple behavior for logging with structured fields.
// Adapters for zap, zerolog and logrus live in the logadapter package.
type Logger interface {
	// Log records a log entry. fields is optional (can be nil).
	Log(level LogLevel, msg string, fields map[string]interface{})
}

// slogLogger is an adapter for log/slog
type slogLogger struct {
	logger *slog.Logger
}

// priorityKeys are printed first, in this order.
var priorityKeys = []string{"db", "duration", "sql", "args", "error"}

func (s *slogLogger) Log(level LogLevel, msg string, fields map[string]interface{}) {
	l := s.logger
	if l == nil {
		l = slog.Default()
	}

	var args []interface{}
	if len(fields) > 0 {
		args = make([]interface{}, 0, len(fields)*2)
		seen := make(map[string]bool, len(priorityKeys))
		for _, k := range priorityKeys {
			if v, ok := fields[k]; ok {
				if slice, isSlice := v.([]interface{}); isSlice && k == "args" {
					v = formatValue(slice)
				}
				args = append(args, k, v)
				seen[k] = true
			}
		}
		rest := make([]string, 0, len(fields))
		for k := range fields {
			if !seen[k] {
				rest = append(rest, k)
			}
		}
		sort.Strings(rest)
		for _, k := range rest {
			args = append(args, k, fields[k])
		}
	}

	switch level {
	case LevelDebug:
		l.Debug(msg, args...)
	case LevelInfo:
		l.Info(msg, args...)
	case LevelWarn:
		l.Warn(msg, args...)
	case LevelError:
		l.Error(msg, args...)
	}
}

// NewSlogLogger creates a Logger that uses log/slog
func NewSlogLogger(logger *slog.Logger) Logger {
	return &slogLogger{logger: logger}
}

// formatValue renders SQL arguments as ['a', 1, true].
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("'%s'", val)
	case []interface{}:
		strs := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				strs = append(strs, fmt.Sprintf("'%s'", s))
			} else {
				strs = append(strs, fmt.Sprintf("%v", item))
			}
		}
		return "[" + strings.Join(strs, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}

var (
	currentLogger Logger = &slogLogger{logger: nil}
	debug         bool
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// SetLogger sets the global logger
func SetLogger(l Logger) {
	if l == nil {
		l = &slogLogger{logger: nil}
	}
	currentLogger = l
}

// SetDebugMode enables or disables debug mode
func SetDebugMode(enabled bool) {
	debug = enabled
	if enabled && !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

// IsDebugEnabled returns true if debug mode is enabled
func IsDebugEnabled() bool {
	return debug
}

// InitLogger installs a slog text logger on stdout at the given level
// (debug, info, warn or error).
func InitLogger(level string) {
	slogLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
		debug = true
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})))
	SetLogger(&slogLogger{logger: nil})
}

// cleanSQL removes newlines, tabs and multiple spaces from SQL string
func cleanSQL(sql string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(sql, " "))
}

// LogSQL logs a finished statement and its duration in debug mode.
func LogSQL(dbName string, sql string, args []interface{}, duration time.Duration) {
	if !debug {
		return
	}
	fields := map[string]interface{}{
		"db":       dbName,
		"sql":      cleanSQL(sql),
		"duration": duration.String(),
	}
	if len(args) > 0 {
		fields["args"] = args
	}
	currentLogger.Log(LevelDebug, "SQL done", fields)
}

// LogSQLError logs a failed statement. Driver messages in a legacy encoding
// (GBK, Big5, Shift_JIS...) are converted to UTF-8.
func LogSQLError(dbName string, sql string, args []interface{}, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"db":       dbName,
		"sql":      cleanSQL(sql),
		"duration": duration.String(),
		"error":    fixStringEncoding(err.Error()),
		"caller":   getCaller(3),
	}
	if len(args) > 0 {
		fields["args"] = args
	}
	currentLogger.Log(LevelError, "SQL failed", fields)
}

// getCaller returns the first frame outside this package.
func getCaller(skip int) string {
	pcs := make([]uintptr, 10)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.Function, "zzguang83325/morm.") || strings.HasSuffix(frame.File, "_test.go") {
			file := frame.File
			if idx := strings.LastIndexAny(file, `/\`); idx >= 0 {
				file = file[idx+1:]
			}
			return fmt.Sprintf("%s:%d", file, frame.Line)
		}
		if !more {
			return ""
		}
	}
}

func logWith(level LogLevel, msg string, fields []map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	currentLogger.Log(level, msg, f)
}

// LogInfo logs info message
func LogInfo(msg string, fields ...map[string]interface{}) { logWith(LevelInfo, msg, fields) }

// LogWarn logs warning message
func LogWarn(msg string, fields ...map[string]interface{}) { logWith(LevelWarn, msg, fields) }

// LogError logs error message
func LogError(msg string, fields ...map[string]interface{}) { logWith(LevelError, msg, fields) }

// LogDebug logs debug message when debug mode is on
func LogDebug(msg string, fields ...map[string]interface{}) {
	if debug {
		logWith(LevelDebug, msg, fields)
	}
}

// Sync flushes any buffered log entries
func Sync() {
	if s, ok := currentLogger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

// 驱动错误信息的编码修复：部分数据库（如中文 Windows 上的 MySQL）返回非 UTF-8 文本
var (
	legacyEncodings = []struct {
		name string
		enc  encoding.Encoding
	}{
		{"GBK", simplifiedchinese.GBK},
		{"Big5", traditionalchinese.Big5},
		{"GB18030", simplifiedchinese.GB18030},
		{"Shift_JIS", japanese.ShiftJIS},
		{"EUC-JP", japanese.EUCJP},
		{"EUC-KR", korean.EUCKR},
	}
)

// fixStringEncoding returns text unchanged when it is valid UTF-8; otherwise
// the first legacy encoding that decodes it cleanly wins.
func fixStringEncoding(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	for _, le := range legacyEncodings {
		decoded, err := le.enc.NewDecoder().String(text)
		if err != nil || !utf8.ValidString(decoded) || strings.ContainsRune(decoded, utf8.RuneError) {
			continue
		}
		return decoded
	}
	return text
}
