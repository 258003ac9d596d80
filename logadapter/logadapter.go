// Package logadapter connects morm's Logger interface to zap, zerolog and logrus.
//
//	morm.SetLogger(logadapter.NewZap(zapLogger))
package logadapter

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/zzguang83325/morm"
)

// ZapAdapter 实现 morm.Logger 接口，用于集成 zap 日志库
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZap wraps a zap logger.
func NewZap(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger}
}

func (a *ZapAdapter) Log(level morm.LogLevel, msg string, fields map[string]interface{}) {
	// 按 key 排序，保证输出顺序稳定
	var zapFields []zap.Field
	if len(fields) > 0 {
		zapFields = make([]zap.Field, 0, len(fields))
		for _, k := range sortedKeys(fields) {
			zapFields = append(zapFields, zap.Any(k, fields[k]))
		}
	}

	switch level {
	case morm.LevelDebug:
		a.logger.Debug(msg, zapFields...)
	case morm.LevelInfo:
		a.logger.Info(msg, zapFields...)
	case morm.LevelWarn:
		a.logger.Warn(msg, zapFields...)
	case morm.LevelError:
		a.logger.Error(msg, zapFields...)
	}
}

// Sync flushes zap's buffers; morm.Sync calls it.
func (a *ZapAdapter) Sync() error {
	return a.logger.Sync()
}

// ZerologAdapter 实现 morm.Logger 接口，用于集成 zerolog 日志库
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerolog wraps a zerolog logger.
func NewZerolog(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (a *ZerologAdapter) Log(level morm.LogLevel, msg string, fields map[string]interface{}) {
	var event *zerolog.Event
	switch level {
	case morm.LevelDebug:
		event = a.logger.Debug()
	case morm.LevelInfo:
		event = a.logger.Info()
	case morm.LevelWarn:
		event = a.logger.Warn()
	case morm.LevelError:
		event = a.logger.Error()
	default:
		event = a.logger.Log()
	}

	if len(fields) > 0 {
		event.Fields(fields)
	}
	event.Msg(msg)
}

// LogrusAdapter 实现 morm.Logger 接口，用于集成 logrus 日志库
type LogrusAdapter struct {
	logger *logrus.Logger
}

// NewLogrus wraps a logrus logger.
func NewLogrus(logger *logrus.Logger) *LogrusAdapter {
	return &LogrusAdapter{logger: logger}
}

func (a *LogrusAdapter) Log(level morm.LogLevel, msg string, fields map[string]interface{}) {
	entry := a.logger.WithFields(logrus.Fields(fields))
	switch level {
	case morm.LevelDebug:
		entry.Debug(msg)
	case morm.LevelInfo:
		entry.Info(msg)
	case morm.LevelWarn:
		entry.Warn(msg)
	case morm.LevelError:
		entry.Error(msg)
	}
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
