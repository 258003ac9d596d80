package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zzguang83325/morm"
	"github.com/zzguang83325/morm/logadapter"
)

// setupLogging installs the selected backend as morm's logger. The returned
// func flushes buffered entries.
func setupLogging(format, level string, w io.Writer) (func(), error) {
	morm.SetDebugMode(level == "debug")

	switch format {
	case "", "slog":
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		morm.SetLogger(morm.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))))
	case "zap":
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(w), lvl)
		morm.SetLogger(logadapter.NewZap(zap.New(core)))
	case "zerolog":
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		morm.SetLogger(logadapter.NewZerolog(zerolog.New(w).Level(lvl).With().Timestamp().Logger()))
	case "logrus":
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		logger := logrus.New()
		logger.SetOutput(w)
		logger.SetLevel(lvl)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		morm.SetLogger(logadapter.NewLogrus(logger))
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return morm.Sync, nil
}
