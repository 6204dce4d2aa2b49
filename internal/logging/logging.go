// Package logging builds the zap loggers used across procbridge. Output
// goes to stderr or a file, never stdout, since stdout carries JSON.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xmodern/procbridge/internal/config"
)

// Key constants for structured log fields.
const (
	KeyComponent = "component"
	KeySource    = "source"
	KeyRoot      = "root"
	KeyCount     = "count"
)

// New builds a logger.
// format: "json" or "console" (default "json")
// level: "debug", "info", "warn", "error" (default "info")
// file: path to append to ("" = stderr)
func New(level, format, file string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if strings.EqualFold(format, "console") || strings.EqualFold(format, "text") {
		zcfg.Encoding = "console"
	} else {
		zcfg.Encoding = "json"
	}

	out := "stderr"
	if file != "" {
		out = file
	}
	zcfg.OutputPaths = []string{out}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// FromConfig builds a logger from the bridge configuration
func FromConfig(cfg *config.Config) (*zap.Logger, error) {
	return New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
}

// L returns a child logger tagged with the component name
func L(logger *zap.Logger, component string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String(KeyComponent, component))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
