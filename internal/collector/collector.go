// Package collector provides process enumeration for procbridge. A
// ProcessCollector wraps a ProcessSource (the proc tree or gopsutil) and
// never fails the caller: source errors are logged and yield an empty list.
package collector

import (
	"go.uber.org/zap"
)

// Collector is the interface that all system collectors must implement.
type Collector interface {
	// Collect gathers the system information and returns it.
	// The returned interface{} should be type-asserted to the appropriate
	// model type (e.g. []models.ProcessRecord).
	// Returns an error if collection fails completely; partial failures
	// may still return data with logged warnings.
	Collect() (interface{}, error)

	// Name returns a human-readable name for the collector,
	// useful for logging and identification.
	Name() string
}

// BaseCollector provides common functionality for all collectors
type BaseCollector struct {
	logger *zap.Logger
}

// NewBaseCollector creates a new BaseCollector with the given logger
func NewBaseCollector(logger *zap.Logger) BaseCollector {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return BaseCollector{logger: logger}
}

// Logger returns the collector's logger
func (b *BaseCollector) Logger() *zap.Logger {
	return b.logger
}

// LogWarning logs a warning message for partial failures during collection
func (b *BaseCollector) LogWarning(msg string, fields ...zap.Field) {
	b.logger.Warn(msg, fields...)
}

// LogDebug logs a debug message
func (b *BaseCollector) LogDebug(msg string, fields ...zap.Field) {
	b.logger.Debug(msg, fields...)
}
