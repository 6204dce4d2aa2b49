// Package procctl delivers signals to processes by PID.
package procctl

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Common errors
var (
	ErrInvalidPID      = errors.New("invalid pid")
	ErrInvalidSignal   = errors.New("invalid signal")
	ErrProcessNotFound = errors.New("process not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrSignalFailed    = errors.New("failed to send signal")
)

// killFunc delivers sig to pid and returns the raw platform error
type killFunc func(pid, sig int) error

// Signaler sends signals to processes
type Signaler struct {
	kill   killFunc
	logger *zap.Logger
}

// NewSignaler creates a Signaler for the host platform
func NewSignaler(logger *zap.Logger) *Signaler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Signaler{
		kill:   platformKill,
		logger: logger,
	}
}

// Signal sends sig to pid. Signal 0 only checks that the process exists
// and may be signalled. PIDs 0 and below are refused because kill(2)
// treats them as process groups.
func (s *Signaler) Signal(pid, sig int) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	if sig < 0 || sig > maxSignal {
		return fmt.Errorf("%w: %d", ErrInvalidSignal, sig)
	}

	err := s.kill(pid, sig)
	if err == nil {
		s.logger.Debug("signal delivered", zap.Int("pid", pid), zap.Int("signal", sig))
		return nil
	}

	mapped := mapError(err)
	s.logger.Debug("signal failed",
		zap.Int("pid", pid),
		zap.Int("signal", sig),
		zap.Error(mapped))
	return mapped
}

// Alive reports whether pid exists and can be signalled
func (s *Signaler) Alive(pid int) bool {
	return s.Signal(pid, 0) == nil
}
