//go:build unix

package procctl

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// maxSignal is the highest realtime signal number on Linux
const maxSignal = 64

func platformKill(pid, sig int) error {
	return unix.Kill(pid, unix.Signal(sig))
}

func mapError(err error) error {
	switch {
	case errors.Is(err, unix.ESRCH):
		return ErrProcessNotFound
	case errors.Is(err, unix.EPERM):
		return ErrAccessDenied
	case errors.Is(err, unix.EINVAL):
		return fmt.Errorf("%w: %v", ErrInvalidSignal, err)
	default:
		return fmt.Errorf("%w: %v", ErrSignalFailed, err)
	}
}
