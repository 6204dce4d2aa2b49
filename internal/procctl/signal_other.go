//go:build !unix

package procctl

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// maxSignal bounds the numbers accepted; gopsutil maps them per platform
const maxSignal = 64

func platformKill(pid, sig int) error {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	if sig == 0 {
		return nil
	}
	return proc.SendSignal(syscall.Signal(sig))
}

func mapError(err error) error {
	if errors.Is(err, process.ErrorProcessNotRunning) {
		return ErrProcessNotFound
	}
	return fmt.Errorf("%w: %v", ErrSignalFailed, err)
}
