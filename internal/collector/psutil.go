package collector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/xmodern/procbridge/internal/procfs"
	"github.com/xmodern/procbridge/pkg/models"
)

// PsutilSource enumerates processes through gopsutil, for hosts without a
// readable proc tree
type PsutilSource struct {
	logger *zap.Logger
}

// NewPsutilSource creates a PsutilSource
func NewPsutilSource(logger *zap.Logger) *PsutilSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PsutilSource{logger: logger}
}

// ListProcesses returns every process gopsutil can see
func (s *PsutilSource) ListProcesses() ([]models.ProcessRecord, error) {
	pids, err := process.Pids()
	if err != nil {
		return []models.ProcessRecord{}, fmt.Errorf("failed to get process list: %w", err)
	}

	processes := make([]models.ProcessRecord, 0, len(pids))
	for _, pid := range pids {
		if pid < 0 {
			continue
		}
		processes = append(processes, models.NewProcessRecord(int(pid), s.name(pid)))
	}

	return processes, nil
}

// ProcessName resolves the name for pid using the same precedence as the
// proc tree reader
func (s *PsutilSource) ProcessName(pid string) string {
	n, ok := procfs.ParsePID(pid)
	if !ok {
		return models.UnknownProcessName
	}
	return s.name(int32(n))
}

func (s *PsutilSource) name(pid int32) string {
	proc, err := process.NewProcess(pid)
	if err != nil {
		// Exited between listing and lookup
		s.logger.Debug("process vanished", zap.Int32("pid", pid), zap.Error(err))
		return models.UnknownProcessName
	}

	if args, err := proc.CmdlineSlice(); err == nil && len(args) > 0 {
		if name := strings.TrimSpace(args[0]); name != "" {
			return name
		}
	}

	if name, err := proc.Name(); err == nil {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}

	return models.UnknownProcessName
}

// ProcessDetail builds the extended view from gopsutil. Priority and
// oom_score have no portable source and keep their placeholders.
func (s *PsutilSource) ProcessDetail(pid int) (*models.ProcessDetail, error) {
	if pid < 0 {
		return nil, procfs.ErrProcessNotFound
	}
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, procfs.ErrProcessNotFound
		}
		return nil, fmt.Errorf("failed to open process %d: %w", pid, err)
	}

	detail := &models.ProcessDetail{
		PID:         pid,
		Name:        s.name(int32(pid)),
		Priority:    "0",
		Nice:        "0",
		OomScore:    procfs.NotAvailable,
		ElapsedTime: procfs.FormatElapsed(0),
		ExePath:     procfs.ExePathUnavailable,
	}

	if ppid, err := proc.Ppid(); err == nil {
		detail.PPID = strconv.Itoa(int(ppid))
	}
	if uids, err := proc.Uids(); err == nil && len(uids) > 0 {
		detail.User = strconv.Itoa(int(uids[0]))
	}
	if status, err := proc.Status(); err == nil && len(status) > 0 {
		detail.State = status[0]
	}
	if threads, err := proc.NumThreads(); err == nil {
		detail.Threads = strconv.Itoa(int(threads))
	}
	if nice, err := proc.Nice(); err == nil {
		detail.Nice = strconv.Itoa(int(nice))
	}
	if created, err := proc.CreateTime(); err == nil {
		if elapsed := time.Since(time.UnixMilli(created)); elapsed > 0 {
			detail.ElapsedTime = procfs.FormatElapsed(uint64(elapsed / time.Second))
		}
	}
	if exe, err := proc.Exe(); err == nil && exe != "" {
		detail.ExePath = exe
	} else if err != nil {
		s.logger.Debug("exe unreadable", zap.Int("pid", pid), zap.Error(err))
	}

	return detail, nil
}
