package procfs

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xmodern/procbridge/pkg/models"
)

// clockTicks is USER_HZ, which is 100 on every Linux and Android ABI
const clockTicks = 100

// Placeholders reported when a detail source cannot be read
const (
	NotAvailable       = "N/A"
	ExePathUnavailable = "Access Denied / Not Available"
)

// ProcessDetail returns the extended view of one process. Fields whose
// source cannot be read keep their placeholder; only a missing process
// directory is an error.
func (r *Reader) ProcessDetail(pid int) (*models.ProcessDetail, error) {
	if pid < 0 {
		return nil, fmt.Errorf("%w: invalid pid %d", ErrProcessNotFound, pid)
	}

	pidStr := strconv.Itoa(pid)
	if _, err := r.fs.Stat(filepath.Join(r.root, pidStr)); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProcessNotFound
		}
		return nil, fmt.Errorf("failed to stat process %d: %w", pid, err)
	}

	detail := &models.ProcessDetail{
		PID:         pid,
		Name:        r.ProcessName(pidStr),
		Nice:        "0",
		Priority:    "0",
		OomScore:    NotAvailable,
		ElapsedTime: FormatElapsed(0),
		ExePath:     ExePathUnavailable,
	}

	if status, ok := r.readRecord(pidStr, "status"); ok {
		fields := parseStatusFields(status)
		detail.PPID = fields["PPid"]
		detail.State = fields["State"]
		detail.Threads = fields["Threads"]
		// Uid: real effective saved fs
		if uids := strings.Fields(fields["Uid"]); len(uids) > 0 {
			detail.User = uids[0]
		}
	}

	if stat, ok := r.readRecord(pidStr, "stat"); ok {
		if tail, err := statFields(string(stat)); err == nil {
			if len(tail) > 16 {
				detail.Priority = tail[15]
				detail.Nice = tail[16]
			}
			if len(tail) > 19 {
				if startTicks, err := strconv.ParseUint(tail[19], 10, 64); err == nil {
					detail.ElapsedTime = FormatElapsed(r.elapsedSeconds(startTicks))
				}
			}
		} else {
			r.logger.Debug("stat unparsable", zap.Int("pid", pid), zap.Error(err))
		}
	}

	if oom, ok := r.readRecord(pidStr, "oom_score"); ok {
		if score := strings.TrimSpace(string(oom)); score != "" {
			detail.OomScore = score
		}
	}

	if exe, err := r.readLink(filepath.Join(r.root, pidStr, "exe")); err == nil && exe != "" {
		detail.ExePath = exe
	}

	return detail, nil
}

// parseStatusFields splits /proc/<pid>/status into key -> trimmed value
func parseStatusFields(data []byte) map[string]string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}

// statFields returns the fields of a stat record that follow the comm
// field. The comm can contain spaces and parentheses, so the split happens
// at the last ')'.
func statFields(data string) ([]string, error) {
	lastParen := strings.LastIndex(data, ")")
	if lastParen == -1 {
		return nil, fmt.Errorf("invalid stat format")
	}
	return strings.Fields(data[lastParen+1:]), nil
}

// elapsedSeconds converts a start time in clock ticks since boot into
// seconds of runtime, using the uptime record under the root
func (r *Reader) elapsedSeconds(startTicks uint64) uint64 {
	data, err := afero.ReadFile(r.fs, filepath.Join(r.root, "uptime"))
	if err != nil {
		return 0
	}
	parts := strings.Fields(string(data))
	if len(parts) == 0 {
		return 0
	}
	uptime, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}

	started := startTicks / clockTicks
	if uint64(uptime) < started {
		return 0
	}
	return uint64(uptime) - started
}

func (r *Reader) readLink(name string) (string, error) {
	linker, ok := r.fs.(afero.LinkReader)
	if !ok {
		return "", &os.PathError{Op: "readlink", Path: name, Err: afero.ErrNoReadlink}
	}
	return linker.ReadlinkIfPossible(name)
}

// FormatElapsed renders seconds as HH:MM:SS; hours are not wrapped
func FormatElapsed(seconds uint64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
