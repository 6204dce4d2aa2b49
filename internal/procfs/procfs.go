// Package procfs enumerates processes by scanning a proc-style directory
// tree. All reads go through an afero.Fs so the scan can run against the
// live /proc or an in-memory fixture.
package procfs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xmodern/procbridge/internal/logging"
	"github.com/xmodern/procbridge/pkg/models"
)

// DefaultRoot is the mount point of the Linux process-information tree
const DefaultRoot = "/proc"

// Common errors
var (
	ErrRootUnavailable = errors.New("process root unavailable")
	ErrInvalidText     = errors.New("record is not valid UTF-8")
	ErrProcessNotFound = errors.New("process not found")
)

// Reader reads process identifiers and names from a proc tree
type Reader struct {
	fs     afero.Fs
	root   string
	logger *zap.Logger
}

// NewReader creates a Reader over fs rooted at root. An empty root selects
// DefaultRoot and a nil logger discards output.
func NewReader(fs afero.Fs, root string, logger *zap.Logger) *Reader {
	if root == "" {
		root = DefaultRoot
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		fs:     fs,
		root:   root,
		logger: logger,
	}
}

// NewOSReader creates a Reader over the host filesystem, read-only
func NewOSReader(root string, logger *zap.Logger) *Reader {
	return NewReader(afero.NewReadOnlyFs(afero.NewOsFs()), root, logger)
}

// Root returns the directory the reader scans
func (r *Reader) Root() string {
	return r.root
}

// ListProcesses returns one record per process directory under the root.
// Unreadable or non-numeric entries are skipped. The error is non-nil only
// when the root itself could not be listed, in which case the slice is empty.
func (r *Reader) ListProcesses() ([]models.ProcessRecord, error) {
	pids, err := r.ListPIDs()
	if err != nil {
		return []models.ProcessRecord{}, err
	}

	processes := make([]models.ProcessRecord, 0, len(pids))
	for _, pid := range pids {
		name := r.ProcessName(strconv.Itoa(pid))
		processes = append(processes, models.NewProcessRecord(pid, name))
	}

	return processes, nil
}

// ListPIDs returns the process identifiers under the root in directory order
func (r *Reader) ListPIDs() ([]int, error) {
	dir, err := r.fs.Open(r.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	defer dir.Close()

	names, err := dir.Readdirnames(-1)
	if err != nil {
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrRootUnavailable, err)
		}
		// Keep whatever was listed before the failure
		r.logger.Debug("partial listing of process root",
			zap.String(logging.KeyRoot, r.root),
			zap.Int("entries", len(names)),
			zap.Error(err))
	}

	pids := make([]int, 0, len(names))
	for _, name := range names {
		pid, ok := ParsePID(name)
		if !ok {
			// Not a PID directory (self, thread-self, sys, ...)
			continue
		}
		pids = append(pids, pid)
	}

	return pids, nil
}

// ProcessName resolves a display name for pid. It tries the command line
// first, then the short name, and falls back to models.UnknownProcessName.
// It never fails: a source that cannot be read is simply skipped.
func (r *Reader) ProcessName(pid string) string {
	if data, ok := r.readRecord(pid, "cmdline"); ok {
		if name := FirstArg(data); name != "" {
			return name
		}
	}

	// Kernel threads have an empty cmdline; comm still carries their name
	if data, ok := r.readRecord(pid, "comm"); ok {
		if name := strings.TrimSpace(string(data)); name != "" {
			return name
		}
	}

	return models.UnknownProcessName
}

// readRecord reads root/pid/file as text. Content that is not valid UTF-8
// counts as unreadable.
func (r *Reader) readRecord(pid, file string) ([]byte, bool) {
	data, err := afero.ReadFile(r.fs, filepath.Join(r.root, pid, file))
	if err != nil {
		r.logger.Debug(file+" unreadable", zap.String("pid", pid), zap.Error(err))
		return nil, false
	}
	if !utf8.Valid(data) {
		r.logger.Debug(file+" unreadable", zap.String("pid", pid), zap.Error(ErrInvalidText))
		return nil, false
	}
	return data, true
}

// FirstArg returns the first NUL-separated field of a cmdline record,
// trimmed of surrounding whitespace
func FirstArg(cmdline []byte) string {
	first, _, _ := strings.Cut(string(cmdline), "\x00")
	return strings.TrimSpace(first)
}

// ParsePID reports whether name is a non-negative decimal process identifier
func ParsePID(name string) (int, bool) {
	pid, err := strconv.ParseUint(name, 10, 31)
	if err != nil {
		return 0, false
	}
	return int(pid), true
}
