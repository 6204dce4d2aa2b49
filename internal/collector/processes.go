package collector

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xmodern/procbridge/internal/config"
	"github.com/xmodern/procbridge/internal/logging"
	"github.com/xmodern/procbridge/internal/procfs"
	"github.com/xmodern/procbridge/pkg/models"
)

// ProcessSource enumerates processes and resolves their display names
type ProcessSource interface {
	// ListProcesses returns the processes visible right now. Per-process
	// failures are skipped; an error means the whole enumeration failed.
	ListProcesses() ([]models.ProcessRecord, error)

	// ProcessName resolves a display name, falling back to
	// models.UnknownProcessName. It never fails.
	ProcessName(pid string) string

	// ProcessDetail returns the extended view of one process, or
	// procfs.ErrProcessNotFound when it does not exist.
	ProcessDetail(pid int) (*models.ProcessDetail, error)
}

// ProcessCollector lists processes through a ProcessSource
type ProcessCollector struct {
	BaseCollector
	source     ProcessSource
	sourceName string
}

// NewProcessCollector creates a ProcessCollector over an explicit source
func NewProcessCollector(source ProcessSource, sourceName string, logger *zap.Logger) *ProcessCollector {
	return &ProcessCollector{
		BaseCollector: NewBaseCollector(logger),
		source:        source,
		sourceName:    sourceName,
	}
}

// NewProcessCollectorFromConfig picks the source named by cfg.Source.
// "auto" uses the proc tree when cfg.ProcRoot is a mounted procfs or has
// been moved off the default, and gopsutil otherwise.
func NewProcessCollectorFromConfig(cfg *config.Config, logger *zap.Logger) (*ProcessCollector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := NewBaseCollector(logger)

	kind := cfg.Source
	if kind == config.SourceAuto {
		switch {
		case isProcFS(cfg.ProcRoot):
			kind = config.SourceProcfs
		case cfg.ProcRoot != procfs.DefaultRoot:
			// An explicit root is a fixture or a chroot; gopsutil would ignore it
			base.LogWarning("Process root is not a procfs mount, reading it as a proc tree",
				zap.String(logging.KeyRoot, cfg.ProcRoot))
			kind = config.SourceProcfs
		default:
			kind = config.SourcePsutil
		}
	}

	var source ProcessSource
	switch kind {
	case config.SourceProcfs:
		source = procfs.NewOSReader(cfg.ProcRoot, base.Logger())
	case config.SourcePsutil:
		source = NewPsutilSource(base.Logger())
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownSource, kind)
	}

	base.LogDebug("Process source selected",
		zap.String(logging.KeySource, kind),
		zap.String(logging.KeyRoot, cfg.ProcRoot))

	return &ProcessCollector{
		BaseCollector: base,
		source:        source,
		sourceName:    kind,
	}, nil
}

// Name returns the collector's name
func (p *ProcessCollector) Name() string {
	return "processes"
}

// SourceName returns the name of the underlying process source
func (p *ProcessCollector) SourceName() string {
	return p.sourceName
}

// Collect gathers the process list and returns []models.ProcessRecord.
// The slice is never nil, even alongside an error.
func (p *ProcessCollector) Collect() (interface{}, error) {
	p.LogDebug("Starting process collection", zap.String(logging.KeySource, p.sourceName))

	processes, err := p.source.ListProcesses()
	if processes == nil {
		processes = []models.ProcessRecord{}
	}
	if err != nil {
		return processes, fmt.Errorf("failed to list processes: %w", err)
	}

	p.LogDebug("Process collection completed", zap.Int(logging.KeyCount, len(processes)))
	return processes, nil
}

// Processes returns the current process list, logging and swallowing any
// enumeration failure
func (p *ProcessCollector) Processes() []models.ProcessRecord {
	result, err := p.Collect()
	if err != nil {
		p.LogWarning("Process enumeration failed",
			zap.String(logging.KeySource, p.sourceName),
			zap.Bool("rootUnavailable", errors.Is(err, procfs.ErrRootUnavailable)),
			zap.Error(err))
	}
	return result.([]models.ProcessRecord)
}

// ProcessName resolves the display name for a single PID
func (p *ProcessCollector) ProcessName(pid string) string {
	return p.source.ProcessName(pid)
}

// ProcessDetail returns the extended view of a single process
func (p *ProcessCollector) ProcessDetail(pid int) (*models.ProcessDetail, error) {
	detail, err := p.source.ProcessDetail(pid)
	if err != nil && !errors.Is(err, procfs.ErrProcessNotFound) {
		p.LogWarning("Process detail failed",
			zap.String(logging.KeySource, p.sourceName),
			zap.Int("pid", pid),
			zap.Error(err))
	}
	return detail, err
}
