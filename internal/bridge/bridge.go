// Package bridge is the call boundary exposed to the host application.
// No entry point returns an error: process listing degrades to an empty
// JSON array, process detail to an empty object, and snapshots carry
// their failure in an "error" field.
package bridge

import (
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/xmodern/procbridge/internal/collector"
	"github.com/xmodern/procbridge/internal/config"
	"github.com/xmodern/procbridge/internal/logging"
	"github.com/xmodern/procbridge/internal/procctl"
	"github.com/xmodern/procbridge/internal/procfs"
	"github.com/xmodern/procbridge/pkg/models"
)

// Greeting is returned by Hello to confirm the call path is wired
const Greeting = "Hello from Rust Root Backend!"

// EmptyList is the JSON returned when no list can be produced
const EmptyList = "[]"

// EmptyObject is the JSON returned when no detail or snapshot can be produced
const EmptyObject = "{}"

// marshalJSON is swapped in tests to force the fallback branch
var marshalJSON = json.Marshal

// ProcessLister produces the current process list without failing
type ProcessLister interface {
	Processes() []models.ProcessRecord
	ProcessName(pid string) string
	ProcessDetail(pid int) (*models.ProcessDetail, error)
}

// SystemMonitor takes system-wide snapshots. Failures are carried in each
// snapshot's Error field.
type SystemMonitor interface {
	MemorySnapshot() models.MemorySnapshot
	CPUSnapshot() models.CPUSnapshot
	DiskSnapshot(mountPoint string) models.DiskSnapshot
	NetSnapshot() models.NetSnapshot
	FreeRAM() int64
}

// Signaler delivers signals to processes
type Signaler interface {
	Signal(pid, sig int) error
}

// Bridge serves the host-facing entry points
type Bridge struct {
	lister   ProcessLister
	monitor  SystemMonitor
	signaler Signaler
	logger   *zap.Logger
}

// Option customizes a Bridge
type Option func(*Bridge)

// WithMonitor replaces the gopsutil-backed system monitor
func WithMonitor(m SystemMonitor) Option {
	return func(b *Bridge) { b.monitor = m }
}

// WithSignaler replaces the host signaler
func WithSignaler(s Signaler) Option {
	return func(b *Bridge) { b.signaler = s }
}

// New creates a Bridge over lister. The system monitor and signaler
// default to the host implementations.
func New(lister ProcessLister, logger *zap.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		lister: lister,
		logger: logging.L(logger, "bridge"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.monitor == nil {
		b.monitor = collector.NewMetricsCollector(logging.L(logger, "metrics"))
	}
	if b.signaler == nil {
		b.signaler = procctl.NewSignaler(logging.L(logger, "procctl"))
	}
	return b
}

// NewFromConfig creates a Bridge whose process source follows cfg
func NewFromConfig(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Bridge, error) {
	pc, err := collector.NewProcessCollectorFromConfig(cfg, logging.L(logger, "collector"))
	if err != nil {
		return nil, err
	}
	return New(pc, logger, opts...), nil
}

// ProcessListJSON returns the current processes as a JSON array of
// {"pid","name","ram_usage"} objects, or EmptyList on any failure
func (b *Bridge) ProcessListJSON() string {
	processes := b.lister.Processes()
	b.logger.Debug("process list built", zap.Int(logging.KeyCount, len(processes)))
	return b.encode(processes)
}

// ProcessName returns the display name for one PID
func (b *Bridge) ProcessName(pid string) string {
	return b.lister.ProcessName(pid)
}

// Hello returns Greeting
func (b *Bridge) Hello() string {
	return Greeting
}

// ProcessDetailJSON returns the extended view of pid as a JSON object, or
// EmptyObject when the process is gone or cannot be inspected
func (b *Bridge) ProcessDetailJSON(pid int) string {
	detail, err := b.lister.ProcessDetail(pid)
	if err != nil {
		b.logger.Debug("process detail unavailable", zap.Int("pid", pid), zap.Error(err))
		return EmptyObject
	}
	return b.encodeObject("process detail", detail)
}

// SendSignal delivers sig to pid and reports whether it was accepted.
// Signal 0 checks existence only.
func (b *Bridge) SendSignal(pid, sig int) bool {
	if err := b.signaler.Signal(pid, sig); err != nil {
		b.logger.Info("signal not delivered",
			zap.Int("pid", pid),
			zap.Int("signal", sig),
			zap.Error(err))
		return false
	}
	return true
}

// FreeRAM returns total minus used physical memory in bytes, or -1 when
// it cannot be read
func (b *Bridge) FreeRAM() int64 {
	return b.monitor.FreeRAM()
}

// MemorySnapshotJSON returns the system memory snapshot as JSON
func (b *Bridge) MemorySnapshotJSON() string {
	return b.encodeObject("memory snapshot", b.monitor.MemorySnapshot())
}

// CPUSnapshotJSON returns the CPU snapshot as JSON. It blocks for the
// sampling window.
func (b *Bridge) CPUSnapshotJSON() string {
	return b.encodeObject("cpu snapshot", b.monitor.CPUSnapshot())
}

// DiskSnapshotJSON returns the snapshot of the filesystem at mountPoint
// ("" selects /) as JSON
func (b *Bridge) DiskSnapshotJSON(mountPoint string) string {
	return b.encodeObject("disk snapshot", b.monitor.DiskSnapshot(mountPoint))
}

// NetSnapshotJSON returns the aggregate network snapshot as JSON
func (b *Bridge) NetSnapshotJSON() string {
	return b.encodeObject("net snapshot", b.monitor.NetSnapshot())
}

func (b *Bridge) encodeObject(what string, v interface{}) string {
	data, err := marshalJSON(v)
	if err != nil {
		b.logger.Warn(what+" serialization failed, returning empty object", zap.Error(err))
		return EmptyObject
	}
	return string(data)
}

func (b *Bridge) encode(processes []models.ProcessRecord) string {
	out, ok := encodeProcessList(processes)
	if !ok {
		b.logger.Warn("process list serialization failed, returning empty list",
			zap.Int(logging.KeyCount, len(processes)))
	}
	return out
}

// EncodeProcessList serializes processes to a JSON array. A nil slice
// encodes as "[]", and any serialization failure yields EmptyList.
func EncodeProcessList(processes []models.ProcessRecord) string {
	out, _ := encodeProcessList(processes)
	return out
}

func encodeProcessList(processes []models.ProcessRecord) (string, bool) {
	if processes == nil {
		processes = []models.ProcessRecord{}
	}

	data, err := marshalJSON(processes)
	if err != nil {
		return EmptyList, false
	}
	return string(data), true
}

var (
	defaultOnce   sync.Once
	defaultBridge *Bridge
)

// Default returns the process-wide Bridge used by the native entry points.
// Configuration comes from the PROCBRIDGE_* environment and the optional
// config file. Logging stays silent unless PROCBRIDGE_LOG_LEVEL is set.
// If the configuration cannot be loaded the bridge falls back to reading
// /proc directly.
func Default() *Bridge {
	defaultOnce.Do(func() {
		defaultBridge = buildDefault()
	})
	return defaultBridge
}

func buildDefault() *Bridge {
	logger := zap.NewNop()

	cfg, cfgErr := config.Load("")
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	if _, ok := os.LookupEnv(config.EnvPrefix + "_LOG_LEVEL"); ok {
		if l, err := logging.FromConfig(cfg); err == nil {
			logger = l
		}
	}
	if cfgErr != nil {
		logger.Warn("failed to load config, using defaults", zap.Error(cfgErr))
	}

	b, err := NewFromConfig(cfg, logger)
	if err != nil {
		logger.Warn("failed to build process source, reading proc tree directly", zap.Error(err))
		reader := procfs.NewOSReader(procfs.DefaultRoot, logger)
		return New(collector.NewProcessCollector(reader, config.SourceProcfs, logger), logger)
	}
	return b
}
