package collector

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/xmodern/procbridge/pkg/models"
)

// DefaultMountPoint is the mount reported by DiskSnapshot when none is given
const DefaultMountPoint = "/"

// systemStats is the set of gopsutil calls the snapshots are built from
type systemStats struct {
	virtualMemory func() (*mem.VirtualMemoryStat, error)
	swapMemory    func() (*mem.SwapMemoryStat, error)
	cpuInfo       func() ([]cpu.InfoStat, error)
	cpuCounts     func(logical bool) (int, error)
	cpuPercent    func(interval time.Duration, percpu bool) ([]float64, error)
	loadAvg       func() (*load.AvgStat, error)
	uptime        func() (uint64, error)
	pids          func() ([]int32, error)
	partitions    func(all bool) ([]disk.PartitionStat, error)
	diskUsage     func(path string) (*disk.UsageStat, error)
	diskIO        func(names ...string) (map[string]disk.IOCountersStat, error)
	netIO         func(pernic bool) ([]psnet.IOCountersStat, error)
}

func hostStats() systemStats {
	return systemStats{
		virtualMemory: mem.VirtualMemory,
		swapMemory:    mem.SwapMemory,
		cpuInfo:       cpu.Info,
		cpuCounts:     cpu.Counts,
		cpuPercent:    cpu.Percent,
		loadAvg:       load.Avg,
		uptime:        host.Uptime,
		pids:          process.Pids,
		partitions:    disk.Partitions,
		diskUsage:     disk.Usage,
		diskIO:        disk.IOCounters,
		netIO:         psnet.IOCounters,
	}
}

// MetricsCollector takes system-wide memory, CPU, disk and network
// snapshots. A failed source is reported in the snapshot's Error field
// rather than as a Go error, so every snapshot can be serialized.
type MetricsCollector struct {
	BaseCollector
	// cpuInterval is the duration to wait when measuring CPU percentage
	cpuInterval time.Duration
	stats       systemStats
	now         func() time.Time
}

// NewMetricsCollector creates a new MetricsCollector with the given logger
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	return &MetricsCollector{
		BaseCollector: NewBaseCollector(logger),
		cpuInterval:   200 * time.Millisecond,
		stats:         hostStats(),
		now:           time.Now,
	}
}

// Name returns the collector's name
func (m *MetricsCollector) Name() string {
	return "metrics"
}

// Collect takes every snapshot and returns them keyed by kind
func (m *MetricsCollector) Collect() (interface{}, error) {
	m.LogDebug("Starting metrics collection")

	snapshots := map[string]interface{}{
		"memory": m.MemorySnapshot(),
		"cpu":    m.CPUSnapshot(),
		"disk":   m.DiskSnapshot(DefaultMountPoint),
		"net":    m.NetSnapshot(),
	}

	var failed []string
	for kind, snap := range snapshots {
		if msg := snapshotError(snap); msg != "" {
			failed = append(failed, fmt.Sprintf("%s: %s", kind, msg))
		}
	}

	m.LogDebug("Metrics collection completed", zap.Int("errors", len(failed)))

	// Return error only if all collections failed
	if len(failed) == len(snapshots) {
		return snapshots, fmt.Errorf("all metrics collectors failed: %v", failed)
	}
	return snapshots, nil
}

func snapshotError(snap interface{}) string {
	switch s := snap.(type) {
	case models.MemorySnapshot:
		return s.Error
	case models.CPUSnapshot:
		return s.Error
	case models.DiskSnapshot:
		return s.Error
	case models.NetSnapshot:
		return s.Error
	}
	return ""
}

// MemorySnapshot reports physical memory, commit charge and swap
func (m *MetricsCollector) MemorySnapshot() models.MemorySnapshot {
	snap := models.MemorySnapshot{TimestampMs: m.now().UnixMilli()}

	vmem, err := m.stats.virtualMemory()
	if err != nil {
		m.LogWarning("Failed to get memory stats", zap.Error(err))
		snap.Error = fmt.Sprintf("failed to get memory stats: %v", err)
		return snap
	}

	snap.TotalBytes = vmem.Total
	snap.UsedBytes = vmem.Used
	snap.AvailableBytes = vmem.Available
	snap.CachedBytes = vmem.Cached
	snap.CommittedUsedBytes = vmem.CommittedAS
	snap.CommittedLimitBytes = vmem.CommitLimit

	swap, err := m.stats.swapMemory()
	if err != nil {
		m.LogWarning("Failed to get swap memory stats", zap.Error(err))
	} else {
		snap.SwapTotalBytes = swap.Total
		snap.SwapUsedBytes = swap.Used
	}

	return snap
}

// FreeRAM returns total minus used physical memory in bytes, or -1 when
// memory stats are unavailable
func (m *MetricsCollector) FreeRAM() int64 {
	vmem, err := m.stats.virtualMemory()
	if err != nil {
		m.LogWarning("Failed to get memory stats", zap.Error(err))
		return -1
	}
	if vmem.Used > vmem.Total {
		return 0
	}
	return int64(vmem.Total - vmem.Used)
}

// CPUSnapshot reports utilization over a short sampling window plus CPU
// identity, process count, uptime and load average
func (m *MetricsCollector) CPUSnapshot() models.CPUSnapshot {
	snap := models.CPUSnapshot{TimestampMs: m.now().UnixMilli()}

	// Blocks for cpuInterval
	percentages, err := m.stats.cpuPercent(m.cpuInterval, false)
	if err != nil {
		m.LogWarning("Failed to get CPU percentage", zap.Error(err))
		snap.Error = fmt.Sprintf("failed to get CPU percentage: %v", err)
		return snap
	}
	if len(percentages) > 0 {
		snap.UsagePercent = percentages[0]
	}

	// 0 duration = delta since the call above
	if perCore, err := m.stats.cpuPercent(0, true); err != nil {
		m.LogWarning("Failed to get per-core CPU percentages", zap.Error(err))
	} else {
		snap.PerCore = perCore
	}

	if info, err := m.stats.cpuInfo(); err != nil {
		m.LogDebug("CPU info unavailable", zap.Error(err))
	} else if len(info) > 0 {
		snap.CPUName = strings.TrimSpace(info[0].ModelName)
		for _, ci := range info {
			if ci.Mhz > snap.MaxFreqMHz {
				snap.MaxFreqMHz = ci.Mhz
			}
		}
	}

	if n, err := m.stats.cpuCounts(false); err == nil {
		snap.CoresPhysical = n
	}
	if n, err := m.stats.cpuCounts(true); err == nil {
		snap.CoresLogical = n
	}

	if pids, err := m.stats.pids(); err != nil {
		m.LogWarning("Failed to get process list", zap.Error(err))
	} else {
		snap.Processes = len(pids)
	}

	if up, err := m.stats.uptime(); err == nil {
		snap.UptimeSeconds = up
	}

	// Load average is not available on Windows
	if runtime.GOOS != "windows" {
		if avg, err := m.stats.loadAvg(); err != nil {
			m.LogWarning("Failed to get load average", zap.Error(err))
		} else {
			snap.LoadAvg = []float64{avg.Load1, avg.Load5, avg.Load15}
		}
	}

	return snap
}

// DiskSnapshot reports usage of the filesystem mounted at mountPoint and
// the cumulative I/O of its block device
func (m *MetricsCollector) DiskSnapshot(mountPoint string) models.DiskSnapshot {
	if mountPoint == "" {
		mountPoint = DefaultMountPoint
	}
	snap := models.DiskSnapshot{
		MountPoint:  mountPoint,
		TimestampMs: m.now().UnixMilli(),
	}

	usage, err := m.stats.diskUsage(mountPoint)
	if err != nil {
		m.LogWarning("Failed to get disk usage",
			zap.String("mountPoint", mountPoint),
			zap.Error(err))
		snap.Error = fmt.Sprintf("failed to get disk usage: %v", err)
		return snap
	}
	snap.TotalBytes = usage.Total
	snap.UsedBytes = usage.Used
	snap.AvailableBytes = usage.Free

	partitions, err := m.stats.partitions(false)
	if err != nil {
		m.LogWarning("Failed to get disk partitions", zap.Error(err))
		return snap
	}
	for _, partition := range partitions {
		if partition.Mountpoint == mountPoint {
			snap.BlockDevice = partition.Device
			break
		}
	}
	if snap.BlockDevice == "" {
		return snap
	}

	deviceName := getDeviceName(snap.BlockDevice)
	ioCounters, err := m.stats.diskIO(deviceName)
	if err != nil {
		m.LogWarning("Failed to get disk I/O counters",
			zap.String("device", snap.BlockDevice),
			zap.Error(err))
		return snap
	}
	if counter, ok := ioCounters[deviceName]; ok {
		snap.ReadBytes = counter.ReadBytes
		snap.WriteBytes = counter.WriteBytes
	}

	return snap
}

// getDeviceName extracts the base device name from a device path:
// /dev/sda1 -> sda, /dev/nvme0n1p1 -> nvme0n1, /dev/mmcblk0p2 -> mmcblk0
func getDeviceName(devicePath string) string {
	if runtime.GOOS == "windows" || !strings.HasPrefix(devicePath, "/dev/") {
		return devicePath
	}

	name := strings.TrimPrefix(devicePath, "/dev/")
	trimmed := strings.TrimRight(name, "0123456789")
	// dm-0 and md0-style names are whole devices
	if trimmed == name || trimmed == "" || strings.HasSuffix(trimmed, "-") {
		return name
	}
	// nvme0n1p1 and mmcblk0p2 separate the partition number with 'p'
	if strings.HasSuffix(trimmed, "p") {
		base := strings.TrimSuffix(trimmed, "p")
		if base != "" && base[len(base)-1] >= '0' && base[len(base)-1] <= '9' {
			return base
		}
	}
	return trimmed
}

// NetSnapshot reports cumulative I/O summed over all interfaces
func (m *MetricsCollector) NetSnapshot() models.NetSnapshot {
	snap := models.NetSnapshot{
		Iface:       "all",
		TimestampMs: m.now().UnixMilli(),
	}

	// false = aggregate all interfaces
	ioCounters, err := m.stats.netIO(false)
	if err != nil {
		m.LogWarning("Failed to get network I/O counters", zap.Error(err))
		snap.Error = fmt.Sprintf("failed to get network I/O counters: %v", err)
		return snap
	}

	if len(ioCounters) > 0 {
		snap.RxBytes = ioCounters[0].BytesRecv
		snap.TxBytes = ioCounters[0].BytesSent
		snap.RxPackets = ioCounters[0].PacketsRecv
		snap.TxPackets = ioCounters[0].PacketsSent
	}

	return snap
}
