package models

// UnknownProcessName is reported when no name source for a process is readable
const UnknownProcessName = "Unknown"

// ProcessRecord represents a single process as seen by one enumeration pass.
// Records are rebuilt on every call and never cached.
type ProcessRecord struct {
	PID      int    `json:"pid"`
	Name     string `json:"name"`
	RAMUsage int64  `json:"ram_usage"` // always 0, not collected
}

// NewProcessRecord builds a record with the memory placeholder zeroed
func NewProcessRecord(pid int, name string) ProcessRecord {
	return ProcessRecord{
		PID:  pid,
		Name: name,
	}
}

// ProcessDetail represents the extended view of a single process
type ProcessDetail struct {
	PID         int    `json:"pid"`
	Name        string `json:"name"`
	PPID        string `json:"ppid"`
	User        string `json:"user"`  // real uid
	State       string `json:"state"` // e.g. "S (sleeping)"
	Threads     string `json:"threads"`
	Nice        string `json:"nice"`
	Priority    string `json:"priority"`
	OomScore    string `json:"oomScore"`
	ElapsedTime string `json:"elapsedTime"` // HH:MM:SS since start
	ExePath     string `json:"exePath"`
}

// MemorySnapshot represents system-wide memory usage
type MemorySnapshot struct {
	TotalBytes          uint64 `json:"totalBytes"`
	UsedBytes           uint64 `json:"usedBytes"`
	AvailableBytes      uint64 `json:"availableBytes"`
	CachedBytes         uint64 `json:"cachedBytes"`
	CommittedUsedBytes  uint64 `json:"committedUsedBytes"`
	CommittedLimitBytes uint64 `json:"committedLimitBytes"`
	SwapTotalBytes      uint64 `json:"swapTotalBytes"`
	SwapUsedBytes       uint64 `json:"swapUsedBytes"`
	TimestampMs         int64  `json:"timestampMs"`
	Error               string `json:"error"`
}

// CPUSnapshot represents system-wide CPU utilization
type CPUSnapshot struct {
	CPUName       string    `json:"cpuName"`
	CoresPhysical int       `json:"coresPhysical"`
	CoresLogical  int       `json:"coresLogical"`
	UsagePercent  float64   `json:"usagePercent"`
	PerCore       []float64 `json:"perCore,omitempty"`
	MaxFreqMHz    float64   `json:"maxFreqMHz"`
	Processes     int       `json:"processes"`
	UptimeSeconds uint64    `json:"uptimeSeconds"`
	LoadAvg       []float64 `json:"loadAvg,omitempty"` // 1, 5, 15 min
	TimestampMs   int64     `json:"timestampMs"`
	Error         string    `json:"error"`
}

// DiskSnapshot represents usage and cumulative I/O for one mount point
type DiskSnapshot struct {
	MountPoint     string `json:"mountPoint"`
	BlockDevice    string `json:"blockDevice"`
	TotalBytes     uint64 `json:"totalBytes"`
	UsedBytes      uint64 `json:"usedBytes"`
	AvailableBytes uint64 `json:"availableBytes"`
	ReadBytes      uint64 `json:"readBytes"`
	WriteBytes     uint64 `json:"writeBytes"`
	TimestampMs    int64  `json:"timestampMs"`
	Error          string `json:"error"`
}

// NetSnapshot represents cumulative network I/O across all interfaces
type NetSnapshot struct {
	Iface       string `json:"iface"`
	RxBytes     uint64 `json:"rxBytes"`
	TxBytes     uint64 `json:"txBytes"`
	RxPackets   uint64 `json:"rxPackets"`
	TxPackets   uint64 `json:"txPackets"`
	TimestampMs int64  `json:"timestampMs"`
	Error       string `json:"error"`
}
