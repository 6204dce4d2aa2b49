package procfs

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"
)

// linkFs adds symlink resolution from a fixed table to an in-memory Fs
type linkFs struct {
	afero.Fs
	links map[string]string
}

func (l linkFs) ReadlinkIfPossible(name string) (string, error) {
	if target, ok := l.links[name]; ok {
		return target, nil
	}
	return "", &os.PathError{Op: "readlink", Path: name, Err: os.ErrPermission}
}

const detailStatus = `Name:	app
Umask:	0077
State:	S (sleeping)
Tgid:	1234
Pid:	1234
PPid:	1
Uid:	10123	10123	10123	10123
Gid:	10123	10123	10123	10123
Threads:	4
`

// comm contains spaces and parentheses to exercise the last-')' split
const detailStat = "1234 (my (odd) app) S 1 1234 1234 0 -1 4194560 100 0 0 0 5 3 0 0 20 -5 4 0 50000 1000\n"

func writeDetailFixture(t *testing.T, fs afero.Fs) {
	t.Helper()
	writeProcFile(t, fs, "1234", "cmdline", "com.example.app\x00")
	writeProcFile(t, fs, "1234", "status", detailStatus)
	writeProcFile(t, fs, "1234", "stat", detailStat)
	writeProcFile(t, fs, "1234", "oom_score", "42\n")
	if err := afero.WriteFile(fs, filepath.Join(DefaultRoot, "uptime"), []byte("4161.25 9000.50\n"), 0o644); err != nil {
		t.Fatalf("write uptime: %v", err)
	}
}

func TestProcessDetail(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeDetailFixture(t, mem)
	fs := linkFs{Fs: mem, links: map[string]string{
		filepath.Join(DefaultRoot, "1234", "exe"): "/system/bin/app_process64",
	}}
	r := NewReader(fs, "", zaptest.NewLogger(t))

	got, err := r.ProcessDetail(1234)
	if err != nil {
		t.Fatalf("ProcessDetail failed: %v", err)
	}

	checks := []struct {
		field, got, want string
	}{
		{"Name", got.Name, "com.example.app"},
		{"PPID", got.PPID, "1"},
		{"User", got.User, "10123"},
		{"State", got.State, "S (sleeping)"},
		{"Threads", got.Threads, "4"},
		{"Priority", got.Priority, "20"},
		{"Nice", got.Nice, "-5"},
		{"OomScore", got.OomScore, "42"},
		// 4161s uptime - 50000 ticks / 100
		{"ElapsedTime", got.ElapsedTime, "01:01:01"},
		{"ExePath", got.ExePath, "/system/bin/app_process64"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if got.PID != 1234 {
		t.Errorf("PID = %d, want 1234", got.PID)
	}
}

func TestProcessDetail_Placeholders(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkProcDir(t, fs, "77")
	r := NewReader(fs, "", zaptest.NewLogger(t))

	got, err := r.ProcessDetail(77)
	if err != nil {
		t.Fatalf("ProcessDetail failed: %v", err)
	}
	if got.Name != "Unknown" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.OomScore != NotAvailable {
		t.Errorf("OomScore = %q, want %q", got.OomScore, NotAvailable)
	}
	if got.ExePath != ExePathUnavailable {
		t.Errorf("ExePath = %q, want %q", got.ExePath, ExePathUnavailable)
	}
	if got.ElapsedTime != "00:00:00" || got.Nice != "0" || got.Priority != "0" {
		t.Errorf("unexpected defaults %+v", got)
	}
}

func TestProcessDetail_UnreadableSources(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeDetailFixture(t, mem)
	r := NewReader(denyFs{Fs: mem, deny: "oom_score"}, "", zaptest.NewLogger(t))

	got, err := r.ProcessDetail(1234)
	if err != nil {
		t.Fatalf("ProcessDetail failed: %v", err)
	}
	if got.OomScore != NotAvailable {
		t.Errorf("OomScore = %q, want placeholder", got.OomScore)
	}
	// MemMapFs cannot resolve links
	if got.ExePath != ExePathUnavailable {
		t.Errorf("ExePath = %q, want placeholder", got.ExePath)
	}
	if got.State != "S (sleeping)" {
		t.Errorf("State = %q", got.State)
	}
}

func TestProcessDetail_NotFound(t *testing.T) {
	r := NewReader(afero.NewMemMapFs(), "", zaptest.NewLogger(t))

	for _, pid := range []int{99, -1} {
		if _, err := r.ProcessDetail(pid); !errors.Is(err, ErrProcessNotFound) {
			t.Errorf("ProcessDetail(%d) = %v, want ErrProcessNotFound", pid, err)
		}
	}
}

func TestStatFields(t *testing.T) {
	tail, err := statFields(detailStat)
	if err != nil {
		t.Fatalf("statFields failed: %v", err)
	}
	if tail[0] != "S" || tail[19] != "50000" {
		t.Errorf("unexpected fields %v", tail)
	}

	if _, err := statFields("1234 no paren"); err == nil {
		t.Error("expected error without ')'")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := map[uint64]string{
		0:      "00:00:00",
		59:     "00:00:59",
		3661:   "01:01:01",
		360000: "100:00:00",
	}
	for in, want := range tests {
		if got := FormatElapsed(in); got != want {
			t.Errorf("FormatElapsed(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestOSReader_DetailOfSelf(t *testing.T) {
	if _, err := os.Stat("/proc/self/status"); err != nil {
		t.Skip("no proc filesystem on this host")
	}
	r := NewOSReader(DefaultRoot, zaptest.NewLogger(t))

	got, err := r.ProcessDetail(os.Getpid())
	if err != nil {
		t.Fatalf("ProcessDetail(self) failed: %v", err)
	}
	if got.PPID != strconv.Itoa(os.Getppid()) {
		t.Errorf("PPID = %q, want %d", got.PPID, os.Getppid())
	}
	if got.ExePath == ExePathUnavailable {
		t.Error("own executable should be readable")
	}
	t.Logf("self: %+v", got)
}
