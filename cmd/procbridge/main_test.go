package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"strconv"
	"testing"

	"github.com/spf13/cobra"

	"github.com/xmodern/procbridge/internal/bridge"
)

// run executes the CLI with args, resetting flags left over from earlier runs
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, f := range []string{"config", "proc-root", "source"} {
		if err := rootCmd.PersistentFlags().Set(f, ""); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range []*cobra.Command{listCmd, detailCmd, snapshotCmd} {
		if err := c.Flags().Set("pretty", "false"); err != nil {
			t.Fatal(err)
		}
	}
	if err := snapshotCmd.Flags().Set("mount", "/"); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func fakeProcTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"1/cmdline":  "/init\x00",
		"42/cmdline": "com.example.app\x00--flag",
		"5/cmdline":  "",
		"5/comm":     "kworker/0:1\n",
		"42/status":  "State:\tS (sleeping)\nPPid:\t1\nUid:\t10123\t10123\t10123\t10123\nThreads:\t3\n",
	}
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "self"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestHelloCommand(t *testing.T) {
	out, err := run(t, "hello")
	if err != nil {
		t.Fatalf("hello failed: %v", err)
	}
	if strings.TrimSpace(out) != bridge.Greeting {
		t.Errorf("hello printed %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "procbridge dev") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestListCommand(t *testing.T) {
	root := fakeProcTree(t)

	out, err := run(t, "list", "--source", "procfs", "--proc-root", root)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var records []struct {
		PID      int    `json:"pid"`
		Name     string `json:"name"`
		RAMUsage int64  `json:"ram_usage"`
	}
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}

	got := map[int]string{}
	for _, r := range records {
		got[r.PID] = r.Name
		if r.RAMUsage != 0 {
			t.Errorf("PID %d ram_usage = %d", r.PID, r.RAMUsage)
		}
	}
	want := map[int]string{1: "/init", 5: "kworker/0:1", 42: "com.example.app"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for pid, name := range want {
		if got[pid] != name {
			t.Errorf("PID %d = %q, want %q", pid, got[pid], name)
		}
	}
}

func TestListCommandPretty(t *testing.T) {
	root := fakeProcTree(t)

	out, err := run(t, "list", "--pretty", "--source", "procfs", "--proc-root", root)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "\n  {") {
		t.Errorf("expected indented output, got %q", out)
	}
}

func TestListCommandMissingRoot(t *testing.T) {
	out, err := run(t, "list", "--source", "procfs", "--proc-root", filepath.Join(t.TempDir(), "gone"))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.TrimSpace(out) != bridge.EmptyList {
		t.Errorf("expected empty list, got %q", out)
	}
}

func TestNameCommand(t *testing.T) {
	root := fakeProcTree(t)

	out, err := run(t, "name", "42", "--source", "procfs", "--proc-root", root)
	if err != nil {
		t.Fatalf("name failed: %v", err)
	}
	if strings.TrimSpace(out) != "com.example.app" {
		t.Errorf("name printed %q", out)
	}
}

func TestNameCommandRejectsInvalidPID(t *testing.T) {
	if _, err := run(t, "name", "self"); err == nil {
		t.Fatal("expected error for non-numeric pid")
	}
}

func TestUnknownSource(t *testing.T) {
	if _, err := run(t, "list", "--source", "wmi"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestDetailCommand(t *testing.T) {
	root := fakeProcTree(t)

	out, err := run(t, "detail", "42", "--source", "procfs", "--proc-root", root)
	if err != nil {
		t.Fatalf("detail failed: %v", err)
	}

	var detail map[string]interface{}
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("detail output is not JSON: %v\n%s", err, out)
	}
	if detail["name"] != "com.example.app" || detail["ppid"] != "1" || detail["user"] != "10123" {
		t.Errorf("unexpected detail %v", detail)
	}

	out, err = run(t, "detail", "999", "--source", "procfs", "--proc-root", root)
	if err != nil {
		t.Fatalf("detail of missing pid failed: %v", err)
	}
	if strings.TrimSpace(out) != bridge.EmptyObject {
		t.Errorf("detail of missing pid = %q, want %q", out, bridge.EmptyObject)
	}

	if _, err := run(t, "detail", "-3"); err == nil {
		t.Error("expected error for negative pid")
	}
}

func TestSignalCommand(t *testing.T) {
	out, err := run(t, "signal", strconv.Itoa(os.Getpid()), "0")
	if err != nil {
		t.Fatalf("signal 0 to self failed: %v", err)
	}
	if strings.TrimSpace(out) != "true" {
		t.Errorf("signal output = %q", out)
	}

	if _, err := run(t, "signal", strconv.Itoa(os.Getpid()), "TERM"); err == nil {
		t.Error("expected error for non-numeric signal")
	}
	if _, err := run(t, "signal", "0", "9"); err == nil {
		t.Error("expected error for pid 0")
	}
}

func TestSnapshotCommand(t *testing.T) {
	for _, kind := range []string{"memory", "disk", "net"} {
		out, err := run(t, "snapshot", kind)
		if err != nil {
			t.Fatalf("snapshot %s failed: %v", kind, err)
		}
		var snap map[string]interface{}
		if err := json.Unmarshal([]byte(out), &snap); err != nil {
			t.Fatalf("snapshot %s is not JSON: %v\n%s", kind, err, out)
		}
		if _, ok := snap["timestampMs"]; !ok {
			t.Errorf("snapshot %s missing timestampMs: %v", kind, snap)
		}
	}

	if _, err := run(t, "snapshot", "gpu"); err == nil {
		t.Error("expected error for unknown snapshot kind")
	}
}

func TestFreeRAMCommand(t *testing.T) {
	out, err := run(t, "free-ram")
	if err != nil {
		t.Fatalf("free-ram failed: %v", err)
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64); err != nil {
		t.Errorf("free-ram output %q is not an integer", out)
	}
}
