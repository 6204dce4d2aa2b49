package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xmodern/procbridge/internal/bridge"
	"github.com/xmodern/procbridge/internal/config"
	"github.com/xmodern/procbridge/internal/logging"
	"github.com/xmodern/procbridge/internal/procfs"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:          "procbridge",
	Short:        "Process listing bridge",
	Long:         `procbridge lists and inspects running processes and reports system snapshots as JSON, the same way the native library does for the host application.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "procbridge %s\n", version)
		fmt.Fprintf(out, "Commit: %s\n", commit)
		fmt.Fprintf(out, "Built: %s\n", buildDate)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the process list as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, logger, err := newBridge(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		printJSON(cmd, b.ProcessListJSON())
		return nil
	},
}

var nameCmd = &cobra.Command{
	Use:   "name [pid]",
	Short: "Print the resolved name of one process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := procfs.ParsePID(args[0]); !ok {
			return fmt.Errorf("invalid pid %q", args[0])
		}

		b, logger, err := newBridge(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		fmt.Fprintln(cmd.OutOrStdout(), b.ProcessName(args[0]))
		return nil
	},
}

var detailCmd = &cobra.Command{
	Use:   "detail [pid]",
	Short: "Print the extended view of one process as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, ok := procfs.ParsePID(args[0])
		if !ok {
			return fmt.Errorf("invalid pid %q", args[0])
		}

		b, logger, err := newBridge(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		printJSON(cmd, b.ProcessDetailJSON(pid))
		return nil
	},
}

var signalCmd = &cobra.Command{
	Use:   "signal [pid] [signal]",
	Short: "Send a numeric signal to a process (0 checks existence)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, ok := procfs.ParsePID(args[0])
		if !ok {
			return fmt.Errorf("invalid pid %q", args[0])
		}
		sig, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid signal %q", args[1])
		}

		b, logger, err := newBridge(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		if !b.SendSignal(pid, sig) {
			return fmt.Errorf("signal %d not delivered to pid %d", sig, pid)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "true")
		return nil
	},
}

var freeRAMCmd = &cobra.Command{
	Use:   "free-ram",
	Short: "Print total minus used physical memory in bytes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, logger, err := newBridge(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		fmt.Fprintln(cmd.OutOrStdout(), b.FreeRAM())
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:       "snapshot [memory|cpu|disk|net]",
	Short:     "Print a system snapshot as JSON",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"memory", "cpu", "disk", "net"},
	RunE: func(cmd *cobra.Command, args []string) error {
		b, logger, err := newBridge(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		var out string
		switch args[0] {
		case "memory":
			out = b.MemorySnapshotJSON()
		case "cpu":
			out = b.CPUSnapshotJSON()
		case "disk":
			mount, _ := cmd.Flags().GetString("mount")
			out = b.DiskSnapshotJSON(mount)
		case "net":
			out = b.NetSnapshotJSON()
		}
		printJSON(cmd, out)
		return nil
	},
}

var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Print the bridge greeting",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), bridge.Greeting)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(detailCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(freeRAMCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(helloCmd)

	for _, c := range []*cobra.Command{listCmd, detailCmd, snapshotCmd} {
		c.Flags().Bool("pretty", false, "Indent the JSON output")
	}
	snapshotCmd.Flags().String("mount", "/", "Mount point for the disk snapshot")

	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file path")
	rootCmd.PersistentFlags().String("proc-root", "", "Override the process-information root")
	rootCmd.PersistentFlags().String("source", "", "Process source: auto, procfs or psutil")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newBridge loads configuration, applies flag overrides and builds a bridge
func newBridge(cmd *cobra.Command) (*bridge.Bridge, *zap.Logger, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if root, _ := cmd.Flags().GetString("proc-root"); root != "" {
		cfg.ProcRoot = root
	}
	if source, _ := cmd.Flags().GetString("source"); source != "" {
		cfg.Source = source
	}

	logger, err := logging.FromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	b, err := bridge.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up process source: %w", err)
	}
	return b, logger, nil
}

// printJSON writes out, indented when --pretty is set
func printJSON(cmd *cobra.Command, out string) {
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(out), "", "  "); err == nil {
			out = buf.String()
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
}
