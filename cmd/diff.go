package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/metal-toolbox/hwqa/internal/collect"
	"github.com/metal-toolbox/hwqa/internal/configuration"
	"github.com/metal-toolbox/hwqa/internal/diff"
	"github.com/metal-toolbox/hwqa/internal/log"
	"github.com/metal-toolbox/hwqa/internal/store"
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff <snapshot.json>",
	Short: "Compare a saved hardware snapshot against the golden baseline",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, cmdArgs []string) {
		os.Exit(runDiff(cmd, cmdArgs[0]))
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, snapshotPath string) int {
	config, err := configuration.Load(args)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 3
	}

	log.SetLevel(config.LogLevel)

	repository, err := store.NewRepository(config)
	if err != nil {
		slog.Error("Failed to create repository", "error", err)
		return 3
	}

	baseline, err := repository.Baseline(cmd.Context())
	if err != nil {
		slog.Error("Failed to load baseline", "error", err)
		return 3
	}

	collector := &collect.FileCollector{SnapshotPath: snapshotPath}

	snapshot, err := collector.Snapshot(cmd.Context())
	if err != nil {
		slog.Error("Failed to read snapshot", "error", err)
		return 3
	}

	report := diff.Compare(&baseline.HardwareSnapshot, snapshot, baseline.BaselineDate)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal report", "error", err)
		return 3
	}

	fmt.Println(string(out))

	return report.OverallStatus.ExitCode()
}
