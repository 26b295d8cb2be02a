package cmd

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/metal-toolbox/hwqa/internal/collect"
	"github.com/metal-toolbox/hwqa/internal/configuration"
	"github.com/metal-toolbox/hwqa/internal/log"
	"github.com/metal-toolbox/hwqa/internal/model"
)

var (
	baselineOutput      string
	baselineVersion     string
	baselineDescription string
)

// baselineCmd represents the baseline command
var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Capture the current hardware inventory as a golden baseline",
	Run: func(cmd *cobra.Command, _ []string) {
		if err := captureBaseline(cmd); err != nil {
			os.Exit(3)
		}
	},
}

func init() {
	rootCmd.AddCommand(baselineCmd)

	baselineCmd.Flags().
		StringVarP(&baselineOutput, "output", "o", "baseline_config.json", "file to write the baseline document to")

	baselineCmd.Flags().
		StringVar(&baselineVersion, "version", "1.0", "baseline document version")

	baselineCmd.Flags().
		StringVar(&baselineDescription, "description", "", "free-form description of the golden unit")
}

func captureBaseline(cmd *cobra.Command) error {
	config, err := configuration.Load(args)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return err
	}

	log.SetLevel(config.LogLevel)

	collector := collect.NewCommandCollector(collect.NewCommandRunner(), collect.BMCArgs{
		Host: config.BMC.Host,
		User: config.BMC.User,
		Pass: config.BMC.Pass,
	})

	snapshot, err := collector.Snapshot(cmd.Context())
	if err != nil {
		slog.Error("Failed to collect hardware snapshot", "error", err)
		return err
	}

	baseline := &model.Baseline{
		BoardModel:       config.BoardModel,
		BaselineDate:     time.Now().Format("2006-01-02 15:04:05"),
		BaselineVersion:  baselineVersion,
		Description:      baselineDescription,
		HardwareSnapshot: *snapshot,
	}

	data, err := json.MarshalIndent(baseline, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal baseline", "error", err)
		return err
	}

	if err := os.WriteFile(baselineOutput, data, 0o640); err != nil {
		slog.Error("Failed to write baseline document", "error", err)
		return err
	}

	slog.With(snapshot.AsLogFields()...).Info("Baseline captured", "output", baselineOutput, "boardModel", config.BoardModel)

	return nil
}
