package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/metal-toolbox/hwqa/internal/collect"
	"github.com/metal-toolbox/hwqa/internal/configuration"
	"github.com/metal-toolbox/hwqa/internal/log"
	"github.com/metal-toolbox/hwqa/internal/sensors"
	"github.com/metal-toolbox/hwqa/internal/store"
)

// sensorsCmd represents the sensors command
var sensorsCmd = &cobra.Command{
	Use:   "sensors <readings.json>",
	Short: "Validate saved BMC sensor readings against the published limits",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, cmdArgs []string) {
		os.Exit(runSensors(cmd, cmdArgs[0]))
	},
}

func init() {
	rootCmd.AddCommand(sensorsCmd)
}

func runSensors(cmd *cobra.Command, readingsPath string) int {
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

	limits, err := repository.Limits(cmd.Context())
	if err != nil {
		slog.Error("Failed to load sensor limits", "error", err)
		return 3
	}

	collector := &collect.FileCollector{ReadingsPath: readingsPath}

	readings, err := collector.SensorReadings(cmd.Context())
	if err != nil {
		slog.Error("Failed to read sensor readings", "error", err)
		return 3
	}

	report := sensors.Validate(readings, limits, config.LimitsFile)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal report", "error", err)
		return 3
	}

	fmt.Println(string(out))

	return report.OverallStatus.ExitCode()
}
