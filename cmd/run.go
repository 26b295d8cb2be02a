package cmd

import (
	"context"
	"log/slog"
	_ "net/http/pprof" // nolint:gosec // profiling endpoint listens on localhost.
	"os"
	"os/signal"
	"syscall"

	"github.com/equinix-labs/otel-init-go/otelinit"
	"github.com/spf13/cobra"

	"github.com/metal-toolbox/hwqa/internal/bmc"
	"github.com/metal-toolbox/hwqa/internal/collect"
	"github.com/metal-toolbox/hwqa/internal/configuration"
	"github.com/metal-toolbox/hwqa/internal/harness"
	"github.com/metal-toolbox/hwqa/internal/log"
	"github.com/metal-toolbox/hwqa/internal/metrics"
	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/profiling"
	"github.com/metal-toolbox/hwqa/internal/report"
	"github.com/metal-toolbox/hwqa/internal/store"
	"github.com/metal-toolbox/hwqa/internal/version"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full bring-up QA harness against the unit under test",
	Run: func(cmd *cobra.Command, _ []string) {
		run, err := runHarness(cmd.Context(), args)
		if err != nil {
			os.Exit(3)
		}

		os.Exit(run.OverallStatus.ExitCode())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runHarness(ctx context.Context, args *model.Args) (*report.Run, error) {
	config, err := configuration.Load(args)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return nil, err
	}

	slog.Info("Configuration loaded", config.AsLogFields()...)

	log.SetLevel(config.LogLevel)

	// serve metrics endpoint
	metrics.ListenAndServe()
	version.ExportBuildInfoMetric()

	if config.EnableProfiling {
		profiling.Enable()
	}

	ctx, otelShutdown := otelinit.InitOpenTelemetry(ctx, model.AppName)
	defer otelShutdown(ctx)

	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Cancel the context when we receive a termination signal.
	go func() {
		s := <-termChan
		slog.Info("Received signal for termination, exiting...", "signal", s.String())
		cancel()
	}()

	repository, err := store.NewRepository(config)
	if err != nil {
		slog.Error("Failed to create repository", "error", err)
		return nil, err
	}

	run := report.NewRun(config.BoardModel)

	writer, err := report.NewWriter(config.ReportDir, run.RunID)
	if err != nil {
		slog.Error("Failed to create report directory", "error", err)
		return nil, err
	}

	env := &harness.Environment{
		BMC:        newBMCClient(config),
		Collector:  newCollector(config),
		Repository: repository,
		Writer:     writer,
		Run:        run,
		LimitsFile: config.LimitsFile,
		BoardModel: config.BoardModel,
	}

	slog.With(version.Current()).Info("hwqa harness running", "runId", run.RunID)

	runner := harness.NewTaskRunner(harness.NewLogPublisher(), harness.NewBringUpTask())

	runErr := runner.Run(ctx, env)
	if runErr != nil {
		slog.Error("Harness run failed", "error", runErr)
	}

	for _, step := range runner.StepOutcomes() {
		run.Steps = append(run.Steps, report.StepOutcome{
			Step:    step.Step,
			Status:  step.Status,
			Details: step.Details,
			Error:   step.Error,
		})
	}

	if run.CompletedAt.IsZero() {
		// The run never reached its verdict, it cannot be judged.
		run.Complete(model.StatusError)
	}

	if _, err := writer.WriteRun(run); err != nil {
		slog.Error("Failed to write run envelope", "error", err)
		return nil, err
	}

	slog.Info("Run complete",
		"runId", run.RunID,
		"status", run.OverallStatus,
		"durationSeconds", run.DurationSeconds,
		"reportDir", writer.Dir(),
	)

	return run, runErr
}

func newBMCClient(config *configuration.Configuration) bmc.BMC {
	if config.DryRun {
		return bmc.NewDryRunClient(config.BMC.Host)
	}

	return bmc.NewClient(config.BMC.Host, config.BMC.User, config.BMC.Pass, config.LogLevel)
}

func newCollector(config *configuration.Configuration) collect.Collector {
	if config.DryRun {
		return &collect.FileCollector{
			SnapshotPath: config.DryRunSnapshotFile,
			ReadingsPath: config.DryRunReadingsFile,
		}
	}

	return collect.NewCommandCollector(collect.NewCommandRunner(), collect.BMCArgs{
		Host: config.BMC.Host,
		User: config.BMC.User,
		Pass: config.BMC.Pass,
	})
}
