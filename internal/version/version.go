// Package version carries the build identity stamped in by the linker.
package version

import (
	"log/slog"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/metal-toolbox/hwqa/internal/model"
)

var (
	GitCommit  string
	GitBranch  string
	AppVersion string
	GoVersion  = runtime.Version()
)

// Current returns the build identity as a log attribute group.
func Current() slog.Attr {
	return slog.Group(
		"version",
		"appVersion", AppVersion,
		"gitCommit", GitCommit,
		"gitBranch", GitBranch,
		"goVersion", GoVersion,
	)
}

// ExportBuildInfoMetric exposes the build identity as a constant gauge.
func ExportBuildInfoMetric() {
	buildInfo := promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: model.AppName + "_build_info",
			Help: "build information",
		},
		[]string{"app_version", "git_commit", "git_branch", "go_version"},
	)

	buildInfo.WithLabelValues(AppVersion, GitCommit, GitBranch, GoVersion).Set(1)
}
