package diff

import (
	"fmt"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// socketComparison is one row of the per-socket detail section.
type socketComparison struct {
	Socket string `json:"socket"`
	State  string `json:"state"`
	Issue  string `json:"issue,omitempty"`
}

type processorDetails struct {
	CurrentCount     int                `json:"current_count"`
	BaselineCount    int                `json:"baseline_count"`
	SocketComparison []socketComparison `json:"socket_comparison"`
}

type processorSummary struct {
	TotalDifferences   int    `json:"total_differences"`
	CPUSocketsCurrent  int    `json:"cpu_sockets_current"`
	CPUSocketsBaseline int    `json:"cpu_sockets_baseline"`
	StatusDescription  string `json:"status_description"`
}

// CompareProcessors reconciles CPU sockets between the two snapshots. A
// missing socket or a model change is a failure; a socket whose core or
// thread count could not be read by the collector is only a warning.
func CompareProcessors(baseline, current []model.Processor) *ComponentResult {
	result := newComponentResult("processors")
	details := &processorDetails{
		CurrentCount:     len(current),
		BaselineCount:    len(baseline),
		SocketComparison: []socketComparison{},
	}

	if len(current) != len(baseline) {
		result.add("cpu_count_mismatch",
			fmt.Sprintf("CPU count mismatch: current=%d, baseline=%d", len(current), len(baseline)),
			model.StatusFail)
	}

	processorSocket := func(p model.Processor) string { return p.Socket }

	reconcile(baseline, current, processorSocket, reconcileFuncs[model.Processor]{
		onMissing: func(socket string, _ model.Processor) {
			msg := fmt.Sprintf("CPU socket %s missing in current system", socket)
			result.add("socket_missing", msg, model.StatusFail)
			details.SocketComparison = append(details.SocketComparison,
				socketComparison{Socket: socket, State: "MISSING", Issue: msg})
		},
		onExtra: func(socket string, _ model.Processor) {
			msg := fmt.Sprintf("Extra CPU socket %s in current system", socket)
			result.add("socket_extra", msg, model.StatusWarning)
			details.SocketComparison = append(details.SocketComparison,
				socketComparison{Socket: socket, State: "EXTRA", Issue: msg})
		},
		onMatch: func(socket string, base, curr model.Processor) {
			details.SocketComparison = append(details.SocketComparison,
				socketComparison{Socket: socket, State: "MATCH"})

			if curr.Model != base.Model {
				result.add("model_mismatch",
					fmt.Sprintf("CPU %s model mismatch: %s vs %s", socket, curr.Model, base.Model),
					model.StatusFail)
			}

			compareCoreCount(result, socket, "cores", base.Cores, curr.Cores)
			compareCoreCount(result, socket, "threads", base.Threads, curr.Threads)
		},
	})

	description := "Processors match the baseline"
	if result.Status != model.StatusPass {
		description = "Processor differences detected"
	}

	result.Summary = processorSummary{
		TotalDifferences:   len(result.Differences),
		CPUSocketsCurrent:  len(current),
		CPUSocketsBaseline: len(baseline),
		StatusDescription:  description,
	}
	result.Details = details

	return result
}

// compareCoreCount judges a core or thread count pair. When only the
// current side is unknown the collector ran degraded and the finding is a
// warning; an unknown baseline value is not judged at all.
func compareCoreCount(result *ComponentResult, socket, field string, base, curr model.Count) {
	switch {
	case base.Known && curr.Known && base.Value != curr.Value:
		result.add(field+"_mismatch",
			fmt.Sprintf("CPU %s %s mismatch: %s vs %s", socket, field, curr, base),
			model.StatusFail)
	case base.Known && !curr.Known:
		result.add(field+"_detection_failed",
			fmt.Sprintf("CPU %s %s could not be read, baseline expects %s", socket, field, base),
			model.StatusWarning)
	}
}
