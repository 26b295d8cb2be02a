package diff

import (
	"fmt"

	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/parse"
)

type slotComparison struct {
	Slot  string `json:"slot"`
	State string `json:"state"`
}

type memoryDetails struct {
	SlotComparison []slotComparison `json:"slot_comparison"`
}

type memorySummary struct {
	TotalDifferences             int    `json:"total_differences"`
	MemorySlotsPopulatedCurrent  int    `json:"memory_slots_populated_current"`
	MemorySlotsPopulatedBaseline int    `json:"memory_slots_populated_baseline"`
	TotalMemoryCurrentGB         int    `json:"total_memory_current_gb"`
	TotalMemoryBaselineGB        int    `json:"total_memory_baseline_gb"`
	StatusDescription            string `json:"status_description"`
}

// CompareMemory judges the memory configuration by its rollups rather than
// strict DIMM identity: lost total capacity is a failure, population-count
// drift and per-slot moves only warn. A module swapped between two slots of
// the same size is cosmetic, a vanished 32 GB is not.
func CompareMemory(baseline, current []model.MemoryModule) *ComponentResult {
	result := newComponentResult("memory")
	details := &memoryDetails{SlotComparison: []slotComparison{}}

	currentPopulated, currentGB := memoryRollup(current)
	baselinePopulated, baselineGB := memoryRollup(baseline)

	if currentPopulated != baselinePopulated {
		result.add("slot_count_mismatch",
			fmt.Sprintf("Populated memory slot count changed: %d vs %d", currentPopulated, baselinePopulated),
			model.StatusWarning)
	}

	if currentGB != baselineGB {
		result.add("total_memory_mismatch",
			fmt.Sprintf("Total memory changed: %dGB vs %dGB", currentGB, baselineGB),
			model.StatusFail)
	}

	moduleSlot := func(m model.MemoryModule) string { return m.Slot }

	comparePopulation := func(slot string, basePopulated, currPopulated bool) {
		switch {
		case basePopulated == currPopulated && currPopulated:
			details.SlotComparison = append(details.SlotComparison, slotComparison{Slot: slot, State: "POPULATED"})
		case basePopulated == currPopulated:
			details.SlotComparison = append(details.SlotComparison, slotComparison{Slot: slot, State: "EMPTY"})
		default:
			state := "REMOVED"
			if currPopulated {
				state = "ADDED"
			}

			details.SlotComparison = append(details.SlotComparison, slotComparison{Slot: slot, State: state})
			result.add("slot_population_change",
				fmt.Sprintf("Slot %s: %s", slot, state),
				model.StatusWarning)
		}
	}

	reconcile(baseline, current, moduleSlot, reconcileFuncs[model.MemoryModule]{
		onMissing: func(slot string, base model.MemoryModule) {
			comparePopulation(slot, base.Populated, false)
		},
		onExtra: func(slot string, curr model.MemoryModule) {
			comparePopulation(slot, false, curr.Populated)
		},
		onMatch: func(slot string, base, curr model.MemoryModule) {
			comparePopulation(slot, base.Populated, curr.Populated)
		},
	})

	var description string

	switch result.Status {
	case model.StatusPass:
		description = "Memory matches the baseline"
	case model.StatusWarning:
		description = "Minor memory configuration differences detected"
	default:
		description = "Critical memory configuration differences detected"
	}

	result.Summary = memorySummary{
		TotalDifferences:             len(result.Differences),
		MemorySlotsPopulatedCurrent:  currentPopulated,
		MemorySlotsPopulatedBaseline: baselinePopulated,
		TotalMemoryCurrentGB:         currentGB,
		TotalMemoryBaselineGB:        baselineGB,
		StatusDescription:            description,
	}
	result.Details = details

	return result
}

// memoryRollup counts populated slots and sums their capacity in whole GB.
// Only populated slots contribute; "No Module Installed" parses to zero
// anyway.
func memoryRollup(modules []model.MemoryModule) (populated, totalGB int) {
	for _, m := range modules {
		if !m.Populated {
			continue
		}

		populated++
		totalGB += parse.Size(m.Size)
	}

	return populated, totalGB
}
