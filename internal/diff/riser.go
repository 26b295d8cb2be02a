package diff

import (
	"fmt"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// Findings whose message contains one of these phrases make the riser
// component fail outright; everything else only warns. Severity is assigned
// after collection so a single pass over the findings settles the verdict.
var criticalRiserPhrases = []string{
	"missing in current",
	"serial number missing",
	"populated risers mismatch",
	"population status mismatch",
}

func isCriticalRiserFinding(message string) bool {
	lowered := strings.ToLower(message)
	for _, phrase := range criticalRiserPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}

	return false
}

type riserFinding struct {
	kind    string
	message string
}

type riserSummary struct {
	TotalDifferences  int    `json:"total_differences"`
	CurrentPopulated  int    `json:"current_populated"`
	BaselinePopulated int    `json:"baseline_populated"`
	CurrentSlots      int    `json:"current_slots"`
	BaselineSlots     int    `json:"baseline_slots"`
	StatusDescription string `json:"status_description"`
}

type riserDetails struct {
	CriticalDifferences []string `json:"critical_differences"`
}

// CompareRiserCards checks riser presence, population, and FRU identity per
// slot. A slot that fails a presence or population check is not examined
// further. A populated riser must carry a real serial number; the factory
// placeholder counts as missing.
func CompareRiserCards(baseline, current []model.RiserCard) *ComponentResult {
	result := newComponentResult("riser_cards")

	var findings []riserFinding

	populatedCurrent := 0
	populatedBaseline := 0

	riserSlot := func(r model.RiserCard) string { return r.Slot }

	reconcile(baseline, current, riserSlot, reconcileFuncs[model.RiserCard]{
		onMissing: func(slot string, _ model.RiserCard) {
			findings = append(findings, riserFinding{"slot_missing",
				fmt.Sprintf("Slot %s: missing in current configuration", slot)})
		},
		onExtra: func(slot string, _ model.RiserCard) {
			findings = append(findings, riserFinding{"slot_extra",
				fmt.Sprintf("Slot %s: extra riser found (not in baseline)", slot)})
		},
		onMatch: func(slot string, base, curr model.RiserCard) {
			if curr.Populated {
				populatedCurrent++
			}
			if base.Populated {
				populatedBaseline++
			}

			if curr.Populated != base.Populated {
				findings = append(findings, riserFinding{"population_mismatch",
					fmt.Sprintf("Slot %s: population status mismatch - current=%s, baseline=%s",
						slot, populationState(curr.Populated), populationState(base.Populated))})
				return
			}

			if !curr.Populated {
				return
			}

			findings = append(findings, compareRiserFRU(slot, base, curr)...)
		},
	})

	if populatedCurrent != populatedBaseline {
		findings = append(findings, riserFinding{"populated_totals_mismatch",
			fmt.Sprintf("Total populated risers mismatch: current=%d, baseline=%d",
				populatedCurrent, populatedBaseline)})
	}

	critical := []string{}

	for _, finding := range findings {
		severity := model.StatusWarning
		if isCriticalRiserFinding(finding.message) {
			severity = model.StatusFail
			critical = append(critical, finding.message)
		}

		result.add(finding.kind, finding.message, severity)
	}

	description := "Riser cards match the baseline"
	if result.Status != model.StatusPass {
		description = "Riser card differences detected"
	}

	result.Summary = riserSummary{
		TotalDifferences:  len(result.Differences),
		CurrentPopulated:  populatedCurrent,
		BaselinePopulated: populatedBaseline,
		CurrentSlots:      len(current),
		BaselineSlots:     len(baseline),
		StatusDescription: description,
	}
	result.Details = &riserDetails{CriticalDifferences: critical}

	return result
}

func compareRiserFRU(slot string, base, curr model.RiserCard) []riserFinding {
	var findings []riserFinding

	fruFields := []struct {
		kind  string
		label string
		base  string
		curr  string
	}{
		{"fru_product_mismatch", "FRU Product Name", base.FRUProductName, curr.FRUProductName},
		{"fru_manufacturer_mismatch", "FRU Manufacturer", base.FRUManufacturer, curr.FRUManufacturer},
		{"fru_part_mismatch", "FRU Part Number", base.FRUPartNumber, curr.FRUPartNumber},
	}

	for _, field := range fruFields {
		if field.curr != field.base {
			findings = append(findings, riserFinding{field.kind,
				fmt.Sprintf("Slot %s: %s mismatch - current='%s', baseline='%s'",
					slot, field.label, field.curr, field.base)})
		}
	}

	if curr.FRUSerialNumber == "" || curr.FRUSerialNumber == model.SerialPlaceholder {
		findings = append(findings, riserFinding{"fru_serial_missing",
			fmt.Sprintf("Slot %s: FRU serial number missing or invalid - current='%s'",
				slot, curr.FRUSerialNumber)})
	}

	if len(curr.PCIeSlots) != len(base.PCIeSlots) {
		findings = append(findings, riserFinding{"pcie_slot_count_mismatch",
			fmt.Sprintf("Slot %s: PCIe slots count mismatch - current=%d, baseline=%d",
				slot, len(curr.PCIeSlots), len(base.PCIeSlots))})
	}

	return findings
}

func populationState(populated bool) string {
	if populated {
		return "populated"
	}

	return "empty"
}
