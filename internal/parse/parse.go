// Package parse normalizes the heterogeneous string encodings hardware
// tools report: DIMM sizes, decimal-comma sensor values, lspci class
// strings with trailing numeric codes.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

const noModuleInstalled = "No Module Installed"

var (
	firstInt = regexp.MustCompile(`\d+`)

	// Strings BMCs use for a value they cannot report.
	sentinels = map[string]struct{}{
		"na":            {},
		"n/a":           {},
		"disabled":      {},
		"not available": {},
		"not specified": {},
		"unknown":       {},
		"":              {},
	}
)

// Size parses a memory size string into whole GB. It accepts "32 GB",
// "32GB", "1024 MB" (floor-divided into GB), a bare integer (assumed GB),
// and falls back to the first embedded integer. Empty slots
// ("No Module Installed" or empty input) parse to 0, never an error.
func Size(s string) int {
	if s == "" || s == noModuleInstalled {
		return 0
	}

	s = strings.ToUpper(strings.TrimSpace(s))

	for _, suffix := range []string{" GB", "GB"} {
		if v, ok := cutInt(s, suffix); ok {
			return v
		}
	}

	for _, suffix := range []string{" MB", "MB"} {
		if v, ok := cutInt(s, suffix); ok {
			return v / 1024
		}
	}

	if v, err := strconv.Atoi(s); err == nil {
		return v
	}

	if m := firstInt.FindString(s); m != "" {
		if v, err := strconv.Atoi(m); err == nil {
			return v
		}
	}

	return 0
}

func cutInt(s, suffix string) (int, bool) {
	trimmed, found := strings.CutSuffix(s, suffix)
	if !found {
		return 0, false
	}

	v, err := strconv.Atoi(strings.TrimSpace(trimmed))
	if err != nil {
		return 0, false
	}

	return v, true
}

// Numeric parses a sensor value string into a float. Sentinel strings
// ("na", "disabled", ...) and malformed input report ok=false; a decimal
// comma is accepted in place of a dot.
func Numeric(s string) (float64, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if _, isSentinel := sentinels[trimmed]; isSentinel {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", "."), 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// DeviceClass strips the numeric class code lspci appends, turning
// "Ethernet controller [0200]" into "Ethernet controller". Empty input
// maps to "Unknown".
func DeviceClass(s string) string {
	if s == "" {
		return "Unknown"
	}

	return strings.TrimSpace(strings.SplitN(s, " [", 2)[0])
}
