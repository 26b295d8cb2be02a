package report

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metal-toolbox/hwqa/internal/diff"
	"github.com/metal-toolbox/hwqa/internal/model"
)

func TestWriterRoundTrip(t *testing.T) {
	t.Parallel()

	run := NewRun("SB-2024")

	writer, err := NewWriter(t.TempDir(), run.RunID)
	require.NoError(t, err)

	baseline := &model.HardwareSnapshot{
		Processors:     []model.Processor{},
		MemoryModules:  []model.MemoryModule{},
		PCIDevices:     []model.PCIDevice{},
		USBDevices:     []model.USBDevice{},
		StorageDevices: []model.StorageDevice{},
		RiserCards:     []model.RiserCard{},
	}

	hwPath, err := writer.WriteHardwareReport(diff.Compare(baseline, baseline, "2026-01-15"))
	require.NoError(t, err)

	run.HardwareReport = hwPath
	run.Steps = append(run.Steps, StepOutcome{Step: "HardwareDiff", Status: "succeeded"})
	run.Complete(model.StatusPass)

	runPath, err := writer.WriteRun(run)
	require.NoError(t, err)

	data, err := os.ReadFile(runPath)
	require.NoError(t, err)

	parsed := Run{}
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, run.RunID, parsed.RunID)
	assert.Equal(t, "SB-2024", parsed.BoardModel)
	assert.Equal(t, model.StatusPass, parsed.OverallStatus)
	assert.Equal(t, hwPath, parsed.HardwareReport)
	require.Len(t, parsed.Steps, 1)

	assert.FileExists(t, hwPath)
}

func TestNewWriterBadDir(t *testing.T) {
	t.Parallel()

	_, err := NewWriter("/proc/no-such-place", NewRun("SB-2024").RunID)
	assert.ErrorIs(t, err, ErrReportWrite)
}
