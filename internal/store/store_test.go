package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metal-toolbox/hwqa/internal/model"
)

const validBaselineJSON = `{
	"board_model": "SB-2024",
	"baseline_date": "2026-01-15",
	"baseline_version": "1.2",
	"processors": [{"socket": "CPU0", "model": "Test CPU", "cores": 32, "threads": 64}],
	"memory_modules": [{"slot": "DIMM_A0", "size": "32 GB", "populated": true}],
	"pci_devices": [{"bdf": "00:00.0", "class": "Host bridge", "description": "x"}],
	"usb_devices": [{"bus": "001", "device": "001", "vid_pid": "1d6b:0002", "description": "root hub"}],
	"storage_devices": [{"name": "nvme0n1", "model": "Disk", "size": "1.8T", "serial": "S1"}],
	"riser_cards": [{"slot": "Riser1", "populated": true, "fru_product_name": "R1", "fru_serial_number": "ABC123", "pcie_slots": []}]
}`

const validLimitsJSON = `{
	"board_model": "SB-2024",
	"voltage_limits": {"P_12V": {"min": 11.4, "max": 12.6}},
	"temperature_limits": {"CPU0_TEMP": {"min": 5, "max": 95, "warn": 85}},
	"discrete_sensors": {
		"acceptable_statuses": {"PSU1_Status": ["0x0180"]},
		"critical_if_different": ["PSU1_Status"]
	},
	"validation_rules": {"critical_sensors": ["CPU0_TEMP"], "optional_sensors": []}
}`

func writeTempDoc(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestFileStoreBaseline(t *testing.T) {
	t.Parallel()

	store := NewFileStore(
		writeTempDoc(t, "baseline.json", validBaselineJSON),
		writeTempDoc(t, "limits.json", validLimitsJSON),
	)

	baseline, err := store.Baseline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SB-2024", baseline.BoardModel)
	require.Len(t, baseline.Processors, 1)
	assert.Equal(t, "CPU0", baseline.Processors[0].Socket)

	limits, err := store.Limits(context.Background())
	require.NoError(t, err)
	assert.Contains(t, limits.Voltage, "P_12V")
	assert.True(t, limits.Discrete.IsCritical("PSU1_Status"))
}

func TestFileStoreMissingFile(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"), "")

	_, err := store.Baseline(context.Background())
	assert.ErrorIs(t, err, ErrBaselineRead)
}

func TestFileStoreMalformedBaseline(t *testing.T) {
	t.Parallel()

	// usb_devices absent entirely, which must be rejected rather than
	// treated as a system with no USB devices.
	truncated := `{
		"board_model": "SB-2024",
		"processors": [], "memory_modules": [], "pci_devices": [],
		"storage_devices": [], "riser_cards": []
	}`

	store := NewFileStore(writeTempDoc(t, "baseline.json", truncated), "")

	_, err := store.Baseline(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMalformedBaseline)
	assert.Contains(t, err.Error(), "usb_devices")
}

func TestHTTPStore(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/baselines/SB-2024":
			_, _ = w.Write([]byte(validBaselineJSON))
		case "/api/v1/sensor-limits/SB-2024":
			_, _ = w.Write([]byte(validLimitsJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store, err := NewHTTPStore(server.URL, "SB-2024")
	require.NoError(t, err)

	baseline, err := store.Baseline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SB-2024", baseline.BoardModel)

	limits, err := store.Limits(context.Background())
	require.NoError(t, err)
	assert.Contains(t, limits.Temperature, "CPU0_TEMP")
}

func TestHTTPStoreNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store, err := NewHTTPStore(server.URL, "NO-SUCH-BOARD")
	require.NoError(t, err)

	_, err = store.Baseline(context.Background())
	assert.ErrorIs(t, err, ErrBaselineFetch)
}
