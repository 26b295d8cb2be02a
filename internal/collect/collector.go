package collect

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// Collector produces the two live inputs of a run: the hardware inventory
// and the BMC sensor readings.
type Collector interface {
	Snapshot(ctx context.Context) (*model.HardwareSnapshot, error)
	SensorReadings(ctx context.Context) (model.SensorReadings, error)
}

// BMCArgs is the ipmitool lanplus session. A zero Host means in-band
// access through the host's own IPMI device.
type BMCArgs struct {
	Host string
	User string
	Pass string
}

// CommandCollector gathers the inventory by shelling out to the host and
// BMC tools. A single tool failing yields an empty entity list for that
// category, so the comparison still runs and reports what is missing;
// sensor collection failing is an error the caller turns into an ERROR
// verdict.
type CommandCollector struct {
	runner Runner
	bmc    BMCArgs
}

func NewCommandCollector(runner Runner, bmc BMCArgs) *CommandCollector {
	return &CommandCollector{runner: runner, bmc: bmc}
}

func (c *CommandCollector) Snapshot(ctx context.Context) (*model.HardwareSnapshot, error) {
	snapshot := &model.HardwareSnapshot{
		ScanDate:       time.Now().Format(time.RFC3339),
		Processors:     c.collectProcessors(ctx),
		MemoryModules:  c.collectMemoryModules(ctx),
		PCIDevices:     c.collectPCIDevices(ctx),
		USBDevices:     c.collectUSBDevices(ctx),
		StorageDevices: c.collectStorageDevices(ctx),
		RiserCards:     c.collectRiserCards(ctx),
	}

	slog.Info("Collected hardware snapshot", snapshot.AsLogFields()...)

	return snapshot, nil
}

func (c *CommandCollector) SensorReadings(ctx context.Context) (model.SensorReadings, error) {
	output, err := c.ipmitool(ctx, "sensor", "list")
	if err != nil {
		return nil, errors.Wrap(ErrSensorCollection, err.Error())
	}

	readings := parseSensorList(output)
	slog.Info("Collected sensor readings", "sensors", len(readings))

	return readings, nil
}

func (c *CommandCollector) collectProcessors(ctx context.Context) []model.Processor {
	output, err := c.runner.Run(ctx, "dmidecode", "-t", "processor")
	if err != nil {
		slog.Warn("Processor collection failed", "error", err)
		return []model.Processor{}
	}

	return parseProcessors(output)
}

func (c *CommandCollector) collectMemoryModules(ctx context.Context) []model.MemoryModule {
	output, err := c.runner.Run(ctx, "dmidecode", "-t", "memory")
	if err != nil {
		slog.Warn("Memory collection failed", "error", err)
		return []model.MemoryModule{}
	}

	return parseMemoryModules(output)
}

func (c *CommandCollector) collectUSBDevices(ctx context.Context) []model.USBDevice {
	output, err := c.runner.Run(ctx, "lsusb")
	if err != nil {
		slog.Warn("USB device collection failed", "error", err)
		return []model.USBDevice{}
	}

	return parseUSBDevices(output)
}

func (c *CommandCollector) collectStorageDevices(ctx context.Context) []model.StorageDevice {
	output, err := c.runner.Run(ctx, "lsblk", "-J", "-o", "NAME,MODEL,SIZE,TYPE,TRAN,SERIAL")
	if err != nil {
		slog.Warn("Storage device collection failed", "error", err)
		return []model.StorageDevice{}
	}

	devices, err := parseStorageDevices(output)
	if err != nil {
		slog.Warn("Storage device listing unparseable", "error", err)
		return []model.StorageDevice{}
	}

	return devices
}

func (c *CommandCollector) collectRiserCards(ctx context.Context) []model.RiserCard {
	risers := []model.RiserCard{}

	for fruID := fruIDFirst; fruID <= fruIDLast; fruID++ {
		output, err := c.ipmitool(ctx, "fru", "print", strconv.Itoa(fruID))
		if err != nil {
			// Unpopulated FRU IDs fail, that is the normal case.
			continue
		}

		if riser, ok := parseRiserFRU(output, fruID); ok {
			risers = append(risers, riser)
		}
	}

	return risers
}

func (c *CommandCollector) ipmitool(ctx context.Context, args ...string) ([]byte, error) {
	argv := []string{}
	if c.bmc.Host != "" {
		argv = append(argv, "-I", "lanplus", "-H", c.bmc.Host, "-U", c.bmc.User, "-P", c.bmc.Pass)
	}

	return c.runner.Run(ctx, "ipmitool", append(argv, args...)...)
}

// FileCollector replays a saved snapshot and sensor readings from disk.
// It backs dry runs and lets the full pipeline be exercised without
// hardware.
type FileCollector struct {
	SnapshotPath string
	ReadingsPath string
}

func (c *FileCollector) Snapshot(_ context.Context) (*model.HardwareSnapshot, error) {
	data, err := os.ReadFile(c.SnapshotPath)
	if err != nil {
		return nil, errors.Wrap(ErrSnapshotRead, err.Error())
	}

	snapshot := &model.HardwareSnapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, errors.Wrap(ErrSnapshotRead, err.Error())
	}

	return snapshot, nil
}

func (c *FileCollector) SensorReadings(_ context.Context) (model.SensorReadings, error) {
	data, err := os.ReadFile(c.ReadingsPath)
	if err != nil {
		return nil, errors.Wrap(ErrReadingsRead, err.Error())
	}

	readings := model.SensorReadings{}
	if err := json.Unmarshal(data, &readings); err != nil {
		return nil, errors.Wrap(ErrReadingsRead, err.Error())
	}

	return readings, nil
}
