package collect

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metal-toolbox/hwqa/internal/model"
)

const dmidecodeProcessorOutput = `# dmidecode 3.4
Getting SMBIOS data from sysfs.

Handle 0x0400, DMI type 4, 48 bytes
Processor Information
	Socket Designation: CPU0
	Type: Central Processor
	Version: INTEL(R) XEON(R) GOLD 6530
	Current Speed: 2100 MHz
	Core Count: 32
	Thread Count: 64

Handle 0x0401, DMI type 4, 48 bytes
Processor Information
	Socket Designation: CPU1
	Type: Central Processor
	Version: INTEL(R) XEON(R) GOLD 6530
	Current Speed: 2100 MHz
	Core Count: Unknown
	Thread Count: Unknown
`

const dmidecodeMemoryOutput = `Handle 0x1100, DMI type 17, 92 bytes
Memory Device
	Size: 32 GB
	Locator: DIMM_A0
	Bank Locator: BANK 0
	Manufacturer: Samsung
	Part Number: M321R4GA3BB6-CQK
	Speed: 4800 MT/s

Handle 0x1101, DMI type 17, 92 bytes
Memory Device
	Size: No Module Installed
	Locator: DIMM_A1
	Bank Locator: BANK 1
	Manufacturer: Not Specified
`

const lspciOutput = `00:00.0 Host bridge: Intel Corporation Device 09a2 (rev 02)
17:00.0 Ethernet controller: Intel Corporation Ethernet Controller E810-XXV (rev 02)
c0:17.0 SATA controller: Intel Corporation Device 1ba2 (rev 20) (prog-if 01 [AHCI 1.0])
`

const lsusbOutput = `Bus 001 Device 001: ID 1d6b:0002 Linux Foundation 2.0 root hub
Bus 001 Device 002: ID 0557:8021 ATEN International Co., Ltd Hub
Bus 002 Device 003: ID abcd:ef01
`

const lsblkOutput = `{
	"blockdevices": [
		{"name": "nvme0n1", "model": "SAMSUNG MZQL21T9HCJR-00A07 ", "size": "1.8T", "type": "disk", "tran": "nvme", "serial": "S64KNE0T501234"},
		{"name": "nvme0n1p1", "model": null, "size": "512M", "type": "part", "tran": null, "serial": null},
		{"name": "sda", "model": "SanDisk 3.2 Gen1", "size": "28.7G", "type": "disk", "tran": "usb", "serial": "0501d5e4"}
	]
}`

const sensorListOutput = `P_12V            | 12.048     | Volts      | ok    | na | 11.400 | na | na | 12.600 | na
CPU0_TEMP        | 54.000     | degrees C  | ok    | na | 5.000 | na | na | 95.000 | na
PSU2_Status      | na         | discrete   | na    | na | na | na | na | na | na
`

const fruRiserOutput = ` FRU Device Description : Builtin FRU Device (ID 2)
 Product Manufacturer  : GIGA-BYTE TECHNOLOGY CO., LTD
 Product Name          : RSMB-MS93-FS0-RISER-2
 Product Part Number   : 25VH1-1A00-22NN
 Product Serial        : GJG5400123
`

const fruPSUOutput = ` FRU Device Description : PSU1 (ID 5)
 Product Manufacturer  : Delta
 Product Name          : ECD16020097
 Product Serial        : JJBT2400987
`

func TestParseProcessors(t *testing.T) {
	t.Parallel()

	processors := parseProcessors([]byte(dmidecodeProcessorOutput))
	require.Len(t, processors, 2)

	assert.Equal(t, "CPU0", processors[0].Socket)
	assert.Equal(t, "INTEL(R) XEON(R) GOLD 6530", processors[0].Model)
	assert.Equal(t, model.KnownCount(32), processors[0].Cores)
	assert.Equal(t, model.KnownCount(64), processors[0].Threads)
	assert.Equal(t, "2100 MHz", processors[0].SpeedMHz)

	assert.Equal(t, "CPU1", processors[1].Socket)
	assert.False(t, processors[1].Cores.Known)
	assert.False(t, processors[1].Threads.Known)
}

func TestParseMemoryModules(t *testing.T) {
	t.Parallel()

	modules := parseMemoryModules([]byte(dmidecodeMemoryOutput))
	require.Len(t, modules, 2)

	assert.Equal(t, "DIMM_A0", modules[0].Slot)
	assert.Equal(t, "32 GB", modules[0].Size)
	assert.True(t, modules[0].Populated)
	assert.Equal(t, "Samsung", modules[0].Manufacturer)
	assert.Equal(t, "4800 MT/s", modules[0].Speed)

	assert.Equal(t, "DIMM_A1", modules[1].Slot)
	assert.False(t, modules[1].Populated)
}

func TestParsePCIDevices(t *testing.T) {
	t.Parallel()

	devices := parsePCIDevices([]byte(lspciOutput))
	require.Len(t, devices, 3)

	assert.Equal(t, "00:00.0", devices[0].BDF)
	assert.Equal(t, "Host bridge", devices[0].Class)
	assert.Equal(t, "Intel Corporation Device 09a2 (rev 02)", devices[0].Description)

	assert.Equal(t, "17:00.0", devices[1].BDF)
	assert.Equal(t, "Ethernet controller", devices[1].Class)

	assert.Equal(t, "SATA controller", devices[2].Class)
}

func TestParseLinkCapabilities(t *testing.T) {
	t.Parallel()

	detail := `17:00.0 Ethernet controller: Intel Corporation Ethernet Controller E810-XXV
		LnkCap:	Port #0, Speed 16GT/s, Width x8, ASPM not supported
		LnkSta:	Speed 16GT/s, Width x8
`

	width, speed := parseLinkCapabilities([]byte(detail))
	assert.Equal(t, "x8", width)
	assert.Equal(t, "16GT/s", speed)

	width, speed = parseLinkCapabilities([]byte("no link block here"))
	assert.Equal(t, "unknown", width)
	assert.Equal(t, "unknown", speed)
}

func TestParseUSBDevices(t *testing.T) {
	t.Parallel()

	devices := parseUSBDevices([]byte(lsusbOutput))
	require.Len(t, devices, 3)

	assert.Equal(t, "001", devices[0].Bus)
	assert.Equal(t, "001", devices[0].Device)
	assert.Equal(t, "1d6b:0002", devices[0].VIDPID)
	assert.Equal(t, "Linux Foundation 2.0 root hub", devices[0].Description)

	assert.Equal(t, "0557:8021", devices[1].VIDPID)

	// No description after the ID.
	assert.Equal(t, "abcd:ef01", devices[2].VIDPID)
	assert.Equal(t, "Unknown", devices[2].Description)
}

func TestParseStorageDevices(t *testing.T) {
	t.Parallel()

	devices, err := parseStorageDevices([]byte(lsblkOutput))
	require.NoError(t, err)

	// The partition row must be dropped.
	require.Len(t, devices, 2)

	assert.Equal(t, "nvme0n1", devices[0].Name)
	assert.Equal(t, "SAMSUNG MZQL21T9HCJR-00A07", devices[0].Model)
	assert.Equal(t, "nvme", devices[0].Transport)
	assert.Equal(t, "S64KNE0T501234", devices[0].Serial)

	assert.Equal(t, "sda", devices[1].Name)
	assert.Equal(t, "usb", devices[1].Transport)

	_, err = parseStorageDevices([]byte("not json"))
	assert.Error(t, err)
}

func TestParseSensorList(t *testing.T) {
	t.Parallel()

	readings := parseSensorList([]byte(sensorListOutput))
	require.Len(t, readings, 3)

	assert.Equal(t, "12.048", readings["P_12V"].Value)
	assert.Equal(t, "Volts", readings["P_12V"].Unit)
	assert.Equal(t, "ok", readings["P_12V"].Status)

	assert.Equal(t, "na", readings["PSU2_Status"].Value)
	assert.Equal(t, "na", readings["PSU2_Status"].Status)
}

func TestParseRiserFRU(t *testing.T) {
	t.Parallel()

	riser, ok := parseRiserFRU([]byte(fruRiserOutput), 2)
	require.True(t, ok)
	assert.Equal(t, "RISER_SLOT_2", riser.Slot)
	assert.True(t, riser.Populated)
	assert.Equal(t, "RSMB-MS93-FS0-RISER-2", riser.FRUProductName)
	assert.Equal(t, "25VH1-1A00-22NN", riser.FRUPartNumber)
	assert.Equal(t, "GJG5400123", riser.FRUSerialNumber)

	_, ok = parseRiserFRU([]byte(fruPSUOutput), 5)
	assert.False(t, ok, "a PSU FRU record must not be mistaken for a riser")

	_, ok = parseRiserFRU([]byte("Device not present (Requested sensor, data, or record not found)"), 7)
	assert.False(t, ok)
}

func TestMaskSecrets(t *testing.T) {
	t.Parallel()

	masked := maskSecrets([]string{"ipmitool", "-I", "lanplus", "-H", "10.0.0.2", "-U", "admin", "-P", "hunter2", "sensor", "list"})
	assert.NotContains(t, masked, "hunter2")
	assert.Contains(t, masked, "-P ******")
	assert.Contains(t, masked, "-U admin")
}

// fakeRunner returns canned output keyed by the joined command line.
type fakeRunner struct {
	outputs map[string]string
	calls   []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	cmd := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, cmd)

	out, ok := r.outputs[cmd]
	if !ok {
		return nil, ErrCommandRun
	}

	return []byte(out), nil
}

func TestCommandCollectorSnapshot(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{outputs: map[string]string{
		"dmidecode -t processor": dmidecodeProcessorOutput,
		"dmidecode -t memory":    dmidecodeMemoryOutput,
		"lspci -v":               lspciOutput,
		"lsusb":                  lsusbOutput,
		"lsblk -J -o NAME,MODEL,SIZE,TYPE,TRAN,SERIAL": lsblkOutput,
		"ipmitool fru print 2":                         fruRiserOutput,
	}}

	collector := NewCommandCollector(runner, BMCArgs{})

	snapshot, err := collector.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, snapshot.Processors, 2)
	assert.Len(t, snapshot.MemoryModules, 2)
	assert.Len(t, snapshot.PCIDevices, 3)
	assert.Len(t, snapshot.USBDevices, 3)
	assert.Len(t, snapshot.StorageDevices, 2)
	require.Len(t, snapshot.RiserCards, 1)
	assert.Equal(t, "RISER_SLOT_2", snapshot.RiserCards[0].Slot)
	assert.NotEmpty(t, snapshot.ScanDate)
}

func TestCommandCollectorSensorReadings(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{outputs: map[string]string{
		"ipmitool -I lanplus -H 10.0.0.2 -U admin -P secret sensor list": sensorListOutput,
	}}

	collector := NewCommandCollector(runner, BMCArgs{Host: "10.0.0.2", User: "admin", Pass: "secret"})

	readings, err := collector.SensorReadings(context.Background())
	require.NoError(t, err)
	assert.Len(t, readings, 3)

	// Session arguments must precede the subcommand.
	require.NotEmpty(t, runner.calls)
	assert.True(t, strings.HasPrefix(runner.calls[len(runner.calls)-1], "ipmitool -I lanplus"))
}

func TestCommandCollectorSensorCollectionError(t *testing.T) {
	t.Parallel()

	collector := NewCommandCollector(&fakeRunner{outputs: map[string]string{}}, BMCArgs{})

	_, err := collector.SensorReadings(context.Background())
	assert.ErrorIs(t, err, ErrSensorCollection)
}
