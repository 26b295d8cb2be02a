package collect

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/parse"
)

var (
	bdfLine  = regexp.MustCompile(`^[0-9a-f]{2}:[0-9a-f]{2}\.[0-9a-f]`)
	linkWide = regexp.MustCompile(`Width x(\d+)`)
	linkFast = regexp.MustCompile(`Speed (\d+(?:\.\d+)?GT/s)`)
)

// parsePCIDevices reads lspci -v listing lines of the form
//
//	17:00.0 Ethernet controller: Intel Corporation Ethernet Controller E810
//
// into devices with the class part split off the description. Link width
// and speed are filled in separately from the per-device detail listing.
func parsePCIDevices(output []byte) []model.PCIDevice {
	devices := []model.PCIDevice{}

	for _, line := range strings.Split(string(output), "\n") {
		if !bdfLine.MatchString(line) {
			continue
		}

		bdf, rest, found := strings.Cut(line, " ")
		if !found {
			continue
		}

		class, description, found := strings.Cut(rest, ": ")
		if !found {
			class, description = rest, rest
		}

		devices = append(devices, model.PCIDevice{
			BDF:         bdf,
			Description: strings.TrimSpace(description),
			Class:       parse.DeviceClass(class),
			Width:       "unknown",
			Speed:       "unknown",
		})
	}

	return devices
}

// parseLinkCapabilities pulls the LnkCap width and speed out of an
// lspci -vv -s <bdf> listing.
func parseLinkCapabilities(output []byte) (width, speed string) {
	width, speed = "unknown", "unknown"

	for _, line := range strings.Split(string(output), "\n") {
		if !strings.Contains(line, "LnkCap:") {
			continue
		}

		if m := linkWide.FindStringSubmatch(line); m != nil {
			width = "x" + m[1]
		}

		if m := linkFast.FindStringSubmatch(line); m != nil {
			speed = m[1]
		}

		break
	}

	return width, speed
}

func (c *CommandCollector) collectPCIDevices(ctx context.Context) []model.PCIDevice {
	output, err := c.runner.Run(ctx, "lspci", "-v")
	if err != nil {
		slog.Warn("PCI device collection failed", "error", err)
		return []model.PCIDevice{}
	}

	devices := parsePCIDevices(output)

	for i := range devices {
		detail, err := c.runner.Run(ctx, "lspci", "-vv", "-s", devices[i].BDF)
		if err != nil {
			continue
		}

		devices[i].Width, devices[i].Speed = parseLinkCapabilities(detail)
	}

	return devices
}
