// Package sensors validates live BMC sensor readings against the published
// operating limits for the board. Validators are pure: collection happens
// elsewhere and the readings arrive as an immutable map.
package sensors

import (
	"encoding/json"
	"slices"

	"github.com/pkg/errors"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// Limits is the deserialized sensor-limits document. Limit tables may carry
// a free-form "comment" entry alongside the sensor records; unmarshalling
// drops it so iteration never sees it.
type Limits struct {
	BoardModel  string            `json:"board_model"`
	Voltage     VoltageLimits     `json:"voltage_limits"`
	Temperature TemperatureLimits `json:"temperature_limits"`
	Discrete    DiscreteSensors   `json:"discrete_sensors"`
	Rules       ValidationRules   `json:"validation_rules"`
}

// Validate fails fast when a whole limit table is absent. An empty table is
// legal, a missing one means a broken document.
func (l *Limits) Validate() error {
	switch {
	case l.Voltage == nil:
		return errors.Wrap(model.ErrMalformedLimits, "missing voltage_limits object")
	case l.Temperature == nil:
		return errors.Wrap(model.ErrMalformedLimits, "missing temperature_limits object")
	case l.Discrete.AcceptableStatuses == nil:
		return errors.Wrap(model.ErrMalformedLimits, "missing discrete_sensors.acceptable_statuses object")
	}

	return nil
}

// VoltageLimit bounds one voltage rail. Nil means the bound is not
// enforced. Hard min/max outrank the soft warn bounds.
type VoltageLimit struct {
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	WarnMin *float64 `json:"warn_min"`
	WarnMax *float64 `json:"warn_max"`
}

type VoltageLimits map[string]VoltageLimit

func (l *VoltageLimits) UnmarshalJSON(data []byte) error {
	parsed, err := unmarshalLimitTable[VoltageLimit](data)
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

// TemperatureLimit bounds one thermal sensor. Warn is single-sided:
// undertemperature is near-certainly a sensor fault, not a thermal risk, so
// only the hard min guards it.
type TemperatureLimit struct {
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
	Warn *float64 `json:"warn"`
}

type TemperatureLimits map[string]TemperatureLimit

func (l *TemperatureLimits) UnmarshalJSON(data []byte) error {
	parsed, err := unmarshalLimitTable[TemperatureLimit](data)
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

// DiscreteSensors whitelists the raw status strings each discrete sensor
// may report. Sensors listed under CriticalIfDifferent fail on any
// off-whitelist status; the rest only warn.
type DiscreteSensors struct {
	AcceptableStatuses  AcceptableStatuses `json:"acceptable_statuses"`
	CriticalIfDifferent []string           `json:"critical_if_different"`
}

func (d *DiscreteSensors) IsCritical(sensor string) bool {
	return slices.Contains(d.CriticalIfDifferent, sensor)
}

type AcceptableStatuses map[string][]string

func (a *AcceptableStatuses) UnmarshalJSON(data []byte) error {
	parsed, err := unmarshalLimitTable[[]string](data)
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// ValidationRules split the configured sensors into critical (absence
// fails) and optional (absence is silently skipped).
type ValidationRules struct {
	CriticalSensors []string `json:"critical_sensors"`
	OptionalSensors []string `json:"optional_sensors"`
}

func (r *ValidationRules) IsCritical(sensor string) bool {
	return slices.Contains(r.CriticalSensors, sensor)
}

func (r *ValidationRules) IsOptional(sensor string) bool {
	return slices.Contains(r.OptionalSensors, sensor)
}

// unmarshalLimitTable decodes a sensor-name keyed table, dropping the
// "comment" key that limits documents use for annotations.
func unmarshalLimitTable[T any](data []byte) (map[string]T, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	table := make(map[string]T, len(raw))

	for name, entry := range raw {
		if name == "comment" {
			continue
		}

		var value T
		if err := json.Unmarshal(entry, &value); err != nil {
			return nil, errors.Wrapf(err, "limit entry %q", name)
		}

		table[name] = value
	}

	return table, nil
}
