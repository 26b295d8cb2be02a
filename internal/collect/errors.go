package collect

import "github.com/pkg/errors"

var (
	ErrEmptyCommand     = errors.New("empty command")
	ErrCommandRun       = errors.New("command failed")
	ErrSensorCollection = errors.New("failed to collect sensor data from BMC")
	ErrSnapshotRead     = errors.New("failed to read saved snapshot")
	ErrReadingsRead     = errors.New("failed to read saved sensor readings")
)
