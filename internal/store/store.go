// Package store supplies the golden baseline and the sensor limits to the
// rest of the harness. Both documents are loaded once per run and read-only
// afterwards.
package store

import (
	"context"

	"github.com/metal-toolbox/hwqa/internal/configuration"
	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/sensors"
)

// Repository serves the two reference documents a run judges against.
type Repository interface {
	Baseline(ctx context.Context) (*model.Baseline, error)
	Limits(ctx context.Context) (*sensors.Limits, error)
}

// NewRepository picks the baseline source: the baseline service when an
// endpoint is configured, local files otherwise.
func NewRepository(config *configuration.Configuration) (Repository, error) {
	if config.BaselineService != nil && config.BaselineService.Endpoint != "" {
		return NewHTTPStore(config.BaselineService.Endpoint, config.BoardModel)
	}

	return NewFileStore(config.BaselineFile, config.LimitsFile), nil
}
