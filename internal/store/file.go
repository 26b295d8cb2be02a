package store

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/sensors"
)

// FileStore reads the baseline and limits documents from local JSON files.
type FileStore struct {
	baselinePath string
	limitsPath   string
}

func NewFileStore(baselinePath, limitsPath string) *FileStore {
	return &FileStore{
		baselinePath: baselinePath,
		limitsPath:   limitsPath,
	}
}

func (s *FileStore) Baseline(_ context.Context) (*model.Baseline, error) {
	data, err := os.ReadFile(s.baselinePath)
	if err != nil {
		return nil, errors.Wrap(ErrBaselineRead, err.Error())
	}

	baseline := &model.Baseline{}
	if err := json.Unmarshal(data, baseline); err != nil {
		return nil, errors.Wrap(ErrBaselineRead, err.Error())
	}

	if err := baseline.Validate(); err != nil {
		return nil, err
	}

	return baseline, nil
}

func (s *FileStore) Limits(_ context.Context) (*sensors.Limits, error) {
	data, err := os.ReadFile(s.limitsPath)
	if err != nil {
		return nil, errors.Wrap(ErrLimitsRead, err.Error())
	}

	limits := &sensors.Limits{}
	if err := json.Unmarshal(data, limits); err != nil {
		return nil, errors.Wrap(ErrLimitsRead, err.Error())
	}

	if err := limits.Validate(); err != nil {
		return nil, err
	}

	return limits, nil
}
