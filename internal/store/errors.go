package store

import "github.com/pkg/errors"

var (
	ErrBaselineRead  = errors.New("failed to read baseline document")
	ErrLimitsRead    = errors.New("failed to read sensor limits document")
	ErrBaselineFetch = errors.New("failed to fetch baseline from service")
	ErrLimitsFetch   = errors.New("failed to fetch sensor limits from service")
)
