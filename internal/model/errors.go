package model

import (
	"github.com/pkg/errors"
)

var (
	ErrConfig            = errors.New("configuration error")
	ErrMalformedBaseline = errors.New("malformed baseline document")
	ErrMalformedLimits   = errors.New("malformed limits document")
)
