package model

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Status is the verdict of a single check, a component comparison, or a
// whole report. The numeric value is the escalation priority: folding many
// statuses together always keeps the highest one.
type Status uint8

const (
	StatusPass Status = iota
	StatusWarning
	StatusFail
	StatusUnknown
	StatusError
)

const (
	statusPassStr    = "PASS"
	statusWarningStr = "WARNING"
	statusFailStr    = "FAIL"
	statusUnknownStr = "UNKNOWN"
	statusErrorStr   = "ERROR"
)

var ErrUnknownStatus = errors.New("unknown status")

func (s Status) String() string {
	switch s {
	case StatusPass:
		return statusPassStr
	case StatusWarning:
		return statusWarningStr
	case StatusFail:
		return statusFailStr
	case StatusError:
		return statusErrorStr
	case StatusUnknown:
		return statusUnknownStr
	default:
		return statusUnknownStr
	}
}

func StatusFromString(str string) (Status, error) {
	switch strings.ToUpper(str) {
	case statusPassStr:
		return StatusPass, nil
	case statusWarningStr:
		return StatusWarning, nil
	case statusFailStr:
		return StatusFail, nil
	case statusErrorStr:
		return StatusError, nil
	case statusUnknownStr:
		return StatusUnknown, nil
	default:
		return StatusUnknown, errors.Wrap(ErrUnknownStatus, str)
	}
}

// Escalate returns the higher-priority of the two statuses. It never lowers
// severity, and folding a sequence of statuses with it is order-independent.
func Escalate(current, candidate Status) Status {
	if candidate > current {
		return candidate
	}

	return current
}

// EscalateAll folds a list of statuses starting from PASS.
func EscalateAll(statuses ...Status) Status {
	overall := StatusPass
	for _, s := range statuses {
		overall = Escalate(overall, s)
	}

	return overall
}

// ExitCode maps a status onto the process exit code convention:
// 0 pass, 1 fail, 2 warning, 3 could not judge.
func (s Status) ExitCode() int {
	switch s {
	case StatusPass:
		return 0
	case StatusFail:
		return 1
	case StatusWarning:
		return 2
	case StatusError, StatusUnknown:
		return 3
	default:
		return 3
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	parsed, err := StatusFromString(str)
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
