// Package collect builds the current HardwareSnapshot and the live sensor
// readings by invoking the host and BMC tooling (dmidecode, lspci, lsusb,
// lsblk, ipmitool) and parsing their output.
package collect

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const commandTimeout = 60 * time.Second

var passwordArg = regexp.MustCompile(`^-[Pp]$`)

// Runner executes a host tool and returns its combined output. The seam
// exists so parsers can be exercised against canned output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandRunner shells out with a per-command timeout. Commands and their
// exit status are logged with BMC passwords masked.
type CommandRunner struct {
	timeout time.Duration
}

func NewCommandRunner() *CommandRunner {
	return &CommandRunner{timeout: commandTimeout}
}

func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyCommand
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logged := maskSecrets(append([]string{name}, args...))
	slog.Debug("Running command", "command", logged)

	cmd := exec.CommandContext(ctx, name, args...)

	var buf bytes.Buffer

	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}

		return buf.Bytes(), errors.Wrap(ErrCommandRun, logged+": "+err.Error())
	}

	return buf.Bytes(), nil
}

// maskSecrets renders a command line for logging with the argument
// following -P or -p replaced, so BMC credentials never reach the logs.
func maskSecrets(argv []string) string {
	masked := make([]string, len(argv))

	for i, arg := range argv {
		if i > 0 && passwordArg.MatchString(argv[i-1]) {
			masked[i] = "******"
			continue
		}

		masked[i] = arg
	}

	return strings.Join(masked, " ")
}
