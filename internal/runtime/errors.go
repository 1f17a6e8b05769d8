package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"

	"github.com/bassista/dockdesk/internal/process"
)

var (
	// ErrQueryFailed marks a listing the runtime refused.
	ErrQueryFailed = errors.New("runtime query failed")
	// ErrCommandFailed marks a lifecycle command that ran and exited non-zero.
	ErrCommandFailed = errors.New("runtime command failed")
	// ErrStatsQueryFailed marks a failed stats aggregation.
	ErrStatsQueryFailed = errors.New("stats query failed")
	ErrBuildFailed      = errors.New("build failed")
)

// CommandError reports a runtime invocation that exited non-zero.
// Stderr holds the runtime's own error text verbatim.
type CommandError struct {
	Op       string
	Kind     error
	ExitCode int
	Stderr   string
}

func newCommandError(op string, kind error, res process.Result) *CommandError {
	return &CommandError{Op: op, Kind: kind, ExitCode: res.ExitCode, Stderr: res.ErrorText()}
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v (exit status %d)", e.Op, e.Kind, e.ExitCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Stderr)
}

func (e *CommandError) Unwrap() []error {
	if isNoSuchObject(e.Stderr) {
		return []error{e.Kind, errdefs.ErrNotFound}
	}
	return []error{e.Kind}
}

// isNoSuchObject matches the runtime's "No such container/image/object" wording.
func isNoSuchObject(stderr string) bool {
	return strings.Contains(stderr, "No such ")
}
