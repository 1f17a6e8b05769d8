// Package process runs the runtime binary as a subprocess, either to completion
// (batch) or with its stdout delivered line by line (streaming).
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/containerd/errdefs"

	"github.com/bassista/dockdesk/internal/logger"
)

// waitDelay bounds how long Wait keeps output pipes open after a cancelled process is killed.
const waitDelay = 5 * time.Second

// Runner abstracts subprocess execution of a single binary.
type Runner interface {
	Run(ctx context.Context, args ...string) (Result, error)
	Stream(ctx context.Context, args ...string) (*Stream, error)
	Binary() string
}

// Result is the outcome of a subprocess that ran to completion.
// A non-zero ExitCode is a result, not an error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the subprocess exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// ErrorText returns the captured stderr, falling back to stdout when stderr is empty.
func (r Result) ErrorText() string {
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}
	return strings.TrimSpace(r.Stdout)
}

// SpawnError reports that the binary could not be launched at all.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot run %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() []error {
	return []error{errdefs.ErrUnavailable, e.Err}
}

// Invoker spawns a fresh process of binary for every call.
type Invoker struct {
	binary string
}

var _ Runner = (*Invoker)(nil)

func NewInvoker(binary string) *Invoker {
	return &Invoker{binary: binary}
}

func (i *Invoker) Binary() string {
	return i.binary
}

// Run executes the binary and blocks until it exits.
func (i *Invoker) Run(ctx context.Context, args ...string) (Result, error) {
	log := logger.WithComponent("process")
	log.Debugf("run: %s %s", i.binary, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, i.binary, args...)
	cmd.WaitDelay = waitDelay
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		// a context that is already done is not a launch failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("%s %s: %w", i.binary, firstArg(args), ctxErr)
		}
		log.Errorf("spawn %s failed: %v", i.binary, err)
		return Result{}, &SpawnError{Binary: i.binary, Err: err}
	}

	err := cmd.Wait()
	res := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		return res, fmt.Errorf("%s %s: %w", i.binary, firstArg(args), ctxErr)
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, fmt.Errorf("wait %s: %w", i.binary, err)
	}
	if !res.Success() {
		log.Debugf("%s %s exited with status %d", i.binary, firstArg(args), res.ExitCode)
	}
	return res, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
