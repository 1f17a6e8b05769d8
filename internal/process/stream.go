package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/bassista/dockdesk/internal/logger"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineLength     = 1024 * 1024
	stderrTailLimit   = 16 * 1024
)

// Stream is a running subprocess whose stdout is delivered line by line.
// Lines must be drained before Wait reports the exit status.
type Stream struct {
	cmd    *exec.Cmd
	ctx    context.Context
	lines  chan string
	pumped chan struct{}
	stderr *tailBuffer

	scanErr error

	waitOnce sync.Once
	result   Result
	waitErr  error
}

// Stream starts the binary and returns once the process exists.
// It fails with *SpawnError before any line is produced if the binary cannot be launched.
func (i *Invoker) Stream(ctx context.Context, args ...string) (*Stream, error) {
	log := logger.WithComponent("process")
	log.Debugf("stream: %s %s", i.binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, i.binary, args...)
	cmd.WaitDelay = waitDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Binary: i.binary, Err: err}
	}
	stderr := &tailBuffer{limit: stderrTailLimit}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		// a context that is already done is not a launch failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", i.binary, firstArg(args), ctxErr)
		}
		log.Errorf("spawn %s failed: %v", i.binary, err)
		return nil, &SpawnError{Binary: i.binary, Err: err}
	}

	s := &Stream{
		cmd:    cmd,
		ctx:    ctx,
		lines:  make(chan string),
		pumped: make(chan struct{}),
		stderr: stderr,
	}
	go s.pump(stdout)
	go func() {
		// a killed process may leave children holding the pipe open
		select {
		case <-ctx.Done():
			_ = stdout.Close()
		case <-s.pumped:
		}
	}()
	return s, nil
}

// Lines yields stdout lines in the order they were written. The channel is
// closed when the subprocess closes its output or the context is cancelled.
func (s *Stream) Lines() <-chan string {
	return s.lines
}

// Pid returns the process id of the subprocess.
func (s *Stream) Pid() int {
	if s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Wait blocks until the line sequence is exhausted and the process has exited.
// A non-zero exit is reported in Result, not as an error. Safe to call more than once.
func (s *Stream) Wait() (Result, error) {
	s.waitOnce.Do(func() {
		<-s.pumped
		err := s.cmd.Wait()
		s.result = Result{
			ExitCode: s.cmd.ProcessState.ExitCode(),
			Stderr:   s.stderr.String(),
		}

		if ctxErr := s.ctx.Err(); err != nil && ctxErr != nil {
			s.waitErr = ctxErr
			return
		}
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			s.waitErr = fmt.Errorf("wait %s: %w", s.cmd.Path, err)
			return
		}
		if s.scanErr != nil {
			s.waitErr = fmt.Errorf("read output: %w", s.scanErr)
		}
	})
	return s.result, s.waitErr
}

func (s *Stream) pump(r io.Reader) {
	defer close(s.pumped)
	defer close(s.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineLength)
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && s.ctx.Err() == nil {
		s.scanErr = err
		_, _ = io.Copy(io.Discard, r)
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
