package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"

	"github.com/bassista/dockdesk/internal/events"
	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/process"
)

var ErrTaskNotFound = fmt.Errorf("stream task %w", errdefs.ErrNotFound)

type TaskKind string

const (
	TaskBuild TaskKind = "build"
	TaskExec  TaskKind = "exec"
	TaskLogs  TaskKind = "logs"
)

// Task is one running streaming operation.
type Task struct {
	ID        string
	Kind      TaskKind
	Target    string
	StartedAt time.Time

	lines  atomic.Int64
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// TaskInfo is a point-in-time view of a Task.
type TaskInfo struct {
	ID        string    `json:"id"`
	Kind      TaskKind  `json:"kind"`
	Target    string    `json:"target"`
	StartedAt time.Time `json:"started_at"`
	Lines     int64     `json:"lines"`
}

func (t *Task) Info() TaskInfo {
	return TaskInfo{ID: t.ID, Kind: t.Kind, Target: t.Target, StartedAt: t.StartedAt, Lines: t.lines.Load()}
}

// Done is closed once every line has been emitted and the subprocess reaped.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes. For builds a non-zero exit yields an
// error wrapping ErrBuildFailed; exec and logs only fail on I/O errors.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Cancel kills the subprocess. It is safe to call more than once.
func (t *Task) Cancel() {
	t.cancel()
}

// Streamer runs build, exec and logs and forwards their stdout to a sink line by line.
type Streamer struct {
	runner process.Runner
	sink   events.Sink

	mu    sync.Mutex
	tasks map[string]*Task
}

func NewStreamer(runner process.Runner, sink events.Sink) *Streamer {
	if sink == nil {
		sink = events.Discard
	}
	return &Streamer{runner: runner, sink: sink, tasks: map[string]*Task{}}
}

// Build runs `build -t tag path` and emits on build-log.
func (s *Streamer) Build(ctx context.Context, path, tag string) (*Task, error) {
	if path == "" || tag == "" {
		return nil, fmt.Errorf("build needs a context path and a tag: %w", errdefs.ErrInvalidArgument)
	}
	return s.start(ctx, TaskBuild, tag, events.ChannelBuildLog, "build", "-t", tag, path)
}

// Exec runs command through `sh -c` inside a running container and emits on exec-output.
func (s *Streamer) Exec(ctx context.Context, container, command string) (*Task, error) {
	if container == "" || command == "" {
		return nil, fmt.Errorf("exec needs a container and a command: %w", errdefs.ErrInvalidArgument)
	}
	return s.start(ctx, TaskExec, container, events.ChannelExecOutput, "exec", "-i", container, "sh", "-c", command)
}

// Logs follows a container's log until it stops or the task is cancelled, emitting on container-log.
func (s *Streamer) Logs(ctx context.Context, container string) (*Task, error) {
	if container == "" {
		return nil, fmt.Errorf("logs needs a container: %w", errdefs.ErrInvalidArgument)
	}
	return s.start(ctx, TaskLogs, container, events.ChannelContainerLog, "logs", "-f", container)
}

// start returns once the subprocess exists. A spawn failure is returned before
// anything is registered or emitted.
func (s *Streamer) start(ctx context.Context, kind TaskKind, target string, channel events.Channel, args ...string) (*Task, error) {
	tctx, cancel := context.WithCancel(ctx)
	stream, err := s.runner.Stream(tctx, args...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s %s: %w", kind, target, err)
	}

	t := &Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		Target:    target,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()

	logger.WithComponent("streamer").Infof("%s task %s started for %s", kind, t.ID, target)
	go s.forward(t, stream, channel)
	return t, nil
}

func (s *Streamer) forward(t *Task, stream *process.Stream, channel events.Channel) {
	log := logger.WithComponent("streamer")
	for line := range stream.Lines() {
		t.lines.Add(1)
		if err := s.sink.Emit(events.Event{Channel: channel, Source: t.ID, Target: t.Target, Line: line}); err != nil {
			log.Tracef("%s task %s: emit: %v", t.Kind, t.ID, err)
		}
	}

	res, err := stream.Wait()
	switch {
	case err != nil && t.Kind != TaskBuild && errors.Is(err, context.Canceled):
		// cancelling a follow is how it normally ends
		err = nil
	case err == nil && t.Kind == TaskBuild && !res.Success():
		err = newCommandError("build "+t.Target, ErrBuildFailed, res)
	}

	s.mu.Lock()
	delete(s.tasks, t.ID)
	s.mu.Unlock()

	t.err = err
	t.cancel()
	close(t.done)

	if err != nil {
		log.Warnf("%s task %s for %s ended: %v", t.Kind, t.ID, t.Target, err)
		return
	}
	log.Infof("%s task %s for %s finished after %d lines", t.Kind, t.ID, t.Target, t.lines.Load())
}

// Tasks lists running tasks, oldest first.
func (s *Streamer) Tasks() []TaskInfo {
	s.mu.Lock()
	infos := make([]TaskInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		infos = append(infos, t.Info())
	}
	s.mu.Unlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].StartedAt.Before(infos[j].StartedAt) })
	return infos
}

func (s *Streamer) Get(id string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Cancel stops the task with the given id.
func (s *Streamer) Cancel(id string) error {
	t, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	t.Cancel()
	return nil
}

// CancelAll stops every running task, used on shutdown.
func (s *Streamer) CancelAll() {
	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()
	for _, t := range tasks {
		t.Cancel()
	}
}
