// Package events carries streamed output lines from the runtime to listeners.
//
// Delivery is at-most-effort: a slow or absent listener never stalls the
// producer, lines are dropped for it instead.
package events

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Channel names a stream of lines.
type Channel string

const (
	ChannelBuildLog     Channel = "build-log"
	ChannelExecOutput   Channel = "exec-output"
	ChannelContainerLog Channel = "container-log"
)

var ErrDropped = errors.New("event dropped")

// Channels lists every channel the runtime emits on.
func Channels() []Channel {
	return []Channel{ChannelBuildLog, ChannelExecOutput, ChannelContainerLog}
}

// ParseChannel validates a channel name coming from outside the process.
func ParseChannel(name string) (Channel, error) {
	for _, c := range Channels() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown event channel %q", name)
}

// Event is one output line.
type Event struct {
	Channel Channel   `json:"channel"`
	Source  string    `json:"source"` // task id that produced the line
	Target  string    `json:"target"` // container id or image tag
	Line    string    `json:"line"`
	Time    time.Time `json:"time"`
}

// Sink receives events. Implementations must not block.
type Sink interface {
	Emit(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

func (f SinkFunc) Emit(e Event) error { return f(e) }

// Discard accepts and drops every event.
var Discard Sink = SinkFunc(func(Event) error { return nil })

// WriterSink writes each line to w, one per row.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Emit(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, e.Line)
	return err
}
