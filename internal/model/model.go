package model

import "strings"

// Status is the normalized lifecycle state of a container.
type Status string

const (
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusUnknown Status = "unknown"
)

// Container models a single container as listed by the runtime or held by the store.
// Status keeps the raw runtime text ("Up 2 minutes") when it comes from a listing.
type Container struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Image  string `json:"image" yaml:"image"`
	Status string `json:"status" yaml:"status"`
}

// State maps Status to one of the normalized lifecycle states.
func (c Container) State() Status {
	s := strings.ToLower(strings.TrimSpace(c.Status))
	switch {
	case s == string(StatusCreated), s == string(StatusRunning), s == string(StatusStopped):
		return Status(s)
	case strings.HasPrefix(s, "up"), s == "restarting", strings.HasPrefix(s, "restarting"):
		return StatusRunning
	case strings.HasPrefix(s, "exited"), s == "dead", s == "paused", strings.HasPrefix(s, "paused"):
		return StatusStopped
	default:
		return StatusUnknown
	}
}

// Image models a local image.
type Image struct {
	ID         string `json:"id" yaml:"id"`
	Repository string `json:"repository" yaml:"repository"`
	Tag        string `json:"tag" yaml:"tag"`
	Size       string `json:"size,omitempty" yaml:"size,omitempty"`
}

// Reference returns repository:tag, or just the repository when tag is empty.
func (i Image) Reference() string {
	if i.Tag == "" {
		return i.Repository
	}
	return i.Repository + ":" + i.Tag
}

// ContainerStats is a point-in-time usage sample. Values are kept as the runtime formats them.
type ContainerStats struct {
	Name          string `json:"name" yaml:"name"`
	CPU           string `json:"cpu" yaml:"cpu"`
	Memory        string `json:"memory" yaml:"memory"`
	MemoryPercent string `json:"memory_percent" yaml:"memory_percent"`
}

// SystemStats aggregates counts over containers and images.
type SystemStats struct {
	TotalContainers   int `json:"total_containers" yaml:"total_containers"`
	RunningContainers int `json:"running_containers" yaml:"running_containers"`
	TotalImages       int `json:"total_images" yaml:"total_images"`
}

// ContainerDetail is the subset of an inspect response exposed to callers.
type ContainerDetail struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Image        string            `json:"image" yaml:"image"`
	ImageID      string            `json:"image_id" yaml:"image_id"`
	State        string            `json:"state" yaml:"state"`
	Running      bool              `json:"running" yaml:"running"`
	ExitCode     int               `json:"exit_code" yaml:"exit_code"`
	Pid          int               `json:"pid" yaml:"pid"`
	RestartCount int               `json:"restart_count" yaml:"restart_count"`
	Labels       map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// CreateSpec describes a container to create without starting it.
type CreateSpec struct {
	Image   string `json:"image" yaml:"image" validate:"required"`
	Name    string `json:"name" yaml:"name"`
	Command string `json:"cmd" yaml:"cmd"`
}

// RunSpec describes a detached container run. Empty optional fields are omitted from the invocation.
type RunSpec struct {
	Image   string `json:"image" yaml:"image" validate:"required"`
	Name    string `json:"name" yaml:"name"`
	Ports   string `json:"ports" yaml:"ports"`
	Command string `json:"cmd" yaml:"cmd"`
}

// RuntimeInfo describes the runtime binary in use.
type RuntimeInfo struct {
	Binary     string `json:"binary" yaml:"binary"`
	Path       string `json:"path" yaml:"path"`
	Version    string `json:"version" yaml:"version"`
	MinVersion string `json:"min_version,omitempty" yaml:"min_version,omitempty"`
	Supported  bool   `json:"supported" yaml:"supported"`
}
