package runtime

import (
	"context"

	"github.com/bassista/dockdesk/internal/model"
)

// DefaultTag is used when a pull names no tag.
const DefaultTag = "latest"

// ContainerRuntime abstracts lifecycle operations, listings and system stats.
// CLIRuntime asks the runtime binary; MemoryRuntime answers from the store.
type ContainerRuntime interface {
	ListContainers(ctx context.Context) ([]model.Container, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string) error
	CreateContainer(ctx context.Context, spec model.CreateSpec) (model.Container, error)
	RunContainer(ctx context.Context, spec model.RunSpec) (model.Container, error)

	ListImages(ctx context.Context) ([]model.Image, error)
	PullImage(ctx context.Context, name, tag string) (model.Image, error)
	RemoveImage(ctx context.Context, name string) error

	SystemStats(ctx context.Context) (model.SystemStats, error)
}

// Monitor exposes live runtime queries that have no store-backed meaning.
type Monitor interface {
	ContainerStats(ctx context.Context) ([]model.ContainerStats, error)
	InspectContainer(ctx context.Context, id string) (model.ContainerDetail, error)
}

func tagOrDefault(tag string) string {
	if tag == "" {
		return DefaultTag
	}
	return tag
}
