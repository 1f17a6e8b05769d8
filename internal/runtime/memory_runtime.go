package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"

	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/model"
)

const maxIDAttempts = 5

// MemoryStore is what MemoryRuntime needs from the state store.
type MemoryStore interface {
	Containers() []model.Container
	FindContainer(id string) (model.Container, error)
	InsertContainer(c model.Container) error
	UpdateContainer(id string, fn func(*model.Container)) (model.Container, error)
	RemoveContainer(id string) error

	Images() []model.Image
	InsertImage(img model.Image) error
	RemoveImage(ref string) error
}

// MemoryRuntime keeps containers and images in the store and never calls the
// runtime binary. It is authoritative over its own records.
type MemoryRuntime struct {
	store MemoryStore
	newID func() string
}

var _ ContainerRuntime = (*MemoryRuntime)(nil)

func NewMemoryRuntime(store MemoryStore) *MemoryRuntime {
	return &MemoryRuntime{store: store, newID: shortID}
}

// shortID returns a 12 hex character identifier, the width the runtime prints.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (m *MemoryRuntime) ListContainers(_ context.Context) ([]model.Container, error) {
	containers := m.store.Containers()
	logger.WithComponent("memory-runtime").Debugf("listing %d containers", len(containers))
	return containers, nil
}

func (m *MemoryRuntime) StartContainer(_ context.Context, id string) error {
	return m.setStatus(id, model.StatusRunning)
}

func (m *MemoryRuntime) StopContainer(_ context.Context, id string) error {
	return m.setStatus(id, model.StatusStopped)
}

func (m *MemoryRuntime) setStatus(id string, status model.Status) error {
	if _, err := m.store.UpdateContainer(id, func(c *model.Container) {
		c.Status = string(status)
	}); err != nil {
		return err
	}
	logger.WithComponent("memory-runtime").Debugf("container %s is now %s", id, status)
	return nil
}

func (m *MemoryRuntime) RemoveContainer(_ context.Context, id string) error {
	if err := m.store.RemoveContainer(id); err != nil {
		return err
	}
	logger.WithComponent("memory-runtime").Debugf("removed container %s", id)
	return nil
}

func (m *MemoryRuntime) CreateContainer(_ context.Context, spec model.CreateSpec) (model.Container, error) {
	return m.insertContainer(model.Container{Name: spec.Name, Image: spec.Image, Status: string(model.StatusCreated)})
}

func (m *MemoryRuntime) RunContainer(_ context.Context, spec model.RunSpec) (model.Container, error) {
	return m.insertContainer(model.Container{Name: spec.Name, Image: spec.Image, Status: string(model.StatusRunning)})
}

// insertContainer assigns a fresh id, retrying on the unlikely collision.
func (m *MemoryRuntime) insertContainer(c model.Container) (model.Container, error) {
	if c.Image == "" {
		return model.Container{}, fmt.Errorf("image is required: %w", errdefs.ErrInvalidArgument)
	}
	for range maxIDAttempts {
		c.ID = m.newID()
		err := m.store.InsertContainer(c)
		if err == nil {
			logger.WithComponent("memory-runtime").Debugf("created container %s (%s) with status %s", c.ID, c.Image, c.Status)
			return c, nil
		}
		if !errdefs.IsAlreadyExists(err) {
			return model.Container{}, err
		}
	}
	return model.Container{}, fmt.Errorf("no free container id after %d attempts: %w", maxIDAttempts, errdefs.ErrConflict)
}

// InspectContainer describes a stored record. Only the fields the store
// tracks are set; unknown ids return cache.ErrContainerNotFound.
func (m *MemoryRuntime) InspectContainer(_ context.Context, id string) (model.ContainerDetail, error) {
	c, err := m.store.FindContainer(id)
	if err != nil {
		return model.ContainerDetail{}, err
	}
	state := c.State()
	return model.ContainerDetail{
		ID:      c.ID,
		Name:    c.Name,
		Image:   c.Image,
		State:   string(state),
		Running: state == model.StatusRunning,
	}, nil
}

func (m *MemoryRuntime) ListImages(_ context.Context) ([]model.Image, error) {
	return m.store.Images(), nil
}

// PullImage records an image with a fresh id without contacting any registry.
func (m *MemoryRuntime) PullImage(_ context.Context, name, tag string) (model.Image, error) {
	if name == "" {
		return model.Image{}, fmt.Errorf("image name is required: %w", errdefs.ErrInvalidArgument)
	}
	img := model.Image{Repository: name, Tag: tagOrDefault(tag)}
	for range maxIDAttempts {
		img.ID = m.newID()
		err := m.store.InsertImage(img)
		if err == nil {
			logger.WithComponent("memory-runtime").Debugf("recorded image %s as %s", img.Reference(), img.ID)
			return img, nil
		}
		if !errdefs.IsAlreadyExists(err) {
			return model.Image{}, err
		}
	}
	return model.Image{}, fmt.Errorf("no free image id after %d attempts: %w", maxIDAttempts, errdefs.ErrConflict)
}

func (m *MemoryRuntime) RemoveImage(_ context.Context, name string) error {
	if err := m.store.RemoveImage(name); err != nil {
		return err
	}
	logger.WithComponent("memory-runtime").Debugf("removed image %s", name)
	return nil
}

// SystemStats reduces over one snapshot per collection. The two collections
// are read separately and never locked together.
func (m *MemoryRuntime) SystemStats(_ context.Context) (model.SystemStats, error) {
	containers := m.store.Containers()
	running := 0
	for _, c := range containers {
		if c.State() == model.StatusRunning {
			running++
		}
	}
	return model.SystemStats{
		TotalContainers:   len(containers),
		RunningContainers: running,
		TotalImages:       len(m.store.Images()),
	}, nil
}
