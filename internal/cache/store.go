package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/containerd/errdefs"

	"github.com/bassista/dockdesk/internal/model"
)

var (
	ErrContainerNotFound = fmt.Errorf("container %w", errdefs.ErrNotFound)
	ErrImageNotFound     = fmt.Errorf("image %w", errdefs.ErrNotFound)
)

// Store keeps the in-memory view of containers and images.
// Each collection has its own lock and the two are never held together.
type Store struct {
	cmu        sync.RWMutex
	containers []model.Container

	imu    sync.RWMutex
	images []model.Image

	smu      sync.RWMutex
	lastSync time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Containers returns a snapshot copy of the container collection in insertion order.
func (s *Store) Containers() []model.Container {
	s.cmu.RLock()
	defer s.cmu.RUnlock()
	out := make([]model.Container, len(s.containers))
	copy(out, s.containers)
	return out
}

// Images returns a snapshot copy of the image collection in insertion order.
func (s *Store) Images() []model.Image {
	s.imu.RLock()
	defer s.imu.RUnlock()
	out := make([]model.Image, len(s.images))
	copy(out, s.images)
	return out
}

// FindContainer returns the container with the given id.
func (s *Store) FindContainer(id string) (model.Container, error) {
	s.cmu.RLock()
	defer s.cmu.RUnlock()
	if i := s.containerIndex(id); i >= 0 {
		return s.containers[i], nil
	}
	return model.Container{}, fmt.Errorf("%w: %s", ErrContainerNotFound, id)
}

// InsertContainer appends c. The id must be unique within the collection.
func (s *Store) InsertContainer(c model.Container) error {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	if s.containerIndex(c.ID) >= 0 {
		return fmt.Errorf("container %s: %w", c.ID, errdefs.ErrAlreadyExists)
	}
	s.containers = append(s.containers, c)
	return nil
}

// UpdateContainer applies fn to the record with the given id under the write lock.
// The id itself cannot be changed. Unknown ids leave the store untouched.
func (s *Store) UpdateContainer(id string, fn func(*model.Container)) (model.Container, error) {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	i := s.containerIndex(id)
	if i < 0 {
		return model.Container{}, fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	updated := s.containers[i]
	fn(&updated)
	updated.ID = id
	s.containers[i] = updated
	return updated, nil
}

// RemoveContainer deletes the record with the given id.
func (s *Store) RemoveContainer(id string) error {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	i := s.containerIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	s.containers = append(s.containers[:i], s.containers[i+1:]...)
	return nil
}

// ReplaceContainers swaps the whole collection, used when the runtime is ground truth.
func (s *Store) ReplaceContainers(containers []model.Container) {
	cloned := make([]model.Container, len(containers))
	copy(cloned, containers)
	s.cmu.Lock()
	defer s.cmu.Unlock()
	s.containers = cloned
}

// FindImage returns the image matching ref, either by id or by repository:tag.
func (s *Store) FindImage(ref string) (model.Image, error) {
	s.imu.RLock()
	defer s.imu.RUnlock()
	if i := s.imageIndex(ref); i >= 0 {
		return s.images[i], nil
	}
	return model.Image{}, fmt.Errorf("%w: %s", ErrImageNotFound, ref)
}

// InsertImage appends img. The id must be unique within the collection.
func (s *Store) InsertImage(img model.Image) error {
	s.imu.Lock()
	defer s.imu.Unlock()
	for _, existing := range s.images {
		if existing.ID == img.ID {
			return fmt.Errorf("image %s: %w", img.ID, errdefs.ErrAlreadyExists)
		}
	}
	s.images = append(s.images, img)
	return nil
}

// RemoveImage deletes the first image matching ref by id or repository:tag.
func (s *Store) RemoveImage(ref string) error {
	s.imu.Lock()
	defer s.imu.Unlock()
	i := s.imageIndex(ref)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrImageNotFound, ref)
	}
	s.images = append(s.images[:i], s.images[i+1:]...)
	return nil
}

func (s *Store) ReplaceImages(images []model.Image) {
	cloned := make([]model.Image, len(images))
	copy(cloned, images)
	s.imu.Lock()
	defer s.imu.Unlock()
	s.images = cloned
}

// LastSync returns when the store was last refreshed from the runtime.
func (s *Store) LastSync() time.Time {
	s.smu.RLock()
	defer s.smu.RUnlock()
	return s.lastSync
}

func (s *Store) SetLastSync(ts time.Time) {
	s.smu.Lock()
	defer s.smu.Unlock()
	s.lastSync = ts
}

// caller holds cmu
func (s *Store) containerIndex(id string) int {
	for i := range s.containers {
		if s.containers[i].ID == id {
			return i
		}
	}
	return -1
}

// caller holds imu
func (s *Store) imageIndex(ref string) int {
	for i := range s.images {
		if s.images[i].ID == ref || s.images[i].Reference() == ref {
			return i
		}
	}
	return -1
}
