package cache

import (
	"time"

	"github.com/bassista/dockdesk/internal/model"
)

// ReadOnlyStore is the minimal cache API for read-only controllers.
type ReadOnlyStore interface {
	Containers() []model.Container
	Images() []model.Image
	LastSync() time.Time
}

// ContainerStore is the cache API needed by the stateful runtime for containers.
type ContainerStore interface {
	Containers() []model.Container
	FindContainer(id string) (model.Container, error)
	InsertContainer(c model.Container) error
	UpdateContainer(id string, fn func(*model.Container)) (model.Container, error)
	RemoveContainer(id string) error
}

// ImageStore is the cache API needed by the stateful runtime for images.
type ImageStore interface {
	Images() []model.Image
	FindImage(ref string) (model.Image, error)
	InsertImage(img model.Image) error
	RemoveImage(ref string) error
}

// SyncableStore is the cache API needed by the sync scheduler and the stateless runtime.
type SyncableStore interface {
	ReplaceContainers(containers []model.Container)
	ReplaceImages(images []model.Image)
	SetLastSync(ts time.Time)
}

// AppStore is the cache contract the application container exposes.
type AppStore interface {
	ReadOnlyStore
	ContainerStore
	ImageStore
	SyncableStore
}

var _ AppStore = (*Store)(nil)
