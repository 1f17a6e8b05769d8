package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/bassista/dockdesk/internal/cache"
	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/model"
)

// Lister is the part of a runtime the sync scheduler reads from.
type Lister interface {
	ListContainers(ctx context.Context) ([]model.Container, error)
	ListImages(ctx context.Context) ([]model.Image, error)
}

// SyncScheduler re-lists the runtime on a fixed interval and replaces the
// store's collections with the result. It is only used when the runtime,
// not the store, is ground truth.
//
// Listing happens before any store lock is taken; each collection is then
// swapped under its own lock.
type SyncScheduler struct {
	store  cache.SyncableStore
	source Lister
	poll   time.Duration

	mu      sync.Mutex
	running bool
}

func NewSyncScheduler(store cache.SyncableStore, source Lister, poll time.Duration) *SyncScheduler {
	return &SyncScheduler{store: store, source: source, poll: poll}
}

// Start runs an immediate sync and then one per tick until ctx is done.
// The returned channel is closed once the loop has exited.
func (s *SyncScheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("sync").Debugf("starting sync scheduler with interval: %v", s.poll)
	ticker := time.NewTicker(s.poll)
	go func() {
		defer close(done)
		defer ticker.Stop()
		s.Sync(ctx)
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("sync").Info("sync scheduler stopped")
				return
			case <-ticker.C:
				s.Sync(ctx)
			}
		}
	}()
	return done
}

// Sync refreshes the store once. A tick still running from a slow runtime is
// not stacked upon; the overlapping call returns false immediately.
func (s *SyncScheduler) Sync(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.WithComponent("sync").Debugf("previous sync still running, skipping")
		return false
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return false
	}

	ok := true
	containers, err := s.source.ListContainers(ctx)
	if err != nil {
		logger.WithComponent("sync").Errorf("list containers: %v", err)
		ok = false
	} else {
		s.store.ReplaceContainers(containers)
	}

	images, err := s.source.ListImages(ctx)
	if err != nil {
		logger.WithComponent("sync").Errorf("list images: %v", err)
		ok = false
	} else {
		s.store.ReplaceImages(images)
	}

	if ok {
		s.store.SetLastSync(time.Now())
		logger.WithComponent("sync").Tracef("synced %d containers and %d images", len(containers), len(images))
	}
	return ok
}
