package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassista/dockdesk/internal/model"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.InsertContainer(model.Container{ID: "c1", Name: "web", Image: "nginx:latest", Status: string(model.StatusRunning)}))
	require.NoError(t, s.InsertContainer(model.Container{ID: "c2", Name: "db", Image: "postgres:16", Status: string(model.StatusStopped)}))
	require.NoError(t, s.InsertImage(model.Image{ID: "i1", Repository: "nginx", Tag: "latest"}))
	return s
}

func TestNewStore_Empty(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.Containers())
	assert.Empty(t, s.Images())
	assert.True(t, s.LastSync().IsZero())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := seededStore(t)

	snap := s.Containers()
	snap[0].Status = "tampered"

	c, err := s.FindContainer("c1")
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusRunning), c.Status)
}

func TestStore_InsertContainer_Duplicate(t *testing.T) {
	s := seededStore(t)

	err := s.InsertContainer(model.Container{ID: "c1", Name: "other"})
	assert.True(t, errdefs.IsAlreadyExists(err))
	assert.Len(t, s.Containers(), 2)
}

func TestStore_UpdateContainer(t *testing.T) {
	s := seededStore(t)

	updated, err := s.UpdateContainer("c2", func(c *model.Container) {
		c.Status = string(model.StatusRunning)
		c.ID = "ignored"
	})
	require.NoError(t, err)
	assert.Equal(t, "c2", updated.ID)
	assert.Equal(t, string(model.StatusRunning), updated.Status)

	c, err := s.FindContainer("c2")
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusRunning), c.Status)
}

func TestStore_UpdateContainer_NotFoundLeavesStoreUnchanged(t *testing.T) {
	s := seededStore(t)
	before := s.Containers()

	called := false
	_, err := s.UpdateContainer("missing", func(c *model.Container) { called = true })

	assert.ErrorIs(t, err, ErrContainerNotFound)
	assert.True(t, errdefs.IsNotFound(err))
	assert.False(t, called)
	assert.Equal(t, before, s.Containers())
}

func TestStore_RemoveContainer(t *testing.T) {
	s := seededStore(t)

	require.NoError(t, s.RemoveContainer("c1"))
	containers := s.Containers()
	require.Len(t, containers, 1)
	assert.Equal(t, "c2", containers[0].ID)

	assert.ErrorIs(t, s.RemoveContainer("c1"), ErrContainerNotFound)
}

func TestStore_Images(t *testing.T) {
	s := seededStore(t)

	img, err := s.FindImage("nginx:latest")
	require.NoError(t, err)
	assert.Equal(t, "i1", img.ID)

	_, err = s.FindImage("i1")
	require.NoError(t, err)

	assert.True(t, errdefs.IsAlreadyExists(s.InsertImage(model.Image{ID: "i1"})))

	require.NoError(t, s.RemoveImage("nginx:latest"))
	assert.Empty(t, s.Images())
	assert.ErrorIs(t, s.RemoveImage("nginx:latest"), ErrImageNotFound)
}

func TestStore_Replace(t *testing.T) {
	s := seededStore(t)
	fresh := []model.Container{{ID: "x", Name: "fresh"}}

	s.ReplaceContainers(fresh)
	fresh[0].Name = "mutated"
	s.ReplaceImages(nil)

	containers := s.Containers()
	require.Len(t, containers, 1)
	assert.Equal(t, "fresh", containers[0].Name)
	assert.Empty(t, s.Images())
}

func TestStore_LastSync(t *testing.T) {
	s := NewStore()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.SetLastSync(ts)
	assert.Equal(t, ts, s.LastSync())
}

func TestStore_ConcurrentInsertsKeepIDsUnique(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every id is attempted twice
			if err := s.InsertContainer(model.Container{ID: fmt.Sprintf("id-%d", i%25)}); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, accepted)
	seen := map[string]bool{}
	for _, c := range s.Containers() {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestStore_ListDuringInsertSeesWholeRecords(t *testing.T) {
	s := NewStore()
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, c := range s.Containers() {
				if c.ID == "" || c.Name == "" || c.Image == "" || c.Status == "" {
					t.Errorf("partial record observed: %+v", c)
					return
				}
			}
		}
	}()

	for i := 0; i < 200; i++ {
		require.NoError(t, s.InsertContainer(model.Container{
			ID:     fmt.Sprintf("c%d", i),
			Name:   fmt.Sprintf("name-%d", i),
			Image:  "alpine:3",
			Status: string(model.StatusCreated),
		}))
	}
	close(stop)
	wg.Wait()
	assert.Len(t, s.Containers(), 200)
}
