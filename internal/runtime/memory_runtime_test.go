package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassista/dockdesk/internal/cache"
	"github.com/bassista/dockdesk/internal/model"
)

func TestNewMemoryRuntime(t *testing.T) {
	mr := NewMemoryRuntime(cache.NewStore())
	require.NotNil(t, mr)

	containers, err := mr.ListContainers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, containers)
}

func TestShortID(t *testing.T) {
	id := shortID()
	assert.Len(t, id, 12)
	assert.Regexp(t, "^[0-9a-f]{12}$", id)
}

func TestMemoryRuntime_CreateThenLifecycle(t *testing.T) {
	mr := NewMemoryRuntime(cache.NewStore())
	ctx := context.Background()

	c, err := mr.CreateContainer(ctx, model.CreateSpec{Image: "nginx:latest", Name: "web"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, string(model.StatusCreated), c.Status)

	require.NoError(t, mr.StartContainer(ctx, c.ID))
	require.NoError(t, mr.StopContainer(ctx, c.ID))
	containers, _ := mr.ListContainers(ctx)
	assert.Equal(t, string(model.StatusStopped), containers[0].Status)

	require.NoError(t, mr.StartContainer(ctx, c.ID))
	containers, _ = mr.ListContainers(ctx)
	assert.Equal(t, string(model.StatusRunning), containers[0].Status)

	require.NoError(t, mr.RemoveContainer(ctx, c.ID))
	containers, _ = mr.ListContainers(ctx)
	assert.Empty(t, containers)
}

func TestMemoryRuntime_UnknownIDIsNotFoundAndLeavesStoreUnchanged(t *testing.T) {
	store := cache.NewStore()
	mr := NewMemoryRuntime(store)
	ctx := context.Background()
	_, err := mr.CreateContainer(ctx, model.CreateSpec{Image: "alpine"})
	require.NoError(t, err)
	before := store.Containers()

	for name, op := range map[string]func(context.Context, string) error{
		"start":  mr.StartContainer,
		"stop":   mr.StopContainer,
		"remove": mr.RemoveContainer,
	} {
		t.Run(name, func(t *testing.T) {
			err := op(ctx, "missing")
			assert.True(t, errdefs.IsNotFound(err))
			assert.Equal(t, before, store.Containers())
		})
	}
}

func TestMemoryRuntime_CreateRequiresImage(t *testing.T) {
	mr := NewMemoryRuntime(cache.NewStore())
	_, err := mr.CreateContainer(context.Background(), model.CreateSpec{Name: "x"})
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestMemoryRuntime_RunRecordsRunningContainer(t *testing.T) {
	mr := NewMemoryRuntime(cache.NewStore())
	c, err := mr.RunContainer(context.Background(), model.RunSpec{Image: "redis:7", Name: "cache", Ports: "6379:6379"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, c.State())
	assert.Equal(t, "cache", c.Name)
}

func TestMemoryRuntime_RetriesOnIDCollision(t *testing.T) {
	store := cache.NewStore()
	require.NoError(t, store.InsertContainer(model.Container{ID: "taken"}))
	mr := NewMemoryRuntime(store)

	ids := []string{"taken", "taken", "fresh"}
	mr.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	c, err := mr.CreateContainer(context.Background(), model.CreateSpec{Image: "alpine"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", c.ID)
}

func TestMemoryRuntime_GivesUpAfterRepeatedCollisions(t *testing.T) {
	store := cache.NewStore()
	require.NoError(t, store.InsertContainer(model.Container{ID: "taken"}))
	mr := NewMemoryRuntime(store)
	mr.newID = func() string { return "taken" }

	_, err := mr.CreateContainer(context.Background(), model.CreateSpec{Image: "alpine"})
	assert.True(t, errdefs.IsConflict(err))
	assert.Len(t, store.Containers(), 1)
}

func TestMemoryRuntime_ConcurrentCreatesYieldUniqueIDs(t *testing.T) {
	mr := NewMemoryRuntime(cache.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := mr.CreateContainer(ctx, model.CreateSpec{Image: "alpine", Name: fmt.Sprintf("c%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	containers, _ := mr.ListContainers(ctx)
	require.Len(t, containers, 100)
	seen := map[string]bool{}
	for _, c := range containers {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestMemoryRuntime_Images(t *testing.T) {
	mr := NewMemoryRuntime(cache.NewStore())
	ctx := context.Background()

	img, err := mr.PullImage(ctx, "nginx", "")
	require.NoError(t, err)
	assert.Equal(t, "latest", img.Tag)
	assert.NotEmpty(t, img.ID)

	_, err = mr.PullImage(ctx, "", "1")
	assert.True(t, errdefs.IsInvalidArgument(err))

	images, _ := mr.ListImages(ctx)
	require.Len(t, images, 1)

	require.NoError(t, mr.RemoveImage(ctx, "nginx:latest"))
	assert.True(t, errdefs.IsNotFound(mr.RemoveImage(ctx, "nginx:latest")))
}

func TestMemoryRuntime_SystemStats(t *testing.T) {
	store := cache.NewStore()
	require.NoError(t, store.InsertContainer(model.Container{ID: "1", Status: "running"}))
	require.NoError(t, store.InsertContainer(model.Container{ID: "2", Status: "running"}))
	require.NoError(t, store.InsertContainer(model.Container{ID: "3", Status: "stopped"}))
	require.NoError(t, store.InsertImage(model.Image{ID: "a"}))
	require.NoError(t, store.InsertImage(model.Image{ID: "b"}))

	stats, err := NewMemoryRuntime(store).SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SystemStats{TotalContainers: 3, RunningContainers: 2, TotalImages: 2}, stats)
}

func TestMemoryRuntime_InspectReadsStore(t *testing.T) {
	mr := NewMemoryRuntime(cache.NewStore())
	ctx := context.Background()

	c, err := mr.RunContainer(ctx, model.RunSpec{Image: "redis:7", Name: "cache"})
	require.NoError(t, err)

	detail, err := mr.InspectContainer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContainerDetail{ID: c.ID, Name: "cache", Image: "redis:7", State: "running", Running: true}, detail)

	require.NoError(t, mr.StopContainer(ctx, c.ID))
	detail, err = mr.InspectContainer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "stopped", detail.State)
	assert.False(t, detail.Running)
}

func TestMemoryRuntime_InspectUnknown(t *testing.T) {
	mr := NewMemoryRuntime(cache.NewStore())

	_, err := mr.InspectContainer(context.Background(), "ghost")
	assert.True(t, errdefs.IsNotFound(err))
}
