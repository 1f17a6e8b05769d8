package runtime

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassista/dockdesk/internal/cache"
	"github.com/bassista/dockdesk/internal/model"
	"github.com/bassista/dockdesk/internal/process"
)

func TestNewRuntimeFromConfig_Memory(t *testing.T) {
	rt, err := NewRuntimeFromConfig("memory", process.NewInvoker("docker"), cache.NewStore())
	require.NoError(t, err)
	assert.IsType(t, &MemoryRuntime{}, rt)
}

func TestNewRuntimeFromConfig_CLI(t *testing.T) {
	for _, mode := range []string{"cli", ""} {
		rt, err := NewRuntimeFromConfig(mode, process.NewInvoker("docker"), cache.NewStore())
		require.NoError(t, err)
		assert.IsType(t, &CLIRuntime{}, rt)
	}
}

func TestNewRuntimeFromConfig_Unknown(t *testing.T) {
	rt, err := NewRuntimeFromConfig("kubernetes", process.NewInvoker("docker"), cache.NewStore())
	assert.Nil(t, rt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown runtime mode: kubernetes")
}

func TestNewMonitor_CLIRuntimeInspectsThroughBinary(t *testing.T) {
	runner := process.NewInvoker("docker")
	m := NewMonitor(NewCLIRuntime(runner, cache.NewStore()), runner)
	assert.IsType(t, &CLIRuntime{}, m)
}

func TestNewMonitor_MemoryRuntimeInspectsStore(t *testing.T) {
	store := cache.NewStore()
	mr := NewMemoryRuntime(store)
	// a binary that does not exist proves inspect never spawns it
	runner := process.NewInvoker(filepath.Join(t.TempDir(), "missing-docker"))
	m := NewMonitor(mr, runner)

	created, err := mr.CreateContainer(context.Background(), model.CreateSpec{Image: "nginx", Name: "web"})
	require.NoError(t, err)

	detail, err := m.InspectContainer(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, detail.ID)
	assert.Equal(t, string(model.StatusCreated), detail.State)

	_, err = m.InspectContainer(context.Background(), "ghost")
	assert.ErrorIs(t, err, cache.ErrContainerNotFound)

	// usage samples still need the binary
	_, err = m.ContainerStats(context.Background())
	var spawnErr *process.SpawnError
	assert.ErrorAs(t, err, &spawnErr)
}
