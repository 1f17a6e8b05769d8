package runtime

import (
	"context"
	"fmt"

	"github.com/bassista/dockdesk/internal/cache"
	"github.com/bassista/dockdesk/internal/config"
	"github.com/bassista/dockdesk/internal/model"
	"github.com/bassista/dockdesk/internal/process"
)

// NewRuntimeFromConfig creates a ContainerRuntime for the configured mode.
// "memory" makes the store authoritative; "cli" (default) asks the runtime
// binary and writes listings through to the store.
func NewRuntimeFromConfig(mode string, runner process.Runner, store *cache.Store) (ContainerRuntime, error) {
	switch mode {
	case config.RuntimeModeMemory:
		return NewMemoryRuntime(store), nil
	case config.RuntimeModeCLI, "":
		return NewCLIRuntime(runner, store), nil
	default:
		return nil, fmt.Errorf("unknown runtime mode: %s (supported: %s, %s)", mode, config.RuntimeModeCLI, config.RuntimeModeMemory)
	}
}

// NewMonitor returns the Monitor matching rt. With a MemoryRuntime the store
// stays authoritative for inspect; usage samples always come from the binary.
func NewMonitor(rt ContainerRuntime, runner process.Runner) Monitor {
	live := NewCLIRuntime(runner, nil)
	if mr, ok := rt.(*MemoryRuntime); ok {
		return &storeMonitor{store: mr, live: live}
	}
	return live
}

type storeMonitor struct {
	store *MemoryRuntime
	live  *CLIRuntime
}

var _ Monitor = (*storeMonitor)(nil)

func (s *storeMonitor) ContainerStats(ctx context.Context) ([]model.ContainerStats, error) {
	return s.live.ContainerStats(ctx)
}

func (s *storeMonitor) InspectContainer(ctx context.Context, id string) (model.ContainerDetail, error) {
	return s.store.InspectContainer(ctx, id)
}
