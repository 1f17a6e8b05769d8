package app

import (
	"context"
	"errors"

	"github.com/bassista/dockdesk/internal/cache"
	"github.com/bassista/dockdesk/internal/config"
	"github.com/bassista/dockdesk/internal/events"
	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/process"
	"github.com/bassista/dockdesk/internal/runtime"
	"github.com/bassista/dockdesk/internal/scheduler"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context
// for calls bound to a request, and BaseCtx for streams that outlive it.
type App struct {
	Config   *config.Config
	Cache    cache.AppStore
	Runner   process.Runner
	Runtime  runtime.ContainerRuntime
	Monitor  runtime.Monitor
	Streamer *runtime.Streamer
	Bus      *events.Bus

	BaseCtx context.Context
	Cancel  context.CancelFunc

	syncDone <-chan struct{}
}

func New(cfg *config.Config, store cache.AppStore, runner process.Runner, rt runtime.ContainerRuntime, bus *events.Bus) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("cache store is nil")
	}
	if runner == nil {
		return nil, errors.New("runner is nil")
	}
	if rt == nil {
		return nil, errors.New("runtime is nil")
	}
	if bus == nil {
		return nil, errors.New("event bus is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:   cfg,
		Cache:    store,
		Runner:   runner,
		Runtime:  rt,
		Monitor:  runtime.NewMonitor(rt, runner),
		Streamer: runtime.NewStreamer(runner, bus),
		Bus:      bus,
		BaseCtx:  ctx,
		Cancel:   cancel,
	}, nil
}

// Bootstrap builds the whole dependency graph from configuration.
func Bootstrap(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	store := cache.NewStore()
	runner := process.NewInvoker(cfg.Runtime.Binary)
	rt, err := runtime.NewRuntimeFromConfig(cfg.Runtime.Mode, runner, store)
	if err != nil {
		return nil, err
	}
	return New(cfg, store, runner, rt, events.NewBus(cfg.Events.BufferSize))
}

// StartWatchers starts the config watcher and, when the runtime is ground
// truth, the cache sync scheduler.
func (a *App) StartWatchers() {
	a.Config.WatchLogLevel()

	if a.Config.Runtime.Mode == config.RuntimeModeMemory {
		logger.WithComponent("app").Info("memory runtime: store is authoritative, sync disabled")
		return
	}
	if a.Config.Runtime.SyncInterval <= 0 {
		logger.WithComponent("app").Debug("cache sync disabled")
		return
	}
	s := scheduler.NewSyncScheduler(a.Cache, runtime.NewCLIRuntime(a.Runner, nil), a.Config.Runtime.SyncInterval)
	a.syncDone = s.Start(a.BaseCtx)
}

// CheckRuntime probes the runtime binary. Memory mode does not need one.
func (a *App) CheckRuntime(ctx context.Context) error {
	if a.Config.Runtime.Mode == config.RuntimeModeMemory {
		return nil
	}
	info, err := runtime.Probe(ctx, a.Runner, a.Config.Runtime.MinVersion)
	if err != nil {
		return err
	}
	logger.WithComponent("app").Infof("using %s %s (%s)", info.Binary, info.Version, info.Path)
	return nil
}

// Shutdown kills running streams, stops background loops and closes the bus.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Streamer.CancelAll()
	a.Cancel()
	if a.syncDone != nil {
		<-a.syncDone
	}
	a.Bus.Close()
}
