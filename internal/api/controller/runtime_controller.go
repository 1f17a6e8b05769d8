package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/dockdesk/internal/cache"
	"github.com/bassista/dockdesk/internal/model"
	"github.com/bassista/dockdesk/internal/process"
	"github.com/bassista/dockdesk/internal/runtime"
)

const runtimeComponent = "runtime-controller"

// RuntimeController serves aggregate stats, runtime details and the cached store view.
type RuntimeController struct {
	runtime    runtime.ContainerRuntime
	monitor    runtime.Monitor
	runner     process.Runner
	store      cache.ReadOnlyStore
	minVersion string
}

func NewRuntimeController(rt runtime.ContainerRuntime, monitor runtime.Monitor, runner process.Runner, store cache.ReadOnlyStore, minVersion string) *RuntimeController {
	return &RuntimeController{runtime: rt, monitor: monitor, runner: runner, store: store, minVersion: minVersion}
}

// Snapshot is the cached view of the runtime kept by the store.
type Snapshot struct {
	Containers []model.Container `json:"containers"`
	Images     []model.Image     `json:"images"`
	LastSync   *time.Time        `json:"last_sync,omitempty"`
}

// SystemStats handles GET /stats.
func (rc *RuntimeController) SystemStats(c *gin.Context) {
	stats, err := rc.runtime.SystemStats(c.Request.Context())
	if err != nil {
		respondError(c, runtimeComponent, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ContainerStats handles GET /stats/containers.
func (rc *RuntimeController) ContainerStats(c *gin.Context) {
	stats, err := rc.monitor.ContainerStats(c.Request.Context())
	if err != nil {
		respondError(c, runtimeComponent, err)
		return
	}
	if stats == nil {
		stats = []model.ContainerStats{}
	}
	c.JSON(http.StatusOK, stats)
}

// RuntimeInfo handles GET /runtime. An unsupported version is still reported
// with 200 so callers can show which version was found.
func (rc *RuntimeController) RuntimeInfo(c *gin.Context) {
	info, err := runtime.Probe(c.Request.Context(), rc.runner, rc.minVersion)
	if err != nil && !errors.Is(err, runtime.ErrUnsupportedVersion) {
		respondError(c, runtimeComponent, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Snapshot handles GET /snapshot without touching the runtime.
func (rc *RuntimeController) Snapshot(c *gin.Context) {
	snap := Snapshot{
		Containers: rc.store.Containers(),
		Images:     rc.store.Images(),
	}
	if last := rc.store.LastSync(); !last.IsZero() {
		snap.LastSync = &last
	}
	if snap.Containers == nil {
		snap.Containers = []model.Container{}
	}
	if snap.Images == nil {
		snap.Images = []model.Image{}
	}
	c.JSON(http.StatusOK, snap)
}
