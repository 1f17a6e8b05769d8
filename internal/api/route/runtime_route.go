package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/dockdesk/internal/api/controller"
	"github.com/bassista/dockdesk/internal/api/middleware"
	"github.com/bassista/dockdesk/internal/app"
)

// NewRuntimeRouter registers stats, runtime info and the cached snapshot.
// Per-container stats get their own, longer timeout.
func NewRuntimeRouter(timeout, statsTimeout time.Duration, api *gin.RouterGroup, appCtx *app.App) {
	rc := controller.NewRuntimeController(appCtx.Runtime, appCtx.Monitor, appCtx.Runner, appCtx.Cache, appCtx.Config.Runtime.MinVersion)

	group := api.Group("")
	group.Use(middleware.RequestTimeout(timeout))
	group.GET("stats", rc.SystemStats)
	group.GET("runtime", rc.RuntimeInfo)
	group.GET("snapshot", rc.Snapshot)

	statsGroup := api.Group("")
	statsGroup.Use(middleware.RequestTimeout(statsTimeout))
	statsGroup.GET("stats/containers", rc.ContainerStats)
}
