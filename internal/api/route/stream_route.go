package route

import (
	"github.com/gin-gonic/gin"

	"github.com/bassista/dockdesk/internal/api/controller"
	"github.com/bassista/dockdesk/internal/app"
)

// NewStreamRouter registers the streaming routes. They carry no request
// timeout: builds with ?wait=true and SSE subscribers stay open until done.
func NewStreamRouter(api *gin.RouterGroup, appCtx *app.App) {
	sc := controller.NewStreamController(appCtx.BaseCtx, appCtx.Streamer, appCtx.Bus)

	api.POST("images/build", sc.Build)
	api.POST("containers/:id/exec", sc.Exec)
	api.POST("containers/:id/logs", sc.Logs)
	api.GET("tasks", sc.Tasks)
	api.DELETE("tasks/:id", sc.CancelTask)
	api.GET("events", sc.Events)
}
