package route

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/dockdesk/internal/app"
)

// minStatsTimeout keeps `stats --no-stream` from being cut short by a tight request timeout.
const minStatsTimeout = 30 * time.Second

func SetupRoutes(r *gin.Engine, appCtx *app.App) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
			"mode":    appCtx.Config.Runtime.Mode,
		})
	})

	api := r.Group("/api")

	timeout := appCtx.Config.Server.RequestTimeout
	statsTimeout := max(timeout, minStatsTimeout)

	NewContainerRouter(timeout, api, appCtx.Runtime, appCtx.Monitor)
	NewImageRouter(timeout, api, appCtx.Runtime)
	NewRuntimeRouter(timeout, statsTimeout, api, appCtx)
	// streams outlive any request timeout
	NewStreamRouter(api, appCtx)
}
