package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/dockdesk/internal/api/controller"
	"github.com/bassista/dockdesk/internal/api/middleware"
	"github.com/bassista/dockdesk/internal/runtime"
)

func NewContainerRouter(timeout time.Duration, api *gin.RouterGroup, rt runtime.ContainerRuntime, monitor runtime.Monitor) {
	group := api.Group("")
	group.Use(middleware.RequestTimeout(timeout))

	cc := controller.NewContainerController(rt, monitor)

	group.GET("containers", cc.AllContainers)
	group.POST("containers", cc.CreateContainer)
	group.POST("containers/run", cc.RunContainer)
	group.GET("containers/:id", cc.GetContainer)
	group.POST("containers/:id/start", cc.StartContainer)
	group.POST("containers/:id/stop", cc.StopContainer)
	group.DELETE("containers/:id", cc.DeleteContainer)
}
