package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/dockdesk/internal/api/controller"
	"github.com/bassista/dockdesk/internal/api/middleware"
	"github.com/bassista/dockdesk/internal/runtime"
)

func NewImageRouter(timeout time.Duration, api *gin.RouterGroup, rt runtime.ContainerRuntime) {
	group := api.Group("")
	group.Use(middleware.RequestTimeout(timeout))

	ic := controller.NewImageController(rt)

	group.GET("images", ic.AllImages)
	group.POST("images/pull", ic.PullImage)
	// image references may contain slashes
	group.DELETE("images/*name", ic.DeleteImage)
}
