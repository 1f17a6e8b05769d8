package controller

import (
	"fmt"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/model"
	"github.com/bassista/dockdesk/internal/runtime"
)

const containerComponent = "container-controller"

// ContainerController handles container lifecycle endpoints.
type ContainerController struct {
	runtime   runtime.ContainerRuntime
	monitor   runtime.Monitor
	validator *validator.Validate
}

func NewContainerController(rt runtime.ContainerRuntime, monitor runtime.Monitor) *ContainerController {
	return &ContainerController{runtime: rt, monitor: monitor, validator: validator.New()}
}

// AllContainers handles GET /containers.
func (cc *ContainerController) AllContainers(c *gin.Context) {
	containers, err := cc.runtime.ListContainers(c.Request.Context())
	if err != nil {
		respondError(c, containerComponent, err)
		return
	}
	if containers == nil {
		containers = []model.Container{}
	}
	c.JSON(http.StatusOK, containers)
}

// CreateContainer handles POST /containers.
func (cc *ContainerController) CreateContainer(c *gin.Context) {
	var spec model.CreateSpec
	if !cc.bind(c, &spec) {
		return
	}
	created, err := cc.runtime.CreateContainer(c.Request.Context(), spec)
	if err != nil {
		respondError(c, containerComponent, err)
		return
	}
	logger.WithComponent(containerComponent).Infof("container %s created from %s", created.ID, created.Image)
	c.JSON(http.StatusCreated, created)
}

// RunContainer handles POST /containers/run.
func (cc *ContainerController) RunContainer(c *gin.Context) {
	var spec model.RunSpec
	if !cc.bind(c, &spec) {
		return
	}
	started, err := cc.runtime.RunContainer(c.Request.Context(), spec)
	if err != nil {
		respondError(c, containerComponent, err)
		return
	}
	c.JSON(http.StatusCreated, started)
}

// GetContainer handles GET /containers/:id by inspecting it.
func (cc *ContainerController) GetContainer(c *gin.Context) {
	detail, err := cc.monitor.InspectContainer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, containerComponent, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (cc *ContainerController) StartContainer(c *gin.Context) {
	id := c.Param("id")
	if err := cc.runtime.StartContainer(c.Request.Context(), id); err != nil {
		respondError(c, containerComponent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "container started"})
}

func (cc *ContainerController) StopContainer(c *gin.Context) {
	id := c.Param("id")
	if err := cc.runtime.StopContainer(c.Request.Context(), id); err != nil {
		respondError(c, containerComponent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "container stopped"})
}

// DeleteContainer handles DELETE /containers/:id. The container is stopped first.
func (cc *ContainerController) DeleteContainer(c *gin.Context) {
	id := c.Param("id")
	if err := cc.runtime.RemoveContainer(c.Request.Context(), id); err != nil {
		respondError(c, containerComponent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "container removed"})
}

func (cc *ContainerController) bind(c *gin.Context, payload any) bool {
	return bindAndValidate(c, cc.validator, containerComponent, payload)
}

// bindAndValidate decodes the JSON body into payload and runs its validate tags.
func bindAndValidate(c *gin.Context, v *validator.Validate, component string, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		respondError(c, component, fmt.Errorf("invalid payload: %v: %w", err, errdefs.ErrInvalidArgument))
		return false
	}
	if err := v.Struct(payload); err != nil {
		respondError(c, component, fmt.Errorf("%v: %w", err, errdefs.ErrInvalidArgument))
		return false
	}
	return true
}
