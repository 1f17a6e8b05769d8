package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bassista/dockdesk/internal/model"
	"github.com/bassista/dockdesk/internal/runtime"
)

const imageComponent = "image-controller"

// PullRequest names the image to pull. An empty tag means latest.
type PullRequest struct {
	Name string `json:"name" validate:"required"`
	Tag  string `json:"tag"`
}

type ImageController struct {
	runtime   runtime.ContainerRuntime
	validator *validator.Validate
}

func NewImageController(rt runtime.ContainerRuntime) *ImageController {
	return &ImageController{runtime: rt, validator: validator.New()}
}

// AllImages handles GET /images.
func (ic *ImageController) AllImages(c *gin.Context) {
	images, err := ic.runtime.ListImages(c.Request.Context())
	if err != nil {
		respondError(c, imageComponent, err)
		return
	}
	if images == nil {
		images = []model.Image{}
	}
	c.JSON(http.StatusOK, images)
}

// PullImage handles POST /images/pull.
func (ic *ImageController) PullImage(c *gin.Context) {
	var req PullRequest
	if !bindAndValidate(c, ic.validator, imageComponent, &req) {
		return
	}
	img, err := ic.runtime.PullImage(c.Request.Context(), req.Name, req.Tag)
	if err != nil {
		respondError(c, imageComponent, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

// DeleteImage handles DELETE /images/*name. The name may contain slashes
// (registry/repo:tag), hence the catch-all parameter.
func (ic *ImageController) DeleteImage(c *gin.Context) {
	name := trimLeadingSlash(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing image name"})
		return
	}
	if err := ic.runtime.RemoveImage(c.Request.Context(), name); err != nil {
		respondError(c, imageComponent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "message": "image removed"})
}

func trimLeadingSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}
