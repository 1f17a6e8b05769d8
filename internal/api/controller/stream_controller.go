package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bassista/dockdesk/internal/events"
	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/runtime"
)

const streamComponent = "stream-controller"

type BuildRequest struct {
	Path string `json:"path" validate:"required"`
	Tag  string `json:"tag" validate:"required"`
}

type ExecRequest struct {
	Command string `json:"cmd" validate:"required"`
}

// StreamController starts build, exec and logs tasks and relays their output
// as Server-Sent Events. Tasks started without waiting are bound to baseCtx so
// they outlive the request that started them.
type StreamController struct {
	baseCtx   context.Context
	streamer  *runtime.Streamer
	bus       *events.Bus
	validator *validator.Validate
}

func NewStreamController(baseCtx context.Context, streamer *runtime.Streamer, bus *events.Bus) *StreamController {
	return &StreamController{baseCtx: baseCtx, streamer: streamer, bus: bus, validator: validator.New()}
}

// Build handles POST /images/build. With ?wait=true the response is sent once
// the build exits, and a failed build maps to 502 carrying its exit code.
func (sc *StreamController) Build(c *gin.Context) {
	var req BuildRequest
	if !bindAndValidate(c, sc.validator, streamComponent, &req) {
		return
	}
	wait, _ := strconv.ParseBool(c.Query("wait"))

	ctx := sc.baseCtx
	if wait {
		ctx = c.Request.Context()
	}
	task, err := sc.streamer.Build(ctx, req.Path, req.Tag)
	if err != nil {
		respondError(c, streamComponent, err)
		return
	}
	if !wait {
		c.JSON(http.StatusAccepted, task.Info())
		return
	}
	if err := task.Wait(); err != nil {
		respondError(c, streamComponent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task.Info(), "exit_code": 0})
}

// Exec handles POST /containers/:id/exec.
func (sc *StreamController) Exec(c *gin.Context) {
	var req ExecRequest
	if !bindAndValidate(c, sc.validator, streamComponent, &req) {
		return
	}
	task, err := sc.streamer.Exec(sc.baseCtx, c.Param("id"), req.Command)
	if err != nil {
		respondError(c, streamComponent, err)
		return
	}
	c.JSON(http.StatusAccepted, task.Info())
}

// Logs handles POST /containers/:id/logs. The follow runs until the task is cancelled.
func (sc *StreamController) Logs(c *gin.Context) {
	task, err := sc.streamer.Logs(sc.baseCtx, c.Param("id"))
	if err != nil {
		respondError(c, streamComponent, err)
		return
	}
	c.JSON(http.StatusAccepted, task.Info())
}

// Tasks handles GET /tasks.
func (sc *StreamController) Tasks(c *gin.Context) {
	c.JSON(http.StatusOK, sc.streamer.Tasks())
}

// CancelTask handles DELETE /tasks/:id.
func (sc *StreamController) CancelTask(c *gin.Context) {
	id := c.Param("id")
	if err := sc.streamer.Cancel(id); err != nil {
		respondError(c, streamComponent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "task cancelled"})
}

// Events handles GET /events. Each repeated ?channel= narrows the
// subscription; none subscribes to every channel.
func (sc *StreamController) Events(c *gin.Context) {
	var channels []events.Channel
	for _, name := range c.QueryArray("channel") {
		ch, err := events.ParseChannel(name)
		if err != nil {
			respondError(c, streamComponent, fmt.Errorf("%v: %w", err, errdefs.ErrInvalidArgument))
			return
		}
		channels = append(channels, ch)
	}

	sub, cancel := sc.bus.Subscribe(channels...)
	defer cancel()

	log := logger.WithComponent(streamComponent)
	log.Debugf("event subscriber connected from %s (%d channels)", c.ClientIP(), len(channels))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debugf("event subscriber %s disconnected", c.ClientIP())
			return
		case e, ok := <-sub:
			if !ok {
				// bus closed on shutdown
				return
			}
			c.SSEvent(string(e.Channel), e.Line)
			c.Writer.Flush()
		}
	}
}
