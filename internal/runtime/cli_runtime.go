package runtime

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bassista/dockdesk/internal/cache"
	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/model"
	"github.com/bassista/dockdesk/internal/parser"
	"github.com/bassista/dockdesk/internal/process"
)

// CLIRuntime treats the runtime binary as ground truth. Every call spawns a
// subprocess; records are rebuilt from its output each time.
type CLIRuntime struct {
	runner process.Runner
	store  cache.SyncableStore
}

var (
	_ ContainerRuntime = (*CLIRuntime)(nil)
	_ Monitor          = (*CLIRuntime)(nil)
)

// NewCLIRuntime creates a runtime backed by runner. When store is not nil,
// successful listings are written through to it.
func NewCLIRuntime(runner process.Runner, store cache.SyncableStore) *CLIRuntime {
	return &CLIRuntime{runner: runner, store: store}
}

// invoke runs args and turns a non-zero exit into a *CommandError of the given kind.
func (r *CLIRuntime) invoke(ctx context.Context, op string, kind error, args ...string) (process.Result, error) {
	res, err := r.runner.Run(ctx, args...)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	if !res.Success() {
		logger.WithComponent("cli-runtime").Debugf("%s failed with status %d: %s", op, res.ExitCode, res.ErrorText())
		return res, newCommandError(op, kind, res)
	}
	return res, nil
}

func (r *CLIRuntime) ListContainers(ctx context.Context) ([]model.Container, error) {
	res, err := r.invoke(ctx, "list containers", ErrQueryFailed, "ps", "-a", "--format", parser.ContainerFormat)
	if err != nil {
		return nil, err
	}
	containers := parser.ParseContainers(res.Stdout)
	if r.store != nil {
		r.store.ReplaceContainers(containers)
	}
	logger.WithComponent("cli-runtime").Debugf("listed %d containers", len(containers))
	return containers, nil
}

func (r *CLIRuntime) StartContainer(ctx context.Context, id string) error {
	_, err := r.invoke(ctx, "start "+id, ErrCommandFailed, "start", id)
	return err
}

func (r *CLIRuntime) StopContainer(ctx context.Context, id string) error {
	_, err := r.invoke(ctx, "stop "+id, ErrCommandFailed, "stop", id)
	return err
}

// RemoveContainer stops the container first, ignoring the outcome since it may
// already be stopped, then removes it.
func (r *CLIRuntime) RemoveContainer(ctx context.Context, id string) error {
	if _, err := r.runner.Run(ctx, "stop", id); err != nil {
		logger.WithComponent("cli-runtime").Debugf("stop before remove %s: %v", id, err)
	}
	_, err := r.invoke(ctx, "remove "+id, ErrCommandFailed, "rm", id)
	return err
}

func (r *CLIRuntime) CreateContainer(ctx context.Context, spec model.CreateSpec) (model.Container, error) {
	res, err := r.invoke(ctx, "create "+spec.Image, ErrCommandFailed, buildCreateArgs(spec)...)
	if err != nil {
		return model.Container{}, err
	}
	return model.Container{
		ID:     strings.TrimSpace(res.Stdout),
		Name:   spec.Name,
		Image:  spec.Image,
		Status: string(model.StatusCreated),
	}, nil
}

func (r *CLIRuntime) RunContainer(ctx context.Context, spec model.RunSpec) (model.Container, error) {
	res, err := r.invoke(ctx, "run "+spec.Image, ErrCommandFailed, buildRunArgs(spec)...)
	if err != nil {
		return model.Container{}, err
	}
	c := model.Container{
		ID:     strings.TrimSpace(res.Stdout),
		Name:   spec.Name,
		Image:  spec.Image,
		Status: string(model.StatusRunning),
	}
	logger.WithComponent("cli-runtime").Infof("container %s started from %s", c.ID, c.Image)
	return c, nil
}

// buildRunArgs orders arguments the way the runtime parses them:
// mode flag, name, ports, image, command.
func buildRunArgs(spec model.RunSpec) []string {
	args := []string{"run", "-d"}
	if spec.Name != "" {
		args = append(args, "--name", spec.Name)
	}
	if spec.Ports != "" {
		args = append(args, "-p", spec.Ports)
	}
	args = append(args, spec.Image)
	if spec.Command != "" {
		args = append(args, spec.Command)
	}
	return args
}

func buildCreateArgs(spec model.CreateSpec) []string {
	args := []string{"create"}
	if spec.Name != "" {
		args = append(args, "--name", spec.Name)
	}
	args = append(args, spec.Image)
	if spec.Command != "" {
		args = append(args, spec.Command)
	}
	return args
}

func (r *CLIRuntime) ListImages(ctx context.Context) ([]model.Image, error) {
	res, err := r.invoke(ctx, "list images", ErrQueryFailed, "images", "--format", parser.ImageFormat)
	if err != nil {
		return nil, err
	}
	images := parser.ParseImages(res.Stdout)
	if r.store != nil {
		r.store.ReplaceImages(images)
	}
	return images, nil
}

func (r *CLIRuntime) PullImage(ctx context.Context, name, tag string) (model.Image, error) {
	img := model.Image{Repository: name, Tag: tagOrDefault(tag)}
	if _, err := r.invoke(ctx, "pull "+img.Reference(), ErrCommandFailed, "pull", img.Reference()); err != nil {
		return model.Image{}, err
	}
	logger.WithComponent("cli-runtime").Infof("pulled %s", img.Reference())
	return img, nil
}

func (r *CLIRuntime) RemoveImage(ctx context.Context, name string) error {
	_, err := r.invoke(ctx, "remove image "+name, ErrCommandFailed, "rmi", name)
	return err
}

// SystemStats runs the three count queries concurrently. Any failure fails the aggregation.
func (r *CLIRuntime) SystemStats(ctx context.Context) (model.SystemStats, error) {
	var stats model.SystemStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalContainers, err = r.count(gctx, "ps", "-a", "-q")
		return err
	})
	g.Go(func() (err error) {
		stats.RunningContainers, err = r.count(gctx, "ps", "-q")
		return err
	})
	g.Go(func() (err error) {
		stats.TotalImages, err = r.count(gctx, "images", "-q")
		return err
	})
	if err := g.Wait(); err != nil {
		return model.SystemStats{}, err
	}
	return stats, nil
}

func (r *CLIRuntime) count(ctx context.Context, args ...string) (int, error) {
	res, err := r.invoke(ctx, strings.Join(args, " "), ErrStatsQueryFailed, args...)
	if err != nil {
		return 0, err
	}
	return parser.CountLines(res.Stdout), nil
}

// ContainerStats takes a single --no-stream sample of every running container.
func (r *CLIRuntime) ContainerStats(ctx context.Context) ([]model.ContainerStats, error) {
	res, err := r.invoke(ctx, "container stats", ErrStatsQueryFailed, "stats", "--no-stream", "--format", parser.StatsFormat)
	if err != nil {
		return nil, err
	}
	return parser.ParseStats(res.Stdout)
}

func (r *CLIRuntime) InspectContainer(ctx context.Context, id string) (model.ContainerDetail, error) {
	res, err := r.invoke(ctx, "inspect "+id, ErrQueryFailed, "inspect", "--type", "container", id)
	if err != nil {
		return model.ContainerDetail{}, err
	}
	details, err := parser.ParseInspect(res.Stdout)
	if err != nil {
		return model.ContainerDetail{}, err
	}
	if len(details) == 0 {
		return model.ContainerDetail{}, fmt.Errorf("%w: %s", cache.ErrContainerNotFound, id)
	}
	return details[0], nil
}
