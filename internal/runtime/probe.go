package runtime

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"github.com/containerd/errdefs"

	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/model"
	"github.com/bassista/dockdesk/internal/parser"
	"github.com/bassista/dockdesk/internal/process"
)

var ErrUnsupportedVersion = fmt.Errorf("runtime version %w", errdefs.ErrFailedPrecondition)

// Probe resolves the runtime binary on PATH, reads its client version and
// checks it against minVersion. minVersion is either a bare version, read as
// a floor, or a full semver constraint. Empty accepts any version.
func Probe(ctx context.Context, runner process.Runner, minVersion string) (model.RuntimeInfo, error) {
	info := model.RuntimeInfo{Binary: runner.Binary(), MinVersion: minVersion}

	path, err := exec.LookPath(runner.Binary())
	if err != nil {
		return info, &process.SpawnError{Binary: runner.Binary(), Err: err}
	}
	info.Path = path

	res, err := runner.Run(ctx, "version", "--format", parser.VersionFormat)
	if err != nil {
		return info, fmt.Errorf("runtime version: %w", err)
	}
	// the client version is printed even when the daemon is unreachable
	lines := parser.Lines(res.Stdout)
	if len(lines) == 0 {
		return info, newCommandError("runtime version", ErrQueryFailed, res)
	}
	info.Version = strings.TrimSpace(lines[0])

	supported, err := checkVersion(info.Version, minVersion)
	if err != nil {
		return info, err
	}
	info.Supported = supported
	if !supported {
		logger.WithComponent("probe").Warnf("%s %s does not satisfy %q", info.Binary, info.Version, minVersion)
		return info, fmt.Errorf("%s %s does not satisfy %q: %w", info.Binary, info.Version, minVersion, ErrUnsupportedVersion)
	}
	logger.WithComponent("probe").Debugf("%s %s found at %s", info.Binary, info.Version, info.Path)
	return info, nil
}

func checkVersion(version, minVersion string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, &parser.ParseError{Line: version, Err: err}
	}
	if minVersion == "" {
		return true, nil
	}
	c, err := semver.NewConstraint(constraintFor(minVersion))
	if err != nil {
		return false, fmt.Errorf("invalid runtime.min_version %q: %w", minVersion, errdefs.ErrInvalidArgument)
	}
	return c.Check(v), nil
}

// constraintFor turns a bare version like "24.0" into ">= 24.0".
func constraintFor(minVersion string) string {
	s := strings.TrimSpace(minVersion)
	if s != "" && unicode.IsDigit(rune(s[0])) {
		return ">= " + s
	}
	return s
}
