package parser

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/moby/moby/api/types/container"

	"github.com/bassista/dockdesk/internal/model"
)

// ParseInspect decodes `inspect` output, a JSON array of engine inspect responses,
// into container details.
func ParseInspect(output string) ([]model.ContainerDetail, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, &ParseError{Line: output, Err: errors.New("empty inspect output")}
	}

	var responses []container.InspectResponse
	if err := json.Unmarshal([]byte(trimmed), &responses); err != nil {
		return nil, &ParseError{Line: firstLine(trimmed), Err: err}
	}

	details := make([]model.ContainerDetail, 0, len(responses))
	for _, r := range responses {
		details = append(details, detailFromInspect(r))
	}
	return details, nil
}

func detailFromInspect(r container.InspectResponse) model.ContainerDetail {
	d := model.ContainerDetail{
		ID:           r.ID,
		Name:         strings.TrimPrefix(r.Name, "/"),
		ImageID:      r.Image,
		RestartCount: r.RestartCount,
		State:        string(model.StatusUnknown),
	}
	if r.Config != nil {
		d.Image = r.Config.Image
		d.Labels = r.Config.Labels
	}
	if r.State != nil {
		d.State = string(r.State.Status)
		d.Running = r.State.Running
		d.ExitCode = r.State.ExitCode
		d.Pid = r.State.Pid
	}
	return d
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
