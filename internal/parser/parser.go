// Package parser turns runtime CLI output into model records.
//
// Delimited listings never fail: a short line yields empty strings for the
// missing fields. JSON lines are structural, so a line that does not decode
// fails the whole call with a *ParseError.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"

	"github.com/bassista/dockdesk/internal/model"
)

// Separator joins fields in the listing formats. It does not occur in ids, names, image refs or status text.
const Separator = "|"

// Format strings passed to the runtime --format option. Field order is the binding contract with the parsers below.
const (
	ContainerFormat = "{{.ID}}|{{.Names}}|{{.Image}}|{{.Status}}"
	ImageFormat     = "{{.ID}}|{{.Repository}}|{{.Tag}}|{{.Size}}"
	StatsFormat     = "{{json .}}"
	VersionFormat   = "{{.Client.Version}}"
)

const (
	containerFields = 4
	imageFields     = 4
)

// ParseError reports runtime output that is structurally broken.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed runtime output %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{errdefs.ErrDataLoss, e.Err}
}

// Lines splits output into non-empty lines, keeping the runtime's order.
func Lines(output string) []string {
	raw := strings.Split(output, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// CountLines returns the number of records in a listing.
func CountLines(output string) int {
	return len(Lines(output))
}

// Fields splits a delimited line into exactly n fields. Missing fields are
// empty and extra fields are dropped.
func Fields(line string, n int) []string {
	parts := strings.Split(line, Separator)
	fields := make([]string, n)
	copy(fields, parts)
	return fields
}

func ParseContainerLine(line string) model.Container {
	f := Fields(line, containerFields)
	return model.Container{
		ID:     f[0],
		Name:   f[1],
		Image:  f[2],
		Status: f[3],
	}
}

func ParseContainers(output string) []model.Container {
	lines := Lines(output)
	containers := make([]model.Container, 0, len(lines))
	for _, line := range lines {
		containers = append(containers, ParseContainerLine(line))
	}
	return containers
}

func ParseImageLine(line string) model.Image {
	f := Fields(line, imageFields)
	return model.Image{
		ID:         f[0],
		Repository: f[1],
		Tag:        f[2],
		Size:       f[3],
	}
}

func ParseImages(output string) []model.Image {
	lines := Lines(output)
	images := make([]model.Image, 0, len(lines))
	for _, line := range lines {
		images = append(images, ParseImageLine(line))
	}
	return images
}

// ParseStatsLine decodes one `stats --format {{json .}}` record.
// Absent or non-string fields map to "".
func ParseStatsLine(line string) (model.ContainerStats, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return model.ContainerStats{}, &ParseError{Line: line, Err: err}
	}
	return model.ContainerStats{
		Name:          stringField(raw, "Name"),
		CPU:           stringField(raw, "CPUPerc"),
		Memory:        stringField(raw, "MemUsage"),
		MemoryPercent: stringField(raw, "MemPerc"),
	}, nil
}

// ParseStats decodes every line; the first malformed line fails the call.
func ParseStats(output string) ([]model.ContainerStats, error) {
	lines := Lines(output)
	stats := make([]model.ContainerStats, 0, len(lines))
	for _, line := range lines {
		s, err := ParseStatsLine(line)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func stringField(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}
