package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inspectOutput = `[
    {
        "Id": "abc123def456",
        "Image": "sha256:7f3a",
        "Name": "/web",
        "RestartCount": 2,
        "State": {
            "Status": "running",
            "Running": true,
            "Pid": 4242,
            "ExitCode": 0
        },
        "Config": {
            "Image": "nginx:latest",
            "Labels": {"com.example.team": "web"}
        }
    }
]`

func TestParseInspect(t *testing.T) {
	details, err := ParseInspect(inspectOutput)
	require.NoError(t, err)
	require.Len(t, details, 1)

	d := details[0]
	assert.Equal(t, "abc123def456", d.ID)
	assert.Equal(t, "web", d.Name)
	assert.Equal(t, "nginx:latest", d.Image)
	assert.Equal(t, "sha256:7f3a", d.ImageID)
	assert.Equal(t, "running", d.State)
	assert.True(t, d.Running)
	assert.Equal(t, 4242, d.Pid)
	assert.Equal(t, 2, d.RestartCount)
	assert.Equal(t, "web", d.Labels["com.example.team"])
}

func TestParseInspect_MissingStateAndConfig(t *testing.T) {
	details, err := ParseInspect(`[{"Id":"x","Name":"/bare"}]`)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "unknown", details[0].State)
	assert.Empty(t, details[0].Image)
}

func TestParseInspect_Malformed(t *testing.T) {
	_, err := ParseInspect("Error: No such object: nope")
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))

	_, err = ParseInspect("  ")
	assert.True(t, errors.As(err, &parseErr))
}
