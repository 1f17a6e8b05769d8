package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/model"
)

func init() {
	color.NoColor = true
}

// fakeDocker answers the listing and streaming subcommands the CLI issues.
const fakeDocker = `case "$1" in
ps)
  if [ "$2" = "-a" ] && [ "$3" = "--format" ]; then
    echo "abc123|web|nginx:latest|Up 2 minutes"
    echo "def456|db|postgres:16|Exited (0) 3 hours ago"
  elif [ "$2" = "-a" ]; then
    printf 'abc123\ndef456\n'
  else
    echo abc123
  fi ;;
images)
  if [ "$2" = "--format" ]; then
    echo "sha256:1|nginx|latest|187MB"
  else
    echo sha256:1
  fi ;;
stats)
  echo '{"Name":"web","CPUPerc":"0.25%","MemUsage":"12MiB / 1GiB","MemPerc":"1.17%"}' ;;
logs)
  echo "GET / 200"; echo "GET /health 200" ;;
build)
  echo "Step 1/2 : FROM alpine"
  if [ "$3" = "broken:dev" ]; then echo "failed to solve" >&2; exit 1; fi
  echo "Step 2/2 : CMD true" ;;
esac`

func setupFakeRuntime(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-docker")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+fakeDocker+"\n"), 0o755))
	t.Setenv("DOCKDESK_RUNTIME_BINARY", bin)
	t.Setenv("DOCKDESK_RUNTIME_MODE", "cli")
	t.Chdir(dir)
	t.Cleanup(func() { logger.Logger.SetOutput(os.Stdout) })
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "ps", "images", "stats", "logs", "build"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCommand_RejectsUnknownOutput(t *testing.T) {
	setupFakeRuntime(t)
	_, _, err := run(t, "ps", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestPs_Table(t *testing.T) {
	setupFakeRuntime(t)
	out, _, err := run(t, "ps")
	require.NoError(t, err)
	assert.Contains(t, out, "CONTAINER ID")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "Up 2 minutes")
	assert.Contains(t, out, "Exited (0) 3 hours ago")
}

func TestPs_JSON(t *testing.T) {
	setupFakeRuntime(t)
	out, _, err := run(t, "ps", "-o", "json")
	require.NoError(t, err)

	var containers []model.Container
	require.NoError(t, json.Unmarshal([]byte(out), &containers))
	require.Len(t, containers, 2)
	assert.Equal(t, model.Container{ID: "def456", Name: "db", Image: "postgres:16", Status: "Exited (0) 3 hours ago"}, containers[1])
}

func TestImages_YAML(t *testing.T) {
	setupFakeRuntime(t)
	out, _, err := run(t, "images", "-o", "yaml")
	require.NoError(t, err)

	var images []model.Image
	require.NoError(t, yaml.Unmarshal([]byte(out), &images))
	require.Len(t, images, 1)
	assert.Equal(t, "nginx", images[0].Repository)
	assert.Equal(t, "187MB", images[0].Size)
}

func TestStats_System(t *testing.T) {
	setupFakeRuntime(t)
	out, _, err := run(t, "stats", "-o", "json")
	require.NoError(t, err)

	var stats model.SystemStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, model.SystemStats{TotalContainers: 2, RunningContainers: 1, TotalImages: 1}, stats)
}

func TestStats_PerContainer(t *testing.T) {
	setupFakeRuntime(t)
	out, _, err := run(t, "stats", "--containers")
	require.NoError(t, err)
	assert.Contains(t, out, "MEM USAGE / LIMIT")
	assert.Contains(t, out, "0.25%")
	assert.Contains(t, out, "12MiB / 1GiB")
}

func TestLogs_PrintsLines(t *testing.T) {
	setupFakeRuntime(t)
	out, _, err := run(t, "logs", "web")
	require.NoError(t, err)
	assert.Equal(t, "GET / 200\nGET /health 200\n", out)
}

func TestLogs_RequiresContainer(t *testing.T) {
	setupFakeRuntime(t)
	_, _, err := run(t, "logs")
	assert.Error(t, err)
}

func TestBuild_Success(t *testing.T) {
	setupFakeRuntime(t)
	out, stderr, err := run(t, "build", ".", "-t", "app:dev")
	require.NoError(t, err)
	assert.Equal(t, "Step 1/2 : FROM alpine\nStep 2/2 : CMD true\n", out)
	assert.Contains(t, stderr, "built app:dev")
}

func TestBuild_FailureReturnsStderr(t *testing.T) {
	setupFakeRuntime(t)
	out, _, err := run(t, "build", ".", "-t", "broken:dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to solve")
	assert.Contains(t, out, "Step 1/2")
}

func TestBuild_RequiresTag(t *testing.T) {
	setupFakeRuntime(t)
	_, _, err := run(t, "build", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag")
}

func TestParseOutput(t *testing.T) {
	for _, f := range []string{"table", "json", "yaml"} {
		got, err := parseOutput(f)
		require.NoError(t, err)
		assert.Equal(t, outputFormat(f), got)
	}
	_, err := parseOutput("csv")
	assert.Error(t, err)
}

func TestColorStatus_KeepsRawText(t *testing.T) {
	assert.Equal(t, "Up 2 minutes", colorStatus(model.Container{Status: "Up 2 minutes"}))
	assert.Equal(t, "weird", colorStatus(model.Container{Status: "weird"}))
}

func TestListingCommands_RejectMemoryMode(t *testing.T) {
	setupFakeRuntime(t)
	t.Setenv("DOCKDESK_RUNTIME_MODE", "memory")

	for _, args := range [][]string{{"ps"}, {"images"}, {"stats"}, {"ps", "-o", "json"}} {
		out, _, err := run(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "runtime.mode=memory", args)
		assert.Contains(t, err.Error(), "dockdesk serve", args)
		assert.Empty(t, out, args)
	}

	// usage samples are read from the binary in either mode
	out, _, err := run(t, "stats", "--containers")
	require.NoError(t, err)
	assert.Contains(t, out, "0.25%")

	out, _, err = run(t, "ps", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "runtime.mode=memory")
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestTableView_AlignsColoredCells(t *testing.T) {
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = true })

	view := tableView{
		headers: []string{"CONTAINER ID", "STATUS", "NAME"},
		rows: [][]string{
			{"abc123", colorStatus(model.Container{Status: "Up 2 minutes"}), "web"},
			{"def456", colorStatus(model.Container{Status: "Exited (0) 3 hours ago"}), "db"},
			{"0123456789ab", colorStatus(model.Container{Status: "weird"}), "cache"},
		},
	}
	out := ansiEscape.ReplaceAllString(view.String(), "")

	var want []int
	lines := 0
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "│") {
			continue
		}
		lines++
		var cols []int
		for i, r := range []rune(line) {
			if r == '│' {
				cols = append(cols, i)
			}
		}
		if want == nil {
			want = cols
			continue
		}
		assert.Equal(t, want, cols, "misaligned row %q", line)
	}
	assert.Equal(t, 4, lines, out)
	assert.Len(t, want, 4, out)
}
