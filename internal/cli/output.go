package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/bassista/dockdesk/internal/model"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
)

func parseOutput(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case outputTable, outputJSON, outputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: table, json, yaml)", s)
	}
}

// tableView is the table rendering of a listing. Cells may carry ANSI color;
// column widths are measured on the visible text.
type tableView struct {
	headers []string
	rows    [][]string
}

// render writes v as json or yaml, or view as a bordered table.
func render(w io.Writer, format string, v any, view tableView) error {
	f, err := parseOutput(format)
	if err != nil {
		return err
	}
	switch f {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, view.String())
		return err
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (v tableView) String() string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(v.headers...).
		Rows(v.rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

var (
	runningColor = color.New(color.FgGreen).SprintFunc()
	stoppedColor = color.New(color.FgRed).SprintFunc()
	createdColor = color.New(color.FgYellow).SprintFunc()
	unknownColor = color.New(color.FgHiBlack).SprintFunc()
)

// colorStatus colors the raw status text by its normalized state.
func colorStatus(c model.Container) string {
	switch c.State() {
	case model.StatusRunning:
		return runningColor(c.Status)
	case model.StatusStopped:
		return stoppedColor(c.Status)
	case model.StatusCreated:
		return createdColor(c.Status)
	default:
		return unknownColor(c.Status)
	}
}
