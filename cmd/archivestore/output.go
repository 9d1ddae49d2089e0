// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle   = lipgloss.NewStyle()
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// table is a value with a tabular rendering for terminals.
type table struct {
	headers []string
	rows    [][]string
}

// emit writes value as indented JSON unless stdout is a terminal and
// --json was not given, in which case the table is rendered instead.
func (app *application) emit(value any, rendered table) error {
	if app.outputJSON || !app.terminal {
		return writeJSON(app.stdout, value)
	}
	if len(rendered.rows) == 0 {
		fmt.Fprintln(app.stdout, mutedStyle.Render("(none)"))
		return nil
	}
	fmt.Fprint(app.stdout, rendered.render())
	return nil
}

func writeJSON(w io.Writer, value any) error {
	// Empty arrays, not null.
	if reflected := reflect.ValueOf(value); reflected.Kind() == reflect.Slice && reflected.IsNil() {
		value = reflect.MakeSlice(reflected.Type(), 0, 0).Interface()
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (t table) render() string {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = lipgloss.Width(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var builder strings.Builder
	line := func(cells []string, style lipgloss.Style) {
		rendered := make([]string, len(cells))
		for i, cell := range cells {
			rendered[i] = style.Width(widths[i]).Render(cell)
		}
		builder.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, joinWithGap(rendered)...), " "))
		builder.WriteByte('\n')
	}
	line(t.headers, headerStyle)
	for _, row := range t.rows {
		line(row, cellStyle)
	}
	return builder.String()
}

func joinWithGap(cells []string) []string {
	joined := make([]string, 0, 2*len(cells))
	for i, cell := range cells {
		if i > 0 {
			joined = append(joined, "   ")
		}
		joined = append(joined, cell)
	}
	return joined
}

func formatBytes(size int64) string {
	if size < 0 {
		return fmt.Sprint(size)
	}
	return humanize.IBytes(uint64(size))
}

func formatRatio(ratio float64) string {
	return fmt.Sprintf("%.3f", ratio)
}

func formatTime(instant time.Time) string {
	return instant.Local().Format(time.DateTime)
}

func formatOptionalTime(instant *time.Time) string {
	if instant == nil {
		return "-"
	}
	return formatTime(*instant)
}

// readInput reads path, or stdin when path is "" or "-".
func (app *application) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(app.stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or stdout when path is "" or "-".
func (app *application) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := app.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
