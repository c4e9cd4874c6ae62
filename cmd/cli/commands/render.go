package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jakechorley/ipl-apportion/internal/config"
	"github.com/jakechorley/ipl-apportion/pkg/core/services"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	unitsStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	excludedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// formatUnits renders one group's allocation. Excluded groups are blank;
// a positive-weight group allocated nothing is 0 unless zeroDisplay is blank.
func formatUnits(group services.GroupAllocation, zeroDisplay string) string {
	if group.Units == nil {
		return ""
	}
	if *group.Units == 0 && zeroDisplay == config.ZeroDisplayBlank {
		return ""
	}
	return strconv.Itoa(*group.Units)
}

func formatQuota(group services.GroupAllocation) string {
	if group.Quota == nil {
		return ""
	}
	return strconv.FormatFloat(*group.Quota, 'f', 2, 64)
}

// gridCells lays the allocations out row by row, columns cells per row.
// The last row is padded with empty cells.
func gridCells(result *services.ApportionResult, columns int, zeroDisplay string) [][]string {
	if columns <= 0 {
		return nil
	}

	rows := (len(result.Groups) + columns - 1) / columns
	cells := make([][]string, rows)
	for r := range cells {
		cells[r] = make([]string, columns)
		for c := range cells[r] {
			i := r*columns + c
			if i < len(result.Groups) {
				cells[r][c] = formatUnits(result.Groups[i], zeroDisplay)
			}
		}
	}
	return cells
}

// gridHeaders names the grid columns; a 7-column grid is a week
func gridHeaders(columns int) []string {
	if columns == len(weekdays) {
		return weekdays
	}
	headers := make([]string, columns)
	for i := range headers {
		headers[i] = fmt.Sprintf("Col %d", i+1)
	}
	return headers
}

func renderSummary(w io.Writer, result *services.ApportionResult) {
	fmt.Fprintf(w, "\n%s\n\n", titleStyle.Render("Apportionment Results"))
	fmt.Fprintf(w, "Run ID:           %s\n", result.RunID)
	if result.Sessions > 0 {
		fmt.Fprintf(w, "Capacity:         %d (%d sessions × %d hours)\n", result.Capacity, result.Sessions, result.HoursPerSession)
	} else {
		fmt.Fprintf(w, "Capacity:         %d\n", result.Capacity)
	}
	fmt.Fprintf(w, "Standard Divisor: %.4f\n", result.StandardDivisor)
	fmt.Fprintf(w, "Final Divisor:    %.4f\n", result.Divisor)
	fmt.Fprintf(w, "Iterations:       %d", result.Iterations)
	if result.Refinements > 0 {
		fmt.Fprintf(w, " (+%d refinements)", result.Refinements)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

// renderTable prints one row per group
func renderTable(w io.Writer, result *services.ApportionResult, zeroDisplay string) {
	nameWidth := len("Group")
	for _, g := range result.Groups {
		nameWidth = max(nameWidth, lipgloss.Width(g.Name))
	}

	const numWidth = 10

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		pad(headerStyle.Render("Group"), nameWidth),
		padLeft(headerStyle.Render("Weight"), numWidth),
		padLeft(headerStyle.Render("Quota"), numWidth),
		padLeft(headerStyle.Render("Hours"), numWidth))
	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		strings.Repeat("-", nameWidth),
		strings.Repeat("-", numWidth),
		strings.Repeat("-", numWidth),
		strings.Repeat("-", numWidth))

	for _, g := range result.Groups {
		name := g.Name
		units := formatUnits(g, zeroDisplay)
		if g.Units == nil {
			name = excludedStyle.Render(name)
		} else {
			units = unitsStyle.Render(units)
		}

		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			pad(name, nameWidth),
			padLeft(strconv.FormatFloat(g.Weight, 'f', -1, 64), numWidth),
			padLeft(formatQuota(g), numWidth),
			padLeft(units, numWidth))
	}
	fmt.Fprintln(w)
}

// renderGrid prints the allocations as a grid, e.g. hours by weekday
func renderGrid(w io.Writer, result *services.ApportionResult, columns int, zeroDisplay string) {
	const cellWidth = 6

	headers := gridHeaders(columns)
	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = padLeft(headerStyle.Render(h), cellWidth)
	}
	fmt.Fprintln(w, strings.Join(styled, " "))

	for _, row := range gridCells(result, columns, zeroDisplay) {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = padLeft(cell, cellWidth)
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
	fmt.Fprintln(w)
}

func renderJSON(w io.Writer, result *services.ApportionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// pad right-pads s to width, measuring without ANSI styling
func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}

// padLeft left-pads s to width, measuring without ANSI styling
func padLeft(s string, width int) string {
	return strings.Repeat(" ", max(0, width-lipgloss.Width(s))) + s
}
