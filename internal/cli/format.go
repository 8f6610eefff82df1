// Package cli holds the presentation helpers shared by every taskcurve
// subcommand: themed color output and table rendering, kept thin since the
// core's public API already returns plain data (domain.Task, lifecycle.Timeline,
// planner.Plan, ...) for a command to format however it likes.
package cli

import (
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Themed color printers, consistent across every subcommand.
var (
	Success = color.New(color.FgGreen, color.Bold)
	Failure = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan)
	Header  = color.New(color.FgMagenta, color.Bold)
	Dim     = color.New(color.FgHiBlack)
)

// InitColor disables color output when requested via --no-color or the
// NO_COLOR environment variable.
func InitColor(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// Table renders headers/rows with tablewriter, writing to stdout.
func Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		Dim.Println("(no results)")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.AppendBulk(rows)
	table.Render()
}

// FormatFloat renders a priority/score value to 2 decimal places.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatBool renders a bool as "yes"/"no" for table cells.
func FormatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// OrEmptyID renders a *int64 as a decimal string or "-" if nil.
func OrEmptyID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

// OrEmptyInt renders a *int as a decimal string or "-" if nil.
func OrEmptyInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
