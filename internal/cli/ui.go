package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pangenomerge/pkg/merge"
	"github.com/matzehuels/pangenomerge/pkg/validate"
)

// stdout receives command results. Tests redirect it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints an output file line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(22)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Merge Output
// =============================================================================

// printStats prints graph size on one dim line.
func printStats(nodes, edges int) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf("%d nodes", nodes))+StyleDim.Render(" · ")+StyleDim.Render(fmt.Sprintf("%d edges", edges)))
}

// printReports prints one table row per iteration.
func printReports(reports []*merge.Report) {
	if len(reports) == 0 {
		return
	}
	scored := false
	for _, r := range reports {
		scored = scored || r.Validation != nil
	}
	headers := []string{"#", "Input", "Matched", "New", "Collapsed", "Ghosts", "Nodes", "Edges"}
	if scored {
		headers = append(headers, "ARI", "AMI")
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		row := []string{
			strconv.Itoa(r.Iteration),
			filepath.Base(r.Input),
			strconv.Itoa(r.Matched),
			strconv.Itoa(r.Inserted),
			strconv.Itoa(len(r.Collapse.Collapses)),
			strconv.Itoa(len(r.GhostEdges)),
			strconv.Itoa(r.Nodes),
			strconv.Itoa(r.Edges),
		}
		if scored {
			ari, ami := "-", "-"
			if r.Validation != nil {
				ari = fmt.Sprintf("%.4f", r.Validation.AdjustedRandIndex)
				ami = fmt.Sprintf("%.4f", r.Validation.AdjustedMutualInfo)
			}
			row = append(row, ari, ami)
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorGray).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
		})
	fmt.Fprintln(stdout, t.Render())
}

// printScores prints clustering agreement with a truth graph.
func printScores(s validate.Scores) {
	printKeyValue("Rand index", fmt.Sprintf("%.6f", s.RandIndex))
	printKeyValue("Adjusted Rand index", fmt.Sprintf("%.6f", s.AdjustedRandIndex))
	printKeyValue("Mutual information", fmt.Sprintf("%.6f", s.MutualInfo))
	printKeyValue("Adjusted mutual info", fmt.Sprintf("%.6f", s.AdjustedMutualInfo))
	printKeyValue("Genes scored", strconv.Itoa(s.Shared))
	if s.OnlyMerged > 0 || s.OnlyTruth > 0 {
		printDetail("%d genes only in merged graph, %d only in truth graph", s.OnlyMerged, s.OnlyTruth)
	}
}
