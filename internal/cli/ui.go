package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/transitnet/pkg/network"
	"github.com/matzehuels/transitnet/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	styleCell     = lipgloss.NewStyle().Padding(0, 1)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints an output file line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Build Output
// =============================================================================

// printStageStats prints what one stage added on a single line, e.g.
// "walk · 6 arcs · 3 links · fresh".
func printStageStats(sr pipeline.StageResult) {
	parts := []string{string(sr.Stage)}
	if sr.Stats.Nodes > 0 {
		parts = append(parts, fmt.Sprintf("%d nodes", sr.Stats.Nodes))
	}
	if sr.Stats.Arcs > 0 {
		parts = append(parts, fmt.Sprintf("%d arcs", sr.Stats.Arcs))
	}
	if sr.Stats.Links > 0 {
		parts = append(parts, fmt.Sprintf("%d links", sr.Stats.Links))
	}
	if sr.CutoffKM > 0 {
		parts = append(parts, fmt.Sprintf("cutoff %g km", sr.CutoffKM))
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	if sr.Stage == pipeline.StageWalk || sr.Stage == pipeline.StageDemand {
		status, style := iconFresh, styleComputed
		if sr.CacheHit {
			status, style = iconCached, styleCached
		}
		line += StyleDim.Render(" · ") + style.Render(status)
	}
	fmt.Println(line)
}

// countTable renders the number of nodes and arcs of each type.
func countTable(net *network.Network) string {
	nodeCounts, arcCounts := net.Counts()

	var rows [][]string
	for t := network.NodeStop; t.Valid(); t++ {
		rows = append(rows, []string{"node", t.String(), strconv.Itoa(nodeCounts[t])})
	}
	for t := network.ArcLine; t.Valid(); t++ {
		rows = append(rows, []string{"arc", t.String(), strconv.Itoa(arcCounts[t])})
	}
	rows = append(rows,
		[]string{"total", "nodes", strconv.Itoa(net.NodeCount())},
		[]string{"total", "arcs", strconv.Itoa(net.ArcCount())},
	)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Table", "Type", "Count").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 2 {
				return styleCell.Foreground(colorCyan).Align(lipgloss.Right)
			}
			if col == 0 {
				return styleCell.Foreground(colorGray)
			}
			return styleCell
		})
	return t.Render()
}
