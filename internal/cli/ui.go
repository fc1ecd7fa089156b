// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/katalvlaran/dagmatch/match"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

const iconArrow = "→"

// statusStyle colours complete runs green and every early stop amber.
func statusStyle(s match.Status) lipgloss.Style {
	if s == match.StatusComplete {
		return styleSuccess
	}
	return styleWarning
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+value)
}

// printResult prints a summary block followed by the node map.
func printResult(w io.Writer, query, model string, res match.Result) {
	fmt.Fprintln(w, styleTitle.Render(query)+" "+styleDim.Render(iconArrow)+" "+styleTitle.Render(model))
	printKeyValue(w, "similarity", styleNumber.Render(fmt.Sprintf("%.4f", res.Similarity)))
	printKeyValue(w, "raw", styleValue.Render(fmt.Sprintf("%.4f / %g", res.Raw, res.Normalization)))
	printKeyValue(w, "status", statusStyle(res.Status).Render(res.Status.String()))
	printKeyValue(w, "solution sets", styleValue.Render(strconv.Itoa(res.Stats.SolutionSets)))
	printKeyValue(w, "run", styleDim.Render(res.Stats.RunID))
	if len(res.NodeMap) == 0 {
		fmt.Fprintln(w, styleDim.Render("no correspondence"))
		return
	}

	rows := make([][]string, len(res.NodeMap))
	for i, c := range res.NodeMap {
		rows[i] = []string{strconv.Itoa(i + 1), c.Query, c.Model, fmt.Sprintf("%.4f", c.Similarity), strconv.Itoa(c.Param)}
	}
	fmt.Fprintln(w, newTable(rows, "#", "Query", "Model", "Similarity", "Param").Render())
}

// printRanking prints models in the given order.
func printRanking(w io.Writer, query string, models []ranked) {
	fmt.Fprintln(w, styleTitle.Render(query))
	rows := make([][]string, len(models))
	for i, r := range models {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			r.Model,
			fmt.Sprintf("%.4f", r.Result.Similarity),
			r.Result.Status.String(),
			r.File,
		}
	}
	fmt.Fprintln(w, newTable(rows, "#", "Model", "Similarity", "Status", "File").Render())
}

func newTable(rows [][]string, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			return styleCell
		})
}
