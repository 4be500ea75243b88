package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tickerflow/tickerdesk/internal/model"
)

const stateChartHeight = 5

// countStates tallies runs by state in pipeline order.
func countStates(runs []model.IngestionRun) []int {
	counts := make([]int, len(model.IngestionStates))
	for _, r := range runs {
		for i, s := range model.IngestionStates {
			if r.State == s {
				counts[i]++
				break
			}
		}
	}
	return counts
}

// renderStateChart draws one bar per ingestion state for the runs on the
// current page, with a legend of counts underneath.
func renderStateChart(runs []model.IngestionRun, width int) string {
	return renderStateBars(countStates(runs), width, "no runs on this page")
}

// renderRunsSummary stacks the state chart and the failure patterns of the
// runs on the page.
func renderRunsSummary(runs []model.IngestionRun, width int) string {
	chart := renderStateChart(runs, width)
	patterns, err := failurePatterns(runs)
	if err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, chart, errorStyle.Render("failure patterns: "+err.Error()))
	}
	if block := renderFailurePatterns(patterns, width); block != "" {
		return lipgloss.JoinVertical(lipgloss.Left, chart, block)
	}
	return chart
}

// renderBulkRunStats charts every ingestion run a bulk-queue run spawned.
func renderBulkRunStats(stats model.BulkQueueRunStats, width int) string {
	counts := make([]int, len(model.IngestionStates))
	for i, s := range model.IngestionStates {
		counts[i] = stats.IngestionRunStats.ByState[s]
	}
	header := labelStyle.Render(fmt.Sprintf("Bulk run %s", shortID(stats.ID))) +
		mutedStyle.Render(fmt.Sprintf(" · %d ingestion runs", stats.IngestionRunStats.Total))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		renderStateBars(counts, width, "no ingestion runs yet"),
	)
}

// renderStateBars draws counts, indexed like model.IngestionStates, as a bar
// chart with a legend of the non-zero states. empty replaces the legend when
// every count is zero.
func renderStateBars(counts []int, width int, empty string) string {
	n := len(counts)

	barWidth := max(1, min(6, (width-(n-1))/n))
	chartWidth := n*barWidth + (n - 1)

	bc := barchart.New(chartWidth, stateChartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(barWidth),
		barchart.WithNoAxis(),
	)
	for i, s := range model.IngestionStates {
		color := stateStyles[string(s)].GetForeground()
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{
				Name:  string(s),
				Value: float64(counts[i]),
				Style: lipgloss.NewStyle().Foreground(color).Background(color),
			}},
		})
	}
	bc.Draw()

	legend := make([]string, 0, n)
	for i, s := range model.IngestionStates {
		if counts[i] == 0 {
			continue
		}
		legend = append(legend, stateStyles[string(s)].Render("■")+mutedStyle.Render(fmt.Sprintf(" %s %d", s, counts[i])))
	}
	if len(legend) == 0 {
		legend = append(legend, mutedStyle.Render(empty))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		bc.View(),
		lipgloss.NewStyle().MaxWidth(max(1, width)).Render(strings.Join(legend, "  ")),
	)
}
