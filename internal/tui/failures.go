package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jaeyo/go-drain3/pkg/drain3"

	"github.com/tickerflow/tickerdesk/internal/model"
)

const maxFailurePatterns = 3

// failurePattern is one clustered error message and how many runs hit it.
type failurePattern struct {
	Template string
	Count    int
}

// failurePatterns clusters the error messages of runs with drain3 and
// returns the most frequent templates first. Runs without an error message
// are skipped.
func failurePatterns(runs []model.IngestionRun) ([]failurePattern, error) {
	d, err := drain3.NewDrain()
	if err != nil {
		return nil, fmt.Errorf("create drain: %w", err)
	}

	counts := make(map[*drain3.LogCluster]int)
	var order []*drain3.LogCluster
	for _, r := range runs {
		msg := strings.TrimSpace(r.ErrorMessage)
		if msg == "" {
			continue
		}
		cluster, _, err := d.AddLogMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("add message: %w", err)
		}
		if _, seen := counts[cluster]; !seen {
			order = append(order, cluster)
		}
		counts[cluster]++
	}

	patterns := make([]failurePattern, len(order))
	for i, c := range order {
		patterns[i] = failurePattern{Template: c.GetTemplate(), Count: counts[c]}
	}
	sort.SliceStable(patterns, func(i, j int) bool { return patterns[i].Count > patterns[j].Count })
	return patterns, nil
}

// renderFailurePatterns lists the top error templates of the page with a
// bar per pattern. It returns "" when no run carries an error.
func renderFailurePatterns(patterns []failurePattern, width int) string {
	if len(patterns) == 0 {
		return ""
	}
	if len(patterns) > maxFailurePatterns {
		patterns = patterns[:maxFailurePatterns]
	}

	const barWidth = 8
	maxCount := patterns[0].Count
	templateWidth := max(12, width-barWidth-8)

	lines := []string{labelStyle.Render("Failure patterns")}
	for _, p := range patterns {
		fill := max(1, p.Count*barWidth/maxCount)
		bar := stateStyles[string(model.StateFailed)].Render(strings.Repeat("█", fill)) +
			mutedStyle.Render(strings.Repeat("░", barWidth-fill))
		lines = append(lines, fmt.Sprintf("%s %4d  %s", bar, p.Count, fit(p.Template, templateWidth)))
	}
	return lipgloss.NewStyle().MaxWidth(max(1, width)).Render(strings.Join(lines, "\n"))
}
