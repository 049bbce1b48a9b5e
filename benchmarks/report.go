package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#94A3B8")

	titleStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 2).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// renderSummary formats the report as a styled terminal table.
func renderSummary(report BenchmarkReport) string {
	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		rows = append(rows, []string{
			r.Workload,
			r.Kind + "/" + r.Fairness,
			formatDuration(r.AvgDuration),
			formatDuration(r.P95Duration),
			formatDuration(r.P99Duration),
			strconv.FormatFloat(r.OpsPerSecond, 'f', 0, 64),
			strconv.FormatUint(r.LockStats.Upgrades, 10),
			successRate(r),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		Headers("WORKLOAD", "LOCK", "AVG", "P95", "P99", "OPS/S", "UPGRADES", "SUCCESS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 7 && row >= 0 && row < len(report.Results) {
				return cellStyle.Foreground(rateColor(report.Results[row]))
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(titleStyle.Render("Lock Contention Benchmark"))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString(footerStyle.Render(fmt.Sprintf("%d runs in %s, timeout %s",
		len(report.Results), formatDuration(report.TotalDuration), report.Timeout)))
	return b.String()
}

func successRate(r BenchmarkResult) string {
	if r.Operations == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(r.SuccessCount)/float64(r.Operations)*100)
}

func rateColor(r BenchmarkResult) lipgloss.Color {
	switch {
	case r.ErrorCount == 0:
		return successColor
	case r.SuccessCount > r.ErrorCount:
		return warningColor
	default:
		return errorColor
	}
}

// saveJSONReport serializes the benchmark report to a JSON file.
func saveJSONReport(report BenchmarkReport, filename string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil { // #nosec G703
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
