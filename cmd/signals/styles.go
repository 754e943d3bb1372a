package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-research/internal/replay"
	"github.com/rxtech-lab/argo-research/internal/signals"
	"github.com/rxtech-lab/argo-research/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// SelectedStyle marks the chosen hyperparameter.
	SelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}

			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func renderSelection(result signals.Result) string {
	scores := newTable("param", "spearman", "rows")

	for _, score := range result.Selection.Scores {
		param := score.Param
		if param == result.Selection.Param {
			param = SelectedStyle.Render(param + " *")
		}

		scores.Row(param, fmt.Sprintf("%.4f", score.Correlation), fmt.Sprintf("%d", score.Rows))
	}

	window := fmt.Sprintf("%s .. %s, %d symbols",
		result.Window.Start.Format("2006-01-02"),
		result.Window.End.Format("2006-01-02"),
		len(result.Window.Symbols),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Hyperparameter selection"),
		scores.Render(),
		HelpStyle.Render(fmt.Sprintf("window %s; %d joined rows, %d scored", window, result.Records, result.Scored)),
	)
}

func renderSummary(summary replay.Summary, totals replay.LedgerTotals) string {
	counts := newTable("metric", "value")
	counts.Row("events", fmt.Sprintf("%d", summary.Events))
	counts.Row("rebalances", fmt.Sprintf("%d", summary.Rebalances))
	counts.Row("skipped", fmt.Sprintf("%d", summary.Skipped))
	counts.Row("empty", fmt.Sprintf("%d", summary.Empty))
	counts.Row("rejected", fmt.Sprintf("%d", summary.Rejected))
	counts.Row("instructions", fmt.Sprintf("%d", summary.Instructions))
	counts.Row("ledger batches", fmt.Sprintf("%d", totals.Batches))
	counts.Row("longs / shorts / liquidations", fmt.Sprintf("%d / %d / %d", totals.Longs, totals.Shorts, totals.Liquidations))

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Replay "+summary.RunID),
		counts.Render(),
		renderPortfolio(summary.Final),
	)
}

func renderPortfolio(state types.PortfolioState) string {
	if len(state) == 0 {
		return HelpStyle.Render("no open positions")
	}

	symbols := make([]string, 0, len(state))
	for symbol := range state {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	positions := newTable("symbol", "weight")
	for _, symbol := range symbols {
		positions.Row(symbol, fmt.Sprintf("%+.4f", state[symbol]))
	}

	return positions.Render()
}
