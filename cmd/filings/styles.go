package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-research/internal/filings"
	"github.com/rxtech-lab/argo-research/internal/inspect"
	"github.com/rxtech-lab/argo-research/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for failed files.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
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

func renderReport(title string, report filings.Report) string {
	counts := newTable("processed", "skipped", "malformed headers", "failed")
	counts.Row(
		fmt.Sprintf("%d", report.Processed),
		fmt.Sprintf("%d", report.Skipped),
		fmt.Sprintf("%d", report.Malformed),
		fmt.Sprintf("%d", len(report.Failed)),
	)

	lines := []string{TitleStyle.Render(title), counts.Render()}
	for _, failure := range report.Failed {
		lines = append(lines, ErrorStyle.Render(failure.Path)+" "+failure.Err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPhrases(phrases []types.Phrase, limit int) string {
	rows := newTable("phrase", "score", "level", "words")

	for i, phrase := range phrases {
		if limit > 0 && i >= limit {
			break
		}

		rows.Row(phrase.Phrase, fmt.Sprintf("%.4f", phrase.Score), fmt.Sprintf("%d", phrase.Length), fmt.Sprintf("%d", phrase.NGram))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(fmt.Sprintf("%d phrases", len(phrases))),
		rows.Render(),
	)
}

func renderInspection(report inspect.Report) string {
	items := newTable("item", "sentences")
	for _, item := range report.Items {
		items.Row(item.Item, fmt.Sprintf("%d", item.Sentences))
	}

	q := report.Tokens
	quantiles := newTable("min", "p25", "median", "p75", "max", "mean")
	quantiles.Row(
		fmt.Sprintf("%.0f", q.Min),
		fmt.Sprintf("%.1f", q.P25),
		fmt.Sprintf("%.1f", q.Median),
		fmt.Sprintf("%.1f", q.P75),
		fmt.Sprintf("%.0f", q.Max),
		fmt.Sprintf("%.2f", q.Mean),
	)

	tokens := newTable("token", "count")
	for _, token := range report.TopTokens {
		tokens.Row(token.Token, fmt.Sprintf("%d", token.Count))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(fmt.Sprintf("%d documents, %d sentences", report.Documents, report.Sentences)),
		items.Render(),
		TitleStyle.Render("Tokens per sentence"),
		quantiles.Render(),
		TitleStyle.Render("Top tokens"),
		tokens.Render(),
	)
}
