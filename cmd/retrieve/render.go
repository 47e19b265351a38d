package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/executor"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	queryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const summaryWidth = 80

// renderResult prints the candidate set followed by one line per result.
func renderResult(w io.Writer, res *executor.SearchResult) {
	fmt.Fprintf(w, "\n%s %s\n",
		headerStyle.Render("Results for:"),
		queryStyle.Render(strconv.Quote(res.Query)),
	)
	fmt.Fprintf(w, "  %s\n", dimStyle.Render(fmt.Sprintf(
		"terms %s  candidates %d  order %s  snapshot v%d",
		formatTerms(res.Terms), res.TotalHits, res.Order, res.SnapshotVersion,
	)))

	if res.TotalHits == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("No matching documents."))
		return
	}
	fmt.Fprintf(w, "  %s %s\n\n", dimStyle.Render("documents:"), formatCandidates(res.Results))

	for _, r := range res.Results {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			rankStyle.Render(fmt.Sprintf("#%d", r.DocumentNumber)),
			scoreStyle.Render(fmt.Sprintf("score: %.4f", r.Score)),
			idStyle.Render(r.ExternalID),
		)
		fmt.Fprintf(w, "      %s\n", summaryStyle.Render(truncate(r.Summary, summaryWidth)))
	}
	if shown := len(res.Results); shown < res.TotalHits {
		fmt.Fprintf(w, "\n  %s\n", dimStyle.Render(fmt.Sprintf("showing %d of %d", shown, res.TotalHits)))
	}
	fmt.Fprintln(w)
}

func formatTerms(terms []string) string {
	if len(terms) == 0 {
		return "(none)"
	}
	return strings.Join(terms, ",")
}

// formatCandidates lists 1-based document numbers in result order.
func formatCandidates(results []executor.Result) string {
	nums := make([]string, len(results))
	for i, r := range results {
		nums[i] = strconv.Itoa(r.DocumentNumber)
	}
	return "[" + strings.Join(nums, " ") + "]"
}

// truncate collapses whitespace and cuts s to at most width runes.
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
