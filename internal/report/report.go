// Package report renders generation progress and summaries for the
// terminal.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/examforge/internal/dataset"
	"github.com/abhisek/examforge/internal/synth"
)

var (
	accent  = lipgloss.Color("#14B8A6") // Teal
	success = lipgloss.Color("#22C55E") // Green
	warn    = lipgloss.Color("#F97316") // Orange
	fail    = lipgloss.Color("#F43F5E") // Rose
	dim     = lipgloss.Color("#94A3B8") // Slate

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	successStyle = lipgloss.NewStyle().Foreground(success)
	warnStyle    = lipgloss.NewStyle().Foreground(warn)
	failStyle    = lipgloss.NewStyle().Foreground(fail)
	dimStyle     = lipgloss.NewStyle().Foreground(dim)
)

// ProgressLine formats one run snapshot:
// 7/200, accepted=5, eta_seconds=312
func ProgressLine(st synth.RunStats) string {
	line := fmt.Sprintf("%d/%d, accepted=%d", st.Completed, st.Requested, st.Accepted)
	if st.ETASeconds > 0 {
		line += fmt.Sprintf(", eta_seconds=%.0f", st.ETASeconds)
	}
	if st.Fallback > 0 {
		line += dimStyle.Render(fmt.Sprintf("  [fallback=%d]", st.Fallback))
	}
	return line
}

// RunSummary renders the final report of a generation run.
func RunSummary(st synth.RunStats, outputPath string) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Generation complete") + "\n\n")
	fmt.Fprintf(&b, "  Topic:      %s\n", st.Topic)
	fmt.Fprintf(&b, "  Requested:  %d\n", st.Requested)
	fmt.Fprintf(&b, "  Completed:  %d\n", st.Completed)
	fmt.Fprintf(&b, "  Accepted:   %s\n", successStyle.Render(fmt.Sprintf("%d", st.Accepted)))
	fmt.Fprintf(&b, "  Rejected:   %s\n", warnStyle.Render(fmt.Sprintf("%d", st.Rejected)))
	if st.Fallback > 0 {
		fmt.Fprintf(&b, "  Fallback:   %s\n", failStyle.Render(fmt.Sprintf("%d (placeholder output, no API key)", st.Fallback)))
	}
	fmt.Fprintf(&b, "  Elapsed:    %s\n", st.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "  Output:     %s\n", outputPath)

	return b.String()
}

// OfflineBanner warns that the run is producing placeholder output.
func OfflineBanner() string {
	return warnStyle.Render("No API credentials found; generating placeholder output. " +
		"Set DEEPSEEK_API_KEY and DEEPSEEK_API_BASE for real generations.")
}

// DatasetSummary renders aggregate statistics over a dataset file.
func DatasetSummary(path string, st dataset.Stats) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Dataset: "+path) + "\n\n")
	fmt.Fprintf(&b, "  Samples:     %d\n", st.Total)
	if st.Fallback > 0 {
		fmt.Fprintf(&b, "  Fallback:    %s\n", failStyle.Render(fmt.Sprintf("%d", st.Fallback)))
	}
	if st.Total > 0 {
		fmt.Fprintf(&b, "  Score:       mean %.2f, min %.1f, max %.1f\n",
			st.MeanScore, st.MinScore, st.MaxScore)
	}

	if len(st.ByDifficulty) > 0 {
		b.WriteString("\n  By difficulty:\n")
		for _, k := range sortedKeys(st.ByDifficulty) {
			fmt.Fprintf(&b, "    %-8s %d\n", k, st.ByDifficulty[k])
		}
	}

	if len(st.BySubTopic) > 0 {
		fmt.Fprintf(&b, "\n  Sub-topics:  %d distinct\n", len(st.BySubTopic))
	}

	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
