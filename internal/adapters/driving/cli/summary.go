package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
)

// renderSummary writes one line per item followed by the run totals.
func renderSummary(w io.Writer, st *Styles, summary *domain.RunSummary) {
	title := "Sync summary"
	if summary.DryRun {
		title = "Dry run summary"
	}
	fmt.Fprintln(w, st.Title.Render(title))

	rows := make([][]cell, 0, len(summary.Items))
	for _, item := range summary.Items {
		rows = append(rows, []cell{plainCell(item.Item.Label()), stateCell(st, item.State), plainCell(itemDetail(item))})
	}
	renderTable(w, st, []string{"ITEM", "STATE", "DETAIL"}, rows)

	for _, mp := range summary.UnmountFailures {
		fmt.Fprintln(w, st.Warning.Render("warning: could not unmount "+mp))
	}

	totals := fmt.Sprintf("%d synced, %d skipped, %d failed", summary.Completed(), summary.Skipped(), summary.Failed())
	if n := summary.Count(domain.ItemCancelled); n > 0 {
		totals += fmt.Sprintf(", %d cancelled", n)
	}
	if !summary.StartedAt.IsZero() && !summary.EndedAt.IsZero() {
		totals += " in " + summary.EndedAt.Sub(summary.StartedAt).Round(time.Millisecond).String()
	}
	fmt.Fprintln(w, st.Box.Render(totals))
}

func itemDetail(item domain.ItemResult) string {
	switch {
	case item.Err != nil:
		return item.Err.Error()
	case item.Note != "":
		return item.Note
	case len(item.Jobs) > 0:
		return fmt.Sprintf("%d jobs", len(item.Jobs))
	default:
		return ""
	}
}

// formatTime renders t for tables; the zero time is "never".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// yesNo renders a boolean column.
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
