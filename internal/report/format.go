package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatDailyJSON formats a daily report as JSON.
func FormatDailyJSON(r *DailyReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FormatWeeklyJSON formats a weekly report as JSON.
func FormatWeeklyJSON(r *WeeklyReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FormatDailyMarkdown formats a daily report as human-readable Markdown.
func FormatDailyMarkdown(r *DailyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Report: %s\n\n", r.Date)

	fmt.Fprintf(&b, "## Tasks (%d/%d done)\n\n", r.Tasks.CompletedCount,
		r.Tasks.CompletedCount+r.Tasks.PendingCount)
	for _, t := range r.Tasks.Completed {
		b.WriteString("- [x] " + taskLine(t) + "\n")
	}
	for _, t := range r.Tasks.Pending {
		b.WriteString("- [ ] " + taskLine(t) + "\n")
	}
	if r.Tasks.CompletedCount+r.Tasks.PendingCount == 0 {
		b.WriteString("Nothing due.\n")
	}
	b.WriteString("\n")

	if len(r.Blocks) > 0 {
		b.WriteString("## Schedule\n\n")
		for _, blk := range r.Blocks {
			fmt.Fprintf(&b, "- %s-%s %s\n", blk.Start, blk.End, blk.Name)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Streak\n\n")
	fmt.Fprintf(&b, "Current: %d | Best: %d | Freezes left: %d\n",
		r.Streak.Current, r.Streak.Best, r.Streak.FreezesLeft)
	return b.String()
}

// FormatWeeklyMarkdown formats a weekly report as human-readable Markdown.
func FormatWeeklyMarkdown(r *WeeklyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Weekly Report: %s to %s\n\n", r.StartDate, r.EndDate)
	fmt.Fprintf(&b, "Completed %d of %d due tasks (%.0f%%).\n\n",
		r.TotalCompleted, r.TotalDue, r.CompletionRate*100)

	b.WriteString("| Day | Date | Due | Done | Freeze |\n")
	b.WriteString("|-----|------|-----|------|--------|\n")
	for _, d := range r.DailyBreakdown {
		freeze := ""
		if d.FreezeUsed {
			freeze = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %s |\n",
			d.DayOfWeek[:3], d.Date, d.Due, d.Completed, freeze)
	}
	b.WriteString("\n## Streak\n\n")
	fmt.Fprintf(&b, "Current: %d | Best: %d | Freezes left: %d\n",
		r.Streak.Current, r.Streak.Best, r.Streak.FreezesLeft)
	return b.String()
}

func taskLine(t TaskEntry) string {
	line := t.Title
	if t.Category != "" {
		line += " (" + t.Category + ")"
	}
	if t.Streak > 1 {
		line += fmt.Sprintf(" [streak %d]", t.Streak)
	}
	return line
}
