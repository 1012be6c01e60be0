// Package report provides daily and weekly report generation for the daybook
// workspace. Reports aggregate due tasks, completions, time blocks, and
// streak figures.
package report

import (
	"time"

	"daybook/internal/calendar"
	"daybook/internal/dates"
	"daybook/internal/schedule"
	"daybook/internal/workspace"
)

// DailyReport contains aggregated data for a single day.
type DailyReport struct {
	Date        string       `json:"date"`
	Tasks       TaskSummary  `json:"tasks"`
	Blocks      []BlockEntry `json:"blocks"`
	Streak      StreakFacts  `json:"streak"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// WeeklyReport contains aggregated data for a calendar week.
type WeeklyReport struct {
	StartDate      string       `json:"start_date"`
	EndDate        string       `json:"end_date"`
	TotalCompleted int          `json:"total_completed"`
	TotalDue       int          `json:"total_due"`
	CompletionRate float64      `json:"completion_rate"`
	DailyBreakdown []DaySummary `json:"daily_breakdown"`
	Streak         StreakFacts  `json:"streak"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// TaskSummary contains per-day task statistics.
type TaskSummary struct {
	Completed      []TaskEntry `json:"completed"`
	Pending        []TaskEntry `json:"pending"`
	CompletedCount int         `json:"completed_count"`
	PendingCount   int         `json:"pending_count"`
}

// TaskEntry is one task row in a report.
type TaskEntry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Priority string `json:"priority"`
	Streak   int    `json:"streak,omitempty"`
}

// BlockEntry is one time block row in a report.
type BlockEntry struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// StreakFacts is the streak snapshot embedded in reports.
type StreakFacts struct {
	Current     int    `json:"current"`
	Best        int    `json:"best"`
	FreezesLeft int    `json:"freezes_left"`
	FreezeWeek  string `json:"freeze_week,omitempty"`
}

// DaySummary provides a quick overview of a single day within a week.
type DaySummary struct {
	Date       string `json:"date"`
	DayOfWeek  string `json:"day_of_week"`
	Due        int    `json:"due"`
	Completed  int    `json:"completed"`
	FreezeUsed bool   `json:"freeze_used"`
}

// Generator creates reports from a workspace document.
type Generator struct {
	doc *workspace.Document
	now func() time.Time
}

// NewGenerator creates a report generator over the document.
func NewGenerator(doc *workspace.Document) *Generator {
	return &Generator{doc: doc, now: time.Now}
}

// SetNowFunc overrides the clock used for GeneratedAt stamps.
func (g *Generator) SetNowFunc(now func() time.Time) {
	g.now = now
}

// GenerateDaily generates a report for the given date key.
func (g *Generator) GenerateDaily(dateKey string) *DailyReport {
	ds := g.doc.DayState(dateKey)
	due := schedule.DueTasks(g.doc.Tasks, dateKey)

	var summary TaskSummary
	for i := range due {
		t := &due[i]
		entry := TaskEntry{
			ID:       t.ID,
			Title:    t.Title,
			Category: t.Category,
			Priority: string(t.Priority),
		}
		if ts, ok := g.doc.Streaks.TaskStreaks[t.ID]; ok {
			entry.Streak = ts.Current
		}
		if ds.Completed(t.ID) {
			summary.Completed = append(summary.Completed, entry)
		} else {
			summary.Pending = append(summary.Pending, entry)
		}
	}
	summary.CompletedCount = len(summary.Completed)
	summary.PendingCount = len(summary.Pending)

	var blocks []BlockEntry
	for _, b := range calendar.BlocksOn(g.doc.TimeBlocks, dateKey) {
		blocks = append(blocks, BlockEntry{Name: b.Name, Start: b.Start, End: b.End})
	}

	return &DailyReport{
		Date:        dateKey,
		Tasks:       summary,
		Blocks:      blocks,
		Streak:      g.streakFacts(),
		GeneratedAt: g.now(),
	}
}

// GenerateWeekly generates a report for the week containing the given date
// key, aligned to Sunday.
func (g *Generator) GenerateWeekly(dateKey string) *WeeklyReport {
	start := startOfWeekSunday(dateKey)
	end := dates.AddDays(start, 6)

	report := &WeeklyReport{
		StartDate:   start,
		EndDate:     end,
		Streak:      g.streakFacts(),
		GeneratedAt: g.now(),
	}

	for i := 0; i < 7; i++ {
		key := dates.AddDays(start, i)
		ds := g.doc.DayState(key)
		due := schedule.DueTasks(g.doc.Tasks, key)

		completed := 0
		for i := range due {
			if ds.Completed(due[i].ID) {
				completed++
			}
		}

		weekday := time.Weekday(dates.Weekday(key)).String()
		report.DailyBreakdown = append(report.DailyBreakdown, DaySummary{
			Date:       key,
			DayOfWeek:  weekday,
			Due:        len(due),
			Completed:  completed,
			FreezeUsed: ds.FreezeUsed,
		})
		report.TotalDue += len(due)
		report.TotalCompleted += completed
	}

	if report.TotalDue > 0 {
		report.CompletionRate = float64(report.TotalCompleted) / float64(report.TotalDue)
	}
	return report
}

func (g *Generator) streakFacts() StreakFacts {
	st := g.doc.Streaks.State
	return StreakFacts{
		Current:     st.GlobalCurrent,
		Best:        st.GlobalBest,
		FreezesLeft: st.FreezesLeft,
		FreezeWeek:  st.FreezeWeek,
	}
}

func startOfWeekSunday(dateKey string) string {
	wd := dates.Weekday(dateKey)
	if wd <= 0 {
		return dateKey
	}
	return dates.AddDays(dateKey, -wd)
}
