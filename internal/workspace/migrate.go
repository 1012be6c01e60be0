package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"daybook/internal/dates"
)

// Legacy per-entity files from before the unified workspace document. The
// migration scans exactly this list, once, and only when no workspace.json
// exists yet.
var legacyFiles = []string{"tasks.json", "habits.json", "planner.json"}

type legacyTask struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Project     string     `json:"project"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Done        bool       `json:"done"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type legacyTaskFile struct {
	Tasks []legacyTask `json:"tasks"`
}

type legacyHabit struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Frequency  string    `json:"frequency"`
	CustomDays []int     `json:"custom_days"`
	CreatedAt  time.Time `json:"created_at"`
}

type legacyHabitLog struct {
	HabitID string `json:"habit_id"`
	Date    string `json:"date"`
}

type legacyHabitFile struct {
	Habits []legacyHabit    `json:"habits"`
	Logs   []legacyHabitLog `json:"logs"`
}

type legacyBlock struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
	Date  string `json:"date"`
	Days  []int  `json:"days"`
	Color string `json:"color"`
}

type legacyPlannerFile struct {
	Blocks []legacyBlock `json:"blocks"`
}

// migrateLegacy builds a fresh workspace document from the legacy per-entity
// files, if any exist under dir. Returns (nil, false) when there is nothing
// to migrate. Unreadable or unparsable legacy files are skipped rather than
// failing the whole migration.
func migrateLegacy(dir string, now time.Time) (*Document, bool) {
	found := false
	doc := DefaultDocument()

	if tf, ok := readLegacyJSON[legacyTaskFile](filepath.Join(dir, "tasks.json")); ok {
		found = true
		for _, lt := range tf.Tasks {
			if lt.ID == "" || lt.Text == "" {
				continue
			}
			t := Task{
				ID:         lt.ID,
				Title:      lt.Text,
				Category:   lt.Project,
				Schedule:   ScheduleOnce,
				Priority:   ParsePriority(lt.Priority),
				Difficulty: DifficultyMedium,
				Active:     !lt.Done,
				Origin:     OriginQuick,
				CreatedAt:  lt.CreatedAt,
			}
			if lt.DueDate != nil {
				t.DueDate = dates.Key(*lt.DueDate)
			}
			doc.Tasks = append(doc.Tasks, t)
			if lt.Done && lt.CompletedAt != nil {
				doc.DayState(dates.Key(*lt.CompletedAt)).SetCompleted(t.ID, true)
			}
		}
	}

	if hf, ok := readLegacyJSON[legacyHabitFile](filepath.Join(dir, "habits.json")); ok {
		found = true
		for _, lh := range hf.Habits {
			if lh.ID == "" || lh.Name == "" {
				continue
			}
			t := Task{
				ID:         lh.ID,
				Title:      lh.Name,
				Priority:   PriorityMedium,
				Difficulty: DifficultyMedium,
				Active:     true,
				Origin:     OriginStreak,
				CreatedAt:  lh.CreatedAt,
			}
			switch lh.Frequency {
			case "weekly", "custom":
				t.Schedule = ScheduleWeekly
				t.WeeklyDays = lh.CustomDays
			case "weekdays":
				t.Schedule = ScheduleWeekly
				t.WeeklyDays = []int{1, 2, 3, 4, 5}
			default:
				t.Schedule = ScheduleDaily
			}
			doc.Tasks = append(doc.Tasks, t)
		}
		for _, log := range hf.Logs {
			if log.HabitID == "" || !dates.Valid(log.Date) {
				continue
			}
			doc.DayState(log.Date).SetCompleted(log.HabitID, true)
		}
	}

	if pf, ok := readLegacyJSON[legacyPlannerFile](filepath.Join(dir, "planner.json")); ok {
		found = true
		for _, lb := range pf.Blocks {
			if lb.ID == "" || lb.Name == "" {
				continue
			}
			b := TimeBlock{
				ID:        lb.ID,
				Name:      lb.Name,
				Start:     lb.Start,
				End:       lb.End,
				Color:     lb.Color,
				Source:    BlockManual,
				CreatedAt: now,
			}
			if len(lb.Days) > 0 {
				b.Recurrence = RecurWeekly
				b.WeeklyDays = lb.Days
			} else {
				b.Recurrence = RecurNone
				b.Date = lb.Date
			}
			doc.TimeBlocks = append(doc.TimeBlocks, b)
		}
	}

	if !found {
		return nil, false
	}
	Normalize(doc, now)
	return doc, true
}

// upgradeDocument applies forward migrations for documents persisted by older
// schema versions. Version 1 had no explicit task order; Normalize derives
// one from the task slice, so the upgrade only has to bump the version.
func upgradeDocument(doc *Document) {
	if doc.SchemaVersion < SchemaVersion {
		doc.SchemaVersion = SchemaVersion
	}
}

func readLegacyJSON[T any](path string) (*T, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return &v, true
}
