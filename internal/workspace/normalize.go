package workspace

import (
	"sort"
	"time"

	"daybook/internal/dates"
)

// MaxWeeklyFreezes is the weekly freeze allowance. FreezesLeft is always
// clamped into [0, MaxWeeklyFreezes].
const MaxWeeklyFreezes = 2

// DefaultDocument returns a fully-populated empty document. Load merges the
// persisted document over this, so the rest of the system never observes nil
// slices, nil maps, or out-of-range enum values.
func DefaultDocument() *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		Pages:         []Page{},
		Tasks:         []Task{},
		TaskOrder:     []string{},
		Streaks: Streaks{
			DayStates:   make(map[string]*DayState),
			TaskStreaks: make(map[string]*TaskStreak),
			State: StreakState{
				FreezesLeft: MaxWeeklyFreezes,
			},
		},
		Settings: Settings{
			OrderStrategy: OrderUrgentFirst,
			ShowCompleted: true,
		},
		TimeBlocks: []TimeBlock{},
		UI:         UIState{},
	}
}

// Normalize repairs a loaded document in place: default-fills missing fields,
// clamps every enumerated field to its known value set, coerces malformed
// dates away, and re-establishes the structural invariants the rest of the
// system relies on. It is the only place loosely-typed persisted fields are
// re-coerced; internal code never re-validates.
func Normalize(doc *Document, now time.Time) {
	if doc.SchemaVersion <= 0 || doc.SchemaVersion > SchemaVersion {
		doc.SchemaVersion = SchemaVersion
	}

	if doc.Pages == nil {
		doc.Pages = []Page{}
	}
	for i := range doc.Pages {
		if doc.Pages[i].CreatedAt.IsZero() {
			doc.Pages[i].CreatedAt = now
		}
	}

	doc.Tasks = normalizeTasks(doc.Tasks, now)
	normalizeTaskOrder(doc)
	normalizeStreaks(&doc.Streaks, doc.Tasks)
	doc.TimeBlocks = normalizeBlocks(doc.TimeBlocks, now)

	doc.Settings.OrderStrategy = ParseOrderStrategy(string(doc.Settings.OrderStrategy))
	if doc.UI.SelectedDate != "" && !dates.Valid(doc.UI.SelectedDate) {
		doc.UI.SelectedDate = ""
	}
}

func normalizeTasks(tasks []Task, now time.Time) []Task {
	out := make([]Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}

		t.Schedule = ParseScheduleType(string(t.Schedule))
		t.Priority = ParsePriority(string(t.Priority))
		t.Difficulty = ParseDifficulty(string(t.Difficulty))
		t.Origin = ParseOrigin(string(t.Origin))

		if t.Origin == OriginHomework && (t.Source == nil || t.Source.Kind == "" || t.Source.RecordID == "") {
			// A homework task without a legacy reference cannot be
			// reconciled; demote it to a plain task.
			t.Origin = OriginQuick
			t.Source = nil
		}
		if t.Origin != OriginHomework {
			t.Source = nil
		}

		t.WeeklyDays = normalizeWeekdaySet(t.WeeklyDays)
		if t.Schedule == ScheduleWeekly && len(t.WeeklyDays) == 0 {
			t.WeeklyDays = []int{int(now.Weekday())}
		}
		if t.Schedule != ScheduleWeekly {
			t.WeeklyDays = nil
		}

		if t.Schedule != ScheduleOnce {
			t.DueDate = ""
		}
		if t.DueDate != "" && !dates.Valid(t.DueDate) {
			t.DueDate = ""
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		out = append(out, t)
	}
	return out
}

// normalizeTaskOrder drops unknown ids from the explicit order and appends
// tasks the order does not yet mention, preserving task-slice order for them.
func normalizeTaskOrder(doc *Document) {
	known := make(map[string]struct{}, len(doc.Tasks))
	for i := range doc.Tasks {
		known[doc.Tasks[i].ID] = struct{}{}
	}

	order := make([]string, 0, len(doc.Tasks))
	placed := make(map[string]struct{}, len(doc.Tasks))
	for _, id := range doc.TaskOrder {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		order = append(order, id)
	}
	for i := range doc.Tasks {
		id := doc.Tasks[i].ID
		if _, ok := placed[id]; !ok {
			order = append(order, id)
		}
	}
	doc.TaskOrder = order
}

func normalizeStreaks(s *Streaks, tasks []Task) {
	if s.DayStates == nil {
		s.DayStates = make(map[string]*DayState)
	}
	for key, ds := range s.DayStates {
		if ds == nil || !dates.Valid(key) {
			delete(s.DayStates, key)
			continue
		}
		if ds.CommittedTaskIDs == nil {
			ds.CommittedTaskIDs = []string{}
		}
		if ds.CompletedTaskIDs == nil {
			ds.CompletedTaskIDs = []string{}
		}
	}

	if s.TaskStreaks == nil {
		s.TaskStreaks = make(map[string]*TaskStreak)
	}
	known := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		known[tasks[i].ID] = struct{}{}
	}
	for id, ts := range s.TaskStreaks {
		if ts == nil {
			delete(s.TaskStreaks, id)
			continue
		}
		if _, ok := known[id]; !ok {
			delete(s.TaskStreaks, id)
			continue
		}
		if ts.Current < 0 {
			ts.Current = 0
		}
		if ts.Best < ts.Current {
			ts.Best = ts.Current
		}
		if ts.LastCompletedDate != "" && !dates.Valid(ts.LastCompletedDate) {
			ts.LastCompletedDate = ""
		}
	}

	st := &s.State
	if st.GlobalCurrent < 0 {
		st.GlobalCurrent = 0
	}
	if st.GlobalBest < st.GlobalCurrent {
		st.GlobalBest = st.GlobalCurrent
	}
	if st.GlobalLastKeptDate != "" && !dates.Valid(st.GlobalLastKeptDate) {
		st.GlobalLastKeptDate = ""
	}
	if st.FreezesLeft < 0 {
		st.FreezesLeft = 0
	}
	if st.FreezesLeft > MaxWeeklyFreezes {
		st.FreezesLeft = MaxWeeklyFreezes
	}
}

func normalizeBlocks(blocks []TimeBlock, now time.Time) []TimeBlock {
	out := make([]TimeBlock, 0, len(blocks))
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		if b.ID == "" {
			continue
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}

		b.Recurrence = ParseRecurrenceKind(string(b.Recurrence))
		b.Source = ParseBlockSource(string(b.Source))
		if b.Source != BlockManual && b.SourceUID == "" {
			// Without a stable key the import sweep cannot match this
			// block; treat it as manual so it is never swept away.
			b.Source = BlockManual
			b.ReadOnly = false
		}
		if b.Source != BlockImportedRemote {
			b.ReadOnly = false
		}

		if !validClock(b.Start) {
			b.Start = "09:00"
		}
		if !validClock(b.End) || b.End <= b.Start {
			b.End = b.Start
		}

		b.WeeklyDays = normalizeWeekdaySet(b.WeeklyDays)
		if b.Recurrence == RecurWeekly && len(b.WeeklyDays) == 0 {
			b.WeeklyDays = []int{int(now.Weekday())}
		}
		if b.Recurrence != RecurWeekly {
			b.WeeklyDays = nil
		}

		if b.Recurrence == RecurNone {
			if !dates.Valid(b.Date) {
				b.Date = dates.Key(now)
			}
			b.EndDate = ""
		} else {
			b.Date = ""
			if b.EndDate != "" && !dates.Valid(b.EndDate) {
				b.EndDate = ""
			}
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		out = append(out, b)
	}
	return out
}

// normalizeWeekdaySet sorts, dedupes, and clamps a weekday set to 0..6.
func normalizeWeekdaySet(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Ints(out)
	return out
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
