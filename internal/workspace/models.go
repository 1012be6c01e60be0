package workspace

import "time"

// SchemaVersion is the current workspace document version. Load applies
// forward migrations from older versions exactly once.
const SchemaVersion = 2

// ScheduleType says how often a task recurs.
type ScheduleType string

const (
	ScheduleOnce   ScheduleType = "once"
	ScheduleDaily  ScheduleType = "daily"
	ScheduleWeekly ScheduleType = "weekly"
)

// ParseScheduleType clamps a stored value to a known schedule type.
// Unknown values default to once. Only the storage boundary calls this;
// internal code trusts the field afterwards.
func ParseScheduleType(s string) ScheduleType {
	switch ScheduleType(s) {
	case ScheduleOnce, ScheduleDaily, ScheduleWeekly:
		return ScheduleType(s)
	default:
		return ScheduleOnce
	}
}

// Priority represents task priority levels.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority clamps a stored value to a known priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// Difficulty represents how hard a task is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty clamps a stored value to a known difficulty, defaulting to medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s)
	default:
		return DifficultyMedium
	}
}

// Origin marks which collaborator created a task.
type Origin string

const (
	OriginNote     Origin = "note"
	OriginStreak   Origin = "streak"
	OriginHomework Origin = "homework"
	OriginQuick    Origin = "quick"
)

// ParseOrigin clamps a stored value to a known origin, defaulting to quick.
func ParseOrigin(s string) Origin {
	switch Origin(s) {
	case OriginNote, OriginStreak, OriginHomework, OriginQuick:
		return Origin(s)
	default:
		return OriginQuick
	}
}

// RecurrenceKind says which dates a time block occurs on.
type RecurrenceKind string

const (
	RecurNone     RecurrenceKind = "none"
	RecurDaily    RecurrenceKind = "daily"
	RecurWeekdays RecurrenceKind = "weekdays"
	RecurWeekly   RecurrenceKind = "weekly"
)

// ParseRecurrenceKind clamps a stored value to a known recurrence, defaulting to none.
func ParseRecurrenceKind(s string) RecurrenceKind {
	switch RecurrenceKind(s) {
	case RecurNone, RecurDaily, RecurWeekdays, RecurWeekly:
		return RecurrenceKind(s)
	default:
		return RecurNone
	}
}

// BlockSource marks where a time block came from.
type BlockSource string

const (
	BlockManual         BlockSource = "manual"
	BlockImportedICS    BlockSource = "imported-ics"
	BlockImportedRemote BlockSource = "imported-remote-calendar"
)

// ParseBlockSource clamps a stored value to a known source, defaulting to manual.
func ParseBlockSource(s string) BlockSource {
	switch BlockSource(s) {
	case BlockManual, BlockImportedICS, BlockImportedRemote:
		return BlockSource(s)
	default:
		return BlockManual
	}
}

// OrderStrategy names a task ordering comparator chain.
type OrderStrategy string

const (
	OrderUrgentFirst OrderStrategy = "urgent_first"
	OrderEasyFirst   OrderStrategy = "easy_first"
)

// ParseOrderStrategy clamps a stored value to a known strategy, defaulting to urgent_first.
func ParseOrderStrategy(s string) OrderStrategy {
	switch OrderStrategy(s) {
	case OrderUrgentFirst, OrderEasyFirst:
		return OrderStrategy(s)
	default:
		return OrderUrgentFirst
	}
}

// ExternalRef identifies the legacy record a homework-origin task mirrors.
type ExternalRef struct {
	Kind     string `json:"kind"`
	RecordID string `json:"record_id"`
}

// Task is a single item in the unified task list.
type Task struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Notes      string       `json:"notes,omitempty"`
	Schedule   ScheduleType `json:"schedule"`
	WeeklyDays []int        `json:"weekly_days,omitempty"` // 0=Sunday..6=Saturday; non-empty for weekly tasks
	Category   string       `json:"category,omitempty"`
	Priority   Priority     `json:"priority"`
	Difficulty Difficulty   `json:"difficulty"`
	DueDate    string       `json:"due_date,omitempty"` // date key, once-scheduled tasks only
	Active     bool         `json:"active"`
	Origin     Origin       `json:"origin"`
	Source     *ExternalRef `json:"source,omitempty"` // set when Origin == OriginHomework
	CreatedAt  time.Time    `json:"created_at"`
}

// Recurring reports whether the task repeats (anything but once).
func (t *Task) Recurring() bool {
	return t.Schedule == ScheduleDaily || t.Schedule == ScheduleWeekly
}

// HasWeeklyDay reports whether weekday (0..6) is in the task's weekly set.
func (t *Task) HasWeeklyDay(weekday int) bool {
	for _, d := range t.WeeklyDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// DayState is the per-date ledger of commitments, completions, and freeze use.
type DayState struct {
	CommittedTaskIDs []string `json:"committed_task_ids"`
	CompletedTaskIDs []string `json:"completed_task_ids"`
	FreezeUsed       bool     `json:"freeze_used"`
}

// Counts reports whether the day keeps a streak alive: either a freeze was
// spent on it or at least one task was completed.
func (d *DayState) Counts() bool {
	return d.FreezeUsed || len(d.CompletedTaskIDs) > 0
}

// Completed reports whether taskID is in the completed set.
func (d *DayState) Completed(taskID string) bool {
	return contains(d.CompletedTaskIDs, taskID)
}

// Committed reports whether taskID is in the committed set.
func (d *DayState) Committed(taskID string) bool {
	return contains(d.CommittedTaskIDs, taskID)
}

// SetCompleted adds or removes taskID from the completed set.
func (d *DayState) SetCompleted(taskID string, done bool) {
	d.CompletedTaskIDs = setMembership(d.CompletedTaskIDs, taskID, done)
}

// SetCommitted adds or removes taskID from the committed set.
func (d *DayState) SetCommitted(taskID string, committed bool) {
	d.CommittedTaskIDs = setMembership(d.CommittedTaskIDs, taskID, committed)
}

// DropTask removes taskID from both sets (task-deletion cascade).
func (d *DayState) DropTask(taskID string) {
	d.SetCompleted(taskID, false)
	d.SetCommitted(taskID, false)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func setMembership(ids []string, id string, present bool) []string {
	has := contains(ids, id)
	switch {
	case present && !has:
		return append(ids, id)
	case !present && has:
		out := ids[:0]
		for _, v := range ids {
			if v != id {
				out = append(out, v)
			}
		}
		return out
	default:
		return ids
	}
}

// StreakState is the singleton global streak and freeze economy state.
type StreakState struct {
	GlobalCurrent      int    `json:"global_current"`
	GlobalBest         int    `json:"global_best"`
	GlobalLastKeptDate string `json:"global_last_kept_date,omitempty"`
	FreezesLeft        int    `json:"freezes_left"`
	FreezeWeek         string `json:"freeze_week,omitempty"` // ISO week key, e.g. "2026-W09"
}

// TaskStreak tracks per-task streaks for recurring tasks.
type TaskStreak struct {
	Current           int    `json:"current"`
	Best              int    `json:"best"`
	LastCompletedDate string `json:"last_completed_date,omitempty"`
}

// Streaks groups all streak-related state in the document.
type Streaks struct {
	DayStates   map[string]*DayState   `json:"day_states"`
	TaskStreaks map[string]*TaskStreak `json:"task_streaks"`
	State       StreakState            `json:"state"`
}

// TimeBlock is a scheduled block on the day planner.
type TimeBlock struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Start      string         `json:"start"` // time of day, "HH:MM"
	End        string         `json:"end"`
	Date       string         `json:"date,omitempty"` // date key, only when Recurrence == none
	Recurrence RecurrenceKind `json:"recurrence"`
	WeeklyDays []int          `json:"weekly_days,omitempty"` // weekly recurrence only
	EndDate    string         `json:"end_date,omitempty"`    // bounds any recurring descriptor
	Category   string         `json:"category,omitempty"`
	Color      string         `json:"color,omitempty"`
	Source     BlockSource    `json:"source"`
	SourceUID  string         `json:"source_uid,omitempty"` // stable merge key for imported blocks
	ReadOnly   bool           `json:"read_only,omitempty"`  // remote-sourced blocks
	CreatedAt  time.Time      `json:"created_at"`
}

// HasWeeklyDay reports whether weekday (0..6) is in the block's weekly set.
func (b *TimeBlock) HasWeeklyDay(weekday int) bool {
	for _, d := range b.WeeklyDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// Page is a plain note document. Rich-text semantics live outside this core;
// the engine only persists pages and cascades nothing through them.
type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings holds user-tunable workspace settings.
type Settings struct {
	OrderStrategy OrderStrategy `json:"order_strategy"`
	ShowCompleted bool          `json:"show_completed"`
}

// UIState is the persisted view state. Opaque to the core beyond defaulting.
type UIState struct {
	SelectedDate string `json:"selected_date,omitempty"`
	ActiveView   string `json:"active_view,omitempty"`
}

// Document is the single versioned workspace aggregate. The Store owns it;
// every other component borrows references into it and routes mutations back
// through the Store's save path.
type Document struct {
	SchemaVersion int         `json:"schema_version"`
	Pages         []Page      `json:"pages"`
	Tasks         []Task      `json:"tasks"`
	TaskOrder     []string    `json:"task_order"`
	Streaks       Streaks     `json:"streaks"`
	Settings      Settings    `json:"settings"`
	TimeBlocks    []TimeBlock `json:"time_blocks"`
	UI            UIState     `json:"ui"`
}

// TaskByID returns a pointer into the document's task slice, or nil.
func (d *Document) TaskByID(id string) *Task {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i]
		}
	}
	return nil
}

// BlockByID returns a pointer into the document's time block slice, or nil.
func (d *Document) BlockByID(id string) *TimeBlock {
	for i := range d.TimeBlocks {
		if d.TimeBlocks[i].ID == id {
			return &d.TimeBlocks[i]
		}
	}
	return nil
}

// DayState returns the ledger entry for key, creating it lazily.
func (d *Document) DayState(key string) *DayState {
	if d.Streaks.DayStates == nil {
		d.Streaks.DayStates = make(map[string]*DayState)
	}
	ds, ok := d.Streaks.DayStates[key]
	if !ok {
		ds = &DayState{CommittedTaskIDs: []string{}, CompletedTaskIDs: []string{}}
		d.Streaks.DayStates[key] = ds
	}
	return ds
}

// TaskStreak returns the per-task streak entry, creating it lazily.
func (d *Document) TaskStreak(taskID string) *TaskStreak {
	if d.Streaks.TaskStreaks == nil {
		d.Streaks.TaskStreaks = make(map[string]*TaskStreak)
	}
	ts, ok := d.Streaks.TaskStreaks[taskID]
	if !ok {
		ts = &TaskStreak{}
		d.Streaks.TaskStreaks[taskID] = ts
	}
	return ts
}

// RemoveTask deletes the task and cascades removal from the task order, every
// day ledger, and the per-task streak ledger.
func (d *Document) RemoveTask(id string) bool {
	found := false
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			d.Tasks = append(d.Tasks[:i], d.Tasks[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return false
	}

	order := d.TaskOrder[:0]
	for _, v := range d.TaskOrder {
		if v != id {
			order = append(order, v)
		}
	}
	d.TaskOrder = order

	for _, ds := range d.Streaks.DayStates {
		ds.DropTask(id)
	}
	delete(d.Streaks.TaskStreaks, id)
	return true
}
