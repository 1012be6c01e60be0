// Package engine is the mutation and query surface of the workspace. Every
// user action enters here, mutates the shared document, schedules a save, and
// notifies the render layer. Renders read through here so external sources are
// reconciled before anything is shown.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"daybook/internal/calendar"
	"daybook/internal/dates"
	"daybook/internal/reconcile"
	"daybook/internal/remote"
	"daybook/internal/schedule"
	"daybook/internal/streak"
	"daybook/internal/workspace"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrBlockNotFound = errors.New("time block not found")
	ErrBlockReadOnly = errors.New("time block is read-only")
	ErrEmptyTitle    = errors.New("title must not be empty")
)

// Engine ties the store, the streak ledger, the reconciler, and the calendar
// together behind a single API.
type Engine struct {
	store      *workspace.Store
	ledger     *streak.Ledger
	reconciler *reconcile.Reconciler
	syncer     *remote.Syncer
	fetch      func(context.Context) ([]calendar.Event, error)
	now        func() time.Time
	onChange   []func()
}

// New wires an engine around an open store. Legacy sources are optional; with
// none registered, reconciliation is a no-op.
func New(store *workspace.Store, sources ...reconcile.Source) *Engine {
	e := &Engine{
		store:      store,
		ledger:     streak.New(store.Doc()),
		reconciler: reconcile.New(store.Doc(), sources...),
		syncer:     remote.NewSyncer(),
		now:        store.Now,
	}
	e.ledger.SetNowFunc(store.Now)
	e.reconciler.SetNowFunc(store.Now)
	return e
}

// SetNowFunc overrides the clock on the engine and everything under it.
func (e *Engine) SetNowFunc(now func() time.Time) {
	e.now = now
	e.store.SetNowFunc(now)
	e.ledger.SetNowFunc(now)
	e.reconciler.SetNowFunc(now)
}

// OnChange registers a callback fired after every mutation, once the save has
// been scheduled. Render layers subscribe here.
func (e *Engine) OnChange(fn func()) {
	e.onChange = append(e.onChange, fn)
}

// Store exposes the underlying store for status reads (InMemory, LastError).
func (e *Engine) Store() *workspace.Store {
	return e.store
}

// Flush writes any pending save synchronously.
func (e *Engine) Flush() {
	e.store.Flush()
}

// Close stops the remote-sync timer and flushes pending state.
func (e *Engine) Close() {
	e.syncer.Stop()
	e.store.Flush()
}

func (e *Engine) todayKey() string {
	return dates.Key(e.now())
}

func (e *Engine) changed() {
	e.store.Save()
	for _, fn := range e.onChange {
		fn()
	}
}

// ============================================================================
// Reads
// ============================================================================

// DueTasks reconciles external sources, then returns the tasks due today in
// the configured order. Closed tasks (a once task marked done upstream) are
// never listed; ShowCompleted controls whether tasks already completed in
// today's ledger stay visible.
func (e *Engine) DueTasks() []workspace.Task {
	e.Reconcile()
	doc := e.store.Doc()
	today := e.todayKey()
	ds := doc.Streaks.DayStates[today]

	due := schedule.DueTasks(doc.Tasks, today)
	kept := due[:0]
	for _, t := range due {
		if !t.Active {
			continue
		}
		if !doc.Settings.ShowCompleted && ds != nil && ds.Completed(t.ID) {
			continue
		}
		kept = append(kept, t)
	}
	return schedule.Order(kept, doc.Settings.OrderStrategy)
}

// OrderedTasks returns every active task in the configured order.
func (e *Engine) OrderedTasks() []workspace.Task {
	doc := e.store.Doc()
	var active []workspace.Task
	for _, t := range doc.Tasks {
		if t.Active {
			active = append(active, t)
		}
	}
	return schedule.Order(active, doc.Settings.OrderStrategy)
}

// StreakSnapshot refreshes the weekly freeze allowance and returns current
// streak figures.
func (e *Engine) StreakSnapshot() streak.Snapshot {
	before := e.store.Doc().Streaks.State
	e.ledger.RefreshFreezeWeek()
	e.ledger.RecomputeGlobal()
	if e.store.Doc().Streaks.State != before {
		e.changed()
	}
	return e.ledger.Snapshot()
}

// BlocksOn returns the time blocks occurring on dateKey, sorted by start time.
func (e *Engine) BlocksOn(dateKey string) []workspace.TimeBlock {
	return calendar.BlocksOn(e.store.Doc().TimeBlocks, dateKey)
}

// TodayBlocks returns today's time blocks.
func (e *Engine) TodayBlocks() []workspace.TimeBlock {
	return e.BlocksOn(e.todayKey())
}

// ============================================================================
// Task Mutations
// ============================================================================

// CreateTask adds a task with a fresh id and returns a pointer into the
// document. Enum fields are clamped; origin defaults to quick.
func (e *Engine) CreateTask(t workspace.Task) (*workspace.Task, error) {
	if t.Title == "" {
		return nil, ErrEmptyTitle
	}
	t.ID = uuid.NewString()
	t.Schedule = workspace.ParseScheduleType(string(t.Schedule))
	t.Priority = workspace.ParsePriority(string(t.Priority))
	t.Difficulty = workspace.ParseDifficulty(string(t.Difficulty))
	t.Origin = workspace.ParseOrigin(string(t.Origin))
	if t.Origin == workspace.OriginHomework {
		// Homework tasks are created only by reconciliation.
		t.Origin = workspace.OriginQuick
		t.Source = nil
	}
	if t.Schedule == workspace.ScheduleWeekly && len(t.WeeklyDays) == 0 {
		t.WeeklyDays = []int{int(e.now().Weekday())}
	}
	if t.Schedule != workspace.ScheduleOnce {
		t.DueDate = ""
	}
	if t.DueDate != "" && !dates.Valid(t.DueDate) {
		return nil, fmt.Errorf("invalid due date %q", t.DueDate)
	}
	t.Active = true
	t.CreatedAt = e.now()

	doc := e.store.Doc()
	doc.Tasks = append(doc.Tasks, t)
	doc.TaskOrder = append(doc.TaskOrder, t.ID)
	e.changed()
	return doc.TaskByID(t.ID), nil
}

// DeleteTask removes a task and cascades through the order, the day ledgers,
// and the per-task streaks. The global streak is recomputed afterwards.
func (e *Engine) DeleteTask(id string) error {
	if !e.store.Doc().RemoveTask(id) {
		return ErrTaskNotFound
	}
	e.ledger.RecomputeGlobal()
	e.changed()
	return nil
}

// ToggleCommit flips today's commitment for the task.
func (e *Engine) ToggleCommit(taskID string) error {
	doc := e.store.Doc()
	if doc.TaskByID(taskID) == nil {
		return ErrTaskNotFound
	}
	ds := doc.DayState(e.todayKey())
	ds.SetCommitted(taskID, !ds.Committed(taskID))
	e.changed()
	return nil
}

// ToggleComplete flips today's completion for the task. Completing a recurring
// task advances its per-task streak; completing a homework task writes the
// flag back to its legacy store. The global streak is recomputed either way.
func (e *Engine) ToggleComplete(taskID string) error {
	doc := e.store.Doc()
	task := doc.TaskByID(taskID)
	if task == nil {
		return ErrTaskNotFound
	}
	ds := doc.DayState(e.todayKey())
	done := !ds.Completed(taskID)
	ds.SetCompleted(taskID, done)

	if task.Origin == workspace.OriginHomework {
		// Best effort: if the write fails, the next reconcile pass
		// reasserts the legacy store's view.
		_ = e.reconciler.WriteBackDone(task, done)
		task.Active = !done
	}
	if done {
		e.ledger.UpdateTaskStreak(taskID)
	}
	e.ledger.RecomputeGlobal()
	e.changed()
	return nil
}

// SetTaskDue changes a once-scheduled task's due date, writing back for
// homework tasks.
func (e *Engine) SetTaskDue(taskID, dateKey string) error {
	doc := e.store.Doc()
	task := doc.TaskByID(taskID)
	if task == nil {
		return ErrTaskNotFound
	}
	if task.Schedule != workspace.ScheduleOnce {
		return fmt.Errorf("only once-scheduled tasks carry a due date")
	}
	if dateKey != "" && !dates.Valid(dateKey) {
		return fmt.Errorf("invalid date %q", dateKey)
	}
	task.DueDate = dateKey
	if task.Origin == workspace.OriginHomework {
		if err := e.reconciler.WriteBackDue(task, dateKey); err != nil {
			return err
		}
	}
	e.changed()
	return nil
}

// SetTaskPriority changes a task's priority, writing back for homework tasks.
func (e *Engine) SetTaskPriority(taskID string, p workspace.Priority) error {
	doc := e.store.Doc()
	task := doc.TaskByID(taskID)
	if task == nil {
		return ErrTaskNotFound
	}
	task.Priority = workspace.ParsePriority(string(p))
	if task.Origin == workspace.OriginHomework {
		if err := e.reconciler.WriteBackPriority(task, task.Priority); err != nil {
			return err
		}
	}
	e.changed()
	return nil
}

// SetOrderStrategy switches the task ordering comparator.
func (e *Engine) SetOrderStrategy(s workspace.OrderStrategy) {
	e.store.Doc().Settings.OrderStrategy = workspace.ParseOrderStrategy(string(s))
	e.changed()
}

// ============================================================================
// Streak Mutations
// ============================================================================

// UseFreeze spends one weekly freeze on yesterday. The allowance is refreshed
// first so a new week grants fresh freezes before the check.
func (e *Engine) UseFreeze() error {
	e.ledger.RefreshFreezeWeek()
	if err := e.ledger.UseFreeze(); err != nil {
		return err
	}
	e.changed()
	return nil
}

// ============================================================================
// Block Mutations
// ============================================================================

// CreateBlock adds a manual time block with a fresh id.
func (e *Engine) CreateBlock(b workspace.TimeBlock) (*workspace.TimeBlock, error) {
	if b.Name == "" {
		return nil, ErrEmptyTitle
	}
	b.ID = uuid.NewString()
	b.Source = workspace.BlockManual
	b.SourceUID = ""
	b.ReadOnly = false
	b.Recurrence = workspace.ParseRecurrenceKind(string(b.Recurrence))
	b.CreatedAt = e.now()

	doc := e.store.Doc()
	doc.TimeBlocks = append(doc.TimeBlocks, b)
	// Clamp clocks and recurrence details the same way a load would.
	workspace.Normalize(doc, e.now())
	e.changed()
	return doc.BlockByID(b.ID), nil
}

// EditBlock applies fn to the block. Remote-sourced blocks are read-only.
func (e *Engine) EditBlock(id string, fn func(*workspace.TimeBlock)) error {
	doc := e.store.Doc()
	b := doc.BlockByID(id)
	if b == nil {
		return ErrBlockNotFound
	}
	if b.ReadOnly {
		return ErrBlockReadOnly
	}
	fn(b)
	b.ID = id
	workspace.Normalize(doc, e.now())
	e.changed()
	return nil
}

// DeleteBlock removes a block. Remote-sourced blocks can only vanish through
// a sync.
func (e *Engine) DeleteBlock(id string) error {
	doc := e.store.Doc()
	b := doc.BlockByID(id)
	if b == nil {
		return ErrBlockNotFound
	}
	if b.ReadOnly {
		return ErrBlockReadOnly
	}
	for i := range doc.TimeBlocks {
		if doc.TimeBlocks[i].ID == id {
			doc.TimeBlocks = append(doc.TimeBlocks[:i], doc.TimeBlocks[i+1:]...)
			break
		}
	}
	e.changed()
	return nil
}

// ============================================================================
// Reconciliation
// ============================================================================

// Reconcile runs one pass against every registered legacy source and saves if
// anything changed. A source read failure skips that source for the pass and
// is returned alongside whatever the healthy sources produced.
func (e *Engine) Reconcile() (reconcile.Plan, error) {
	plan, err := e.reconciler.Reconcile()
	if !plan.Empty() {
		e.ledger.RecomputeGlobal()
		e.changed()
	}
	return plan, err
}

// ============================================================================
// Calendar Interchange
// ============================================================================

// ImportCalendar merges events from an ICS stream into the time blocks.
func (e *Engine) ImportCalendar(r io.Reader) (calendar.MergeResult, error) {
	events, err := calendar.Parse(r)
	if err != nil {
		return calendar.MergeResult{}, err
	}
	res := calendar.MergeImport(e.store.Doc(), workspace.BlockImportedICS, events, e.now())
	if res.Changed() {
		e.changed()
	}
	return res, nil
}

// ExportCalendar writes the workspace's task patterns and time blocks as ICS.
func (e *Engine) ExportCalendar(w io.Writer) error {
	return calendar.Write(w, calendar.ExportDocument(e.store.Doc()))
}

// ============================================================================
// Remote Calendar Sync
// ============================================================================

// EnableRemoteSync starts periodic merges from a remote ICS feed. Any earlier
// timer is replaced. The first merge runs on the first tick, not immediately.
func (e *Engine) EnableRemoteSync(url string, interval time.Duration) {
	e.fetch = remote.NewFetcher(url).Fetch
	e.syncer.Start(interval, e.syncRemote)
}

// DisableRemoteSync cancels the periodic merge. Already-imported remote
// blocks stay until the next enabled sync sweeps them.
func (e *Engine) DisableRemoteSync() {
	e.syncer.Stop()
}

// RemoteStatus returns the last remote sync outcome for display.
func (e *Engine) RemoteStatus() string {
	return e.syncer.Status()
}

// SyncRemoteOnce fetches the feed once and merges its events.
func (e *Engine) SyncRemoteOnce(url string) (calendar.MergeResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	events, err := remote.NewFetcher(url).Fetch(ctx)
	if err != nil {
		return calendar.MergeResult{}, err
	}
	res := calendar.MergeImport(e.store.Doc(), workspace.BlockImportedRemote, events, e.now())
	if res.Changed() {
		e.changed()
	}
	return res, nil
}

func (e *Engine) syncRemote() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	events, err := e.fetch(ctx)
	if err != nil {
		return err
	}
	res := calendar.MergeImport(e.store.Doc(), workspace.BlockImportedRemote, events, e.now())
	if res.Changed() {
		e.changed()
	}
	return nil
}
