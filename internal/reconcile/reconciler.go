package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"daybook/internal/dates"
	"daybook/internal/workspace"
)

// UnifiedID derives the unified task id for a legacy record. The derivation
// is deterministic and collision-resistant, so repeated reconciliation always
// maps the same record to the same task.
func UnifiedID(sourceKind, recordID string) string {
	sum := sha256.Sum256([]byte(sourceKind + "\x00" + recordID))
	return "ext_" + hex.EncodeToString(sum[:8])
}

// Plan is the diff between the legacy stores and the unified list, computed
// fully before anything is applied.
type Plan struct {
	Add    []workspace.Task
	Update []workspace.Task // desired states for existing tasks
	Remove []string         // unified task ids
}

// Empty reports whether applying the plan would change nothing.
func (p *Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Update) == 0 && len(p.Remove) == 0
}

// Reconciler converges the unified task list with a set of legacy sources.
type Reconciler struct {
	doc     *workspace.Document
	sources []Source
	now     func() time.Time
}

// New creates a reconciler over doc for the given sources.
func New(doc *workspace.Document, sources ...Source) *Reconciler {
	return &Reconciler{doc: doc, sources: sources, now: time.Now}
}

// SetNowFunc overrides the reconciler clock. Passing nil resets it to time.Now.
func (r *Reconciler) SetNowFunc(now func() time.Time) {
	if now == nil {
		r.now = time.Now
		return
	}
	r.now = now
}

// Reconcile reads every legacy store, diffs the desired snapshot against the
// homework-origin tasks in the unified list, and applies the resulting plan.
// It is idempotent: with no upstream change the second call produces an empty
// plan and touches nothing. A record that disappeared upstream is a deletion,
// not an error. A source whose read fails is skipped entirely for this pass,
// so its tasks are neither updated nor mass-deleted on a transient fault.
func (r *Reconciler) Reconcile() (Plan, error) {
	desired := make(map[string]workspace.Task)
	healthy := make(map[string]bool, len(r.sources))
	var readErr error

	for _, src := range r.sources {
		records, err := src.List()
		if err != nil {
			readErr = fmt.Errorf("reconcile %s: %w", src.Kind(), err)
			continue
		}
		healthy[src.Kind()] = true
		for _, rec := range records {
			if rec.ID == "" {
				continue
			}
			t := r.taskForRecord(src.Kind(), rec)
			desired[t.ID] = t
		}
	}

	var plan Plan

	// Existing homework tasks: update when drifted, remove when the record
	// vanished from a healthy source.
	for i := range r.doc.Tasks {
		existing := &r.doc.Tasks[i]
		if existing.Origin != workspace.OriginHomework || existing.Source == nil {
			continue
		}
		if !healthy[existing.Source.Kind] {
			continue
		}
		want, ok := desired[existing.ID]
		if !ok {
			plan.Remove = append(plan.Remove, existing.ID)
			continue
		}
		if drifted(existing, &want) {
			plan.Update = append(plan.Update, want)
		}
	}

	// Desired records with no unified task yet. Sorted by id so repeated
	// runs append in a reproducible order.
	for id, want := range desired {
		if r.doc.TaskByID(id) == nil {
			plan.Add = append(plan.Add, want)
		}
	}
	sort.Slice(plan.Add, func(i, j int) bool { return plan.Add[i].ID < plan.Add[j].ID })

	r.apply(&plan)
	return plan, readErr
}

// taskForRecord maps a legacy record to its desired unified task. Homework
// records are dated one-offs; the legacy store owns title, due date,
// priority, difficulty, and the active flag (a done record is no longer
// active).
func (r *Reconciler) taskForRecord(kind string, rec Record) workspace.Task {
	due := rec.Due
	if due != "" && !dates.Valid(due) {
		due = ""
	}
	return workspace.Task{
		ID:         UnifiedID(kind, rec.ID),
		Title:      rec.Label,
		Schedule:   workspace.ScheduleOnce,
		Priority:   workspace.ParsePriority(rec.Priority),
		Difficulty: workspace.ParseDifficulty(rec.Difficulty),
		DueDate:    due,
		Active:     !rec.Done,
		Origin:     workspace.OriginHomework,
		Source:     &workspace.ExternalRef{Kind: kind, RecordID: rec.ID},
		CreatedAt:  r.now(),
	}
}

// drifted compares only the fields the legacy store owns, to minimize churn.
func drifted(existing, want *workspace.Task) bool {
	return existing.Title != want.Title ||
		existing.Schedule != want.Schedule ||
		existing.Priority != want.Priority ||
		existing.Difficulty != want.Difficulty ||
		existing.DueDate != want.DueDate ||
		existing.Active != want.Active
}

func (r *Reconciler) apply(plan *Plan) {
	for _, id := range plan.Remove {
		r.doc.RemoveTask(id)
	}
	for _, want := range plan.Update {
		if existing := r.doc.TaskByID(want.ID); existing != nil {
			existing.Title = want.Title
			existing.Schedule = want.Schedule
			existing.Priority = want.Priority
			existing.Difficulty = want.Difficulty
			existing.DueDate = want.DueDate
			existing.Active = want.Active
		}
	}
	for _, t := range plan.Add {
		r.doc.Tasks = append(r.doc.Tasks, t)
		r.doc.TaskOrder = append(r.doc.TaskOrder, t.ID)
	}
}

// sourceFor returns the registered source of the given kind, or nil.
func (r *Reconciler) sourceFor(kind string) Source {
	for _, src := range r.sources {
		if src.Kind() == kind {
			return src
		}
	}
	return nil
}

// WriteBackDone routes a completion toggle on a homework task into the
// originating legacy record. The unified task is not mutated here; the next
// reconciliation pass picks the change up from the authoritative store.
func (r *Reconciler) WriteBackDone(task *workspace.Task, done bool) error {
	src, recordID, err := r.writeTarget(task)
	if err != nil {
		return err
	}
	return src.SetDone(recordID, done)
}

// WriteBackDue routes a due-date edit into the originating legacy record.
func (r *Reconciler) WriteBackDue(task *workspace.Task, due string) error {
	src, recordID, err := r.writeTarget(task)
	if err != nil {
		return err
	}
	return src.SetDue(recordID, due)
}

// WriteBackPriority routes a priority edit into the originating legacy record.
func (r *Reconciler) WriteBackPriority(task *workspace.Task, p workspace.Priority) error {
	src, recordID, err := r.writeTarget(task)
	if err != nil {
		return err
	}
	return src.SetPriority(recordID, string(p))
}

// WriteBackDifficulty routes a difficulty edit into the originating legacy record.
func (r *Reconciler) WriteBackDifficulty(task *workspace.Task, d workspace.Difficulty) error {
	src, recordID, err := r.writeTarget(task)
	if err != nil {
		return err
	}
	return src.SetDifficulty(recordID, string(d))
}

func (r *Reconciler) writeTarget(task *workspace.Task) (Source, string, error) {
	if task == nil || task.Origin != workspace.OriginHomework || task.Source == nil {
		return nil, "", fmt.Errorf("task is not backed by a legacy source")
	}
	src := r.sourceFor(task.Source.Kind)
	if src == nil {
		return nil, "", fmt.Errorf("no source registered for kind %q", task.Source.Kind)
	}
	return src, task.Source.RecordID, nil
}
