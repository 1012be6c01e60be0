// Package streak implements the global streak, the weekly freeze economy,
// and per-task streaks over the day-state ledger.
//
// A day counts toward the streak when a freeze was spent on it or at least
// one task was completed. The global streak is always recomputed from the
// ledger; it holds no incremental counters that can drift.
package streak

import (
	"errors"
	"time"

	"daybook/internal/dates"
	"daybook/internal/workspace"
)

// Freeze policy rejections. These are user-visible reasons, not faults; the
// caller displays them and nothing in the document changes.
var (
	ErrNoFreezesLeft     = errors.New("no freezes left this week")
	ErrFreezeAlreadyUsed = errors.New("a freeze was already used for that day")
	ErrDayAlreadyCounts  = errors.New("that day already counts toward the streak")
)

// Ledger operates on the streak state of a borrowed workspace document.
// It never persists; callers route saves through the workspace store.
type Ledger struct {
	doc *workspace.Document
	now func() time.Time
}

// New creates a ledger over doc.
func New(doc *workspace.Document) *Ledger {
	return &Ledger{doc: doc, now: time.Now}
}

// SetNowFunc overrides the ledger clock. Passing nil resets it to time.Now.
func (l *Ledger) SetNowFunc(now func() time.Time) {
	if now == nil {
		l.now = time.Now
		return
	}
	l.now = now
}

func (l *Ledger) today() string {
	return dates.Key(l.now())
}

// dayCounts reports whether the ledger entry for key keeps a streak alive.
// Days with no entry never count.
func (l *Ledger) dayCounts(key string) bool {
	ds, ok := l.doc.Streaks.DayStates[key]
	return ok && ds.Counts()
}

// RecomputeGlobal rederives the global streak from the day ledger. Start from
// today when today counts, otherwise from yesterday, and walk backward while
// each day counts. Idempotent and safe to re-run at any time.
func (l *Ledger) RecomputeGlobal() {
	today := l.today()
	day := today
	if !l.dayCounts(day) {
		day = dates.AddDays(day, -1)
	}

	count := 0
	for l.dayCounts(day) {
		count++
		day = dates.AddDays(day, -1)
	}

	st := &l.doc.Streaks.State
	st.GlobalCurrent = count
	if count > st.GlobalBest {
		st.GlobalBest = count
	}
	if count > 0 {
		st.GlobalLastKeptDate = today
	}
}

// RefreshFreezeWeek resets the weekly freeze allowance when the ISO week has
// rolled over since the last refresh. Must run before any freeze-related
// read or write.
func (l *Ledger) RefreshFreezeWeek() {
	week := dates.WeekKey(l.now())
	st := &l.doc.Streaks.State
	if st.FreezeWeek != week {
		st.FreezeWeek = week
		st.FreezesLeft = workspace.MaxWeeklyFreezes
	}
}

// FreezesLeft returns the remaining allowance for the current week.
func (l *Ledger) FreezesLeft() int {
	l.RefreshFreezeWeek()
	return l.doc.Streaks.State.FreezesLeft
}

// UseFreeze spends a freeze on yesterday so a missed day still counts.
// Rejected with a named reason when the allowance is exhausted, yesterday
// already has a freeze, or yesterday already counts via completions. On
// success the global streak is recomputed.
func (l *Ledger) UseFreeze() error {
	l.RefreshFreezeWeek()

	st := &l.doc.Streaks.State
	yesterday := dates.AddDays(l.today(), -1)

	// Rejections must leave the ledger untouched, so the entry is only
	// created on the success path.
	switch ds := l.doc.Streaks.DayStates[yesterday]; {
	case ds != nil && ds.FreezeUsed:
		return ErrFreezeAlreadyUsed
	case ds != nil && ds.Counts():
		return ErrDayAlreadyCounts
	case st.FreezesLeft <= 0:
		return ErrNoFreezesLeft
	}

	l.doc.DayState(yesterday).FreezeUsed = true
	st.FreezesLeft--
	l.RecomputeGlobal()
	return nil
}

// UpdateTaskStreak advances the per-task streak for a recurring task that has
// a completion recorded today. Daily tasks tolerate a gap of one missed day,
// weekly tasks a gap of up to eight days; anything longer resets the streak.
// Calling it twice on the same day is a no-op after the first call.
func (l *Ledger) UpdateTaskStreak(taskID string) {
	task := l.doc.TaskByID(taskID)
	if task == nil || !task.Recurring() {
		return
	}

	today := l.today()
	ds, ok := l.doc.Streaks.DayStates[today]
	if !ok || !ds.Completed(taskID) {
		return
	}

	ts := l.doc.TaskStreak(taskID)
	if ts.LastCompletedDate == today {
		return
	}

	if ts.LastCompletedDate == "" {
		ts.Current = 1
	} else {
		allowed := 1
		if task.Schedule == workspace.ScheduleWeekly {
			allowed = 7
		}
		gap := dates.DaysBetween(ts.LastCompletedDate, today)
		if gap <= allowed+1 {
			ts.Current++
		} else {
			ts.Current = 1
		}
	}
	if ts.Current > ts.Best {
		ts.Best = ts.Current
	}
	ts.LastCompletedDate = today
}

// Snapshot is a read-only view of the global streak for rendering.
type Snapshot struct {
	Current      int
	Best         int
	LastKeptDate string
	FreezesLeft  int
	FreezeWeek   string
}

// Snapshot returns the current global streak state, refreshing the freeze
// week first so the allowance is never stale.
func (l *Ledger) Snapshot() Snapshot {
	l.RefreshFreezeWeek()
	st := l.doc.Streaks.State
	return Snapshot{
		Current:      st.GlobalCurrent,
		Best:         st.GlobalBest,
		LastKeptDate: st.GlobalLastKeptDate,
		FreezesLeft:  st.FreezesLeft,
		FreezeWeek:   st.FreezeWeek,
	}
}
