package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybook/internal/dates"
	"daybook/internal/workspace"
)

// Wednesday.
var testNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)

func newTestLedger(t *testing.T) (*Ledger, *workspace.Document) {
	t.Helper()
	doc := workspace.DefaultDocument()
	l := New(doc)
	l.SetNowFunc(func() time.Time { return testNow })
	return l, doc
}

func addDailyTask(doc *workspace.Document, id string) {
	doc.Tasks = append(doc.Tasks, workspace.Task{
		ID: id, Title: id,
		Schedule:   workspace.ScheduleDaily,
		Priority:   workspace.PriorityMedium,
		Difficulty: workspace.DifficultyMedium,
		Origin:     workspace.OriginQuick,
		Active:     true,
		CreatedAt:  testNow.AddDate(0, 0, -30),
	})
}

func TestRecomputeGlobalWalksBack(t *testing.T) {
	l, doc := newTestLedger(t)

	// Three consecutive counting days ending today.
	doc.DayState("2026-03-02").SetCompleted("t", true)
	doc.DayState("2026-03-03").SetCompleted("t", true)
	doc.DayState("2026-03-04").SetCompleted("t", true)
	// A counting day separated by a gap must not be included.
	doc.DayState("2026-02-28").SetCompleted("t", true)

	l.RecomputeGlobal()
	st := doc.Streaks.State
	assert.Equal(t, 3, st.GlobalCurrent)
	assert.Equal(t, 3, st.GlobalBest)
	assert.Equal(t, "2026-03-04", st.GlobalLastKeptDate)
}

func TestRecomputeGlobalStartsYesterdayWhenTodayEmpty(t *testing.T) {
	l, doc := newTestLedger(t)

	doc.DayState("2026-03-02").SetCompleted("t", true)
	doc.DayState("2026-03-03").SetCompleted("t", true)

	l.RecomputeGlobal()
	assert.Equal(t, 2, doc.Streaks.State.GlobalCurrent, "an unfinished today must not break the streak")
}

func TestRecomputeGlobalFrozenDayCounts(t *testing.T) {
	l, doc := newTestLedger(t)

	// A day with no completions but a spent freeze still counts.
	doc.DayState("2026-03-03").SetCompleted("t", true)
	ds := doc.DayState("2026-03-04")
	ds.FreezeUsed = true
	require.Empty(t, ds.CompletedTaskIDs)

	l.RecomputeGlobal()
	assert.Equal(t, 2, doc.Streaks.State.GlobalCurrent, "frozen day should extend the streak by exactly 1")
}

func TestRecomputeGlobalIdempotentAndBestMonotonic(t *testing.T) {
	l, doc := newTestLedger(t)
	doc.Streaks.State.GlobalBest = 10 // previous best survives

	doc.DayState("2026-03-04").SetCompleted("t", true)
	for i := 0; i < 3; i++ {
		l.RecomputeGlobal()
		st := doc.Streaks.State
		assert.Equal(t, 1, st.GlobalCurrent)
		assert.Equal(t, 10, st.GlobalBest)
		assert.LessOrEqual(t, st.GlobalCurrent, st.GlobalBest)
	}
}

func TestRecomputeGlobalEmptyLedger(t *testing.T) {
	l, doc := newTestLedger(t)
	doc.Streaks.State.GlobalLastKeptDate = "2026-02-01"

	l.RecomputeGlobal()
	st := doc.Streaks.State
	assert.Equal(t, 0, st.GlobalCurrent)
	assert.Equal(t, "2026-02-01", st.GlobalLastKeptDate, "zero-length recompute must not touch last kept date")
}

func TestRefreshFreezeWeekResetsOnRollover(t *testing.T) {
	l, doc := newTestLedger(t)
	doc.Streaks.State.FreezeWeek = dates.WeekKey(testNow)
	doc.Streaks.State.FreezesLeft = 0

	// Same ISO week: no reset.
	l.RefreshFreezeWeek()
	assert.Equal(t, 0, doc.Streaks.State.FreezesLeft)

	// Pretend the stored week is older.
	doc.Streaks.State.FreezeWeek = "2026-W08"
	l.RefreshFreezeWeek()
	assert.Equal(t, workspace.MaxWeeklyFreezes, doc.Streaks.State.FreezesLeft)
	assert.Equal(t, dates.WeekKey(testNow), doc.Streaks.State.FreezeWeek)
}

func TestUseFreezeSuccess(t *testing.T) {
	l, doc := newTestLedger(t)

	require.NoError(t, l.UseFreeze())
	assert.True(t, doc.DayState("2026-03-03").FreezeUsed)
	assert.Equal(t, workspace.MaxWeeklyFreezes-1, doc.Streaks.State.FreezesLeft)
	assert.Equal(t, 1, doc.Streaks.State.GlobalCurrent, "freeze on yesterday should start a streak")
}

func TestUseFreezeNeverSucceedsTwiceForSameDay(t *testing.T) {
	l, doc := newTestLedger(t)

	require.NoError(t, l.UseFreeze())
	err := l.UseFreeze()
	require.ErrorIs(t, err, ErrFreezeAlreadyUsed)
	assert.Equal(t, workspace.MaxWeeklyFreezes-1, doc.Streaks.State.FreezesLeft, "rejected freeze must not burn allowance")
}

func TestUseFreezeRejectedWhenDayCounts(t *testing.T) {
	l, doc := newTestLedger(t)
	doc.DayState("2026-03-03").SetCompleted("t", true)

	err := l.UseFreeze()
	require.ErrorIs(t, err, ErrDayAlreadyCounts)
	assert.False(t, doc.DayState("2026-03-03").FreezeUsed)
	assert.Equal(t, workspace.MaxWeeklyFreezes, doc.Streaks.State.FreezesLeft)
}

func TestUseFreezeRejectedWithoutAllowance(t *testing.T) {
	l, doc := newTestLedger(t)
	doc.Streaks.State.FreezeWeek = dates.WeekKey(testNow)
	doc.Streaks.State.FreezesLeft = 0

	err := l.UseFreeze()
	require.ErrorIs(t, err, ErrNoFreezesLeft)
	_, exists := doc.Streaks.DayStates["2026-03-03"]
	assert.False(t, exists, "rejection must not create a ledger entry")
	assert.Equal(t, 0, doc.Streaks.State.FreezesLeft)
}

func TestUpdateTaskStreakFirstCompletion(t *testing.T) {
	l, doc := newTestLedger(t)
	addDailyTask(doc, "d1")
	doc.DayState("2026-03-04").SetCompleted("d1", true)

	l.UpdateTaskStreak("d1")
	ts := doc.Streaks.TaskStreaks["d1"]
	require.NotNil(t, ts)
	assert.Equal(t, 1, ts.Current)
	assert.Equal(t, 1, ts.Best)
	assert.Equal(t, "2026-03-04", ts.LastCompletedDate)
}

func TestUpdateTaskStreakIdempotentPerDay(t *testing.T) {
	l, doc := newTestLedger(t)
	addDailyTask(doc, "d1")
	doc.DayState("2026-03-04").SetCompleted("d1", true)

	l.UpdateTaskStreak("d1")
	l.UpdateTaskStreak("d1")
	l.UpdateTaskStreak("d1")
	assert.Equal(t, 1, doc.Streaks.TaskStreaks["d1"].Current)
}

func TestUpdateTaskStreakGapRules(t *testing.T) {
	tests := []struct {
		name     string
		schedule workspace.ScheduleType
		last     string
		want     int
	}{
		{"daily consecutive", workspace.ScheduleDaily, "2026-03-03", 6},
		{"daily one-day grace", workspace.ScheduleDaily, "2026-03-02", 6},
		{"daily broken", workspace.ScheduleDaily, "2026-03-01", 1},
		{"weekly seven-day gap", workspace.ScheduleWeekly, "2026-02-25", 6},
		{"weekly eight-day grace", workspace.ScheduleWeekly, "2026-02-24", 6},
		{"weekly broken", workspace.ScheduleWeekly, "2026-02-23", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, doc := newTestLedger(t)
			doc.Tasks = append(doc.Tasks, workspace.Task{
				ID: "r1", Title: "r1",
				Schedule:   tt.schedule,
				WeeklyDays: []int{3},
				Priority:   workspace.PriorityMedium,
				Difficulty: workspace.DifficultyMedium,
				Origin:     workspace.OriginQuick,
				Active:     true,
				CreatedAt:  testNow.AddDate(0, 0, -60),
			})
			doc.Streaks.TaskStreaks["r1"] = &workspace.TaskStreak{
				Current: 5, Best: 5, LastCompletedDate: tt.last,
			}
			doc.DayState("2026-03-04").SetCompleted("r1", true)

			l.UpdateTaskStreak("r1")
			ts := doc.Streaks.TaskStreaks["r1"]
			assert.Equal(t, tt.want, ts.Current)
			assert.Equal(t, "2026-03-04", ts.LastCompletedDate)
			assert.GreaterOrEqual(t, ts.Best, ts.Current)
		})
	}
}

func TestUpdateTaskStreakIgnoresOnceTasksAndMissingCompletions(t *testing.T) {
	l, doc := newTestLedger(t)

	doc.Tasks = append(doc.Tasks, workspace.Task{
		ID: "once", Title: "once",
		Schedule: workspace.ScheduleOnce, DueDate: "2026-03-04",
		Priority: workspace.PriorityMedium, Difficulty: workspace.DifficultyMedium,
		Origin: workspace.OriginQuick, Active: true, CreatedAt: testNow,
	})
	doc.DayState("2026-03-04").SetCompleted("once", true)
	l.UpdateTaskStreak("once")
	assert.NotContains(t, doc.Streaks.TaskStreaks, "once", "once tasks carry no streak")

	addDailyTask(doc, "d1") // no completion recorded today
	l.UpdateTaskStreak("d1")
	assert.NotContains(t, doc.Streaks.TaskStreaks, "d1")
}
