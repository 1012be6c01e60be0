package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybook/internal/workspace"
)

var testNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)

func writeHomework(t *testing.T, path string, records []Record) {
	t.Helper()
	data, err := json.MarshalIndent(fileRecords{Records: records}, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
}

func newTestReconciler(t *testing.T, records []Record) (*Reconciler, *workspace.Document, *FileSource) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homework.json")
	writeHomework(t, path, records)
	src := NewFileSource("homework", path)

	doc := workspace.DefaultDocument()
	r := New(doc, src)
	r.SetNowFunc(func() time.Time { return testNow })
	return r, doc, src
}

func TestUnifiedIDDeterministic(t *testing.T) {
	a := UnifiedID("homework", "5")
	b := UnifiedID("homework", "5")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, UnifiedID("homework", "6"))
	assert.NotEqual(t, a, UnifiedID("exam", "5"))
}

func TestReconcileCreatesUnifiedTasks(t *testing.T) {
	r, doc, _ := newTestReconciler(t, []Record{
		{ID: "5", Label: "Algebra worksheet", Due: "2026-03-06", Priority: "high"},
	})

	plan, err := r.Reconcile()
	require.NoError(t, err)
	assert.Len(t, plan.Add, 1)

	task := doc.TaskByID(UnifiedID("homework", "5"))
	require.NotNil(t, task)
	assert.Equal(t, "Algebra worksheet", task.Title)
	assert.Equal(t, workspace.OriginHomework, task.Origin)
	assert.Equal(t, workspace.ScheduleOnce, task.Schedule)
	assert.Equal(t, workspace.PriorityHigh, task.Priority)
	assert.Equal(t, "2026-03-06", task.DueDate)
	assert.True(t, task.Active)
	require.NotNil(t, task.Source)
	assert.Equal(t, "homework", task.Source.Kind)
	assert.Equal(t, "5", task.Source.RecordID)
	assert.Contains(t, doc.TaskOrder, task.ID)
}

func TestReconcileIdempotent(t *testing.T) {
	r, _, _ := newTestReconciler(t, []Record{
		{ID: "1", Label: "Essay"},
		{ID: "2", Label: "Lab report", Due: "2026-03-09"},
	})

	first, err := r.Reconcile()
	require.NoError(t, err)
	assert.False(t, first.Empty())

	second, err := r.Reconcile()
	require.NoError(t, err)
	assert.True(t, second.Empty(), "second pass with no upstream change must produce zero diffs, got %+v", second)
}

func TestReconcileUpdatesOnlyDriftedFields(t *testing.T) {
	r, doc, src := newTestReconciler(t, []Record{
		{ID: "1", Label: "Essay", Priority: "low"},
	})
	_, err := r.Reconcile()
	require.NoError(t, err)

	require.NoError(t, src.SetPriority("1", "high"))
	plan, err := r.Reconcile()
	require.NoError(t, err)
	assert.Len(t, plan.Update, 1)
	assert.Empty(t, plan.Add)
	assert.Empty(t, plan.Remove)

	task := doc.TaskByID(UnifiedID("homework", "1"))
	require.NotNil(t, task)
	assert.Equal(t, workspace.PriorityHigh, task.Priority)
}

func TestReconcileRemovesVanishedRecordsWithCascade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homework.json")
	writeHomework(t, path, []Record{{ID: "1", Label: "Essay"}})
	src := NewFileSource("homework", path)
	doc := workspace.DefaultDocument()
	r := New(doc, src)
	r.SetNowFunc(func() time.Time { return testNow })

	_, err := r.Reconcile()
	require.NoError(t, err)
	id := UnifiedID("homework", "1")
	doc.DayState("2026-03-04").SetCompleted(id, true)

	// Record disappears upstream: deletion, not an error.
	writeHomework(t, path, []Record{})
	plan, err := r.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, []string{id}, plan.Remove)
	assert.Nil(t, doc.TaskByID(id))
	assert.False(t, doc.DayState("2026-03-04").Completed(id), "ledger cascade missing")
	assert.NotContains(t, doc.TaskOrder, id)
}

func TestReconcileCompletionWriteBackScenario(t *testing.T) {
	// A legacy record {id:"5", done:false} reconciles into a homework task;
	// completing it through the unified surface flips the legacy done flag,
	// and the next pass does not duplicate the task.
	r, doc, src := newTestReconciler(t, []Record{{ID: "5", Label: "Algebra", Done: false}})
	_, err := r.Reconcile()
	require.NoError(t, err)

	task := doc.TaskByID(UnifiedID("homework", "5"))
	require.NotNil(t, task)
	require.NoError(t, r.WriteBackDone(task, true))

	records, err := src.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Done, "done flag not written back to the legacy store")

	_, err = r.Reconcile()
	require.NoError(t, err)
	count := 0
	for i := range doc.Tasks {
		if doc.Tasks[i].Origin == workspace.OriginHomework {
			count++
		}
	}
	assert.Equal(t, 1, count, "reconciliation duplicated the homework task")

	// The legacy store owns the active flag: a done record goes inactive.
	task = doc.TaskByID(UnifiedID("homework", "5"))
	require.NotNil(t, task)
	assert.False(t, task.Active)
}

func TestReconcileSkipsUnreadableSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homework.json")
	writeHomework(t, path, []Record{{ID: "1", Label: "Essay"}})
	src := NewFileSource("homework", path)
	doc := workspace.DefaultDocument()
	r := New(doc, src)
	r.SetNowFunc(func() time.Time { return testNow })

	_, err := r.Reconcile()
	require.NoError(t, err)
	require.NotNil(t, doc.TaskByID(UnifiedID("homework", "1")))

	// Corrupt the store: the pass reports the fault but must not treat an
	// unreadable source as "everything was deleted".
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))
	plan, err := r.Reconcile()
	require.Error(t, err)
	assert.True(t, plan.Empty())
	assert.NotNil(t, doc.TaskByID(UnifiedID("homework", "1")), "transient source fault must not delete tasks")
}

func TestWriteBackRejectsNonHomeworkTask(t *testing.T) {
	r, doc, _ := newTestReconciler(t, nil)
	doc.Tasks = append(doc.Tasks, workspace.Task{
		ID: "manual", Title: "Manual", Schedule: workspace.ScheduleOnce,
		Priority: workspace.PriorityMedium, Difficulty: workspace.DifficultyMedium,
		Origin: workspace.OriginQuick, Active: true, CreatedAt: testNow,
	})

	err := r.WriteBackDone(doc.TaskByID("manual"), true)
	assert.Error(t, err)
}

func TestFileSourceTargetedUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homework.json")
	writeHomework(t, path, []Record{
		{ID: "1", Label: "Essay"},
		{ID: "2", Label: "Reading"},
	})
	src := NewFileSource("homework", path)

	require.NoError(t, src.SetDue("1", "2026-03-10"))
	require.NoError(t, src.SetDifficulty("2", "hard"))
	assert.Error(t, src.SetDone("missing", true))

	records, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", records[0].Due)
	assert.Equal(t, "hard", records[1].Difficulty)
	assert.Equal(t, "Essay", records[0].Label, "untouched fields must survive targeted updates")
}
