package schedule

import (
	"testing"
	"time"

	"daybook/internal/workspace"
)

func mkTask(id string, p workspace.Priority, d workspace.Difficulty, due string) workspace.Task {
	return workspace.Task{
		ID:         id,
		Title:      "Task " + id,
		Schedule:   workspace.ScheduleOnce,
		Priority:   p,
		Difficulty: d,
		DueDate:    due,
		Origin:     workspace.OriginQuick,
		Active:     true,
		CreatedAt:  time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local),
	}
}

func TestOrderUrgentFirst(t *testing.T) {
	tasks := []workspace.Task{
		mkTask("low", workspace.PriorityLow, workspace.DifficultyEasy, ""),
		mkTask("high-hard", workspace.PriorityHigh, workspace.DifficultyHard, ""),
		mkTask("high-easy", workspace.PriorityHigh, workspace.DifficultyEasy, ""),
		mkTask("med", workspace.PriorityMedium, workspace.DifficultyMedium, ""),
	}

	got := Order(tasks, workspace.OrderUrgentFirst)
	want := []string{"high-easy", "high-hard", "med", "low"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("urgent_first[%d] = %s, want %s (full: %v)", i, got[i].ID, id, ids(got))
		}
	}
}

func TestOrderEasyFirst(t *testing.T) {
	tasks := []workspace.Task{
		mkTask("hard-high", workspace.PriorityHigh, workspace.DifficultyHard, ""),
		mkTask("easy-low", workspace.PriorityLow, workspace.DifficultyEasy, ""),
		mkTask("easy-high", workspace.PriorityHigh, workspace.DifficultyEasy, ""),
	}

	got := Order(tasks, workspace.OrderEasyFirst)
	// Difficulty is compared before priority.
	want := []string{"easy-high", "easy-low", "hard-high"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("easy_first[%d] = %s, want %s (full: %v)", i, got[i].ID, id, ids(got))
		}
	}
}

func TestOrderDueDateBeforeCreatedAt(t *testing.T) {
	dated := mkTask("dated", workspace.PriorityMedium, workspace.DifficultyMedium, "2026-03-01")
	later := mkTask("later", workspace.PriorityMedium, workspace.DifficultyMedium, "2026-04-01")
	undated := mkTask("undated", workspace.PriorityMedium, workspace.DifficultyMedium, "")
	undated.CreatedAt = dated.CreatedAt.Add(-time.Hour) // earlier creation must not beat a due date

	got := Order([]workspace.Task{undated, later, dated}, workspace.OrderUrgentFirst)
	want := []string{"dated", "later", "undated"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s (full: %v)", i, got[i].ID, id, ids(got))
		}
	}
}

// TestOrderIsStrictTotalOrder checks that for every distinct pair exactly one
// of Less(a,b), Less(b,a) holds, under both strategies, even for tasks that
// tie on every user-visible field.
func TestOrderIsStrictTotalOrder(t *testing.T) {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.Local)
	tasks := []workspace.Task{
		mkTask("a", workspace.PriorityHigh, workspace.DifficultyEasy, "2026-03-01"),
		mkTask("b", workspace.PriorityHigh, workspace.DifficultyEasy, "2026-03-01"),
		mkTask("c", workspace.PriorityLow, workspace.DifficultyHard, ""),
		mkTask("d", workspace.PriorityMedium, workspace.DifficultyMedium, "2026-05-05"),
		mkTask("e", workspace.PriorityMedium, workspace.DifficultyMedium, "2026-05-05"),
	}
	// Force full-field ties between a/b and d/e.
	for i := range tasks {
		tasks[i].CreatedAt = created
		tasks[i].Title = "Same Title"
	}

	for _, strategy := range []workspace.OrderStrategy{workspace.OrderUrgentFirst, workspace.OrderEasyFirst} {
		for i := range tasks {
			for j := range tasks {
				ab := Less(&tasks[i], &tasks[j], strategy)
				ba := Less(&tasks[j], &tasks[i], strategy)
				if i == j {
					if ab || ba {
						t.Errorf("%s: task %s compares before itself", strategy, tasks[i].ID)
					}
					continue
				}
				if ab == ba {
					t.Errorf("%s: tasks %s and %s are not strictly ordered (ab=%v ba=%v)",
						strategy, tasks[i].ID, tasks[j].ID, ab, ba)
				}
			}
		}
	}
}

func ids(tasks []workspace.Task) []string {
	out := make([]string, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].ID
	}
	return out
}
