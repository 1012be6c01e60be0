package schedule

import (
	"testing"
	"time"

	"daybook/internal/workspace"
)

func weeklyTask(days []int, active bool) workspace.Task {
	return workspace.Task{
		ID:         "w1",
		Title:      "Gym",
		Schedule:   workspace.ScheduleWeekly,
		WeeklyDays: days,
		Priority:   workspace.PriorityMedium,
		Difficulty: workspace.DifficultyMedium,
		Origin:     workspace.OriginQuick,
		Active:     active,
		CreatedAt:  time.Date(2026, 1, 1, 8, 0, 0, 0, time.Local),
	}
}

func TestIsDueOnce(t *testing.T) {
	task := workspace.Task{ID: "o1", Title: "Dentist", Schedule: workspace.ScheduleOnce, DueDate: "2026-03-04", Active: true}

	if !IsDue(&task, "2026-03-04") {
		t.Error("once task not due on its due date")
	}
	if IsDue(&task, "2026-03-05") {
		t.Error("once task due on the wrong date")
	}

	task.DueDate = ""
	if IsDue(&task, "2026-03-04") {
		t.Error("undated once task should never be due on a specific day")
	}
}

func TestIsDueDaily(t *testing.T) {
	task := workspace.Task{ID: "d1", Schedule: workspace.ScheduleDaily, Active: true}
	if !IsDue(&task, "2026-03-04") {
		t.Error("active daily task should be due every day")
	}
	task.Active = false
	if IsDue(&task, "2026-03-04") {
		t.Error("inactive daily task should not be due")
	}
}

func TestIsDueWeekly(t *testing.T) {
	// Mon/Wed/Fri task: due Wednesday 2026-03-04, not Tuesday 2026-03-03.
	task := weeklyTask([]int{1, 3, 5}, true)

	if !IsDue(&task, "2026-03-04") {
		t.Error("weekly [1,3,5] task not due on a Wednesday")
	}
	if IsDue(&task, "2026-03-03") {
		t.Error("weekly [1,3,5] task due on a Tuesday")
	}

	// Every weekday in the set matches exactly the weekday predicate.
	for day := 0; day < 7; day++ {
		key := "2026-03-0" + string(rune('1'+day)) // 2026-03-01 is a Sunday
		want := task.HasWeeklyDay(day)
		if got := IsDue(&task, key); got != want {
			t.Errorf("IsDue(%s) = %v, want %v", key, got, want)
		}
	}

	task.Active = false
	if IsDue(&task, "2026-03-04") {
		t.Error("inactive weekly task should not be due")
	}
}

func TestIsDueUnknownSchedule(t *testing.T) {
	task := workspace.Task{ID: "u1", Schedule: workspace.ScheduleType("fortnightly"), Active: true}
	for _, key := range []string{"2026-03-03", "2026-03-04", "2026-03-05"} {
		if IsDue(&task, key) {
			t.Errorf("unknown schedule type due on %s", key)
		}
	}
}

func TestDueTasksFilters(t *testing.T) {
	tasks := []workspace.Task{
		{ID: "a", Schedule: workspace.ScheduleDaily, Active: true},
		{ID: "b", Schedule: workspace.ScheduleOnce, DueDate: "2026-03-05", Active: true},
		{ID: "c", Schedule: workspace.ScheduleOnce, DueDate: "2026-03-04", Active: true},
	}
	due := DueTasks(tasks, "2026-03-04")
	if len(due) != 2 {
		t.Fatalf("len(due) = %d, want 2", len(due))
	}
	if due[0].ID != "a" || due[1].ID != "c" {
		t.Errorf("due order = [%s %s], want [a c]", due[0].ID, due[1].ID)
	}
}
