// Package schedule decides which tasks are due on a date and how the task
// list is ordered for display.
package schedule

import (
	"daybook/internal/dates"
	"daybook/internal/workspace"
)

// IsDue reports whether the task is due on the given date key.
//
// once tasks are due exactly on their due date; a once task without a due
// date is never due on any specific day (it still shows in unfiltered
// listings). daily tasks are due whenever active. weekly tasks are due when
// active and the date's weekday is in their weekly set. Anything else is
// never due.
func IsDue(t *workspace.Task, dateKey string) bool {
	switch t.Schedule {
	case workspace.ScheduleOnce:
		return t.DueDate != "" && t.DueDate == dateKey
	case workspace.ScheduleDaily:
		return t.Active
	case workspace.ScheduleWeekly:
		return t.Active && t.HasWeeklyDay(dates.Weekday(dateKey))
	default:
		return false
	}
}

// DueTasks filters tasks down to the ones due on dateKey, preserving input
// order.
func DueTasks(tasks []workspace.Task, dateKey string) []workspace.Task {
	due := make([]workspace.Task, 0, len(tasks))
	for i := range tasks {
		if IsDue(&tasks[i], dateKey) {
			due = append(due, tasks[i])
		}
	}
	return due
}
