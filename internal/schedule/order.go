package schedule

import (
	"sort"
	"strings"

	"daybook/internal/workspace"
)

var priorityWeight = map[workspace.Priority]int{
	workspace.PriorityHigh:   3,
	workspace.PriorityMedium: 2,
	workspace.PriorityLow:    1,
}

var difficultyWeight = map[workspace.Difficulty]int{
	workspace.DifficultyEasy:   1,
	workspace.DifficultyMedium: 2,
	workspace.DifficultyHard:   3,
}

// Order returns a sorted copy of tasks under the given strategy. The
// comparator chain is a strict total order: the final id comparison
// guarantees no two distinct tasks ever compare equal, so rendering order is
// stable and reproducible.
func Order(tasks []workspace.Task, strategy workspace.OrderStrategy) []workspace.Task {
	sorted := make([]workspace.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		return Less(&sorted[i], &sorted[j], strategy)
	})
	return sorted
}

// Less compares two tasks under the given strategy.
//
// urgent_first: priority desc, difficulty asc, due date asc (undated after
// dated), createdAt asc, title (case-insensitive), id.
// easy_first: the same chain with difficulty asc compared before priority.
func Less(a, b *workspace.Task, strategy workspace.OrderStrategy) bool {
	if strategy == workspace.OrderEasyFirst {
		if c := compareDifficulty(a, b); c != 0 {
			return c < 0
		}
		if c := comparePriority(a, b); c != 0 {
			return c < 0
		}
	} else {
		if c := comparePriority(a, b); c != 0 {
			return c < 0
		}
		if c := compareDifficulty(a, b); c != 0 {
			return c < 0
		}
	}
	if c := compareDueDate(a, b); c != 0 {
		return c < 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
	if ta != tb {
		return ta < tb
	}
	return a.ID < b.ID
}

func comparePriority(a, b *workspace.Task) int {
	// Higher priority sorts earlier.
	return priorityWeight[b.Priority] - priorityWeight[a.Priority]
}

func compareDifficulty(a, b *workspace.Task) int {
	return difficultyWeight[a.Difficulty] - difficultyWeight[b.Difficulty]
}

// compareDueDate sorts dated tasks ascending and undated tasks after all
// dated ones. Date keys compare lexically in calendar order.
func compareDueDate(a, b *workspace.Task) int {
	switch {
	case a.DueDate == "" && b.DueDate == "":
		return 0
	case a.DueDate == "":
		return 1
	case b.DueDate == "":
		return -1
	case a.DueDate < b.DueDate:
		return -1
	case a.DueDate > b.DueDate:
		return 1
	default:
		return 0
	}
}
