// Package calendar implements the time-block model: occurrence rules, the
// plain-text interchange format, and merge-on-import of externally sourced
// events.
package calendar

import (
	"daybook/internal/dates"
	"daybook/internal/workspace"
)

// OccursOn reports whether the block occurs on the given date key.
//
// none matches the block's exact date. daily matches every date from the
// block's creation onward. weekdays matches Monday through Friday. weekly
// matches the block's weekday set. An optional end date bounds any recurring
// descriptor.
func OccursOn(b *workspace.TimeBlock, dateKey string) bool {
	if !dates.Valid(dateKey) {
		return false
	}
	if b.Recurrence != workspace.RecurNone && b.EndDate != "" && dateKey > b.EndDate {
		return false
	}

	switch b.Recurrence {
	case workspace.RecurNone:
		return b.Date == dateKey
	case workspace.RecurDaily:
		return dateKey >= dates.Key(b.CreatedAt)
	case workspace.RecurWeekdays:
		wd := dates.Weekday(dateKey)
		return wd >= 1 && wd <= 5
	case workspace.RecurWeekly:
		return b.HasWeeklyDay(dates.Weekday(dateKey))
	default:
		return false
	}
}

// BlocksOn returns the blocks occurring on dateKey, sorted by start time then
// name then id so rendering order is reproducible.
func BlocksOn(blocks []workspace.TimeBlock, dateKey string) []workspace.TimeBlock {
	out := make([]workspace.TimeBlock, 0, len(blocks))
	for i := range blocks {
		if OccursOn(&blocks[i], dateKey) {
			out = append(out, blocks[i])
		}
	}
	sortBlocks(out)
	return out
}

func sortBlocks(blocks []workspace.TimeBlock) {
	for i := 1; i < len(blocks); i++ {
		for j := i; j > 0 && blockLess(&blocks[j], &blocks[j-1]); j-- {
			blocks[j], blocks[j-1] = blocks[j-1], blocks[j]
		}
	}
}

func blockLess(a, b *workspace.TimeBlock) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
