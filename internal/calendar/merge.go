package calendar

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"daybook/internal/dates"
	"daybook/internal/workspace"
)

// MergeResult summarizes one import-merge pass.
type MergeResult struct {
	Added   int
	Updated int
	Removed int
}

// Changed reports whether the pass touched the document.
func (m MergeResult) Changed() bool {
	return m.Added > 0 || m.Updated > 0 || m.Removed > 0
}

// MergeKey returns the stable identity used to match an incoming event to an
// existing imported block: the explicit UID when present, otherwise a hash
// over name, start, end, and the recurrence rule text.
func MergeKey(e *Event) string {
	if e.UID != "" {
		return e.UID
	}
	sum := sha256.Sum256([]byte(e.Summary + "\x00" + e.Start + "\x00" + e.End + "\x00" + e.Rule.Text()))
	return "h-" + hex.EncodeToString(sum[:8])
}

// MergeImport converges the document's blocks of the given source with the
// incoming batch. Matched blocks are updated in place (block id preserved),
// unmatched events create new blocks, and existing blocks of the same source
// whose key is absent from the batch are deleted. Blocks from other sources,
// and manually created blocks in particular, are never touched. Running the
// same batch twice yields the same block set.
func MergeImport(doc *workspace.Document, source workspace.BlockSource, events []Event, now time.Time) MergeResult {
	var res MergeResult

	// Index map, not pointers: appending below would reallocate the slice
	// and detach any held *TimeBlock from the document.
	existing := make(map[string]int)
	for i := range doc.TimeBlocks {
		b := &doc.TimeBlocks[i]
		if b.Source == source && b.SourceUID != "" {
			existing[b.SourceUID] = i
		}
	}

	var adds []workspace.TimeBlock
	seen := make(map[string]struct{}, len(events))
	for i := range events {
		e := &events[i]
		key := MergeKey(e)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if idx, ok := existing[key]; ok {
			if applyEvent(&doc.TimeBlocks[idx], e) {
				res.Updated++
			}
			continue
		}

		nb := workspace.TimeBlock{
			ID:        uuid.NewString(),
			Source:    source,
			SourceUID: key,
			ReadOnly:  source == workspace.BlockImportedRemote,
			CreatedAt: now,
		}
		applyEvent(&nb, e)
		adds = append(adds, nb)
		res.Added++
	}
	doc.TimeBlocks = append(doc.TimeBlocks, adds...)

	// Sweep same-source blocks that vanished from the batch.
	kept := doc.TimeBlocks[:0]
	for _, b := range doc.TimeBlocks {
		if b.Source == source && b.SourceUID != "" {
			if _, ok := seen[b.SourceUID]; !ok {
				res.Removed++
				continue
			}
		}
		kept = append(kept, b)
	}
	doc.TimeBlocks = kept

	return res
}

// applyEvent copies the event's fields onto the block and reports whether
// anything changed.
func applyEvent(b *workspace.TimeBlock, e *Event) bool {
	want := *b
	want.Name = e.Summary
	want.Start = e.Start
	want.End = e.End
	want.Date = ""
	want.EndDate = ""
	want.WeeklyDays = nil

	switch {
	case e.Rule == nil:
		want.Recurrence = workspace.RecurNone
		want.Date = e.Date
	case e.Rule.Freq == "DAILY":
		want.Recurrence = workspace.RecurDaily
		want.EndDate = e.Rule.Until
	case isWeekdaysSet(e.Rule.ByDay):
		want.Recurrence = workspace.RecurWeekdays
		want.EndDate = e.Rule.Until
	default:
		want.Recurrence = workspace.RecurWeekly
		days := e.Rule.ByDay
		if len(days) == 0 {
			// A WEEKLY rule without BYDAY repeats on its start weekday.
			if wd := dates.Weekday(e.Date); wd >= 0 {
				days = []int{wd}
			}
		}
		want.WeeklyDays = append([]int(nil), days...)
		want.EndDate = e.Rule.Until
	}

	if blockEqual(b, &want) {
		return false
	}
	*b = want
	return true
}

func isWeekdaysSet(days []int) bool {
	if len(days) != 5 {
		return false
	}
	for i, d := range days {
		if d != i+1 {
			return false
		}
	}
	return true
}

func blockEqual(a, b *workspace.TimeBlock) bool {
	if a.Name != b.Name || a.Start != b.Start || a.End != b.End ||
		a.Date != b.Date || a.Recurrence != b.Recurrence || a.EndDate != b.EndDate {
		return false
	}
	if len(a.WeeklyDays) != len(b.WeeklyDays) {
		return false
	}
	for i := range a.WeeklyDays {
		if a.WeeklyDays[i] != b.WeeklyDays[i] {
			return false
		}
	}
	return true
}
