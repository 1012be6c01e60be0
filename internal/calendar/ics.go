package calendar

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"daybook/internal/dates"
	"daybook/internal/workspace"
)

// Event is one entry of the plain-text calendar interchange format: a stable
// identifier, a summary, an anchor date with start/end times of day, and an
// optional repeat rule.
type Event struct {
	UID     string
	Summary string
	Date    string // anchor date key (DTSTART date)
	Start   string // "HH:MM"
	End     string // "HH:MM"
	Rule    *Rule  // nil for single-occurrence events
}

// Rule is the small repeating-event grammar: a frequency, an optional weekday
// set, and an optional end date.
type Rule struct {
	Freq  string // "DAILY" or "WEEKLY"
	ByDay []int  // weekday ints 0=Sunday..6=Saturday
	Until string // date key, optional
}

var icsDayCodes = []string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// Text renders the rule in canonical RRULE form. Used both for serialization
// and as part of the fallback merge identity, so it must be deterministic.
func (r *Rule) Text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("FREQ=")
	b.WriteString(r.Freq)
	if len(r.ByDay) > 0 {
		days := append([]int(nil), r.ByDay...)
		sort.Ints(days)
		codes := make([]string, 0, len(days))
		for _, d := range days {
			if d >= 0 && d <= 6 {
				codes = append(codes, icsDayCodes[d])
			}
		}
		b.WriteString(";BYDAY=")
		b.WriteString(strings.Join(codes, ","))
	}
	if r.Until != "" {
		b.WriteString(";UNTIL=")
		b.WriteString(strings.ReplaceAll(r.Until, "-", ""))
	}
	return b.String()
}

// Parse reads events from the interchange format. Lines are unfolded
// (continuation lines start with a space or tab), properties outside
// BEGIN:VEVENT blocks are ignored, and events without a summary or with
// unparsable times are skipped rather than failing the import.
func Parse(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += strings.TrimLeft(line, " \t")
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}

	var events []Event
	var cur *Event
	for _, line := range lines {
		name, value := splitProperty(line)
		switch name {
		case "BEGIN":
			if value == "VEVENT" {
				cur = &Event{}
			}
		case "END":
			if value == "VEVENT" && cur != nil {
				if cur.Summary != "" && dates.Valid(cur.Date) {
					events = append(events, *cur)
				}
				cur = nil
			}
		case "UID":
			if cur != nil {
				cur.UID = value
			}
		case "SUMMARY":
			if cur != nil {
				cur.Summary = unescapeText(value)
			}
		case "DTSTART":
			if cur != nil {
				cur.Date, cur.Start = parseStamp(value)
			}
		case "DTEND":
			if cur != nil {
				_, cur.End = parseStamp(value)
			}
		case "RRULE":
			if cur != nil {
				cur.Rule = parseRule(value)
			}
		}
	}
	return events, nil
}

// splitProperty splits "NAME;PARAM=X:VALUE" into the bare property name and
// its value.
func splitProperty(line string) (string, string) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return strings.ToUpper(line), ""
	}
	name := line[:idx]
	if semi := strings.Index(name, ";"); semi >= 0 {
		name = name[:semi]
	}
	return strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(line[idx+1:])
}

// parseStamp accepts "20060102T150405" and bare "20060102" stamps, returning
// the date key and "HH:MM" time of day.
func parseStamp(value string) (dateKey, clock string) {
	value = strings.TrimSuffix(value, "Z")
	datePart := value
	if idx := strings.Index(value, "T"); idx >= 0 {
		datePart = value[:idx]
		rest := value[idx+1:]
		if len(rest) >= 4 {
			clock = rest[:2] + ":" + rest[2:4]
		}
	}
	if len(datePart) == 8 {
		dateKey = datePart[:4] + "-" + datePart[4:6] + "-" + datePart[6:8]
	}
	if !dates.Valid(dateKey) {
		return "", ""
	}
	return dateKey, clock
}

func parseRule(value string) *Rule {
	rule := &Rule{}
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(kv[0])) {
		case "FREQ":
			rule.Freq = strings.ToUpper(strings.TrimSpace(kv[1]))
		case "BYDAY":
			for _, code := range strings.Split(kv[1], ",") {
				code = strings.ToUpper(strings.TrimSpace(code))
				for i, known := range icsDayCodes {
					if code == known {
						rule.ByDay = append(rule.ByDay, i)
						break
					}
				}
			}
		case "UNTIL":
			if key, _ := parseStamp(strings.TrimSpace(kv[1])); key != "" {
				rule.Until = key
			}
		}
	}
	if rule.Freq != "DAILY" && rule.Freq != "WEEKLY" {
		return nil
	}
	sort.Ints(rule.ByDay)
	return rule
}

// Write renders events in the interchange format.
func Write(w io.Writer, events []Event) error {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//daybook//daybook//EN\r\n")
	for i := range events {
		writeEvent(&b, &events[i])
	}
	b.WriteString("END:VCALENDAR\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeEvent(b *strings.Builder, e *Event) {
	b.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(b, "UID:%s\r\n", e.UID)
	fmt.Fprintf(b, "SUMMARY:%s\r\n", escapeText(e.Summary))
	if e.Start != "" {
		fmt.Fprintf(b, "DTSTART:%s\r\n", stamp(e.Date, e.Start))
	} else {
		fmt.Fprintf(b, "DTSTART;VALUE=DATE:%s\r\n", strings.ReplaceAll(e.Date, "-", ""))
	}
	if e.End != "" {
		fmt.Fprintf(b, "DTEND:%s\r\n", stamp(e.Date, e.End))
	}
	if e.Rule != nil {
		fmt.Fprintf(b, "RRULE:%s\r\n", e.Rule.Text())
	}
	b.WriteString("END:VEVENT\r\n")
}

func stamp(dateKey, clock string) string {
	date := strings.ReplaceAll(dateKey, "-", "")
	hhmm := strings.ReplaceAll(clock, ":", "")
	return date + "T" + hhmm + "00"
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func unescapeText(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\,`, ",")
	s = strings.ReplaceAll(s, `\;`, ";")
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

// ExportDocument produces one event per active recurring task occurrence
// pattern (daily and weekly schedules, plus dated once tasks) and one per
// time block occurrence pattern.
func ExportDocument(doc *workspace.Document) []Event {
	var events []Event

	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		if !t.Active {
			continue
		}
		e := Event{
			UID:     "task-" + t.ID + "@daybook",
			Summary: t.Title,
			Date:    dates.Key(t.CreatedAt),
		}
		switch t.Schedule {
		case workspace.ScheduleDaily:
			e.Rule = &Rule{Freq: "DAILY"}
		case workspace.ScheduleWeekly:
			e.Rule = &Rule{Freq: "WEEKLY", ByDay: append([]int(nil), t.WeeklyDays...)}
		case workspace.ScheduleOnce:
			if t.DueDate == "" {
				continue
			}
			e.Date = t.DueDate
		default:
			continue
		}
		events = append(events, e)
	}

	for i := range doc.TimeBlocks {
		b := &doc.TimeBlocks[i]
		e := Event{
			UID:     "block-" + b.ID + "@daybook",
			Summary: b.Name,
			Start:   b.Start,
			End:     b.End,
		}
		switch b.Recurrence {
		case workspace.RecurNone:
			e.Date = b.Date
		case workspace.RecurDaily:
			e.Date = dates.Key(b.CreatedAt)
			e.Rule = &Rule{Freq: "DAILY", Until: b.EndDate}
		case workspace.RecurWeekdays:
			e.Date = dates.Key(b.CreatedAt)
			e.Rule = &Rule{Freq: "WEEKLY", ByDay: []int{1, 2, 3, 4, 5}, Until: b.EndDate}
		case workspace.RecurWeekly:
			e.Date = dates.Key(b.CreatedAt)
			e.Rule = &Rule{Freq: "WEEKLY", ByDay: append([]int(nil), b.WeeklyDays...), Until: b.EndDate}
		}
		events = append(events, e)
	}

	return events
}
