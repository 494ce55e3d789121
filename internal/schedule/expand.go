package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"radio-schedule-backend/internal/model"
)

// Expand materializes the recurring occurrences of a single program that
// overlap [rangeStart, rangeEnd).
//
// Daily and weekly programs are stepped per local calendar day using
// wall-clock arithmetic, so a daylight-saving transition never skips or
// doubles a slot: time.Date normalizes a nonexistent local time forward and
// an ambiguous one to its first instant, yielding exactly one occurrence per
// day either way. Custom programs delegate to the RRULE carried by their
// recurrence-anchor schedule entry.
//
// The entries slice is only consulted for custom programs; callers pass the
// raw entry set for the range.
func Expand(p model.Program, entries []model.ScheduleEntry, rangeStart, rangeEnd time.Time, loc *time.Location) ([]Occurrence, error) {
	if !p.IsActive || !p.Recurs() {
		return nil, nil
	}

	if p.RecurrenceType == model.RecurrenceCustom {
		return expandCustom(p, entries, rangeStart, rangeEnd, loc)
	}

	hour, minute, err := parseAirTime(p.AirTime)
	if err != nil {
		return nil, &RecurrenceParseError{ProgramID: p.ID, Rule: p.AirTime, Err: err}
	}
	if p.DurationMinutes <= 0 {
		return nil, nil
	}
	duration := time.Duration(p.DurationMinutes) * time.Minute

	var out []Occurrence
	// Start one day early so an overnight slot spilling into the range is
	// still picked up.
	day := startOfDay(rangeStart.In(loc)).AddDate(0, 0, -1)
	for ; day.Before(rangeEnd); day = day.AddDate(0, 0, 1) {
		if p.RecurrenceType == model.RecurrenceWeekly && !containsDay(p.RecurrenceDays, int(day.Weekday())) {
			continue
		}

		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
		end := start.Add(duration)

		if clippedByEndDate(p, start, loc) {
			continue
		}
		if start.Before(rangeEnd) && end.After(rangeStart) {
			out = append(out, occurrenceForProgram(p, start, end))
		}
	}
	return out, nil
}

// expandCustom expands a custom program through the RRULE of its anchor
// entry. A program without an anchor contributes nothing; a malformed rule
// is a RecurrenceParseError the caller is expected to degrade on.
func expandCustom(p model.Program, entries []model.ScheduleEntry, rangeStart, rangeEnd time.Time, loc *time.Location) ([]Occurrence, error) {
	anchor := findAnchor(p.ID, entries)
	if anchor == nil {
		return nil, nil
	}
	duration := anchor.EndTime.Sub(anchor.StartTime)
	if duration <= 0 {
		return nil, nil
	}

	// DTSTART carries the station timezone so the rule iterates in local
	// wall-clock time; a UTC anchor would drift the slot across DST
	// transitions and can shift the weekday BYDAY sees near midnight.
	dtstart := fmt.Sprintf("DTSTART;TZID=%s:%s", loc.String(), anchor.StartTime.In(loc).Format("20060102T150405"))
	set, err := rrule.StrToRRuleSet(fmt.Sprintf("%s\nRRULE:%s", dtstart, anchor.RecurrenceRule))
	if err != nil {
		return nil, &RecurrenceParseError{ProgramID: p.ID, Rule: anchor.RecurrenceRule, Err: err}
	}

	// Widen the lower bound so an occurrence that starts before the range
	// but overlaps it is not dropped.
	starts := set.Between(rangeStart.Add(-duration), rangeEnd, true)

	var out []Occurrence
	for _, start := range starts {
		start = start.In(loc)
		end := start.Add(duration)
		if clippedByEndDate(p, start, loc) {
			continue
		}
		if start.Before(rangeEnd) && end.After(rangeStart) {
			out = append(out, occurrenceForProgram(p, start, end))
		}
	}
	return out, nil
}

// findAnchor returns the earliest recurrence-anchor entry of the program.
func findAnchor(programID int64, entries []model.ScheduleEntry) *model.ScheduleEntry {
	var anchor *model.ScheduleEntry
	for i := range entries {
		e := &entries[i]
		if e.ProgramID != programID || !e.IsRecurring || e.RecurrenceRule == "" {
			continue
		}
		if anchor == nil || e.StartTime.Before(anchor.StartTime) {
			anchor = e
		}
	}
	return anchor
}

func occurrenceForProgram(p model.Program, start, end time.Time) Occurrence {
	return Occurrence{
		Start:      start,
		End:        end,
		SourceType: SourceRecurring,
		SourceID:   p.ID,
		ProgramID:  p.ID,
		Title:      p.Title,
		HostIDs:    p.HostIDs,
		Status:     model.StatusScheduled,
	}
}

// clippedByEndDate reports whether the occurrence start falls past the
// program's recurrence end date (inclusive of that whole day).
func clippedByEndDate(p model.Program, start time.Time, loc *time.Location) bool {
	if p.RecurrenceEndDate == nil {
		return false
	}
	cutoff := startOfDay(p.RecurrenceEndDate.In(loc)).AddDate(0, 0, 1)
	return !start.Before(cutoff)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func containsDay(days []int, weekday int) bool {
	for _, d := range days {
		if d == weekday {
			return true
		}
	}
	return false
}

// parseAirTime parses a wall-clock "HH:MM" string.
func parseAirTime(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("air time %q is not HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("air time %q has invalid hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("air time %q has invalid minute", s)
	}
	return hour, minute, nil
}
