package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radio-schedule-backend/internal/model"
)

func weeklyProgram(id int64, title string, days []int, airTime string, durationMinutes int) model.Program {
	return model.Program{
		ID:              id,
		Title:           title,
		RecurrenceType:  model.RecurrenceWeekly,
		RecurrenceDays:  days,
		AirTime:         airTime,
		DurationMinutes: durationMinutes,
		IsActive:        true,
	}
}

func TestExpandWeekly(t *testing.T) {
	// Morning Show: Mon/Wed/Fri 08:00, 120 minutes.
	program := weeklyProgram(1, "Morning Show", []int{1, 3, 5}, "08:00", 120)

	rangeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	rangeEnd := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	occs, err := Expand(program, nil, rangeStart, rangeEnd, time.UTC)
	require.NoError(t, err)
	require.Len(t, occs, 3)

	wantStarts := []time.Time{
		time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC),
	}
	for i, occ := range occs {
		assert.True(t, occ.Start.Equal(wantStarts[i]), "occurrence %d start = %v, want %v", i, occ.Start, wantStarts[i])
		assert.Equal(t, 120*time.Minute, occ.End.Sub(occ.Start))
		assert.Equal(t, SourceRecurring, occ.SourceType)
		assert.Equal(t, "Morning Show", occ.Title)
	}

	// No occurrence of the same program may overlap another.
	for i := 1; i < len(occs); i++ {
		assert.False(t, occs[i].Start.Before(occs[i-1].End), "occurrences must not overlap")
	}
}

func TestExpandDaily(t *testing.T) {
	program := model.Program{
		ID:              2,
		Title:           "Midday News",
		RecurrenceType:  model.RecurrenceDaily,
		AirTime:         "12:00",
		DurationMinutes: 30,
		IsActive:        true,
	}

	rangeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	occs, err := Expand(program, nil, rangeStart, rangeEnd, time.UTC)
	require.NoError(t, err)
	assert.Len(t, occs, 3)
}

func TestExpandNoneEmitsNothing(t *testing.T) {
	program := model.Program{
		ID:             3,
		Title:          "Archive Fillers",
		RecurrenceType: model.RecurrenceNone,
		IsActive:       true,
	}

	occs, err := Expand(program, nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestExpandInactiveProgramSkipped(t *testing.T) {
	program := weeklyProgram(4, "Retired Show", []int{1}, "08:00", 60)
	program.IsActive = false

	occs, err := Expand(program, nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestExpandClipsToRecurrenceEndDate(t *testing.T) {
	endDate := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	program := model.Program{
		ID:                5,
		Title:             "Limited Run",
		RecurrenceType:    model.RecurrenceDaily,
		AirTime:           "09:00",
		DurationMinutes:   60,
		RecurrenceEndDate: &endDate,
		IsActive:          true,
	}

	occs, err := Expand(program, nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	// The end date itself still airs; Jan 4 onward does not.
	require.Len(t, occs, 3)
	assert.True(t, occs[2].Start.Equal(time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)))
}

func TestExpandDaylightSavingSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-03-10: clocks jump from 02:00 to 03:00, so a 02:30 slot has no
	// literal wall-clock instant that day. It must still air exactly once.
	program := model.Program{
		ID:              6,
		Title:           "Night Owls",
		RecurrenceType:  model.RecurrenceDaily,
		AirTime:         "02:30",
		DurationMinutes: 60,
		IsActive:        true,
	}

	rangeStart := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	rangeEnd := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)

	occs, err := Expand(program, nil, rangeStart, rangeEnd, loc)
	require.NoError(t, err)
	require.Len(t, occs, 1, "transition day must produce exactly one occurrence")
	assert.Equal(t, 10, occs[0].Start.Day())
}

func TestExpandDaylightSavingFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-11-03: 01:30 happens twice; the slot must still air exactly once.
	program := model.Program{
		ID:              7,
		Title:           "Night Owls",
		RecurrenceType:  model.RecurrenceDaily,
		AirTime:         "01:30",
		DurationMinutes: 60,
		IsActive:        true,
	}

	occs, err := Expand(program, nil,
		time.Date(2024, 11, 3, 0, 0, 0, 0, loc),
		time.Date(2024, 11, 4, 0, 0, 0, 0, loc), loc)
	require.NoError(t, err)
	require.Len(t, occs, 1)
}

func TestExpandOvernightSlotSpillsIntoRange(t *testing.T) {
	// A 23:30 slot started the day before the range still overlaps it.
	program := model.Program{
		ID:              8,
		Title:           "After Midnight",
		RecurrenceType:  model.RecurrenceWeekly,
		RecurrenceDays:  []int{0}, // Sunday
		AirTime:         "23:30",
		DurationMinutes: 60,
		IsActive:        true,
	}

	rangeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	rangeEnd := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	occs, err := Expand(program, nil, rangeStart, rangeEnd, time.UTC)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.True(t, occs[0].Start.Equal(time.Date(2023, 12, 31, 23, 30, 0, 0, time.UTC)))
}

func TestExpandCustomRule(t *testing.T) {
	program := model.Program{
		ID:             9,
		Title:          "Guest Mix",
		RecurrenceType: model.RecurrenceCustom,
		IsActive:       true,
	}
	anchor := model.ScheduleEntry{
		ID:             100,
		ProgramID:      9,
		StartTime:      time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), // Monday
		EndTime:        time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC),
		IsRecurring:    true,
		RecurrenceRule: "FREQ=WEEKLY;BYDAY=MO,WE",
	}

	occs, err := Expand(program, []model.ScheduleEntry{anchor},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.True(t, occs[0].Start.Equal(time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)))
	assert.True(t, occs[1].Start.Equal(time.Date(2024, 1, 3, 20, 0, 0, 0, time.UTC)))
}

func TestExpandCustomRuleKeepsLocalTimeAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Anchored before the 2024-03-10 spring-forward: the slot must keep
	// airing at 08:00 local, not drift to 09:00 with the UTC offset change.
	program := model.Program{
		ID:             12,
		Title:          "Daily Brief",
		RecurrenceType: model.RecurrenceCustom,
		IsActive:       true,
	}
	anchor := model.ScheduleEntry{
		ID:             102,
		ProgramID:      12,
		StartTime:      time.Date(2024, 3, 9, 8, 0, 0, 0, loc),
		EndTime:        time.Date(2024, 3, 9, 9, 0, 0, 0, loc),
		IsRecurring:    true,
		RecurrenceRule: "FREQ=DAILY",
	}

	occs, err := Expand(program, []model.ScheduleEntry{anchor},
		time.Date(2024, 3, 9, 0, 0, 0, 0, loc),
		time.Date(2024, 3, 12, 0, 0, 0, 0, loc), loc)
	require.NoError(t, err)
	require.Len(t, occs, 3)
	for i, occ := range occs {
		local := occ.Start.In(loc)
		assert.Equal(t, 8, local.Hour(), "occurrence %d must stay at 08:00 local, got %v", i, local)
		assert.Equal(t, 9+i, local.Day())
	}
}

func TestExpandCustomMalformedRule(t *testing.T) {
	program := model.Program{
		ID:             10,
		Title:          "Broken Show",
		RecurrenceType: model.RecurrenceCustom,
		IsActive:       true,
	}
	anchor := model.ScheduleEntry{
		ID:             101,
		ProgramID:      10,
		StartTime:      time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC),
		IsRecurring:    true,
		RecurrenceRule: "FREQ=SOMETIMES;BYDAY=XX",
	}

	occs, err := Expand(program, []model.ScheduleEntry{anchor},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), time.UTC)

	var parseErr *RecurrenceParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, int64(10), parseErr.ProgramID)
	assert.Empty(t, occs)
}

func TestExpandCustomWithoutAnchor(t *testing.T) {
	program := model.Program{
		ID:             11,
		Title:          "Ruleless",
		RecurrenceType: model.RecurrenceCustom,
		IsActive:       true,
	}

	occs, err := Expand(program, nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestParseAirTime(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"08:00", 8, 0, false},
		{"23:59", 23, 59, false},
		{"0:05", 0, 5, false},
		{"24:00", 0, 0, true},
		{"08:60", 0, 0, true},
		{"0800", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		hour, minute, err := parseAirTime(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.hour, hour)
		assert.Equal(t, tt.minute, minute)
	}
}
