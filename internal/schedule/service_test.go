package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"radio-schedule-backend/internal/model"
	"radio-schedule-backend/internal/store"
)

// fakeStore is an in-memory store.Store for exercising the service without a
// database.
type fakeStore struct {
	programs []model.Program
	entries  []model.ScheduleEntry
	specials []model.SpecialBroadcast

	nextID           int64
	programListCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1000}
}

func (f *fakeStore) DB() *gorm.DB { return nil }

func (f *fakeStore) ListActivePrograms(ctx context.Context) ([]model.Program, error) {
	f.programListCalls++
	var out []model.Program
	for _, p := range f.programs {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListScheduleEntries(ctx context.Context, from, to time.Time) ([]model.ScheduleEntry, error) {
	var out []model.ScheduleEntry
	for _, e := range f.entries {
		if e.IsRecurring || (e.StartTime.Before(to) && e.EndTime.After(from)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSpecialBroadcasts(ctx context.Context, from, to time.Time) ([]model.SpecialBroadcast, error) {
	var out []model.SpecialBroadcast
	for _, sb := range f.specials {
		if sb.StartTime.Before(to) && sb.EndTime.After(from) {
			out = append(out, sb)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProgram(ctx context.Context, id int64) (*model.Program, error) {
	for i := range f.programs {
		if f.programs[i].ID == id {
			p := f.programs[i]
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateProgram(ctx context.Context, p *model.Program) error {
	f.nextID++
	p.ID = f.nextID
	p.Version = 1
	f.programs = append(f.programs, *p)
	return nil
}

func (f *fakeStore) UpdateProgram(ctx context.Context, p *model.Program) error {
	for i := range f.programs {
		if f.programs[i].ID == p.ID {
			if f.programs[i].Version != p.Version {
				return store.ErrStaleWrite
			}
			p.Version++
			f.programs[i] = *p
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteProgram(ctx context.Context, id int64) error {
	for i := range f.programs {
		if f.programs[i].ID == id {
			f.programs = append(f.programs[:i], f.programs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) GetScheduleEntry(ctx context.Context, id int64) (*model.ScheduleEntry, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateScheduleEntry(ctx context.Context, e *model.ScheduleEntry) error {
	f.nextID++
	e.ID = f.nextID
	e.Version = 1
	if e.Status == "" {
		e.Status = model.StatusScheduled
	}
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeStore) UpdateScheduleEntry(ctx context.Context, e *model.ScheduleEntry) error {
	for i := range f.entries {
		if f.entries[i].ID == e.ID {
			if f.entries[i].Version != e.Version {
				return store.ErrStaleWrite
			}
			e.Version++
			f.entries[i] = *e
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteScheduleEntry(ctx context.Context, id int64) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) GetSpecialBroadcast(ctx context.Context, id int64) (*model.SpecialBroadcast, error) {
	for i := range f.specials {
		if f.specials[i].ID == id {
			sb := f.specials[i]
			return &sb, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateSpecialBroadcast(ctx context.Context, sb *model.SpecialBroadcast) error {
	f.nextID++
	sb.ID = f.nextID
	sb.Version = 1
	f.specials = append(f.specials, *sb)
	return nil
}

func (f *fakeStore) UpdateSpecialBroadcast(ctx context.Context, sb *model.SpecialBroadcast) error {
	for i := range f.specials {
		if f.specials[i].ID == sb.ID {
			if f.specials[i].Version != sb.Version {
				return store.ErrStaleWrite
			}
			sb.Version++
			f.specials[i] = *sb
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteSpecialBroadcast(ctx context.Context, id int64) error {
	for i := range f.specials {
		if f.specials[i].ID == id {
			f.specials = append(f.specials[:i], f.specials[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func newTestService(st store.Store) *Service {
	return NewService(st, Config{Location: time.UTC, MaxRange: 30 * 24 * time.Hour})
}

func TestServiceOccurrencesInRange(t *testing.T) {
	st := newFakeStore()
	st.programs = []model.Program{weeklyProgram(1, "Morning Show", []int{1, 3, 5}, "08:00", 120)}
	svc := newTestService(st)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	to := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	occs, err := svc.OccurrencesInRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, occs, 3)
	assert.True(t, occs[0].Start.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	assert.True(t, occs[2].Start.Equal(time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)))
}

func TestServiceRejectsInvalidWindow(t *testing.T) {
	svc := newTestService(newFakeStore())
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.OccurrencesInRange(context.Background(), from, from)
	var winErr *InvalidWindowError
	assert.ErrorAs(t, err, &winErr)

	_, err = svc.OccurrencesInRange(context.Background(), from, from.Add(-time.Hour))
	assert.ErrorAs(t, err, &winErr)
}

func TestServiceRejectsOversizedRange(t *testing.T) {
	svc := newTestService(newFakeStore())
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.OccurrencesInRange(context.Background(), from, from.AddDate(0, 0, 31))
	var rangeErr *RangeTooLargeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 30*24*time.Hour, rangeErr.Max)
}

func TestServiceCachesUntilInvalidated(t *testing.T) {
	st := newFakeStore()
	st.programs = []model.Program{weeklyProgram(1, "Morning Show", []int{1}, "08:00", 120)}
	svc := newTestService(st)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	_, err := svc.OccurrencesInRange(context.Background(), from, to)
	require.NoError(t, err)
	_, err = svc.OccurrencesInRange(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, st.programListCalls, "second identical query must be served from cache")

	svc.Invalidate()
	_, err = svc.OccurrencesInRange(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, st.programListCalls, "invalidation must force a refetch")
}

func TestServiceCurrentOccurrence(t *testing.T) {
	st := newFakeStore()
	st.programs = []model.Program{weeklyProgram(1, "Morning Show", []int{1}, "08:00", 120)}
	svc := newTestService(st)

	occ, err := svc.CurrentOccurrence(context.Background(), time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Morning Show", occ.Title)

	// Tuesday has no programming at all.
	_, err = svc.CurrentOccurrence(context.Background(), time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNotFound)

	// End boundary is exclusive.
	_, err = svc.CurrentOccurrence(context.Background(), time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceNextOccurrence(t *testing.T) {
	st := newFakeStore()
	st.programs = []model.Program{weeklyProgram(1, "Morning Show", []int{1, 3}, "08:00", 120)}
	svc := newTestService(st)

	occ, err := svc.NextOccurrence(context.Background(), time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, occ.Start.Equal(time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)))

	// Nothing scheduled at all: the probe exhausts the maximum range.
	empty := newTestService(newFakeStore())
	_, err = empty.NextOccurrence(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceSaveEntryBlocksOnConflict(t *testing.T) {
	st := newFakeStore()
	st.programs = []model.Program{weeklyProgram(1, "Morning Show", []int{1}, "08:00", 120)}
	svc := newTestService(st)

	policy := ConflictPolicy{BlockRecurring: true, BlockEntry: true, BlockSpecial: true}
	entry := &model.ScheduleEntry{
		ProgramID:     2,
		StartTime:     time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		OverrideTitle: "Live Session",
	}

	report, err := svc.SaveEntry(context.Background(), entry, policy, false)
	require.ErrorIs(t, err, ErrBlockingConflict)
	require.NotNil(t, report)
	assert.True(t, report.HasBlockingConflict)
	assert.Empty(t, st.entries, "blocked write must not persist")

	// force pushes the entry through; the report still lists the collision.
	report, err = svc.SaveEntry(context.Background(), entry, policy, true)
	require.NoError(t, err)
	assert.True(t, report.HasBlockingConflict)
	require.Len(t, st.entries, 1)
	assert.NotZero(t, entry.ID)

	occs, err := svc.OccurrencesInRange(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, occs, 3, "forced entry must split the recurring slot")
	assert.Equal(t, "Live Session", occs[1].Title)
}

func TestServiceSaveEntryUpdateIgnoresSelfConflict(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st)

	policy := ConflictPolicy{BlockRecurring: true, BlockEntry: true, BlockSpecial: true}
	entry := &model.ScheduleEntry{
		ProgramID:     2,
		StartTime:     time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		OverrideTitle: "Live Session",
	}
	_, err := svc.SaveEntry(context.Background(), entry, policy, false)
	require.NoError(t, err)

	// Shifting the same entry by 30 minutes overlaps its own old window.
	entry.StartTime = time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)
	entry.EndTime = time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)
	report, err := svc.SaveEntry(context.Background(), entry, policy, false)
	require.NoError(t, err)
	assert.False(t, report.HasBlockingConflict)
}

func TestServiceSaveEntryStaleVersion(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st)

	entry := &model.ScheduleEntry{
		ProgramID:     2,
		StartTime:     time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		OverrideTitle: "Live Session",
	}
	_, err := svc.SaveEntry(context.Background(), entry, ConflictPolicy{}, false)
	require.NoError(t, err)

	stale := *entry
	stale.Version = entry.Version - 1
	_, err = svc.SaveEntry(context.Background(), &stale, ConflictPolicy{}, false)
	assert.ErrorIs(t, err, store.ErrStaleWrite)
}

func TestServiceSaveSpecialBlocksOnOtherSpecial(t *testing.T) {
	st := newFakeStore()
	st.programs = []model.Program{weeklyProgram(1, "Morning Show", []int{1}, "08:00", 120)}
	svc := newTestService(st)

	policy := ConflictPolicy{BlockSpecial: true}
	first := &model.SpecialBroadcast{
		StartTime:        time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		ReplacementTitle: "Breaking News",
		Priority:         1,
	}
	// Colliding with the recurring slot is the whole point of a special.
	report, err := svc.SaveSpecial(context.Background(), first, policy, false)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Conflicts)
	assert.False(t, report.HasBlockingConflict)

	second := &model.SpecialBroadcast{
		StartTime:        time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC),
		EndTime:          time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		ReplacementTitle: "Pledge Drive",
		Priority:         1,
	}
	_, err = svc.SaveSpecial(context.Background(), second, policy, false)
	assert.ErrorIs(t, err, ErrBlockingConflict)
	require.Len(t, st.specials, 1)
}

func TestServiceMalformedRuleDegradesGracefully(t *testing.T) {
	st := newFakeStore()
	st.programs = []model.Program{
		weeklyProgram(1, "Morning Show", []int{1}, "08:00", 120),
		{ID: 2, Title: "Broken Show", RecurrenceType: model.RecurrenceCustom, IsActive: true},
	}
	st.entries = []model.ScheduleEntry{{
		ID:             500,
		ProgramID:      2,
		StartTime:      time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC),
		IsRecurring:    true,
		RecurrenceRule: "FREQ=NEVERMIND",
		Status:         model.StatusScheduled,
	}}
	svc := newTestService(st)

	occs, err := svc.OccurrencesInRange(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err, "one broken rule must not fail the whole query")
	require.Len(t, occs, 1)
	assert.Equal(t, "Morning Show", occs[0].Title)
}

func TestServiceSaveProgramValidation(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st)

	tests := []struct {
		name    string
		program model.Program
		wantErr bool
	}{
		{
			name:    "valid weekly",
			program: weeklyProgram(0, "Morning Show", []int{1, 3}, "08:00", 120),
		},
		{
			name: "non-recurring needs no air time",
			program: model.Program{
				Title:          "Archive",
				RecurrenceType: model.RecurrenceNone,
				IsActive:       true,
			},
		},
		{
			name: "weekly without days",
			program: model.Program{
				Title:           "Dayless",
				RecurrenceType:  model.RecurrenceWeekly,
				AirTime:         "08:00",
				DurationMinutes: 60,
				IsActive:        true,
			},
			wantErr: true,
		},
		{
			name: "zero duration",
			program: model.Program{
				Title:          "Instant",
				RecurrenceType: model.RecurrenceDaily,
				AirTime:        "08:00",
				IsActive:       true,
			},
			wantErr: true,
		},
		{
			name: "bad air time",
			program: model.Program{
				Title:           "Offset",
				RecurrenceType:  model.RecurrenceDaily,
				AirTime:         "25:99",
				DurationMinutes: 60,
				IsActive:        true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.program
			err := svc.SaveProgram(context.Background(), &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, p.ID)
		})
	}
}

func TestServiceDeleteInvalidatesCache(t *testing.T) {
	st := newFakeStore()
	st.programs = []model.Program{weeklyProgram(1, "Morning Show", []int{1}, "08:00", 120)}
	svc := newTestService(st)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	occs, err := svc.OccurrencesInRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, occs, 1)

	require.NoError(t, svc.DeleteProgram(context.Background(), 1))

	occs, err = svc.OccurrencesInRange(context.Background(), from, to)
	require.NoError(t, err)
	assert.Empty(t, occs, "deletion must be visible immediately")
}
