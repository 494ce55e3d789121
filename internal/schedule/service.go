package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"radio-schedule-backend/internal/model"
	"radio-schedule-backend/internal/store"
)

// probeWindow is how far NextOccurrence looks ahead per resolution pass.
const probeWindow = 7 * 24 * time.Hour

// Service is the public schedule query surface. The read path is
// side-effect free: it loads the three source record sets once per query,
// expands every active program, resolves the union and caches the result per
// day-rounded range. Any write bumps a generation counter that keys the
// cache, so invalidation is whole-cache and O(1).
type Service struct {
	store store.Store
	cfg   Config
	cache *gocache.Cache
	gen   atomic.Int64

	// writeMu makes "detect conflicts, then persist" one logical unit for
	// in-process writers; cross-process races are caught by the per-record
	// version check in the store.
	writeMu sync.Mutex
}

// NewService creates a schedule service around the given store.
func NewService(st store.Store, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxRange <= 0 {
		cfg.MaxRange = 366 * 24 * time.Hour
	}
	return &Service{
		store: st,
		cfg:   cfg,
		cache: gocache.New(10*time.Minute, 20*time.Minute),
	}
}

// Config returns the station configuration the service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

// OccurrencesInRange returns the resolved occurrences overlapping
// [from, to), ordered by start time. Windows are returned whole, not clipped
// to the query range.
func (s *Service) OccurrencesInRange(ctx context.Context, from, to time.Time) ([]Occurrence, error) {
	if !to.After(from) {
		return nil, &InvalidWindowError{Start: from, End: to}
	}
	if to.Sub(from) > s.cfg.MaxRange {
		return nil, &RangeTooLargeError{Requested: to.Sub(from), Max: s.cfg.MaxRange}
	}

	resolved, err := s.resolveBucket(ctx, from, to, true)
	if err != nil {
		return nil, err
	}

	out := make([]Occurrence, 0, len(resolved))
	for _, occ := range resolved {
		if occ.Overlaps(from, to) {
			out = append(out, occ)
		}
	}
	return out, nil
}

// CurrentOccurrence returns the occurrence airing at the given instant, or
// ErrNotFound when the station is off regular programming.
func (s *Service) CurrentOccurrence(ctx context.Context, at time.Time) (*Occurrence, error) {
	resolved, err := s.resolveBucket(ctx, at, at.Add(time.Minute), true)
	if err != nil {
		return nil, err
	}
	for i := range resolved {
		if !resolved[i].Start.After(at) && resolved[i].End.After(at) {
			occ := resolved[i]
			return &occ, nil
		}
	}
	return nil, ErrNotFound
}

// NextOccurrence returns the first occurrence starting strictly after the
// given instant, probing forward in bounded windows up to the configured
// maximum range.
func (s *Service) NextOccurrence(ctx context.Context, after time.Time) (*Occurrence, error) {
	for offset := time.Duration(0); offset < s.cfg.MaxRange; offset += probeWindow {
		from := after.Add(offset)
		to := after.Add(offset + probeWindow)
		if limit := after.Add(s.cfg.MaxRange); to.After(limit) {
			to = limit
		}

		resolved, err := s.resolveBucket(ctx, from, to, true)
		if err != nil {
			return nil, err
		}
		for i := range resolved {
			if resolved[i].Start.After(after) {
				occ := resolved[i]
				return &occ, nil
			}
		}
	}
	return nil, ErrNotFound
}

// CheckEntryConflicts is the read-only pre-save validation used by editor
// forms: it reports what a candidate window would collide with, persisting
// nothing.
func (s *Service) CheckEntryConflicts(ctx context.Context, start, end time.Time, programID int64, policy ConflictPolicy) (*ConflictReport, error) {
	if !end.After(start) {
		return nil, &InvalidWindowError{Start: start, End: end}
	}
	existing, err := s.resolveBucket(ctx, start, end, true)
	if err != nil {
		return nil, err
	}
	report := CheckConflict(start, end, programID, existing, policy)
	return &report, nil
}

// Invalidate drops all cached range resolutions. Called on every write to
// any of the three source tables.
func (s *Service) Invalidate() {
	s.gen.Add(1)
}

// SaveEntry conflict-checks and persists a schedule entry as one logical
// unit. The conflict report is returned even on success so callers can show
// soft warnings. A blocking conflict aborts the write unless force is set.
func (s *Service) SaveEntry(ctx context.Context, e *model.ScheduleEntry, policy ConflictPolicy, force bool) (*ConflictReport, error) {
	if !e.EndTime.After(e.StartTime) {
		return nil, &InvalidWindowError{Start: e.StartTime, End: e.EndTime}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.resolveBucket(ctx, e.StartTime, e.EndTime, false)
	if err != nil {
		return nil, err
	}
	existing = excludeSource(existing, SourceEntry, e.ID)

	report := CheckConflict(e.StartTime, e.EndTime, e.ProgramID, existing, policy)
	if report.HasBlockingConflict && !force {
		return &report, ErrBlockingConflict
	}

	if e.ID == 0 {
		err = s.store.CreateScheduleEntry(ctx, e)
	} else {
		err = s.store.UpdateScheduleEntry(ctx, e)
	}
	if err != nil {
		return &report, err
	}
	s.Invalidate()
	return &report, nil
}

// SaveSpecial conflict-checks and persists a special broadcast. Specials are
// expected to collide with regular programming, so callers typically pass a
// policy that only blocks on other specials.
func (s *Service) SaveSpecial(ctx context.Context, sb *model.SpecialBroadcast, policy ConflictPolicy, force bool) (*ConflictReport, error) {
	if !sb.EndTime.After(sb.StartTime) {
		return nil, &InvalidWindowError{Start: sb.StartTime, End: sb.EndTime}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.resolveBucket(ctx, sb.StartTime, sb.EndTime, false)
	if err != nil {
		return nil, err
	}
	existing = excludeSource(existing, SourceSpecial, sb.ID)

	var programID int64
	if sb.ReplacementProgramID != nil {
		programID = *sb.ReplacementProgramID
	}
	report := CheckConflict(sb.StartTime, sb.EndTime, programID, existing, policy)
	if report.HasBlockingConflict && !force {
		return &report, ErrBlockingConflict
	}

	if sb.ID == 0 {
		err = s.store.CreateSpecialBroadcast(ctx, sb)
	} else {
		err = s.store.UpdateSpecialBroadcast(ctx, sb)
	}
	if err != nil {
		return &report, err
	}
	s.Invalidate()
	return &report, nil
}

// SaveProgram validates and persists a program definition. Recurring slots
// are not conflict-checked here; collisions with a new recurring series show
// up through CheckEntryConflicts when slots are materialized.
func (s *Service) SaveProgram(ctx context.Context, p *model.Program) error {
	if err := validateProgram(p); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var err error
	if p.ID == 0 {
		err = s.store.CreateProgram(ctx, p)
	} else {
		err = s.store.UpdateProgram(ctx, p)
	}
	if err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// DeleteEntry removes a schedule entry and invalidates the cache.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.store.DeleteScheduleEntry(ctx, id); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// DeleteSpecial removes a special broadcast and invalidates the cache.
func (s *Service) DeleteSpecial(ctx context.Context, id int64) error {
	if err := s.store.DeleteSpecialBroadcast(ctx, id); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// DeleteProgram removes a program definition and invalidates the cache.
func (s *Service) DeleteProgram(ctx context.Context, id int64) error {
	if err := s.store.DeleteProgram(ctx, id); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// resolveBucket resolves the day-rounded bucket containing [from, to).
// Rounding to whole local days keeps the cache key space small and lets a
// point query share the surrounding day's resolution.
func (s *Service) resolveBucket(ctx context.Context, from, to time.Time, useCache bool) ([]Occurrence, error) {
	bucketStart := startOfDay(from.In(s.cfg.Location))
	bucketEnd := startOfDay(to.In(s.cfg.Location))
	if bucketEnd.Before(to.In(s.cfg.Location)) {
		bucketEnd = bucketEnd.AddDate(0, 0, 1)
	}

	key := fmt.Sprintf("%d|%d|%d", s.gen.Load(), bucketStart.Unix(), bucketEnd.Unix())
	if useCache {
		if cached, found := s.cache.Get(key); found {
			return cached.([]Occurrence), nil
		}
	}

	resolved, err := s.resolveRange(ctx, bucketStart, bucketEnd)
	if err != nil {
		return nil, err
	}
	if useCache {
		s.cache.Set(key, resolved, gocache.DefaultExpiration)
	}
	return resolved, nil
}

// resolveRange performs the single batched fetch of the three source record
// sets and runs expansion plus resolution over them.
func (s *Service) resolveRange(ctx context.Context, from, to time.Time) ([]Occurrence, error) {
	programs, err := s.store.ListActivePrograms(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListScheduleEntries(ctx, from, to)
	if err != nil {
		return nil, err
	}
	specials, err := s.store.ListSpecialBroadcasts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	programIndex := make(map[int64]model.Program, len(programs))
	var base []Occurrence
	var parseErr *RecurrenceParseError
	for _, p := range programs {
		programIndex[p.ID] = p
		occs, err := Expand(p, entries, from, to, s.cfg.Location)
		if err != nil {
			// A malformed rule silences that program only; everything
			// else still resolves.
			if errors.As(err, &parseErr) {
				log.Printf("skipping program %d: %v", p.ID, err)
				continue
			}
			return nil, err
		}
		base = append(base, occs...)
	}

	return Resolve(base, entries, specials, programIndex, from, to)
}

// excludeSource drops occurrences produced by the given record, so a record
// being updated is not reported as conflicting with itself.
func excludeSource(occs []Occurrence, src SourceType, id int64) []Occurrence {
	if id == 0 {
		return occs
	}
	out := occs[:0:0]
	for _, occ := range occs {
		if occ.SourceType == src && occ.SourceID == id {
			continue
		}
		out = append(out, occ)
	}
	return out
}

// validateProgram checks the fields a daily or weekly slot needs to expand.
// Custom programs take their window from the anchor entry, so there is
// nothing to check here.
func validateProgram(p *model.Program) error {
	if !p.Recurs() {
		return nil
	}
	switch p.RecurrenceType {
	case model.RecurrenceWeekly:
		if len(p.RecurrenceDays) == 0 {
			return fmt.Errorf("weekly program needs at least one recurrence day")
		}
		fallthrough
	case model.RecurrenceDaily:
		if p.DurationMinutes <= 0 {
			return fmt.Errorf("program duration must be positive")
		}
		if _, _, err := parseAirTime(p.AirTime); err != nil {
			return err
		}
	}
	return nil
}
