package schedule

import (
	"fmt"
	"sort"
	"time"

	"radio-schedule-backend/internal/model"
)

// rank defines the one total order of override precedence. Higher wins.
// Specials additionally compare by their explicit priority among themselves.
func rank(t SourceType) int {
	switch t {
	case SourceSpecial:
		return 2
	case SourceEntry:
		return 1
	default:
		return 0
	}
}

// interval is a resolution candidate. cancel marks a special broadcast with
// no replacement: it claims its window but puts nothing on air.
type interval struct {
	occ    Occurrence
	cancel bool
}

// Resolve merges expanded recurring occurrences with ad-hoc entries and
// special-broadcast overrides into a single non-overlapping timeline ordered
// by start time.
//
// Precedence per sub-window: special broadcast (highest explicit priority
// among those covering it) over ad-hoc entry over recurring slot. A base
// occurrence only partially covered by an override is split; the uncovered
// portions air unchanged. Two specials tied at the winning priority over the
// same sub-window are an AmbiguousOverrideError, never an arbitrary pick.
//
// Resolve is a pure function of its inputs.
func Resolve(base []Occurrence, entries []model.ScheduleEntry, specials []model.SpecialBroadcast,
	programs map[int64]model.Program, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {

	intervals := make([]interval, 0, len(base)+len(entries)+len(specials))
	for _, o := range base {
		intervals = append(intervals, interval{occ: o})
	}
	for _, e := range entries {
		if e.IsRecurring || e.Status == model.StatusCancelled {
			continue
		}
		if !e.StartTime.Before(rangeEnd) || !e.EndTime.After(rangeStart) {
			continue
		}
		intervals = append(intervals, interval{occ: occurrenceForEntry(e, programs)})
	}
	for _, sb := range specials {
		if !sb.StartTime.Before(rangeEnd) || !sb.EndTime.After(rangeStart) {
			continue
		}
		intervals = append(intervals, interval{occ: occurrenceForSpecial(sb, programs), cancel: sb.IsCancellation()})
	}
	if len(intervals) == 0 {
		return nil, nil
	}

	points := boundaryPoints(intervals)

	var out []Occurrence
	var prevKey segmentKey
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]

		winner, key, err := pickWinner(intervals, a, b)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			prevKey = segmentKey{}
			continue
		}

		if len(out) > 0 && key == prevKey && out[len(out)-1].End.Equal(a) {
			out[len(out)-1].End = b
		} else {
			seg := *winner
			seg.Start = a
			seg.End = b
			out = append(out, seg)
		}
		prevKey = key
	}

	// Defensive: the sweep guarantees disjoint output, assert it anyway.
	for i := 1; i < len(out); i++ {
		if out[i].Start.Before(out[i-1].End) {
			return nil, fmt.Errorf("resolver emitted overlapping occurrences at %s", out[i].Start.Format(time.RFC3339))
		}
	}
	return out, nil
}

// segmentKey identifies which source interval a segment came from, so that
// adjacent segments of the same origin merge back into one occurrence while
// back-to-back occurrences of the same program stay separate.
type segmentKey struct {
	src    SourceType
	id     int64
	origin int64 // origin interval start, unix nanos
}

// pickWinner resolves one elementary segment [a, b). It returns nil when the
// segment is dead air (uncovered, or covered only by a cancellation).
func pickWinner(intervals []interval, a, b time.Time) (*Occurrence, segmentKey, error) {
	var topSpecials []*interval
	topPriority := 0
	var bestLower *interval

	for i := range intervals {
		iv := &intervals[i]
		if iv.occ.Start.After(a) || iv.occ.End.Before(b) {
			continue // does not cover the whole segment
		}
		if iv.occ.SourceType == SourceSpecial {
			switch {
			case len(topSpecials) == 0 || iv.occ.Priority > topPriority:
				topSpecials = topSpecials[:0]
				topSpecials = append(topSpecials, iv)
				topPriority = iv.occ.Priority
			case iv.occ.Priority == topPriority:
				topSpecials = append(topSpecials, iv)
			}
			continue
		}
		if bestLower == nil || lowerBeats(iv, bestLower) {
			bestLower = iv
		}
	}

	if len(topSpecials) > 1 {
		ids := make([]int64, len(topSpecials))
		for i, iv := range topSpecials {
			ids[i] = iv.occ.SourceID
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return nil, segmentKey{}, &AmbiguousOverrideError{Start: a, End: b, Priority: topPriority, BroadcastIDs: ids}
	}
	if len(topSpecials) == 1 {
		iv := topSpecials[0]
		if iv.cancel {
			return nil, segmentKey{}, nil
		}
		return &iv.occ, keyFor(iv), nil
	}
	if bestLower != nil {
		return &bestLower.occ, keyFor(bestLower), nil
	}
	return nil, segmentKey{}, nil
}

// lowerBeats orders non-special candidates: entries before recurring slots,
// then earlier start, then lower ID for determinism.
func lowerBeats(a, b *interval) bool {
	if ra, rb := rank(a.occ.SourceType), rank(b.occ.SourceType); ra != rb {
		return ra > rb
	}
	if !a.occ.Start.Equal(b.occ.Start) {
		return a.occ.Start.Before(b.occ.Start)
	}
	return a.occ.SourceID < b.occ.SourceID
}

func keyFor(iv *interval) segmentKey {
	return segmentKey{src: iv.occ.SourceType, id: iv.occ.SourceID, origin: iv.occ.Start.UnixNano()}
}

// boundaryPoints returns the sorted, deduplicated endpoints of all intervals.
func boundaryPoints(intervals []interval) []time.Time {
	points := make([]time.Time, 0, 2*len(intervals))
	for _, iv := range intervals {
		points = append(points, iv.occ.Start, iv.occ.End)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })
	dedup := points[:1]
	for _, p := range points[1:] {
		if !p.Equal(dedup[len(dedup)-1]) {
			dedup = append(dedup, p)
		}
	}
	return dedup
}

func occurrenceForEntry(e model.ScheduleEntry, programs map[int64]model.Program) Occurrence {
	title := e.OverrideTitle
	hosts := e.HostIDs
	if p, ok := programs[e.ProgramID]; ok {
		if title == "" {
			title = p.Title
		}
		if len(hosts) == 0 {
			hosts = p.HostIDs
		}
	}
	return Occurrence{
		Start:      e.StartTime,
		End:        e.EndTime,
		SourceType: SourceEntry,
		SourceID:   e.ID,
		ProgramID:  e.ProgramID,
		Title:      title,
		HostIDs:    hosts,
		Status:     e.Status,
	}
}

func occurrenceForSpecial(sb model.SpecialBroadcast, programs map[int64]model.Program) Occurrence {
	occ := Occurrence{
		Start:      sb.StartTime,
		End:        sb.EndTime,
		SourceType: SourceSpecial,
		SourceID:   sb.ID,
		Title:      sb.ReplacementTitle,
		Status:     model.StatusScheduled,
		Priority:   sb.Priority,
	}
	if sb.ReplacementProgramID != nil {
		occ.ProgramID = *sb.ReplacementProgramID
		if p, ok := programs[*sb.ReplacementProgramID]; ok {
			if occ.Title == "" {
				occ.Title = p.Title
			}
			occ.HostIDs = p.HostIDs
		}
	}
	return occ
}
