package schedule

import "time"

// ConflictType classifies how a candidate window collides with an existing
// occurrence.
type ConflictType string

const (
	// ConflictIdentical is the same window for the same program, a no-op
	// duplicate.
	ConflictIdentical ConflictType = "identical"
	// ConflictPartial is an overlap that is neither identical nor full
	// containment.
	ConflictPartial ConflictType = "partial"
	// ConflictContained means one window lies fully inside the other.
	ConflictContained ConflictType = "contained"
)

// Conflict pairs a classification with the occurrence it collides with.
type Conflict struct {
	Type       ConflictType `json:"type"`
	Occurrence Occurrence   `json:"occurrence"`
}

// ConflictPolicy states which existing source types make a conflict
// blocking. The engine never hard-codes this: forcing a special over a
// regular slot is a deliberate operator act, while colliding with another
// already-scheduled special is usually a mistake, and only the caller knows
// which situation it is in.
type ConflictPolicy struct {
	BlockRecurring bool `json:"block_recurring"`
	BlockEntry     bool `json:"block_entry"`
	BlockSpecial   bool `json:"block_special"`
}

// Blocks reports whether an overlap with the given source type is a hard
// stop under this policy.
func (p ConflictPolicy) Blocks(t SourceType) bool {
	switch t {
	case SourceRecurring:
		return p.BlockRecurring
	case SourceEntry:
		return p.BlockEntry
	case SourceSpecial:
		return p.BlockSpecial
	}
	return false
}

// ConflictReport lists every collision of a candidate window, not just the
// first, plus the policy verdict.
type ConflictReport struct {
	Conflicts           []Conflict `json:"conflicts"`
	HasBlockingConflict bool       `json:"has_blocking_conflict"`
}

// CheckConflict computes the interval overlaps between a candidate window
// and the existing resolved occurrences. Pure function: no side effects, no
// store access. Touching boundaries (end == start) do not conflict.
// Identical duplicates are reported but never block.
func CheckConflict(candStart, candEnd time.Time, candProgramID int64, existing []Occurrence, policy ConflictPolicy) ConflictReport {
	var report ConflictReport
	for _, occ := range existing {
		if !occ.Overlaps(candStart, candEnd) {
			continue
		}
		c := Conflict{Type: classify(candStart, candEnd, candProgramID, occ), Occurrence: occ}
		report.Conflicts = append(report.Conflicts, c)
		if c.Type != ConflictIdentical && policy.Blocks(occ.SourceType) {
			report.HasBlockingConflict = true
		}
	}
	return report
}

func classify(candStart, candEnd time.Time, candProgramID int64, occ Occurrence) ConflictType {
	sameWindow := candStart.Equal(occ.Start) && candEnd.Equal(occ.End)
	if sameWindow && candProgramID != 0 && candProgramID == occ.ProgramID {
		return ConflictIdentical
	}
	candInside := !candStart.Before(occ.Start) && !candEnd.After(occ.End)
	occInside := !occ.Start.Before(candStart) && !occ.End.After(candEnd)
	if candInside || occInside {
		return ConflictContained
	}
	return ConflictPartial
}
