package schedule

import "time"

// SourceType tags which of the three source tables produced an occurrence.
// The resolver's precedence order is defined over these tags exactly once;
// see rank().
type SourceType string

const (
	SourceRecurring SourceType = "recurring"
	SourceEntry     SourceType = "entry"
	SourceSpecial   SourceType = "special"
)

// Occurrence is a resolved, concrete broadcast window. It is derived data:
// recomputed on every query (or served from the range cache) and never
// persisted.
type Occurrence struct {
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	SourceType SourceType `json:"source_type"`
	SourceID   int64      `json:"source_id"`
	ProgramID  int64      `json:"program_id,omitempty"`
	Title      string     `json:"title"`
	HostIDs    []int64    `json:"host_ids,omitempty"`
	Status     string     `json:"status"`
	Priority   int        `json:"-"` // Specials only, used during resolution
}

// Overlaps reports whether the occurrence window intersects [start, end).
// Touching boundaries do not overlap.
func (o Occurrence) Overlaps(start, end time.Time) bool {
	return o.Start.Before(end) && o.End.After(start)
}

// Config carries the station settings every core call needs. It is threaded
// explicitly through the engine instead of being read from ambient state.
type Config struct {
	Location *time.Location
	MaxRange time.Duration
}
