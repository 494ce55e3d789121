package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by point queries when no occurrence covers the
// requested instant.
var ErrNotFound = errors.New("no occurrence found")

// ErrBlockingConflict is returned by the write path when a candidate record
// collides with existing programming and the caller did not force the write.
var ErrBlockingConflict = errors.New("candidate conflicts with existing programming")

// RecurrenceParseError marks a malformed custom recurrence rule. The
// affected program contributes zero occurrences; the query as a whole
// continues.
type RecurrenceParseError struct {
	ProgramID int64
	Rule      string
	Err       error
}

func (e *RecurrenceParseError) Error() string {
	return fmt.Sprintf("program %d: cannot parse recurrence rule %q: %v", e.ProgramID, e.Rule, e.Err)
}

func (e *RecurrenceParseError) Unwrap() error { return e.Err }

// AmbiguousOverrideError reports two or more special broadcasts with equal
// priority claiming the same sub-window. There is no default resolution;
// an operator has to pick a winner by adjusting priorities.
type AmbiguousOverrideError struct {
	Start        time.Time
	End          time.Time
	Priority     int
	BroadcastIDs []int64
}

func (e *AmbiguousOverrideError) Error() string {
	return fmt.Sprintf("special broadcasts %v share priority %d over [%s, %s)",
		e.BroadcastIDs, e.Priority, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// InvalidWindowError rejects any record whose end does not come after its
// start. Raised at the write/query boundary so malformed windows never reach
// the expander.
type InvalidWindowError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid window: end %s not after start %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// RangeTooLargeError rejects queries whose span exceeds the configured
// maximum before any expansion work begins.
type RangeTooLargeError struct {
	Requested time.Duration
	Max       time.Duration
}

func (e *RangeTooLargeError) Error() string {
	return fmt.Sprintf("requested range %s exceeds maximum %s", e.Requested, e.Max)
}
