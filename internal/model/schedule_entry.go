package model

import "time"

// Entry status lifecycle.
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ScheduleEntry is a concrete broadcast slot with absolute timestamps.
//
// An entry normally represents a one-off slot that overrides regular
// programming for its window. Entries with IsRecurring set act as
// recurrence anchors for programs of type custom: their RecurrenceRule
// (RRULE text) drives expansion and the entry itself is not aired as a
// standalone slot.
type ScheduleEntry struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	ProgramID      int64     `gorm:"index;not null" json:"program_id"`
	StartTime      time.Time `gorm:"index;not null" json:"start_time"`
	EndTime        time.Time `gorm:"index;not null" json:"end_time"`
	IsRecurring    bool      `gorm:"not null;default:false" json:"is_recurring"`
	RecurrenceRule string    `gorm:"size:512" json:"recurrence_rule"`
	HostIDs        []int64   `gorm:"serializer:json" json:"host_ids"`
	IsSpecial      bool      `gorm:"not null;default:false" json:"is_special"`
	OverrideTitle  string    `gorm:"size:256" json:"override_title"`
	Status         string    `gorm:"size:16;not null;default:scheduled" json:"status"`
	Version        int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Associations
	Program *Program `gorm:"foreignKey:ProgramID" json:"-"`
}
