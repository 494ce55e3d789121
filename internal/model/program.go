package model

import "time"

// RecurrenceType enumerates how a program repeats.
type RecurrenceType string

const (
	RecurrenceNone   RecurrenceType = "none"
	RecurrenceDaily  RecurrenceType = "daily"
	RecurrenceWeekly RecurrenceType = "weekly"
	RecurrenceCustom RecurrenceType = "custom"
)

// Program represents a recurring show definition.
//
// AirTime is a wall-clock "HH:MM" string in the station timezone.
// RecurrenceDays holds weekday indices 0-6 (0 = Sunday) and is only
// meaningful for weekly programs. Deactivating a program removes its
// future occurrences without deleting history.
type Program struct {
	ID                int64          `gorm:"primaryKey" json:"id"`
	Title             string         `gorm:"size:256;not null" json:"title"`
	HostIDs           []int64        `gorm:"serializer:json" json:"host_ids"`
	RecurrenceType    RecurrenceType `gorm:"size:16;not null;default:none" json:"recurrence_type"`
	RecurrenceDays    []int          `gorm:"serializer:json" json:"recurrence_days"`
	AirTime           string         `gorm:"size:8" json:"air_time"`
	DurationMinutes   int            `json:"duration_minutes"`
	RecurrenceEndDate *time.Time     `json:"recurrence_end_date"`
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`
	Version           int64          `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Recurs reports whether the program has a standing slot at all.
func (p Program) Recurs() bool {
	return p.RecurrenceType != "" && p.RecurrenceType != RecurrenceNone
}
