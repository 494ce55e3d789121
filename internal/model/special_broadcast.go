package model

import "time"

// SpecialBroadcast overrides regular programming within an explicit window.
//
// A record with neither a replacement program nor a replacement title is a
// cancellation: the covered sub-window goes silent instead of airing the
// regular slot. Overlapping specials are legal but must carry distinct
// priorities; ties are surfaced to the caller, never resolved silently.
type SpecialBroadcast struct {
	ID                   int64     `gorm:"primaryKey" json:"id"`
	StartTime            time.Time `gorm:"index;not null" json:"start_time"`
	EndTime              time.Time `gorm:"index;not null" json:"end_time"`
	ReplacementProgramID *int64    `json:"replacement_program_id"`
	ReplacementTitle     string    `gorm:"size:256" json:"replacement_title"`
	Reason               string    `gorm:"size:512" json:"reason"`
	Priority             int       `gorm:"not null;default:0" json:"priority"`
	Version              int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// IsCancellation reports whether the special removes programming without
// putting anything else on air.
func (s SpecialBroadcast) IsCancellation() bool {
	return s.ReplacementProgramID == nil && s.ReplacementTitle == ""
}
