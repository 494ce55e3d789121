package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Subscribers pick the programs they want schedule-change notices for.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Programs []*Program `gorm:"many2many:subscription_program_mapping;"`
}
