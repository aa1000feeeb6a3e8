package models

import "time"

// JoinAttempt is one row in the append-only join ledger. It is only ever read
// as a sliding-window count per device; rows past the window may be pruned.
type JoinAttempt struct {
	ID            uint      `gorm:"primaryKey"`
	DeviceID      string    `gorm:"size:64;not null;index:idx_join_attempts_device_time"`
	AttemptedCode string    `gorm:"size:16;not null"`
	Succeeded     bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null;index:idx_join_attempts_device_time"`
}
