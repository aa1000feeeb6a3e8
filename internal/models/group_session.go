package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionStatus is the lifecycle state of a group session.
// The machine is one-way: OPEN -> CLOSED.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// GroupSession represents a shared ordering session for one merchant.
// Several devices (a host plus guests) join it via Code and build
// independent carts that are merged into one order at checkout.
type GroupSession struct {
	gorm.Model
	// Code is unique among OPEN sessions only; closed sessions keep
	// theirs for auditing, so uniqueness is enforced by the coordinator
	// rather than a DB constraint.
	Code            string        `gorm:"size:16;not null;index"`
	MerchantID      uint          `gorm:"not null;index"`
	Status          SessionStatus `gorm:"size:16;not null;default:'OPEN';index"`
	ExpiresAt       time.Time     `gorm:"not null"`
	MaxParticipants int           `gorm:"not null;default:8"`

	Participants []Participant `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}
