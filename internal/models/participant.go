package models

import (
	"time"

	"gorm.io/datatypes"
)

// CartLine is one line item in a participant's cart. Carts are stored as a
// JSON column and replaced wholesale on every update, so lines carry the
// price they were quoted at.
type CartLine struct {
	ItemID     uint     `json:"item_id"`
	Name       string   `json:"name"`
	Quantity   int      `json:"quantity"`
	PriceCents int64    `json:"price_cents"`
	Options    []string `json:"options,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Participant is one device's membership and cart within a group session.
// DeviceID is a client-generated correlation token, not a credential: it only
// lets a returning device reclaim its own cart without an account.
type Participant struct {
	ID        string `gorm:"size:36;primaryKey"`
	SessionID uint   `gorm:"not null;index"`
	DeviceID  string `gorm:"size:64;not null;index"`
	// Exactly one participant per session is the host; the flag is set at
	// session creation and never transferred.
	IsHost bool   `gorm:"not null;default:false"`
	Name   string `gorm:"size:255;not null"`

	CartItems     datatypes.JSON `gorm:"type:json"`
	SubtotalCents int64          `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
