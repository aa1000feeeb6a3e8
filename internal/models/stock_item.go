package models

import "gorm.io/gorm"

// StockItem is one sellable item with a live quantity for a merchant.
// Cart lines reference stock items by ID; the wider menu catalog
// (descriptions, images, categories) lives outside this service.
type StockItem struct {
	gorm.Model
	MerchantID uint   `gorm:"not null;index"`
	Name       string `gorm:"size:255;not null"`
	PriceCents int64  `gorm:"not null"`
	Quantity   int    `gorm:"not null;default:0"`
	// Untracked items never run out and are excluded from stock snapshots.
	Tracked bool `gorm:"not null;default:true"`
}
