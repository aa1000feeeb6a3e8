// Package stock owns the per-merchant inventory counters and their live
// propagation: every committed order decrement is applied atomically and the
// resulting quantity is pushed to that merchant's broadcast channel.
package stock

import (
	"errors"
	"sync"

	"orderly/backend/internal/database"
	"orderly/backend/internal/hub"
	"orderly/backend/internal/metrics"
	"orderly/backend/internal/models"

	"gorm.io/gorm"
)

// ErrItemNotFound is returned when a decrement references an item that does
// not exist for the merchant (or is not stock-tracked).
var ErrItemNotFound = errors.New("stock item not found")

// merchantLocks serializes order commits per merchant. Holding the lock
// across decrement, post-read and broadcast is what makes the stream
// monotonically consistent: a subscriber applying deltas in receipt order
// always lands on the true quantity.
var merchantLocks sync.Map

func lockMerchant(merchantID uint) *sync.Mutex {
	mu, _ := merchantLocks.LoadOrStore(merchantID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Decrement applies an order's stock decrement and broadcasts the
// post-decrement quantity to the merchant's channel. Quantities floor at
// zero. Called by the checkout/order-commit flow for group sessions, direct
// checkouts and point-of-sale alike.
func Decrement(merchantID, itemID uint, delta int) (*models.StockItem, error) {
	mu := lockMerchant(merchantID)
	mu.Lock()
	defer mu.Unlock()

	var item models.StockItem
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.StockItem{}).
			Where("id = ? AND merchant_id = ? AND tracked = ?", itemID, merchantID, true).
			Update("quantity", gorm.Expr("CASE WHEN quantity >= ? THEN quantity - ? ELSE 0 END", delta, delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrItemNotFound
		}
		// Re-read inside the same unit of work so the broadcast carries
		// the committed value, never a stale pre-read.
		return tx.First(&item, "id = ?", itemID).Error
	})
	if err != nil {
		return nil, err
	}

	hub.GlobalHub.Broadcast(merchantID, hub.Event{
		Type:  hub.EventStockUpdate,
		Items: []hub.StockLevel{{ItemID: item.ID, Quantity: item.Quantity}},
	})
	metrics.RecordBroadcast()
	return &item, nil
}

// Snapshot returns the current quantity of every stock-tracked item for a
// merchant. Taken under the merchant's commit lock so it lines up with the
// delta stream: anything committed before the snapshot is in it, anything
// after arrives as a delta.
func Snapshot(merchantID uint) ([]hub.StockLevel, error) {
	mu := lockMerchant(merchantID)
	mu.Lock()
	defer mu.Unlock()

	var items []models.StockItem
	err := database.DB.
		Where("merchant_id = ? AND tracked = ?", merchantID, true).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	levels := make([]hub.StockLevel, 0, len(items))
	for _, item := range items {
		levels = append(levels, hub.StockLevel{ItemID: item.ID, Quantity: item.Quantity})
	}
	return levels, nil
}
