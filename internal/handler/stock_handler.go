package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"orderly/backend/internal/database"
	"orderly/backend/internal/hub"
	"orderly/backend/internal/metrics"
	"orderly/backend/internal/models"
	"orderly/backend/internal/stock"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// StockDecrementInput is posted by the checkout/order-commit flow whenever an
// order (group session, direct checkout or point-of-sale) consumes stock.
type StockDecrementInput struct {
	MerchantID uint `json:"merchant_id" binding:"required" example:"1"`
	ItemID     uint `json:"item_id" binding:"required" example:"3"`
	Delta      int  `json:"delta" binding:"required,min=1" example:"2"`
}

// StockItemInput seeds or updates one sellable item for a merchant.
type StockItemInput struct {
	MerchantID uint   `json:"merchant_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	PriceCents int64  `json:"price_cents" binding:"required,min=0"`
	Quantity   int    `json:"quantity" binding:"min=0"`
	Tracked    *bool  `json:"tracked"`
}

// StockItemResponse is one item's public stock view.
type StockItemResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

// endregion

// GetStockSnapshot godoc
// @Summary      Get a merchant's current stock levels
// @Description  One-shot snapshot of every stock-tracked item, same shape as the stream's initial event.
// @Tags         stock
// @Produce      json
// @Param        merchantID path int true "Merchant ID"
// @Success      200  {object}  hub.Event
// @Failure      400  {object}  ErrorResponse
// @Router       /merchants/{merchantID}/stock [get]
func GetStockSnapshot(c *gin.Context) {
	merchantID, err := strconv.ParseUint(c.Param("merchantID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid merchant ID"})
		return
	}

	levels, err := stock.Snapshot(uint(merchantID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stock"})
		return
	}
	c.JSON(http.StatusOK, hub.Event{Type: hub.EventInitial, Items: levels})
}

// StreamStock godoc
// @Summary      Subscribe to a merchant's live stock stream
// @Description  Server-sent events: one initial snapshot on connect, then a stock-update event per committed order. A reconnecting client always starts from a fresh snapshot.
// @Tags         stock
// @Produce      text/event-stream
// @Param        merchantID path int true "Merchant ID"
// @Success      200  {string}  string "SSE stream of hub.Event"
// @Failure      400  {object}  ErrorResponse
// @Router       /merchants/{merchantID}/stock/stream [get]
func StreamStock(c *gin.Context) {
	merchantID64, err := strconv.ParseUint(c.Param("merchantID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid merchant ID"})
		return
	}
	merchantID := uint(merchantID64)

	// Subscribe before taking the snapshot: a delta committed in between is
	// then queued on the client channel, and since deltas carry absolute
	// quantities the replay converges either way.
	client := make(hub.Client, 16)
	hub.GlobalHub.Subscribe(merchantID, client)
	defer hub.GlobalHub.Unsubscribe(merchantID, client)

	metrics.SubscriberConnected()
	defer metrics.SubscriberDisconnected()

	levels, err := stock.Snapshot(merchantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stock"})
		return
	}
	initial, err := json.Marshal(hub.Event{Type: hub.EventInitial, Items: levels})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode stock"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("message", string(initial))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				// Torn down by the hub (slow consumer); the client is
				// expected to reconnect and resynchronize.
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// CommitStockDecrement godoc
// @Summary      Commit an order's stock decrement (internal)
// @Description  Applies the decrement atomically and broadcasts the post-decrement quantity to the merchant's stream.
// @Tags         internal
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body StockDecrementInput true "Decrement Info"
// @Success      200  {object}  StockItemResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Unknown item"
// @Router       /internal/v1/stock/decrement [post]
func CommitStockDecrement(c *gin.Context) {
	var input StockDecrementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := stock.Decrement(input.MerchantID, input.ItemID, input.Delta)
	if err == stock.ErrItemNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit stock decrement"})
		return
	}

	c.JSON(http.StatusOK, StockItemResponse{
		ID:         item.ID,
		Name:       item.Name,
		PriceCents: item.PriceCents,
		Quantity:   item.Quantity,
	})
}

// CreateStockItem godoc
// @Summary      Create a stock item (internal)
// @Description  Seeds one sellable item for a merchant. Catalog editing proper lives outside this service.
// @Tags         internal
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body StockItemInput true "Item Info"
// @Success      201  {object}  StockItemResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /internal/v1/stock/items [post]
func CreateStockItem(c *gin.Context) {
	var input StockItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tracked := true
	if input.Tracked != nil {
		tracked = *input.Tracked
	}
	item := models.StockItem{
		MerchantID: input.MerchantID,
		Name:       input.Name,
		PriceCents: input.PriceCents,
		Quantity:   input.Quantity,
		Tracked:    tracked,
	}
	if err := database.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stock item"})
		return
	}

	c.JSON(http.StatusCreated, StockItemResponse{
		ID:         item.ID,
		Name:       item.Name,
		PriceCents: item.PriceCents,
		Quantity:   item.Quantity,
	})
}
