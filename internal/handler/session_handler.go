package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"orderly/backend/internal/database"
	"orderly/backend/internal/metrics"
	"orderly/backend/internal/models"
	"orderly/backend/internal/session"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// CreateSessionInput defines the structure for opening a group order.
type CreateSessionInput struct {
	HostName        string `json:"host_name" binding:"required" example:"Dana"`
	MerchantID      uint   `json:"merchant_id" binding:"required" example:"1"`
	MaxParticipants int    `json:"max_participants" binding:"omitempty,min=2,max=20" example:"6"`
}

// JoinSessionInput defines the structure for joining a group order by code.
// DeviceID is optional: a first-time device gets one minted and must store it
// locally to reconnect later.
type JoinSessionInput struct {
	Name     string `json:"name" binding:"required" example:"Sam"`
	DeviceID string `json:"device_id" example:"5f0d7a8e-6f0c-4a7e-9c39-0f6a2a6a2e31"`
}

// CartLineInput defines one requested cart line. Prices are resolved
// server-side; the client only names items and quantities.
type CartLineInput struct {
	ItemID   uint     `json:"item_id" binding:"required" example:"3"`
	Quantity int      `json:"quantity" binding:"required,min=1" example:"2"`
	Options  []string `json:"options"`
	Notes    string   `json:"notes"`
}

// UpdateCartInput replaces the calling device's cart wholesale.
type UpdateCartInput struct {
	DeviceID string          `json:"device_id" binding:"required"`
	Items    []CartLineInput `json:"items"`
}

// LeaveSessionInput identifies the leaving device.
type LeaveSessionInput struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// ParticipantResponse is one participant's public view. Device identifiers
// are never echoed for other participants.
type ParticipantResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	IsHost        bool              `json:"is_host"`
	CartItems     []models.CartLine `json:"cart_items"`
	SubtotalCents int64             `json:"subtotal_cents"`
}

// SessionResponse is the full session state shared with every participant.
type SessionResponse struct {
	Code            string                `json:"code"`
	MerchantID      uint                  `json:"merchant_id"`
	Status          string                `json:"status"`
	ExpiresAt       time.Time             `json:"expires_at"`
	MaxParticipants int                   `json:"max_participants"`
	Participants    []ParticipantResponse `json:"participants"`
	TotalCents      int64                 `json:"total_cents"`
}

// JoinResponse is returned on a successful join or reconnection.
type JoinResponse struct {
	Session        SessionResponse `json:"session"`
	ParticipantID  string          `json:"participant_id"`
	DeviceID       string          `json:"device_id"`
	IsReconnection bool            `json:"is_reconnection"`
}

// CreateSessionResponse is returned when a group order is opened.
type CreateSessionResponse struct {
	Code              string          `json:"code"`
	Session           SessionResponse `json:"session"`
	HostParticipantID string          `json:"host_participant_id"`
	DeviceID          string          `json:"device_id"`
}

// ConfirmationRequiredResponse signals the two-phase kick prompt. Not an
// error: the client re-invokes with confirmed=true after the user agrees.
type ConfirmationRequiredResponse struct {
	ConfirmationRequired bool   `json:"confirmation_required"`
	Name                 string `json:"name"`
	ItemCount            int    `json:"item_count"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

func newParticipantResponse(p models.Participant) ParticipantResponse {
	lines, err := session.DecodeCart(&p)
	if err != nil || lines == nil {
		lines = []models.CartLine{}
	}
	return ParticipantResponse{
		ID:            p.ID,
		Name:          p.Name,
		IsHost:        p.IsHost,
		CartItems:     lines,
		SubtotalCents: p.SubtotalCents,
	}
}

func newSessionResponse(s *models.GroupSession) SessionResponse {
	participants := make([]ParticipantResponse, 0, len(s.Participants))
	for _, p := range s.Participants {
		participants = append(participants, newParticipantResponse(p))
	}
	return SessionResponse{
		Code:            s.Code,
		MerchantID:      s.MerchantID,
		Status:          string(s.Status),
		ExpiresAt:       s.ExpiresAt,
		MaxParticipants: s.MaxParticipants,
		Participants:    participants,
		TotalCents:      session.SessionTotalCents(s),
	}
}

// endregion

// CreateGroupOrder godoc
// @Summary      Open a group order
// @Description  Creates a new group ordering session and seats the caller as host.
// @Tags         group-orders
// @Accept       json
// @Produce      json
// @Param        input body CreateSessionInput true "Session Info"
// @Success      201  {object}  CreateSessionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /group-orders [post]
func CreateGroupOrder(c *gin.Context) {
	var input CreateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := session.Create(input.HostName, input.MerchantID, input.MaxParticipants)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group order"})
		return
	}

	c.JSON(http.StatusCreated, CreateSessionResponse{
		Code:              result.Session.Code,
		Session:           newSessionResponse(result.Session),
		HostParticipantID: result.Host.ID,
		DeviceID:          result.DeviceID,
	})
}

// JoinGroupOrder godoc
// @Summary      Join a group order by code
// @Description  Joins a live session, or reconnects a returning device to its existing seat.
// @Tags         group-orders
// @Accept       json
// @Produce      json
// @Param        code  path string           true "Session code"
// @Param        input body JoinSessionInput true "Join Info"
// @Success      200  {object}  JoinResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Unknown or expired code"
// @Failure      409  {object}  ErrorResponse "Session is full"
// @Failure      429  {object}  ErrorResponse "Too many failed attempts"
// @Router       /group-orders/{code}/join [post]
func JoinGroupOrder(c *gin.Context) {
	var input JoinSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := session.Join(c.Param("code"), input.Name, input.DeviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join group order"})
		return
	}
	metrics.RecordJoinOutcome(string(result.Outcome))

	switch result.Outcome {
	case session.OK:
		c.JSON(http.StatusOK, JoinResponse{
			Session:        newSessionResponse(result.Session),
			ParticipantID:  result.Participant.ID,
			DeviceID:       result.DeviceID,
			IsReconnection: result.IsReconnection,
		})
	case session.RateLimited:
		retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many failed join attempts",
			"retry_after": retryAfter,
		})
	case session.SessionFull:
		c.JSON(http.StatusConflict, gin.H{"error": "Group order is full"})
	case session.ValidationFailed:
		c.JSON(http.StatusBadRequest, gin.H{"error": "A display name is required"})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Group order not found"})
	}
}

// GetGroupOrder godoc
// @Summary      Get a group order by code
// @Description  Gets the full session state: participants, carts and the running total.
// @Tags         group-orders
// @Produce      json
// @Param        code path string true "Session code"
// @Success      200  {object}  SessionResponse
// @Failure      404  {object}  ErrorResponse "Unknown or expired code"
// @Router       /group-orders/{code} [get]
func GetGroupOrder(c *gin.Context) {
	sess, outcome, err := session.Get(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load group order"})
		return
	}
	if outcome != session.OK {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group order not found"})
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess))
}

// UpdateParticipantCart godoc
// @Summary      Replace the calling device's cart
// @Description  Replaces the participant's cart wholesale and recomputes subtotals.
// @Tags         group-orders
// @Accept       json
// @Produce      json
// @Param        code  path string          true "Session code"
// @Param        input body UpdateCartInput true "Cart contents"
// @Success      200  {object}  map[string]interface{} "{"participant": ..., "total_cents": ...}"
// @Failure      400  {object}  ErrorResponse "Unknown item or bad quantity"
// @Failure      404  {object}  ErrorResponse
// @Router       /group-orders/{code}/cart [put]
func UpdateParticipantCart(c *gin.Context) {
	var input UpdateCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]session.CartLineInput, 0, len(input.Items))
	for _, item := range input.Items {
		lines = append(lines, session.CartLineInput{
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
			Options:  item.Options,
			Notes:    item.Notes,
		})
	}

	result, err := session.UpdateCart(c.Param("code"), input.DeviceID, lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	switch result.Outcome {
	case session.OK:
		c.JSON(http.StatusOK, gin.H{
			"participant": newParticipantResponse(*result.Participant),
			"total_cents": result.TotalCents,
		})
	case session.ValidationFailed:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart references an unknown item or a bad quantity"})
	case session.ParticipantNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found in this group order"})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Group order not found"})
	}
}

// LeaveGroupOrder godoc
// @Summary      Leave a group order
// @Description  Removes the calling device's participant. The host leaving closes the session.
// @Tags         group-orders
// @Accept       json
// @Produce      json
// @Param        code  path string            true "Session code"
// @Param        input body LeaveSessionInput true "Device Info"
// @Success      200  {object}  map[string]interface{} "{"message": ..., "session_closed": ...}"
// @Failure      404  {object}  ErrorResponse
// @Router       /group-orders/{code}/leave [post]
func LeaveGroupOrder(c *gin.Context) {
	var input LeaveSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := session.Leave(c.Param("code"), input.DeviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave group order"})
		return
	}

	switch result.Outcome {
	case session.OK:
		c.JSON(http.StatusOK, gin.H{
			"message":        "Left group order",
			"session_closed": result.SessionClosed,
		})
	case session.ParticipantNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found in this group order"})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Group order not found"})
	}
}

// KickParticipant godoc
// @Summary      Kick a participant (host only)
// @Description  Removes a participant. If the target's cart is non-empty and confirmed is not set, answers with a confirmation prompt instead of kicking.
// @Tags         group-orders
// @Produce      json
// @Param        code          path  string true  "Session code"
// @Param        participantID path  string true  "Participant ID to kick"
// @Param        device_id     query string true  "Caller's device ID"
// @Param        confirmed     query bool   false "Confirm a destructive kick"
// @Success      200  {object}  map[string]string "{"message": "Participant kicked"}"
// @Failure      403  {object}  ErrorResponse "Only the host can kick"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ConfirmationRequiredResponse
// @Router       /group-orders/{code}/participants/{participantID} [delete]
func KickParticipant(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.DefaultQuery("confirmed", "false"))

	result, err := session.Kick(
		c.Param("code"),
		c.Query("device_id"),
		c.Param("participantID"),
		confirmed,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to kick participant"})
		return
	}

	switch result.Outcome {
	case session.OK:
		c.JSON(http.StatusOK, gin.H{"message": "Participant kicked"})
	case session.ConfirmationRequired:
		c.JSON(http.StatusConflict, ConfirmationRequiredResponse{
			ConfirmationRequired: true,
			Name:                 result.TargetName,
			ItemCount:            result.ItemCount,
		})
	case session.Unauthorized:
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the host can kick participants"})
	case session.ParticipantNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found in this group order"})
	case session.InvalidOperation:
		c.JSON(http.StatusConflict, gin.H{"error": "The host cannot be kicked"})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Group order not found"})
	}
}

// ListMerchantGroupOrders godoc
// @Summary      List a merchant's live group orders (internal)
// @Description  Paginated listing of open sessions for one merchant, for merchant dashboards.
// @Tags         internal
// @Produce      json
// @Security     BearerAuth
// @Param        merchantID path  int true  "Merchant ID"
// @Param        page       query int false "Page number" default(1)
// @Param        limit      query int false "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[SessionResponse]
// @Failure      401  {object}  ErrorResponse
// @Router       /internal/v1/merchants/{merchantID}/group-orders [get]
func ListMerchantGroupOrders(c *gin.Context) {
	merchantID, err := strconv.ParseUint(c.Param("merchantID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid merchant ID"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	query := database.DB.
		Preload("Participants").
		Where("merchant_id = ? AND status = ? AND expires_at > ?", merchantID, models.SessionOpen, time.Now())

	paginated, err := Paginate[models.GroupSession](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list group orders"})
		return
	}

	sessions := make([]SessionResponse, 0, len(paginated.Data))
	for i := range paginated.Data {
		sessions = append(sessions, newSessionResponse(&paginated.Data[i]))
	}
	c.JSON(http.StatusOK, PaginatedResponse[SessionResponse]{
		Data: sessions,
		Meta: paginated.Meta,
	})
}
