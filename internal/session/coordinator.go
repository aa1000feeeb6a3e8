package session

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"orderly/backend/internal/config"
	"orderly/backend/internal/database"
	"orderly/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func sessionTTL() time.Duration {
	if config.AppConfig != nil && config.AppConfig.SessionTTLMinutes > 0 {
		return time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	}
	return 120 * time.Minute
}

func defaultMaxParticipants() int {
	if config.AppConfig != nil && config.AppConfig.DefaultMaxParticipants > 0 {
		return config.AppConfig.DefaultMaxParticipants
	}
	return 8
}

// findLive resolves a normalized code to its live session. Only
// status=OPEN with expires_at in the future counts: an expired session is
// treated as not found even while the row still exists.
func findLive(db *gorm.DB, code string) (*models.GroupSession, error) {
	var s models.GroupSession
	err := db.Preload("Participants").
		Where("code = ? AND status = ? AND expires_at > ?", code, models.SessionOpen, time.Now()).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create opens a new group session for a merchant and seats the caller as its
// host. The returned DeviceID is the host's freshly minted correlation token.
func Create(hostName string, merchantID uint, maxParticipants int) (*CreateResult, error) {
	if maxParticipants <= 0 {
		maxParticipants = defaultMaxParticipants()
	}

	deviceID := uuid.NewString()
	var sess models.GroupSession
	var host models.Participant

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		code, err := generateUniqueCode(tx)
		if err != nil {
			return err
		}

		sess = models.GroupSession{
			Code:            code,
			MerchantID:      merchantID,
			Status:          models.SessionOpen,
			ExpiresAt:       time.Now().Add(sessionTTL()),
			MaxParticipants: maxParticipants,
		}
		if err := tx.Create(&sess).Error; err != nil {
			return err
		}

		host = models.Participant{
			ID:        uuid.NewString(),
			SessionID: sess.ID,
			DeviceID:  deviceID,
			IsHost:    true,
			Name:      strings.TrimSpace(hostName),
		}
		return tx.Create(&host).Error
	})
	if err != nil {
		return nil, err
	}

	sess.Participants = []models.Participant{host}
	return &CreateResult{Session: &sess, Host: &host, DeviceID: deviceID}, nil
}

// Join attaches a device to a live session, or reconnects it to its existing
// participant. The rate limiter is consulted before the session lookup so
// code guessing is rejected without touching session state.
func Join(code, name, deviceID string) (*JoinResult, error) {
	code = NormalizeCode(code)
	name = strings.TrimSpace(name)
	if name == "" {
		return &JoinResult{Outcome: ValidationFailed}, nil
	}

	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	verdict, err := CheckJoinRate(deviceID)
	if err != nil {
		return nil, err
	}
	if !verdict.Allowed {
		return &JoinResult{Outcome: RateLimited, RetryAfter: verdict.RetryAfter}, nil
	}

	mu := lockCode(code)
	mu.Lock()

	result := &JoinResult{DeviceID: deviceID}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		sess, err := findLive(tx, code)
		if err != nil {
			return err
		}
		if sess == nil {
			result.Outcome = SessionNotFound
			return nil
		}

		// Same device already seated: reconnect, never duplicate.
		for i := range sess.Participants {
			if sess.Participants[i].DeviceID == deviceID {
				result.Outcome = OK
				result.Session = sess
				result.Participant = &sess.Participants[i]
				result.IsReconnection = true
				return nil
			}
		}

		if len(sess.Participants) >= sess.MaxParticipants {
			result.Outcome = SessionFull
			result.Session = sess
			return nil
		}

		p := models.Participant{
			ID:        uuid.NewString(),
			SessionID: sess.ID,
			DeviceID:  deviceID,
			Name:      name,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		sess.Participants = append(sess.Participants, p)
		result.Outcome = OK
		result.Session = sess
		result.Participant = &sess.Participants[len(sess.Participants)-1]
		return nil
	})
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	// One ledger row per guess, written after the outcome is known. A
	// resolved code counts as success even when the session was full.
	guessedRight := result.Outcome != SessionNotFound
	if err := RecordJoinAttempt(deviceID, code, guessedRight); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns the live session for a code, or SessionNotFound.
func Get(code string) (*models.GroupSession, Outcome, error) {
	sess, err := findLive(database.DB, NormalizeCode(code))
	if err != nil {
		return nil, "", err
	}
	if sess == nil {
		return nil, SessionNotFound, nil
	}
	return sess, OK, nil
}

// CartLineInput is a requested cart line; name and price are resolved
// server-side from the merchant's stock items.
type CartLineInput struct {
	ItemID   uint
	Quantity int
	Options  []string
	Notes    string
}

// UpdateCart replaces a participant's cart wholesale and recomputes the
// subtotal. Carts are only ever written by their own device, so no
// cross-participant locking is needed.
func UpdateCart(code, deviceID string, inputs []CartLineInput) (*CartResult, error) {
	code = NormalizeCode(code)

	result := &CartResult{}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		sess, err := findLive(tx, code)
		if err != nil {
			return err
		}
		if sess == nil {
			result.Outcome = SessionNotFound
			return nil
		}

		var target *models.Participant
		for i := range sess.Participants {
			if sess.Participants[i].DeviceID == deviceID {
				target = &sess.Participants[i]
				break
			}
		}
		if target == nil {
			result.Outcome = ParticipantNotFound
			return nil
		}

		lines, ok, err := priceCart(tx, sess.MerchantID, inputs)
		if err != nil {
			return err
		}
		if !ok {
			result.Outcome = ValidationFailed
			return nil
		}

		raw, err := json.Marshal(lines)
		if err != nil {
			return err
		}
		target.CartItems = raw
		target.SubtotalCents = Subtotal(lines)
		if err := tx.Model(&models.Participant{}).
			Where("id = ?", target.ID).
			Updates(map[string]interface{}{
				"cart_items":     target.CartItems,
				"subtotal_cents": target.SubtotalCents,
			}).Error; err != nil {
			return err
		}

		result.Outcome = OK
		result.Participant = target
		result.TotalCents = SessionTotalCents(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// priceCart resolves requested lines against the merchant's stock items.
// Unknown items, foreign-merchant items and non-positive quantities make the
// whole cart invalid.
func priceCart(tx *gorm.DB, merchantID uint, inputs []CartLineInput) ([]models.CartLine, bool, error) {
	if len(inputs) == 0 {
		return []models.CartLine{}, true, nil
	}

	ids := make([]uint, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, false, nil
		}
		ids = append(ids, in.ItemID)
	}

	var items []models.StockItem
	if err := tx.Where("id IN ? AND merchant_id = ?", ids, merchantID).Find(&items).Error; err != nil {
		return nil, false, err
	}
	byID := make(map[uint]models.StockItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	lines := make([]models.CartLine, 0, len(inputs))
	for _, in := range inputs {
		item, ok := byID[in.ItemID]
		if !ok {
			return nil, false, nil
		}
		lines = append(lines, models.CartLine{
			ItemID:     item.ID,
			Name:       item.Name,
			Quantity:   in.Quantity,
			PriceCents: item.PriceCents,
			Options:    in.Options,
			Notes:      in.Notes,
		})
	}
	return lines, true, nil
}

// Kick removes a participant at the host's request. A target with a
// non-empty cart needs a confirmed call: the first, unconfirmed call answers
// ConfirmationRequired and changes nothing. The confirmed call does not
// re-check emptiness — the prompt is advisory UX, not a correctness gate.
func Kick(code, callerDeviceID, targetParticipantID string, confirmed bool) (*KickResult, error) {
	code = NormalizeCode(code)
	mu := lockCode(code)
	mu.Lock()
	defer mu.Unlock()

	result := &KickResult{}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		sess, err := findLive(tx, code)
		if err != nil {
			return err
		}
		if sess == nil {
			result.Outcome = SessionNotFound
			return nil
		}

		var caller, target *models.Participant
		for i := range sess.Participants {
			if sess.Participants[i].DeviceID == callerDeviceID {
				caller = &sess.Participants[i]
			}
			if sess.Participants[i].ID == targetParticipantID {
				target = &sess.Participants[i]
			}
		}

		if caller == nil || !caller.IsHost {
			result.Outcome = Unauthorized
			return nil
		}
		if target == nil {
			result.Outcome = ParticipantNotFound
			return nil
		}
		if target.IsHost {
			// The host leaves through Leave, never through Kick.
			result.Outcome = InvalidOperation
			return nil
		}

		lines, err := DecodeCart(target)
		if err != nil {
			return err
		}
		if len(lines) > 0 && !confirmed {
			result.Outcome = ConfirmationRequired
			result.TargetName = target.Name
			result.ItemCount = ItemCount(lines)
			return nil
		}

		if err := tx.Delete(&models.Participant{}, "id = ?", target.ID).Error; err != nil {
			return err
		}
		result.Outcome = OK
		result.TargetName = target.Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Leave removes the calling device's participant. The host leaving closes
// the whole session; a closed session is never returned by Join again.
func Leave(code, deviceID string) (*LeaveResult, error) {
	code = NormalizeCode(code)
	mu := lockCode(code)
	mu.Lock()
	defer mu.Unlock()

	result := &LeaveResult{}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		sess, err := findLive(tx, code)
		if err != nil {
			return err
		}
		if sess == nil {
			result.Outcome = SessionNotFound
			return nil
		}

		var caller *models.Participant
		for i := range sess.Participants {
			if sess.Participants[i].DeviceID == deviceID {
				caller = &sess.Participants[i]
				break
			}
		}
		if caller == nil {
			result.Outcome = ParticipantNotFound
			return nil
		}

		if caller.IsHost {
			if err := closeSession(tx, sess.ID); err != nil {
				return err
			}
			result.Outcome = OK
			result.SessionClosed = true
			return nil
		}

		if err := tx.Delete(&models.Participant{}, "id = ?", caller.ID).Error; err != nil {
			return err
		}
		result.Outcome = OK
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// closeSession flips a session to CLOSED and cascade-deletes its
// participants. CLOSED is terminal.
func closeSession(tx *gorm.DB, sessionID uint) error {
	if err := tx.Model(&models.GroupSession{}).
		Where("id = ?", sessionID).
		Update("status", models.SessionClosed).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Participant{}, "session_id = ?", sessionID).Error
}

// CloseExpired closes every OPEN session whose expiry has passed and reaps
// its participants. Returns how many sessions were closed.
func CloseExpired() (int, error) {
	var expired []models.GroupSession
	err := database.DB.
		Where("status = ? AND expires_at <= ?", models.SessionOpen, time.Now()).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}

	for _, sess := range expired {
		sessID := sess.ID
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			return closeSession(tx, sessID)
		})
		if err != nil {
			return 0, err
		}
	}
	return len(expired), nil
}
