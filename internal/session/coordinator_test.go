package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"orderly/backend/internal/config"
	"orderly/backend/internal/database"
	"orderly/backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the global DB at a fresh in-memory sqlite instance.
// Connections are capped at one so every goroutine sees the same database.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrapping test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	database.DB = db

	config.AppConfig = &config.Config{
		ServiceTokenSecret:     "test-secret",
		SessionTTLMinutes:      120,
		DefaultMaxParticipants: 8,
		JoinRateWindowSeconds:  60,
		JoinRateMaxFailures:    3,
	}
}

// mustCreate opens a session and fails the test on storage errors.
func mustCreate(t *testing.T, hostName string, merchantID uint, maxParticipants int) *CreateResult {
	t.Helper()
	result, err := Create(hostName, merchantID, maxParticipants)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return result
}

// mustJoin joins and fails the test on storage errors.
func mustJoin(t *testing.T, code, name, deviceID string) *JoinResult {
	t.Helper()
	result, err := Join(code, name, deviceID)
	if err != nil {
		t.Fatalf("joining session: %v", err)
	}
	return result
}

// assertHostCount checks the single-host invariant for a session.
func assertHostCount(t *testing.T, sessionID uint) {
	t.Helper()
	var hosts int64
	err := database.DB.Model(&models.Participant{}).
		Where("session_id = ? AND is_host = ?", sessionID, true).
		Count(&hosts).Error
	if err != nil {
		t.Fatalf("counting hosts: %v", err)
	}
	if hosts != 1 {
		t.Errorf("host count = %d, want exactly 1", hosts)
	}
}

func participantCount(t *testing.T, sessionID uint) int64 {
	t.Helper()
	var count int64
	err := database.DB.Model(&models.Participant{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("counting participants: %v", err)
	}
	return count
}

func TestCreateSession(t *testing.T) {
	setupTestDB(t)

	result := mustCreate(t, "Dana", 1, 6)

	if len(result.Session.Code) != codeLength {
		t.Errorf("code %q has length %d, want %d", result.Session.Code, len(result.Session.Code), codeLength)
	}
	if result.Session.Code != NormalizeCode(result.Session.Code) {
		t.Errorf("code %q is not in canonical uppercase form", result.Session.Code)
	}
	if result.Session.Status != models.SessionOpen {
		t.Errorf("status = %s, want OPEN", result.Session.Status)
	}
	if !result.Host.IsHost {
		t.Error("host participant does not carry the host flag")
	}
	if result.DeviceID == "" {
		t.Error("no device ID minted for the host")
	}
	if !result.Session.ExpiresAt.After(time.Now()) {
		t.Error("session born expired")
	}
	assertHostCount(t, result.Session.ID)
}

func TestCreateSessionDefaultsCapacity(t *testing.T) {
	setupTestDB(t)

	result := mustCreate(t, "Dana", 1, 0)
	if result.Session.MaxParticipants != 8 {
		t.Errorf("max participants = %d, want configured default 8", result.Session.MaxParticipants)
	}
}

func TestJoinAndReconnect(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)

	joined := mustJoin(t, created.Session.Code, "Sam", "")
	if joined.Outcome != OK {
		t.Fatalf("join outcome = %s, want ok", joined.Outcome)
	}
	if joined.IsReconnection {
		t.Error("first join reported as reconnection")
	}
	if joined.DeviceID == "" {
		t.Fatal("no device ID minted for a first-time guest")
	}
	if joined.Participant.IsHost {
		t.Error("guest joined as host")
	}

	again := mustJoin(t, created.Session.Code, "Sam", joined.DeviceID)
	if again.Outcome != OK {
		t.Fatalf("rejoin outcome = %s, want ok", again.Outcome)
	}
	if !again.IsReconnection {
		t.Error("second join with the same device not reported as reconnection")
	}
	if again.Participant.ID != joined.Participant.ID {
		t.Errorf("reconnection returned participant %s, want %s", again.Participant.ID, joined.Participant.ID)
	}
	if got := participantCount(t, created.Session.ID); got != 2 {
		t.Errorf("participant count = %d after reconnect, want 2", got)
	}
	assertHostCount(t, created.Session.ID)
}

func TestJoinCodeIsCaseInsensitive(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)

	lower := mustJoin(t, "  "+toLower(created.Session.Code)+" ", "Sam", "")
	if lower.Outcome != OK {
		t.Errorf("lowercased code join outcome = %s, want ok", lower.Outcome)
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestJoinUnknownCode(t *testing.T) {
	setupTestDB(t)

	result := mustJoin(t, "ZZZZZZ", "Sam", "device-1")
	if result.Outcome != SessionNotFound {
		t.Errorf("outcome = %s, want session_not_found", result.Outcome)
	}
}

func TestJoinRequiresName(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)

	result := mustJoin(t, created.Session.Code, "   ", "device-1")
	if result.Outcome != ValidationFailed {
		t.Errorf("outcome = %s, want validation_error", result.Outcome)
	}
	if got := participantCount(t, created.Session.ID); got != 1 {
		t.Errorf("participant count = %d after rejected join, want 1", got)
	}
}

func TestJoinSessionFull(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 2)

	first := mustJoin(t, created.Session.Code, "Sam", "")
	if first.Outcome != OK {
		t.Fatalf("first guest outcome = %s, want ok", first.Outcome)
	}

	second := mustJoin(t, created.Session.Code, "Alex", "")
	if second.Outcome != SessionFull {
		t.Errorf("second guest outcome = %s, want session_full", second.Outcome)
	}
	if got := participantCount(t, created.Session.ID); got != 2 {
		t.Errorf("participant count = %d, want capacity 2", got)
	}
}

func TestJoinExpiredSession(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)

	err := database.DB.Model(&models.GroupSession{}).
		Where("id = ?", created.Session.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error
	if err != nil {
		t.Fatalf("backdating expiry: %v", err)
	}

	result := mustJoin(t, created.Session.Code, "Sam", "device-1")
	if result.Outcome != SessionNotFound {
		t.Errorf("outcome = %s, want session_not_found for an expired session", result.Outcome)
	}
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)

	const joiners = 8
	results := make([]*JoinResult, joiners)
	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := Join(created.Session.Code, fmt.Sprintf("Guest %d", i), fmt.Sprintf("device-%d", i))
			if err != nil {
				t.Errorf("concurrent join %d: %v", i, err)
				return
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	ok, full := 0, 0
	for _, r := range results {
		if r == nil {
			continue
		}
		switch r.Outcome {
		case OK:
			ok++
		case SessionFull:
			full++
		default:
			t.Errorf("unexpected outcome %s under concurrent joins", r.Outcome)
		}
	}
	// The host holds one of the four seats.
	if ok != 3 {
		t.Errorf("successful joins = %d, want 3", ok)
	}
	if full != 5 {
		t.Errorf("session_full outcomes = %d, want 5", full)
	}
	if got := participantCount(t, created.Session.ID); got != 4 {
		t.Errorf("participant count = %d, want max 4", got)
	}
	assertHostCount(t, created.Session.ID)
}

func TestKickFlow(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)
	guest := mustJoin(t, created.Session.Code, "Sam", "")

	item := models.StockItem{MerchantID: 1, Name: "Margherita", PriceCents: 1250, Quantity: 20, Tracked: true}
	if err := database.DB.Create(&item).Error; err != nil {
		t.Fatalf("seeding stock item: %v", err)
	}
	cart, err := UpdateCart(created.Session.Code, guest.DeviceID, []CartLineInput{{ItemID: item.ID, Quantity: 2}})
	if err != nil || cart.Outcome != OK {
		t.Fatalf("filling guest cart: outcome=%v err=%v", cart.Outcome, err)
	}

	// Unconfirmed kick of a non-empty cart: prompt, no state change.
	result, err := Kick(created.Session.Code, created.DeviceID, guest.Participant.ID, false)
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if result.Outcome != ConfirmationRequired {
		t.Fatalf("outcome = %s, want confirmation_required", result.Outcome)
	}
	if result.TargetName != "Sam" {
		t.Errorf("prompt name = %q, want Sam", result.TargetName)
	}
	if result.ItemCount != 2 {
		t.Errorf("prompt item count = %d, want 2", result.ItemCount)
	}
	if got := participantCount(t, created.Session.ID); got != 2 {
		t.Errorf("participant count = %d after prompt, want 2", got)
	}

	// Confirmed kick proceeds.
	result, err = Kick(created.Session.Code, created.DeviceID, guest.Participant.ID, true)
	if err != nil {
		t.Fatalf("confirmed kick: %v", err)
	}
	if result.Outcome != OK {
		t.Fatalf("confirmed kick outcome = %s, want ok", result.Outcome)
	}
	if got := participantCount(t, created.Session.ID); got != 1 {
		t.Errorf("participant count = %d after kick, want 1", got)
	}
	assertHostCount(t, created.Session.ID)
}

func TestKickEmptyCartSkipsConfirmation(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)
	guest := mustJoin(t, created.Session.Code, "Sam", "")

	result, err := Kick(created.Session.Code, created.DeviceID, guest.Participant.ID, false)
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if result.Outcome != OK {
		t.Errorf("outcome = %s, want ok for an empty cart without confirmation", result.Outcome)
	}
}

func TestKickRequiresHost(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)
	guestA := mustJoin(t, created.Session.Code, "Sam", "")
	guestB := mustJoin(t, created.Session.Code, "Alex", "")

	result, err := Kick(created.Session.Code, guestA.DeviceID, guestB.Participant.ID, true)
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if result.Outcome != Unauthorized {
		t.Errorf("outcome = %s, want unauthorized for a non-host caller", result.Outcome)
	}
	if got := participantCount(t, created.Session.ID); got != 3 {
		t.Errorf("participant count = %d, want 3 (nothing removed)", got)
	}

	// A device that is not in the session at all is rejected the same way.
	result, err = Kick(created.Session.Code, "stranger-device", guestB.Participant.ID, true)
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if result.Outcome != Unauthorized {
		t.Errorf("outcome = %s, want unauthorized for a stranger", result.Outcome)
	}
}

func TestKickHostRejected(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)

	result, err := Kick(created.Session.Code, created.DeviceID, created.Host.ID, true)
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if result.Outcome != InvalidOperation {
		t.Errorf("outcome = %s, want invalid_operation when targeting the host", result.Outcome)
	}
	assertHostCount(t, created.Session.ID)
}

func TestKickUnknownTarget(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)

	result, err := Kick(created.Session.Code, created.DeviceID, "no-such-participant", true)
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if result.Outcome != ParticipantNotFound {
		t.Errorf("outcome = %s, want participant_not_found", result.Outcome)
	}
}

func TestKickProceedsAfterConcurrentCartEdit(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)
	guest := mustJoin(t, created.Session.Code, "Sam", "")

	item := models.StockItem{MerchantID: 1, Name: "Tiramisu", PriceCents: 700, Quantity: 10, Tracked: true}
	if err := database.DB.Create(&item).Error; err != nil {
		t.Fatalf("seeding stock item: %v", err)
	}

	// The target adds items between the prompt and the confirmed call. The
	// confirmed kick must still proceed without re-checking emptiness.
	if _, err := Kick(created.Session.Code, created.DeviceID, guest.Participant.ID, false); err != nil {
		t.Fatalf("prompt kick: %v", err)
	}
	if _, err := UpdateCart(created.Session.Code, guest.DeviceID, []CartLineInput{{ItemID: item.ID, Quantity: 5}}); err != nil {
		t.Fatalf("cart edit: %v", err)
	}

	result, err := Kick(created.Session.Code, created.DeviceID, guest.Participant.ID, true)
	if err != nil {
		t.Fatalf("confirmed kick: %v", err)
	}
	if result.Outcome != OK {
		t.Errorf("outcome = %s, want ok despite the concurrent cart edit", result.Outcome)
	}
	if got := participantCount(t, created.Session.ID); got != 1 {
		t.Errorf("participant count = %d, want 1", got)
	}
}

func TestGuestLeave(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)
	guest := mustJoin(t, created.Session.Code, "Sam", "")

	result, err := Leave(created.Session.Code, guest.DeviceID)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if result.Outcome != OK || result.SessionClosed {
		t.Errorf("guest leave = (%s, closed=%t), want (ok, closed=false)", result.Outcome, result.SessionClosed)
	}
	if got := participantCount(t, created.Session.ID); got != 1 {
		t.Errorf("participant count = %d, want 1", got)
	}

	// The guest can rejoin afterwards; it is a fresh participant.
	rejoined := mustJoin(t, created.Session.Code, "Sam", guest.DeviceID)
	if rejoined.Outcome != OK || rejoined.IsReconnection {
		t.Errorf("rejoin after leave = (%s, reconnection=%t), want (ok, false)", rejoined.Outcome, rejoined.IsReconnection)
	}
}

func TestHostLeaveClosesSession(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 4)
	guest := mustJoin(t, created.Session.Code, "Sam", "")

	result, err := Leave(created.Session.Code, created.DeviceID)
	if err != nil {
		t.Fatalf("host leave: %v", err)
	}
	if result.Outcome != OK || !result.SessionClosed {
		t.Fatalf("host leave = (%s, closed=%t), want (ok, closed=true)", result.Outcome, result.SessionClosed)
	}

	var sess models.GroupSession
	if err := database.DB.First(&sess, created.Session.ID).Error; err != nil {
		t.Fatalf("reloading session: %v", err)
	}
	if sess.Status != models.SessionClosed {
		t.Errorf("status = %s, want CLOSED", sess.Status)
	}
	if got := participantCount(t, created.Session.ID); got != 0 {
		t.Errorf("participant count = %d after close, want 0", got)
	}

	// A closed session is never joinable again, even with a known device.
	rejoin := mustJoin(t, created.Session.Code, "Sam", guest.DeviceID)
	if rejoin.Outcome != SessionNotFound {
		t.Errorf("join after close = %s, want session_not_found", rejoin.Outcome)
	}
}

func TestCloseExpiredSweep(t *testing.T) {
	setupTestDB(t)
	stale := mustCreate(t, "Dana", 1, 4)
	fresh := mustCreate(t, "Noor", 1, 4)
	mustJoin(t, stale.Session.Code, "Sam", "")

	err := database.DB.Model(&models.GroupSession{}).
		Where("id = ?", stale.Session.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error
	if err != nil {
		t.Fatalf("backdating expiry: %v", err)
	}

	closed, err := CloseExpired()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if closed != 1 {
		t.Errorf("sweep closed %d sessions, want 1", closed)
	}
	if got := participantCount(t, stale.Session.ID); got != 0 {
		t.Errorf("stale session still has %d participants", got)
	}
	if got := participantCount(t, fresh.Session.ID); got != 1 {
		t.Errorf("fresh session lost participants, count = %d", got)
	}

	var sess models.GroupSession
	if err := database.DB.First(&sess, stale.Session.ID).Error; err != nil {
		t.Fatalf("reloading stale session: %v", err)
	}
	if sess.Status != models.SessionClosed {
		t.Errorf("stale session status = %s, want CLOSED", sess.Status)
	}
}

// TestHostGuestScenario is the end-to-end flow: host creates a two-seat
// session, guest A takes the last seat, guest B is turned away, and guest A's
// reconnection does not consume capacity.
func TestHostGuestScenario(t *testing.T) {
	setupTestDB(t)
	created := mustCreate(t, "Dana", 1, 2)

	guestA := mustJoin(t, created.Session.Code, "Sam", "")
	if guestA.Outcome != OK || guestA.IsReconnection {
		t.Fatalf("guest A join = (%s, reconnection=%t), want (ok, false)", guestA.Outcome, guestA.IsReconnection)
	}

	guestB := mustJoin(t, created.Session.Code, "Alex", "")
	if guestB.Outcome != SessionFull {
		t.Fatalf("guest B join = %s, want session_full", guestB.Outcome)
	}

	reconnected := mustJoin(t, created.Session.Code, "Sam", guestA.DeviceID)
	if reconnected.Outcome != OK || !reconnected.IsReconnection {
		t.Fatalf("guest A reconnect = (%s, reconnection=%t), want (ok, true)", reconnected.Outcome, reconnected.IsReconnection)
	}
	if got := participantCount(t, created.Session.ID); got != 2 {
		t.Errorf("participant count = %d, want unchanged 2", got)
	}
	assertHostCount(t, created.Session.ID)
}
