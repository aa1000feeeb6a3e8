package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"orderly/backend/internal/models"

	"gorm.io/gorm"
)

// codeAlphabet omits 0/O/1/I so codes survive being read out loud or
// scribbled on a napkin.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// NormalizeCode maps user input onto the canonical (uppercase) code form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomCode() (string, error) {
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// generateUniqueCode mints a code that no live OPEN session is using.
func generateUniqueCode(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		var count int64
		err = db.Model(&models.GroupSession{}).
			Where("code = ? AND status = ? AND expires_at > ?", code, models.SessionOpen, time.Now()).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique session code")
}

// codeLocks serializes session mutations per code. The capacity check and the
// participant insert must be one atomic step, and the test/deploy databases
// do not all support row locks, so serialization lives here.
var codeLocks sync.Map

func lockCode(code string) *sync.Mutex {
	mu, _ := codeLocks.LoadOrStore(code, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
