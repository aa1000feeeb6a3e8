package session

import (
	"time"

	"orderly/backend/internal/config"
	"orderly/backend/internal/database"
	"orderly/backend/internal/models"
)

// RateLimitVerdict is the answer of the join rate limiter for one device.
type RateLimitVerdict struct {
	Allowed    bool
	RetryAfter time.Duration
}

func rateWindow() time.Duration {
	if config.AppConfig != nil && config.AppConfig.JoinRateWindowSeconds > 0 {
		return time.Duration(config.AppConfig.JoinRateWindowSeconds) * time.Second
	}
	return 60 * time.Second
}

func rateMaxFailures() int {
	if config.AppConfig != nil && config.AppConfig.JoinRateMaxFailures > 0 {
		return config.AppConfig.JoinRateMaxFailures
	}
	return 3
}

// CheckJoinRate counts a device's failed join attempts within the sliding
// window. Once the count reaches the threshold the device is rejected with
// the wait until the oldest relevant failure ages out of the window.
func CheckJoinRate(deviceID string) (RateLimitVerdict, error) {
	window := rateWindow()
	max := rateMaxFailures()
	now := time.Now()

	var attempts []models.JoinAttempt
	err := database.DB.
		Where("device_id = ? AND succeeded = ? AND created_at > ?", deviceID, false, now.Add(-window)).
		Order("created_at asc").
		Find(&attempts).Error
	if err != nil {
		return RateLimitVerdict{}, err
	}

	if len(attempts) < max {
		return RateLimitVerdict{Allowed: true}, nil
	}

	// The device is allowed again once enough failures slide out of the
	// window that fewer than max remain.
	gate := attempts[len(attempts)-max].CreatedAt.Add(window)
	retryAfter := gate.Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return RateLimitVerdict{Allowed: false, RetryAfter: retryAfter}, nil
}

// RecordJoinAttempt appends one row to the join ledger after the outcome of a
// join is known. Succeeded means the code resolved to a live session, so
// failed guesses count toward the limit and correct codes do not.
func RecordJoinAttempt(deviceID, attemptedCode string, succeeded bool) error {
	attempt := models.JoinAttempt{
		DeviceID:      deviceID,
		AttemptedCode: attemptedCode,
		Succeeded:     succeeded,
	}
	return database.DB.Create(&attempt).Error
}

// PruneJoinAttempts deletes ledger rows that can no longer influence any
// sliding-window count. Maintenance only; correctness never depends on it.
func PruneJoinAttempts() error {
	cutoff := time.Now().Add(-rateWindow())
	return database.DB.
		Where("created_at < ?", cutoff).
		Delete(&models.JoinAttempt{}).Error
}
