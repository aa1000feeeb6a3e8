package session

import (
	"time"

	"orderly/backend/internal/models"
)

// Outcome tags the result of a coordinator operation. Coordinator calls never
// signal policy rejections through errors: callers branch on the tag, and the
// error return is reserved for unexpected storage faults.
type Outcome string

const (
	OK                   Outcome = "ok"
	RateLimited          Outcome = "rate_limited"
	SessionNotFound      Outcome = "session_not_found"
	SessionFull          Outcome = "session_full"
	ParticipantNotFound  Outcome = "participant_not_found"
	Unauthorized         Outcome = "unauthorized"
	InvalidOperation     Outcome = "invalid_operation"
	ConfirmationRequired Outcome = "confirmation_required"
	ValidationFailed     Outcome = "validation_error"
)

// CreateResult is returned by Create. DeviceID is minted server-side for the
// host; the client stores it locally and presents it on reconnect.
type CreateResult struct {
	Session  *models.GroupSession
	Host     *models.Participant
	DeviceID string
}

// JoinResult is returned by Join.
type JoinResult struct {
	Outcome        Outcome
	Session        *models.GroupSession
	Participant    *models.Participant
	DeviceID       string
	IsReconnection bool
	// RetryAfter is set when Outcome is RateLimited.
	RetryAfter time.Duration
}

// KickResult is returned by Kick. When Outcome is ConfirmationRequired the
// target's name and cart item count are carried so the client can re-prompt.
type KickResult struct {
	Outcome    Outcome
	TargetName string
	ItemCount  int
}

// LeaveResult is returned by Leave. SessionClosed reports whether the leaving
// participant was the host, which closes the whole session.
type LeaveResult struct {
	Outcome       Outcome
	SessionClosed bool
}

// CartResult is returned by UpdateCart.
type CartResult struct {
	Outcome     Outcome
	Participant *models.Participant
	// TotalCents is the session-level total after the update.
	TotalCents int64
}
