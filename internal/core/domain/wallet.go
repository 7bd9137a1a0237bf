package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionTTL is how long an issued payment session stays valid.
const SessionTTL = 5 * time.Minute

// Wallet is the mutable balance record owned one-to-one by a client.
// Balance is in integer minor units and never goes negative. At most one
// pending session exists per wallet; issuing a new one overwrites it.
type Wallet struct {
	ID               uuid.UUID  `json:"id"`
	ClientID         uuid.UUID  `json:"client_id"`
	Balance          int64      `json:"balance"`
	PendingSessionID *string    `json:"-"`
	PendingToken     *string    `json:"-"`
	TokenExpiresAt   *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PendingSession is the short-lived (token, sessionId) pair authorizing
// exactly one pending payment confirmation.
type PendingSession struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// Live reports whether the session can still be confirmed at the given
// instant. Expiry is exclusive: a session is dead exactly at ExpiresAt.
func (s PendingSession) Live(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Session returns the pending session, if one is set on the wallet. Absence
// of a session is the all-nil state of the three pending fields.
func (w *Wallet) Session() (PendingSession, bool) {
	if w.PendingSessionID == nil || w.PendingToken == nil || w.TokenExpiresAt == nil {
		return PendingSession{}, false
	}
	return PendingSession{
		SessionID: *w.PendingSessionID,
		Token:     *w.PendingToken,
		ExpiresAt: *w.TokenExpiresAt,
	}, true
}

// SetSession places a pending session on the wallet, replacing any previous
// one. Only the newest token is ever valid.
func (w *Wallet) SetSession(s PendingSession) {
	w.PendingSessionID = &s.SessionID
	w.PendingToken = &s.Token
	w.TokenExpiresAt = &s.ExpiresAt
}

// ClearSession removes the pending session fields.
func (w *Wallet) ClearSession() {
	w.PendingSessionID = nil
	w.PendingToken = nil
	w.TokenExpiresAt = nil
}
