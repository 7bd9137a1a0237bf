package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPendingSession_Live(t *testing.T) {
	now := time.Now().UTC()
	s := PendingSession{
		SessionID: uuid.NewString(),
		Token:     "123456",
		ExpiresAt: now.Add(SessionTTL),
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"just issued", now, true},
		{"one instant before expiry", s.ExpiresAt.Add(-time.Nanosecond), true},
		{"exactly at expiry", s.ExpiresAt, false},
		{"one instant after expiry", s.ExpiresAt.Add(time.Nanosecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Live(tt.at))
		})
	}
}

func TestWallet_Session_AbsentByDefault(t *testing.T) {
	w := &Wallet{ID: uuid.New(), ClientID: uuid.New()}

	_, ok := w.Session()
	assert.False(t, ok)
}

func TestWallet_SetSession_Overwrites(t *testing.T) {
	w := &Wallet{ID: uuid.New(), ClientID: uuid.New()}
	now := time.Now().UTC()

	first := PendingSession{SessionID: "s1", Token: "111111", ExpiresAt: now.Add(SessionTTL)}
	second := PendingSession{SessionID: "s2", Token: "222222", ExpiresAt: now.Add(SessionTTL)}

	w.SetSession(first)
	w.SetSession(second)

	got, ok := w.Session()
	assert.True(t, ok)
	assert.Equal(t, second, got, "issuing a new session must invalidate the previous one")
}

func TestWallet_ClearSession(t *testing.T) {
	w := &Wallet{ID: uuid.New(), ClientID: uuid.New()}
	w.SetSession(PendingSession{SessionID: "s1", Token: "111111", ExpiresAt: time.Now().Add(SessionTTL)})

	w.ClearSession()

	_, ok := w.Session()
	assert.False(t, ok)
	assert.Nil(t, w.PendingSessionID)
	assert.Nil(t, w.PendingToken)
	assert.Nil(t, w.TokenExpiresAt)
}
