package ports

import (
	"context"
	"time"

	"prepaid-wallet-service/internal/core/domain"
)

// ClientService handles client registration and identity lookup.
type ClientService interface {
	// Register creates the client and its zero-balance wallet atomically.
	Register(ctx context.Context, req RegisterRequest) (*domain.Client, error)
	// Find resolves a client by (document, phone). Presenting both fields is
	// the ownership check for every wallet operation.
	Find(ctx context.Context, document, phone string) (*domain.Client, error)
}

// RegisterRequest holds validated input for client registration.
type RegisterRequest struct {
	Document string
	Name     string
	Email    string
	Phone    string
}

// LedgerService owns the wallet balance and the pending-session lifecycle.
// This is where all balance invariants are enforced.
type LedgerService interface {
	// Recharge adds amount to the wallet and returns the new balance.
	Recharge(ctx context.Context, document, phone string, amount int64) (int64, error)
	// IssueSession mints a fresh (sessionId, token) pair on the client's
	// wallet, overwriting any previous pending session.
	IssueSession(ctx context.Context, document, phone string) (*IssuedSession, error)
	// VerifySession checks that sessionID and token match an unexpired pending
	// session. It does not consume the session; clearing happens atomically
	// with the debit.
	VerifySession(ctx context.Context, sessionID, token string) error
	// Debit atomically decrements the balance and clears the pending session.
	// On insufficient funds the session is left pending so the caller can
	// retry before expiry.
	Debit(ctx context.Context, sessionID string, amount int64) (int64, error)
	// GetBalance returns the wallet balance for an authorized read.
	GetBalance(ctx context.Context, document, phone string) (int64, error)
}

// IssuedSession is the result of minting a payment session. Token is the
// bearer secret: it travels only through the notifier, never back to the
// initiating caller. Email is the registered delivery address.
type IssuedSession struct {
	SessionID string
	Token     string
	Email     string
	ExpiresAt time.Time
}

// PaymentService orchestrates the two-phase payment protocol. It is stateless
// between calls; all durable state lives on the wallet record.
type PaymentService interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error)
}

// InitiateRequest holds validated input for payment initiation. Amount is
// accepted but not pinned to the session; the debited amount is the one
// presented at confirmation.
type InitiateRequest struct {
	Document string
	Phone    string
	Amount   int64
}

// InitiateResult carries the correlation handle returned to the caller.
type InitiateResult struct {
	SessionID string `json:"sessionId"`
}

// ConfirmRequest holds validated input for payment confirmation.
// IdempotencyKey is optional; when set, a duplicate confirm with the same key
// replays the earlier result instead of re-executing.
type ConfirmRequest struct {
	SessionID      string
	Token          string
	Amount         int64
	IdempotencyKey string
}

// ConfirmResult carries the balance after a successful debit.
type ConfirmResult struct {
	NewBalance int64 `json:"newBalance"`
}

// Notifier delivers a one-time token to a client's registered address.
// Delivery failure is reportable but non-fatal to the payment flow.
type Notifier interface {
	SendToken(ctx context.Context, email, token, sessionID string) error
}

// IdempotencyCache is a best-effort replay cache for confirm responses.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
