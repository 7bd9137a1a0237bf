package ports

import (
	"context"

	"prepaid-wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ClientRepository defines persistence operations for client identity records.
// Methods accepting pgx.Tx run inside transaction blocks so client and wallet
// creation commit as one unit.
type ClientRepository interface {
	Create(ctx context.Context, tx pgx.Tx, client *domain.Client) error
	GetByDocument(ctx context.Context, document string) (*domain.Client, error)
	GetByDocumentAndPhone(ctx context.Context, document, phone string) (*domain.Client, error)
}

// WalletRepository defines persistence operations for wallets. All mutations
// take a pgx.Tx and expect the wallet row to be locked via a ForUpdate getter
// in the same transaction.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByClientID(ctx context.Context, clientID uuid.UUID) (*domain.Wallet, error)
	GetByClientIDForUpdate(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) (*domain.Wallet, error)
	// GetBySessionID finds the wallet holding the given pending session
	// without locking. Returns nil if no wallet has that session (never
	// issued, already consumed, or overwritten).
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Wallet, error)
	// GetBySessionIDForUpdate is the locking variant used inside the debit
	// transaction.
	GetBySessionIDForUpdate(ctx context.Context, tx pgx.Tx, sessionID string) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error
	SetSession(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, session domain.PendingSession) error
	// DebitAndClearSession applies the new balance and clears the pending
	// fields in a single statement predicated on the session still being
	// present, so a concurrent duplicate confirm cannot also succeed.
	DebitAndClearSession(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, sessionID string, newBalance int64) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
