package postgres

import (
	"context"
	"errors"
	"fmt"

	"prepaid-wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `id, client_id, balance, pending_session_id, pending_token, token_expires_at, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.ClientID, &w.Balance,
		&w.PendingSessionID, &w.PendingToken, &w.TokenExpiresAt,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}

// Create inserts a new wallet inside the given transaction.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, client_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, w.ID, w.ClientID, w.Balance, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByClientID fetches a wallet by owner (non-locking read).
func (r *WalletRepo) GetByClientID(ctx context.Context, clientID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE client_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, clientID))
	if err != nil {
		return nil, fmt.Errorf("get wallet by client id: %w", err)
	}
	return w, nil
}

// GetByClientIDForUpdate fetches a wallet by owner with a row lock.
// Must be called within a transaction.
func (r *WalletRepo) GetByClientIDForUpdate(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE client_id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, clientID))
	if err != nil {
		return nil, fmt.Errorf("get wallet for update by client id: %w", err)
	}
	return w, nil
}

// GetBySessionID finds the wallet holding a pending session (non-locking).
func (r *WalletRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE pending_session_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		return nil, fmt.Errorf("get wallet by session id: %w", err)
	}
	return w, nil
}

// GetBySessionIDForUpdate finds the wallet holding a pending session with a
// row lock. Must be called within a transaction.
func (r *WalletRepo) GetBySessionIDForUpdate(ctx context.Context, tx pgx.Tx, sessionID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE pending_session_id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, sessionID))
	if err != nil {
		return nil, fmt.Errorf("get wallet for update by session id: %w", err)
	}
	return w, nil
}

// UpdateBalance sets the wallet balance within a transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, newBalance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// SetSession overwrites the pending session fields within a transaction.
// Any previous pending session on the wallet is replaced.
func (r *WalletRepo) SetSession(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, s domain.PendingSession) error {
	query := `UPDATE wallets
		SET pending_session_id = $1, pending_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := tx.Exec(ctx, query, s.SessionID, s.Token, s.ExpiresAt, walletID)
	if err != nil {
		return fmt.Errorf("set pending session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// DebitAndClearSession applies the new balance and clears the pending fields
// in one statement. The predicate on pending_session_id guarantees that of
// two racing confirms for the same session only one affects the row.
func (r *WalletRepo) DebitAndClearSession(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, sessionID string, newBalance int64) error {
	query := `UPDATE wallets
		SET balance = $1, pending_session_id = NULL, pending_token = NULL, token_expires_at = NULL, updated_at = NOW()
		WHERE id = $2 AND pending_session_id = $3`

	tag, err := tx.Exec(ctx, query, newBalance, walletID, sessionID)
	if err != nil {
		return fmt.Errorf("debit and clear session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending session %s no longer on wallet %s", sessionID, walletID)
	}
	return nil
}
