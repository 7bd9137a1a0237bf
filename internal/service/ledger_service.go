package service

import (
	"context"
	"fmt"
	"time"

	"prepaid-wallet-service/internal/core/domain"
	"prepaid-wallet-service/internal/core/ports"
	"prepaid-wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService. Every mutation runs in a
// database transaction holding a row lock on the wallet, so concurrent
// operations on the same wallet serialize and no update is ever lost.
type LedgerServiceImpl struct {
	clientRepo ports.ClientRepository
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
	now        func() time.Time
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	clientRepo ports.ClientRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		clientRepo: clientRepo,
		walletRepo: walletRepo,
		transactor: transactor,
		log:        log,
		now:        time.Now,
	}
}

func (s *LedgerServiceImpl) resolveClient(ctx context.Context, document, phone string) (*domain.Client, error) {
	client, err := s.clientRepo.GetByDocumentAndPhone(ctx, document, phone)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve client: %w", err))
	}
	if client == nil {
		return nil, apperror.ErrClientNotFound()
	}
	return client, nil
}

// Recharge adds amount to the client's wallet under a row lock and returns
// the new balance.
func (s *LedgerServiceImpl) Recharge(ctx context.Context, document, phone string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}

	client, err := s.resolveClient(ctx, document, phone)
	if err != nil {
		return 0, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByClientIDForUpdate(ctx, dbTx, client.ID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return 0, apperror.ErrWalletNotFound()
	}

	newBalance := wallet.Balance + amount
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("client_id", client.ID.String()).
		Int64("amount", amount).
		Int64("new_balance", newBalance).
		Msg("wallet recharged")

	return newBalance, nil
}

// IssueSession mints a fresh random token and session id on the client's
// wallet, replacing any previous pending session. The expiry is a fixed
// window from issuance.
func (s *LedgerServiceImpl) IssueSession(ctx context.Context, document, phone string) (*ports.IssuedSession, error) {
	client, err := s.resolveClient(ctx, document, phone)
	if err != nil {
		return nil, err
	}

	token, err := newNumericToken()
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	session := domain.PendingSession{
		SessionID: uuid.NewString(),
		Token:     token,
		ExpiresAt: s.now().UTC().Add(domain.SessionTTL),
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByClientIDForUpdate(ctx, dbTx, client.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	if err := s.walletRepo.SetSession(ctx, dbTx, wallet.ID, session); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("set session: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("client_id", client.ID.String()).
		Str("session_id", session.SessionID).
		Time("expires_at", session.ExpiresAt).
		Msg("payment session issued")

	return &ports.IssuedSession{
		SessionID: session.SessionID,
		Token:     session.Token,
		Email:     client.Email,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// VerifySession checks that (sessionID, token) matches an unexpired pending
// session. A wrong token and an expired one collapse into the same error so
// the response doesn't reveal which half of the guess failed. The session is
// not consumed here; clearing happens atomically with the debit.
func (s *LedgerServiceImpl) VerifySession(ctx context.Context, sessionID, token string) error {
	wallet, err := s.walletRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find session: %w", err))
	}
	if wallet == nil {
		return apperror.ErrInvalidToken()
	}

	session, ok := wallet.Session()
	if !ok || session.Token != token || !session.Live(s.now().UTC()) {
		return apperror.ErrInvalidToken()
	}
	return nil
}

// Debit decrements the balance and clears the pending session in one
// row-locked mutation. A concurrent duplicate confirm for the same session
// observes the cleared session and fails with WALLET_NOT_FOUND. On
// insufficient funds the session stays pending so a smaller amount can be
// retried before expiry.
func (s *LedgerServiceImpl) Debit(ctx context.Context, sessionID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetBySessionIDForUpdate(ctx, dbTx, sessionID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return 0, apperror.ErrWalletNotFound()
	}

	if wallet.Balance < amount {
		return 0, apperror.ErrInsufficientFunds()
	}

	newBalance := wallet.Balance - amount
	if err := s.walletRepo.DebitAndClearSession(ctx, dbTx, wallet.ID, sessionID, newBalance); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("debit wallet: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("session_id", sessionID).
		Int64("amount", amount).
		Int64("new_balance", newBalance).
		Msg("payment debited")

	return newBalance, nil
}

// GetBalance returns the wallet balance for the client identified by
// (document, phone).
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, document, phone string) (int64, error) {
	client, err := s.resolveClient(ctx, document, phone)
	if err != nil {
		return 0, err
	}

	wallet, err := s.walletRepo.GetByClientID(ctx, client.ID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return 0, apperror.ErrWalletNotFound()
	}
	return wallet.Balance, nil
}
