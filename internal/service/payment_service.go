package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"prepaid-wallet-service/internal/core/ports"
	"prepaid-wallet-service/pkg/apperror"

	"github.com/rs/zerolog"
)

const confirmIdempotencyTTL = 24 * time.Hour

// PaymentServiceImpl implements ports.PaymentService. It holds no state of
// its own between calls; the pending session on the wallet record is the only
// durable trace of an in-flight payment.
type PaymentServiceImpl struct {
	ledger     ports.LedgerService
	notifier   ports.Notifier
	idempCache ports.IdempotencyCache
	log        zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl. idempCache may be nil,
// which disables confirm replay caching.
func NewPaymentService(
	ledger ports.LedgerService,
	notifier ports.Notifier,
	idempCache ports.IdempotencyCache,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		ledger:     ledger,
		notifier:   notifier,
		idempCache: idempCache,
		log:        log,
	}
}

// Initiate issues a payment session on the client's wallet and dispatches the
// token to the client's registered email. The token never travels back to the
// caller; only the session id does. Notifier failure is logged and does not
// roll back the issued session — the client can still confirm with a token
// obtained through a resend or another channel.
func (s *PaymentServiceImpl) Initiate(ctx context.Context, req ports.InitiateRequest) (*ports.InitiateResult, error) {
	session, err := s.ledger.IssueSession(ctx, req.Document, req.Phone)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.SendToken(ctx, session.Email, session.Token, session.SessionID); err != nil {
		s.log.Warn().
			Err(err).
			Str("session_id", session.SessionID).
			Msg("token delivery failed, session remains valid")
	}

	s.log.Info().
		Str("session_id", session.SessionID).
		Int64("amount", req.Amount).
		Msg("payment initiated")

	return &ports.InitiateResult{SessionID: session.SessionID}, nil
}

// Confirm verifies the presented token and applies the debit. Verification
// failure is terminal for the attempt; insufficient funds leaves the session
// pending for a retry before expiry.
func (s *PaymentServiceImpl) Confirm(ctx context.Context, req ports.ConfirmRequest) (*ports.ConfirmResult, error) {
	if req.IdempotencyKey != "" && s.idempCache != nil {
		cached, err := s.idempCache.Get(ctx, req.IdempotencyKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", req.IdempotencyKey).Msg("idempotency check failed, executing confirm")
		}
		if cached != nil {
			result := &ports.ConfirmResult{}
			if err := json.Unmarshal(cached, result); err != nil {
				return nil, apperror.InternalError(fmt.Errorf("unmarshal cached confirm: %w", err))
			}
			return result, nil
		}
	}

	if err := s.ledger.VerifySession(ctx, req.SessionID, req.Token); err != nil {
		return nil, err
	}

	newBalance, err := s.ledger.Debit(ctx, req.SessionID, req.Amount)
	if err != nil {
		return nil, err
	}

	result := &ports.ConfirmResult{NewBalance: newBalance}

	if req.IdempotencyKey != "" && s.idempCache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.idempCache.Set(ctx, req.IdempotencyKey, data, confirmIdempotencyTTL); err != nil {
				s.log.Warn().Err(err).Str("key", req.IdempotencyKey).Msg("failed to cache confirm result")
			}
		}
	}

	s.log.Info().
		Str("session_id", req.SessionID).
		Int64("amount", req.Amount).
		Int64("new_balance", newBalance).
		Msg("payment confirmed")

	return result, nil
}
