package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"prepaid-wallet-service/internal/core/ports"
	"prepaid-wallet-service/internal/core/ports/mocks"
	"prepaid-wallet-service/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type paymentTestDeps struct {
	svc        *PaymentServiceImpl
	ledger     *mocks.MockLedgerService
	notifier   *mocks.MockNotifier
	idempCache *mocks.MockIdempotencyCache
	ctrl       *gomock.Controller
}

func setupPaymentService(t *testing.T) *paymentTestDeps {
	ctrl := gomock.NewController(t)
	d := &paymentTestDeps{
		ledger:     mocks.NewMockLedgerService(ctrl),
		notifier:   mocks.NewMockNotifier(ctrl),
		idempCache: mocks.NewMockIdempotencyCache(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewPaymentService(d.ledger, d.notifier, d.idempCache, zerolog.Nop())
	return d
}

// ==================== Initiate ====================

func TestPaymentService_Initiate_Success(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	issued := &ports.IssuedSession{
		SessionID: "sess-1",
		Token:     "123456",
		Email:     "a@x.com",
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}

	d.ledger.EXPECT().IssueSession(ctx, "A1", "555").Return(issued, nil)
	d.notifier.EXPECT().SendToken(ctx, "a@x.com", "123456", "sess-1").Return(nil)

	result, err := d.svc.Initiate(ctx, ports.InitiateRequest{Document: "A1", Phone: "555", Amount: 40})
	require.NoError(t, err)
	// The caller gets the correlation handle only; the token travels through
	// the notifier alone.
	assert.Equal(t, "sess-1", result.SessionID)
}

func TestPaymentService_Initiate_NotifierFailureIsNonFatal(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	issued := &ports.IssuedSession{SessionID: "sess-2", Token: "654321", Email: "a@x.com"}

	d.ledger.EXPECT().IssueSession(ctx, "A1", "555").Return(issued, nil)
	d.notifier.EXPECT().SendToken(ctx, "a@x.com", "654321", "sess-2").Return(fmt.Errorf("smtp: connection refused"))

	result, err := d.svc.Initiate(ctx, ports.InitiateRequest{Document: "A1", Phone: "555", Amount: 40})
	require.NoError(t, err, "delivery failure must not roll back the issued session")
	assert.Equal(t, "sess-2", result.SessionID)
}

func TestPaymentService_Initiate_ClientNotFound(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ledger.EXPECT().IssueSession(ctx, "A1", "000").Return(nil, apperror.ErrClientNotFound())
	// Notifier must not be touched when issuance fails.

	result, err := d.svc.Initiate(ctx, ports.InitiateRequest{Document: "A1", Phone: "000", Amount: 40})
	assert.Nil(t, result)
	assertAppError(t, err, "CLIENT_NOT_FOUND")
}

// ==================== Confirm ====================

func TestPaymentService_Confirm_Success(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ledger.EXPECT().VerifySession(ctx, "sess-1", "123456").Return(nil)
	d.ledger.EXPECT().Debit(ctx, "sess-1", int64(40)).Return(int64(60), nil)

	result, err := d.svc.Confirm(ctx, ports.ConfirmRequest{SessionID: "sess-1", Token: "123456", Amount: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(60), result.NewBalance)
}

func TestPaymentService_Confirm_InvalidToken(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ledger.EXPECT().VerifySession(ctx, "sess-1", "000000").Return(apperror.ErrInvalidToken())
	// Debit must not run after a failed verification.

	result, err := d.svc.Confirm(ctx, ports.ConfirmRequest{SessionID: "sess-1", Token: "000000", Amount: 40})
	assert.Nil(t, result)
	assertAppError(t, err, "INVALID_TOKEN")
}

func TestPaymentService_Confirm_InsufficientFunds(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ledger.EXPECT().VerifySession(ctx, "sess-1", "123456").Return(nil)
	d.ledger.EXPECT().Debit(ctx, "sess-1", int64(50)).Return(int64(0), apperror.ErrInsufficientFunds())

	result, err := d.svc.Confirm(ctx, ports.ConfirmRequest{SessionID: "sess-1", Token: "123456", Amount: 50})
	assert.Nil(t, result)
	assertAppError(t, err, "INSUFFICIENT_FUNDS")
}

func TestPaymentService_Confirm_SessionConsumed(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ledger.EXPECT().VerifySession(ctx, "sess-1", "123456").Return(apperror.ErrInvalidToken())

	_, err := d.svc.Confirm(ctx, ports.ConfirmRequest{SessionID: "sess-1", Token: "123456", Amount: 40})
	assertAppError(t, err, "INVALID_TOKEN")
}

func TestPaymentService_Confirm_IdempotentReplay(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	cached, _ := json.Marshal(ports.ConfirmResult{NewBalance: 60})
	d.idempCache.EXPECT().Get(ctx, "key-1").Return(cached, nil)
	// No ledger calls: the replay short-circuits the whole confirm.

	result, err := d.svc.Confirm(ctx, ports.ConfirmRequest{
		SessionID:      "sess-1",
		Token:          "123456",
		Amount:         40,
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(60), result.NewBalance)
}

func TestPaymentService_Confirm_CachesResult(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.idempCache.EXPECT().Get(ctx, "key-2").Return(nil, nil)
	d.ledger.EXPECT().VerifySession(ctx, "sess-1", "123456").Return(nil)
	d.ledger.EXPECT().Debit(ctx, "sess-1", int64(40)).Return(int64(60), nil)
	d.idempCache.EXPECT().Set(ctx, "key-2", gomock.Any(), confirmIdempotencyTTL).Return(nil)

	result, err := d.svc.Confirm(ctx, ports.ConfirmRequest{
		SessionID:      "sess-1",
		Token:          "123456",
		Amount:         40,
		IdempotencyKey: "key-2",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(60), result.NewBalance)
}

func TestPaymentService_Confirm_CacheErrorFallsThrough(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.idempCache.EXPECT().Get(ctx, "key-3").Return(nil, fmt.Errorf("redis: connection refused"))
	d.ledger.EXPECT().VerifySession(ctx, "sess-1", "123456").Return(nil)
	d.ledger.EXPECT().Debit(ctx, "sess-1", int64(40)).Return(int64(60), nil)
	d.idempCache.EXPECT().Set(ctx, "key-3", gomock.Any(), confirmIdempotencyTTL).Return(nil)

	result, err := d.svc.Confirm(ctx, ports.ConfirmRequest{
		SessionID:      "sess-1",
		Token:          "123456",
		Amount:         40,
		IdempotencyKey: "key-3",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(60), result.NewBalance)
}
