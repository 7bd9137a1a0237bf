package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prepaid-wallet-service/internal/core/domain"
	"prepaid-wallet-service/internal/core/ports"
	"prepaid-wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// uniqueViolation reports whether err is PostgreSQL's duplicate-key error.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ClientServiceImpl implements ports.ClientService.
type ClientServiceImpl struct {
	clientRepo ports.ClientRepository
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewClientService creates a new ClientServiceImpl.
func NewClientService(
	clientRepo ports.ClientRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *ClientServiceImpl {
	return &ClientServiceImpl{
		clientRepo: clientRepo,
		walletRepo: walletRepo,
		transactor: transactor,
		log:        log,
	}
}

// Register creates a client and its zero-balance wallet in one database
// transaction. A client must never exist without a wallet.
func (s *ClientServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.Client, error) {
	existing, err := s.clientRepo.GetByDocument(ctx, req.Document)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check document: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrClientExists()
	}

	now := time.Now().UTC()
	client := &domain.Client{
		ID:        uuid.New(),
		Document:  req.Document,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: now,
	}
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		ClientID:  client.ID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.clientRepo.Create(ctx, dbTx, client); err != nil {
		// A racing register for the same document can slip past the lookup
		// above; the unique constraint catches it here.
		if uniqueViolation(err) {
			return nil, apperror.ErrClientExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create client: %w", err))
	}
	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("client_id", client.ID.String()).
		Str("document", client.Document).
		Msg("client registered")

	return client, nil
}

// Find resolves a client by (document, phone). Both fields must match.
func (s *ClientServiceImpl) Find(ctx context.Context, document, phone string) (*domain.Client, error) {
	client, err := s.clientRepo.GetByDocumentAndPhone(ctx, document, phone)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find client: %w", err))
	}
	if client == nil {
		return nil, apperror.ErrClientNotFound()
	}
	return client, nil
}
