package postgres

import (
	"context"
	"errors"
	"fmt"

	"prepaid-wallet-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// ClientRepo implements ports.ClientRepository.
type ClientRepo struct {
	pool Pool
}

// NewClientRepo creates a new ClientRepo.
func NewClientRepo(pool Pool) *ClientRepo {
	return &ClientRepo{pool: pool}
}

// Create inserts a new client inside the given transaction. Registration
// inserts the client and its wallet in the same transaction, so both commit
// or neither does.
func (r *ClientRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.Client) error {
	query := `INSERT INTO clients (id, document, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, c.ID, c.Document, c.Name, c.Email, c.Phone, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByDocument fetches a client by its unique document.
func (r *ClientRepo) GetByDocument(ctx context.Context, document string) (*domain.Client, error) {
	query := `SELECT id, document, name, email, phone, created_at
		FROM clients WHERE document = $1`

	c := &domain.Client{}
	err := r.pool.QueryRow(ctx, query, document).Scan(
		&c.ID, &c.Document, &c.Name, &c.Email, &c.Phone, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by document: %w", err)
	}
	return c, nil
}

// GetByDocumentAndPhone fetches a client by the (document, phone) pair.
// Both fields must match exactly.
func (r *ClientRepo) GetByDocumentAndPhone(ctx context.Context, document, phone string) (*domain.Client, error) {
	query := `SELECT id, document, name, email, phone, created_at
		FROM clients WHERE document = $1 AND phone = $2`

	c := &domain.Client{}
	err := r.pool.QueryRow(ctx, query, document, phone).Scan(
		&c.ID, &c.Document, &c.Name, &c.Email, &c.Phone, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by document and phone: %w", err)
	}
	return c, nil
}
