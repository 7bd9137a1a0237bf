package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is an identity record. The document is an externally assigned ID
// string and is globally unique; a client is never mutated after creation.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Document  string    `json:"document"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
