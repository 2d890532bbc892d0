package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for catalog reads.
type Service interface {
	ListBooks(ctx context.Context) ([]*Book, error)
	ListAvailableBooks(ctx context.Context) ([]*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
}
