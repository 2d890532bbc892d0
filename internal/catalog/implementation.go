package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// service implements the Service interface.
type service struct {
	db    *sqlx.DB
	store *Store
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB, store *Store) Service {
	return &service{db: db, store: store}
}

func (s *service) ListBooks(ctx context.Context) ([]*Book, error) {
	return s.store.ListBooks(ctx, s.db)
}

func (s *service) ListAvailableBooks(ctx context.Context) ([]*Book, error) {
	return s.store.ListAvailableBooks(ctx, s.db)
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	return s.store.GetBook(ctx, s.db, id)
}
