package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"borrowdesk/internal/apperr"
)

// Store reads and mutates book rows. Methods take a sqlx.ExtContext so
// the lifecycle engine can run them inside its own transaction.
type Store struct{}

func NewStore() *Store { return &Store{} }

const bookColumns = `id, code, title, author, price_per_day, group_price_per_day, is_available, current_borrower, created_at, updated_at`

func (s *Store) GetBook(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*Book, error) {
	book := &Book{}
	err := sqlx.GetContext(ctx, q, book, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "Book not found")
		}
		return nil, apperr.Internal("failed to load book", err)
	}
	return book, nil
}

func (s *Store) ListBooks(ctx context.Context, q sqlx.ExtContext) ([]*Book, error) {
	var books []*Book
	err := sqlx.SelectContext(ctx, q, &books, `SELECT `+bookColumns+` FROM books ORDER BY code`)
	if err != nil {
		return nil, apperr.Internal("failed to list books", err)
	}
	return books, nil
}

func (s *Store) ListAvailableBooks(ctx context.Context, q sqlx.ExtContext) ([]*Book, error) {
	var books []*Book
	err := sqlx.SelectContext(ctx, q, &books, `SELECT `+bookColumns+` FROM books WHERE is_available ORDER BY code`)
	if err != nil {
		return nil, apperr.Internal("failed to list available books", err)
	}
	return books, nil
}

// MarkBorrowed flips the availability flag and records the borrower in
// one conditional update. The WHERE clause is the check-and-set that
// keeps two concurrent borrows of the same book from both succeeding.
func (s *Store) MarkBorrowed(ctx context.Context, q sqlx.ExtContext, bookID, accountID uuid.UUID) error {
	res, err := q.ExecContext(ctx, `
		UPDATE books
		SET is_available = FALSE, current_borrower = $2, updated_at = NOW()
		WHERE id = $1 AND is_available`, bookID, accountID)
	if err != nil {
		return apperr.Internal("failed to mark book borrowed", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("failed to mark book borrowed", err)
	}
	if affected == 0 {
		return apperr.New(apperr.KindConflict, "Book is not available")
	}
	return nil
}

// MarkAvailable clears the borrower and restores availability. It is
// unconditional so that a retried return converges on the freed state.
func (s *Store) MarkAvailable(ctx context.Context, q sqlx.ExtContext, bookID uuid.UUID) error {
	_, err := q.ExecContext(ctx, `
		UPDATE books
		SET is_available = TRUE, current_borrower = NULL, updated_at = NOW()
		WHERE id = $1`, bookID)
	if err != nil {
		return apperr.Internal("failed to mark book available", err)
	}
	return nil
}
