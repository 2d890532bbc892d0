package borrowing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"borrowdesk/internal/catalog"
)

// Service defines the interface for the borrow lifecycle engine.
type Service interface {
	Validate(ctx context.Context, accountID, bookID uuid.UUID) (*catalog.Book, error)
	CalculateCost(ctx context.Context, bookID uuid.UUID, numberOfDays int) (*CostBreakdown, error)
	Borrow(ctx context.Context, accountID, bookID uuid.UUID, numberOfDays int) (*Detail, error)
	SubmitReturn(ctx context.Context, accountID, borrowID uuid.UUID, returnDate time.Time) (*Detail, error)
	ListActive(ctx context.Context, accountID uuid.UUID) ([]*Detail, error)
	GetSummary(ctx context.Context, accountID, borrowID uuid.UUID) (*Detail, error)
	History(ctx context.Context, accountID uuid.UUID) ([]*Detail, error)
}
