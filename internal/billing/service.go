package billing

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the payment ledger.
type Service interface {
	MarkPaid(ctx context.Context, accountID, paymentID uuid.UUID) (*Payment, error)
	History(ctx context.Context, accountID uuid.UUID) ([]*Detail, error)
}
