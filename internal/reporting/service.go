package reporting

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the read-only reporting views.
type Service interface {
	DashboardSummary(ctx context.Context, accountID uuid.UUID) (*Summary, error)
}
