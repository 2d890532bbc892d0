package reporting

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"borrowdesk/internal/account"
	"borrowdesk/internal/billing"
	"borrowdesk/internal/borrowing"
)

const recentBorrowLimit = 5

// service implements the Service interface with pure queries over the
// existing stores; nothing here mutates.
type service struct {
	db       *sqlx.DB
	accounts *account.Store
	borrows  *borrowing.Store
	payments *billing.Store
	tracer   trace.Tracer
}

// NewService creates a new reporting service instance.
func NewService(db *sqlx.DB, accounts *account.Store, borrows *borrowing.Store, payments *billing.Store) Service {
	return &service{
		db:       db,
		accounts: accounts,
		borrows:  borrows,
		payments: payments,
		tracer:   otel.Tracer("borrowdesk/reporting"),
	}
}

func (s *service) DashboardSummary(ctx context.Context, accountID uuid.UUID) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.dashboard_summary")
	defer span.End()

	acct, err := s.accounts.Get(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}

	activeCount, err := s.borrows.CountByStatus(ctx, s.db, accountID, borrowing.StatusActive)
	if err != nil {
		return nil, err
	}
	historyCount, err := s.borrows.CountByStatus(ctx, s.db, accountID, borrowing.StatusReturned, borrowing.StatusOverdue)
	if err != nil {
		return nil, err
	}
	overdueCount, err := s.borrows.CountByStatus(ctx, s.db, accountID, borrowing.StatusOverdue)
	if err != nil {
		return nil, err
	}

	amountDue, err := s.payments.SumPendingByAccount(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}

	recent, err := s.borrows.ListRecentByAccount(ctx, s.db, accountID, recentBorrowLimit)
	if err != nil {
		return nil, err
	}

	return &Summary{
		ActiveBorrows:   activeCount,
		TotalAmountDue:  amountDue.StringFixed(2),
		Balance:         acct.Balance.StringFixed(2),
		TotalDebt:       acct.TotalDebt.StringFixed(2),
		HistoryCount:    historyCount,
		OverdueCount:    overdueCount,
		RecentBorrows:   recent,
		HasActiveBorrow: acct.HasActiveBorrow,
	}, nil
}
