package borrowing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"borrowdesk/internal/account"
	"borrowdesk/internal/apperr"
	"borrowdesk/internal/billing"
	"borrowdesk/internal/catalog"
)

// service implements the Service interface. Every mutating operation
// runs as one Postgres transaction: the borrow and return flows touch
// book, account, borrow and payment rows together, and none of those
// writes may land without the others.
type service struct {
	db       *sqlx.DB
	books    *catalog.Store
	accounts *account.Store
	borrows  *Store
	payments *billing.Store
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates a new borrow lifecycle engine.
func NewService(db *sqlx.DB, books *catalog.Store, accounts *account.Store, borrows *Store, payments *billing.Store) Service {
	return &service{
		db:       db,
		books:    books,
		accounts: accounts,
		borrows:  borrows,
		payments: payments,
		tracer:   otel.Tracer("borrowdesk/borrowing"),
		now:      time.Now,
	}
}

// Validate runs the borrow preconditions in order, first failure
// wins, with no side effects.
func (s *service) Validate(ctx context.Context, accountID, bookID uuid.UUID) (*catalog.Book, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.validate",
		trace.WithAttributes(
			attribute.String("account.id", accountID.String()),
			attribute.String("book.id", bookID.String()),
		),
	)
	defer span.End()

	return s.checkPreconditions(ctx, s.db, accountID, bookID)
}

// checkPreconditions is the shared validation sequence. The borrow
// operation re-runs it inside its own transaction rather than trusting
// an earlier Validate call from a separate request.
func (s *service) checkPreconditions(ctx context.Context, q sqlx.ExtContext, accountID, bookID uuid.UUID) (*catalog.Book, error) {
	book, err := s.books.GetBook(ctx, q, bookID)
	if err != nil {
		return nil, err
	}
	if !book.IsAvailable {
		return nil, apperr.New(apperr.KindConflict, "Book is not available for borrowing")
	}

	acct, err := s.accounts.Get(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	if acct.HasActiveBorrow {
		return nil, apperr.New(apperr.KindConflict, "You already have an active borrow. Please return it first.")
	}
	if acct.TotalDebt.IsPositive() {
		return nil, apperr.New(apperr.KindConflict, "You have outstanding debt. Please clear it before borrowing.")
	}

	return book, nil
}

// CalculateCost quotes the exact cost of borrowing a book for the
// given number of whole days.
func (s *service) CalculateCost(ctx context.Context, bookID uuid.UUID, numberOfDays int) (*CostBreakdown, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.calculate_cost")
	defer span.End()

	if numberOfDays <= 0 {
		return nil, apperr.New(apperr.KindValidation, "Number of days must be greater than 0")
	}
	if numberOfDays > MaxBorrowDays {
		return nil, apperr.Newf(apperr.KindValidation, "Maximum borrow period is %d days", MaxBorrowDays)
	}

	book, err := s.books.GetBook(ctx, s.db, bookID)
	if err != nil {
		return nil, err
	}

	return &CostBreakdown{
		BookTitle:     book.Title,
		PricePerDay:   book.PricePerDay,
		NumberOfDays:  numberOfDays,
		TotalCost:     Cost(book.PricePerDay, numberOfDays).StringFixed(2),
		MaxBorrowDays: MaxBorrowDays,
	}, nil
}

// Borrow creates an Active borrow with its pending payment, marks the
// book taken and opens the borrow on the account ledger, atomically.
func (s *service) Borrow(ctx context.Context, accountID, bookID uuid.UUID, numberOfDays int) (*Detail, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.borrow",
		trace.WithAttributes(
			attribute.String("account.id", accountID.String()),
			attribute.String("book.id", bookID.String()),
			attribute.Int("days", numberOfDays),
		),
	)
	defer span.End()

	if numberOfDays <= 0 || numberOfDays > MaxBorrowDays {
		return nil, apperr.Newf(apperr.KindValidation, "Number of days must be between 1 and %d", MaxBorrowDays)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	book, err := s.checkPreconditions(ctx, tx, accountID, bookID)
	if err != nil {
		return nil, err
	}

	borrowDate := s.now()
	totalCost := Cost(book.PricePerDay, numberOfDays)
	borrow := &Borrow{
		ID:            uuid.New(),
		AccountID:     accountID,
		BookID:        bookID,
		BorrowDate:    borrowDate,
		DueDate:       borrowDate.AddDate(0, 0, numberOfDays),
		NumberOfDays:  numberOfDays,
		PricePerDay:   book.PricePerDay,
		TotalCost:     totalCost,
		OverdueAmount: decimal.Zero,
		TotalAmount:   totalCost,
		Status:        StatusActive,
	}

	// The conditional book and account updates re-assert what the
	// reads above saw; a concurrent borrow that got there first makes
	// one of them touch zero rows and the whole transaction rolls back.
	if err := s.books.MarkBorrowed(ctx, tx, bookID, accountID); err != nil {
		return nil, err
	}
	if err := s.accounts.OpenBorrow(ctx, tx, accountID, totalCost); err != nil {
		return nil, err
	}
	if err := s.borrows.Insert(ctx, tx, borrow); err != nil {
		return nil, err
	}

	payment := &billing.Payment{
		ID:        uuid.New(),
		AccountID: accountID,
		BorrowID:  borrow.ID,
		Amount:    totalCost,
		Status:    billing.StatusPending,
	}
	if err := s.payments.Insert(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("failed to commit borrow", err)
	}

	logrus.WithFields(logrus.Fields{
		"borrow_id":  borrow.ID,
		"account_id": accountID,
		"book_id":    bookID,
		"days":       numberOfDays,
		"total_cost": totalCost,
	}).Info("book borrowed")

	return &Detail{
		Borrow: *borrow,
		Book: BookSummary{
			Code:        book.Code,
			Title:       book.Title,
			Author:      book.Author,
			PricePerDay: book.PricePerDay,
		},
	}, nil
}

// SubmitReturn settles an Active borrow: computes any overdue fee from
// the calendar-day gap, frees the book, closes the borrow on the
// account and re-syncs the pending payment, atomically.
func (s *service) SubmitReturn(ctx context.Context, accountID, borrowID uuid.UUID, returnDate time.Time) (*Detail, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.submit_return",
		trace.WithAttributes(
			attribute.String("account.id", accountID.String()),
			attribute.String("borrow.id", borrowID.String()),
		),
	)
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	borrow, err := s.borrows.Get(ctx, tx, borrowID)
	if err != nil {
		return nil, err
	}
	if borrow.AccountID != accountID {
		return nil, apperr.New(apperr.KindForbidden, "Not authorized to return this book")
	}
	if borrow.Status.Terminal() {
		return nil, apperr.New(apperr.KindConflict, "This borrow is already returned")
	}

	borrow.settle(returnDate)

	if err := s.borrows.MarkReturned(ctx, tx, borrow); err != nil {
		return nil, err
	}
	if err := s.books.MarkAvailable(ctx, tx, borrow.BookID); err != nil {
		return nil, err
	}
	// Debt grows by the overdue fee here so it always matches the
	// pending payment amount.
	if err := s.accounts.CloseBorrow(ctx, tx, accountID, borrow.OverdueAmount); err != nil {
		return nil, err
	}
	if err := s.payments.SyncAmount(ctx, tx, borrow.ID, borrow.TotalAmount); err != nil {
		return nil, err
	}

	book, err := s.books.GetBook(ctx, tx, borrow.BookID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("failed to commit return", err)
	}

	logrus.WithFields(logrus.Fields{
		"borrow_id":    borrow.ID,
		"account_id":   accountID,
		"status":       borrow.Status,
		"overdue_days": borrow.OverdueDays,
		"total_amount": borrow.TotalAmount,
	}).Info("book returned")

	return &Detail{
		Borrow: *borrow,
		Book: BookSummary{
			Code:        book.Code,
			Title:       book.Title,
			Author:      book.Author,
			PricePerDay: book.PricePerDay,
		},
	}, nil
}

// ListActive lists the account's open borrows, newest first.
func (s *service) ListActive(ctx context.Context, accountID uuid.UUID) ([]*Detail, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.list_active")
	defer span.End()

	return s.borrows.ListActiveByAccount(ctx, s.db, accountID)
}

// GetSummary loads one borrow, enforcing ownership.
func (s *service) GetSummary(ctx context.Context, accountID, borrowID uuid.UUID) (*Detail, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.get_summary")
	defer span.End()

	detail, err := s.borrows.GetDetail(ctx, s.db, borrowID)
	if err != nil {
		return nil, err
	}
	if detail.AccountID != accountID {
		return nil, apperr.New(apperr.KindForbidden, "Not authorized to access this borrow record")
	}
	return detail, nil
}

// History lists the account's settled borrows, most recently returned
// first.
func (s *service) History(ctx context.Context, accountID uuid.UUID) ([]*Detail, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.history")
	defer span.End()

	return s.borrows.ListHistoryByAccount(ctx, s.db, accountID)
}
