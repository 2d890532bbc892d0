package borrowing

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"borrowdesk/internal/account"
	"borrowdesk/internal/apperr"
	"borrowdesk/internal/billing"
	"borrowdesk/internal/catalog"
)

var (
	testAccountID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testBookID    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testBorrowID  = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	testNow       = time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC)
)

func newTestService(t *testing.T) (*service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := &service{
		db:       sqlx.NewDb(db, "sqlmock"),
		books:    catalog.NewStore(),
		accounts: account.NewStore(),
		borrows:  NewStore(),
		payments: billing.NewStore(),
		tracer:   otel.Tracer("test"),
		now:      func() time.Time { return testNow },
	}
	return svc, mock
}

var bookCols = []string{"id", "code", "title", "author", "price_per_day", "group_price_per_day", "is_available", "current_borrower", "created_at", "updated_at"}

func bookRow(available bool) *sqlmock.Rows {
	var borrower any
	if !available {
		borrower = testAccountID.String()
	}
	return sqlmock.NewRows(bookCols).AddRow(
		testBookID.String(), "B001", "To Kill a Mockingbird", "Harper Lee",
		"2.50", "1.80", available, borrower, testNow, testNow)
}

var accountCols = []string{"id", "name", "email", "student_id", "total_debt", "balance", "has_active_borrow", "created_at", "updated_at"}

func accountRow(debt string, hasActive bool) *sqlmock.Rows {
	return sqlmock.NewRows(accountCols).AddRow(
		testAccountID.String(), "Jordan Reyes", "jordan@example.edu", "S1001",
		debt, "0", hasActive, testNow, testNow)
}

var borrowCols = []string{"id", "account_id", "book_id", "borrow_date", "due_date", "return_date",
	"number_of_days", "price_per_day", "total_cost", "overdue_days", "overdue_amount",
	"total_amount", "status", "created_at", "updated_at"}

func activeBorrowRow(ownerID uuid.UUID, dueDate time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(borrowCols).AddRow(
		testBorrowID.String(), ownerID.String(), testBookID.String(),
		dueDate.AddDate(0, 0, -5), dueDate, nil,
		5, "2.50", "12.50", 0, "0", "12.50", "Active", testNow, testNow)
}

func TestBorrowCreatesAllRecords(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(bookRow(true))
	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id`).WillReturnRows(accountRow("0", false))
	mock.ExpectExec(`UPDATE books`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE accounts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO borrows`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO payments`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	detail, err := svc.Borrow(context.Background(), testAccountID, testBookID, 5)

	require.NoError(t, err)
	assert.Equal(t, StatusActive, detail.Status)
	assert.Equal(t, testNow, detail.BorrowDate)
	assert.Equal(t, testNow.AddDate(0, 0, 5), detail.DueDate)
	assert.True(t, detail.TotalCost.Equal(decimal.RequireFromString("12.50")), "got %s", detail.TotalCost)
	assert.True(t, detail.TotalAmount.Equal(detail.TotalCost))
	assert.Equal(t, "To Kill a Mockingbird", detail.Book.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrowRejectsDaysOutOfRange(t *testing.T) {
	svc, _ := newTestService(t)

	for _, days := range []int{0, -1, 31} {
		_, err := svc.Borrow(context.Background(), testAccountID, testBookID, days)
		require.Error(t, err, "days=%d", days)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestBorrowRejectsUnavailableBook(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(bookRow(false))
	mock.ExpectRollback()

	_, err := svc.Borrow(context.Background(), testAccountID, testBookID, 5)

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrowRejectsActiveBorrow(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(bookRow(true))
	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id`).WillReturnRows(accountRow("0", true))
	mock.ExpectRollback()

	_, err := svc.Borrow(context.Background(), testAccountID, testBookID, 5)

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, apperr.MessageOf(err), "active borrow")
}

func TestBorrowRejectsOutstandingDebt(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(bookRow(true))
	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id`).WillReturnRows(accountRow("15.00", false))
	mock.ExpectRollback()

	_, err := svc.Borrow(context.Background(), testAccountID, testBookID, 5)

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, apperr.MessageOf(err), "outstanding debt")
}

func TestBorrowRejectsWhenBookTakenConcurrently(t *testing.T) {
	svc, mock := newTestService(t)

	// Validation sees the book as free, but the conditional update
	// loses the race and touches zero rows.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(bookRow(true))
	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id`).WillReturnRows(accountRow("0", false))
	mock.ExpectExec(`UPDATE books`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Borrow(context.Background(), testAccountID, testBookID, 5)

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateBookNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(sqlmock.NewRows(bookCols))

	_, err := svc.Validate(context.Background(), testAccountID, testBookID)

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestValidateReadOnly(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(bookRow(true))
	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id`).WillReturnRows(accountRow("0", false))

	book, err := svc.Validate(context.Background(), testAccountID, testBookID)

	require.NoError(t, err)
	assert.Equal(t, "To Kill a Mockingbird", book.Title)
	// No further expectations: validate must not write anything.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalculateCost(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(bookRow(true))

	breakdown, err := svc.CalculateCost(context.Background(), testBookID, 5)

	require.NoError(t, err)
	assert.Equal(t, "12.50", breakdown.TotalCost)
	assert.Equal(t, 5, breakdown.NumberOfDays)
	assert.Equal(t, MaxBorrowDays, breakdown.MaxBorrowDays)
}

func TestCalculateCostRejectsOutOfRange(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CalculateCost(context.Background(), testBookID, 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CalculateCost(context.Background(), testBookID, MaxBorrowDays+1)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSubmitReturnOnTime(t *testing.T) {
	svc, mock := newTestService(t)
	dueDate := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM borrows b WHERE b.id`).WillReturnRows(activeBorrowRow(testAccountID, dueDate))
	mock.ExpectExec(`UPDATE borrows`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE books`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE accounts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(bookRow(true))
	mock.ExpectCommit()

	detail, err := svc.SubmitReturn(context.Background(), testAccountID, testBorrowID, dueDate.AddDate(0, 0, -1))

	require.NoError(t, err)
	assert.Equal(t, StatusReturned, detail.Status)
	assert.Equal(t, 0, detail.OverdueDays)
	assert.True(t, detail.OverdueAmount.IsZero())
	assert.True(t, detail.TotalAmount.Equal(decimal.RequireFromString("12.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReturnOverdue(t *testing.T) {
	svc, mock := newTestService(t)
	dueDate := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM borrows b WHERE b.id`).WillReturnRows(activeBorrowRow(testAccountID, dueDate))
	mock.ExpectExec(`UPDATE borrows`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE books`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE accounts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(bookRow(true))
	mock.ExpectCommit()

	detail, err := svc.SubmitReturn(context.Background(), testAccountID, testBorrowID, dueDate.AddDate(0, 0, 2))

	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, detail.Status)
	assert.Equal(t, 2, detail.OverdueDays)
	assert.True(t, detail.OverdueAmount.Equal(decimal.RequireFromString("2.50")), "got %s", detail.OverdueAmount)
	assert.True(t, detail.TotalAmount.Equal(decimal.RequireFromString("15.00")), "got %s", detail.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReturnForbiddenForOtherAccount(t *testing.T) {
	svc, mock := newTestService(t)
	dueDate := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	otherAccount := uuid.MustParse("44444444-4444-4444-4444-444444444444")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM borrows b WHERE b.id`).WillReturnRows(activeBorrowRow(otherAccount, dueDate))
	mock.ExpectRollback()

	_, err := svc.SubmitReturn(context.Background(), testAccountID, testBorrowID, dueDate)

	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestSubmitReturnRejectsSettledBorrow(t *testing.T) {
	svc, mock := newTestService(t)
	dueDate := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	returned := sqlmock.NewRows(borrowCols).AddRow(
		testBorrowID.String(), testAccountID.String(), testBookID.String(),
		dueDate.AddDate(0, 0, -5), dueDate, dueDate,
		5, "2.50", "12.50", 0, "0", "12.50", "Returned", testNow, testNow)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM borrows b WHERE b.id`).WillReturnRows(returned)
	mock.ExpectRollback()

	_, err := svc.SubmitReturn(context.Background(), testAccountID, testBorrowID, dueDate)

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, apperr.MessageOf(err), "already returned")
}
