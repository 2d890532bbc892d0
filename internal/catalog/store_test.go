package catalog

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

	"borrowdesk/internal/apperr"
)

var (
	testBookID    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testAccountID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testNow       = time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
)

func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var bookCols = []string{"id", "code", "title", "author", "price_per_day", "group_price_per_day", "is_available", "current_borrower", "created_at", "updated_at"}

func TestGetBook(t *testing.T) {
	db, mock := newTestDB(t)
	store := NewStore()

	rows := sqlmock.NewRows(bookCols).AddRow(
		testBookID.String(), "B002", "1984", "George Orwell",
		"3.00", "2.20", true, nil, testNow, testNow)
	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(rows)

	book, err := store.GetBook(context.Background(), db, testBookID)

	require.NoError(t, err)
	assert.Equal(t, "1984", book.Title)
	assert.True(t, book.PricePerDay.Equal(decimal.RequireFromString("3.00")))
	assert.True(t, book.IsAvailable)
	assert.Nil(t, book.CurrentBorrower)
}

func TestGetBookNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	store := NewStore()

	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id`).WillReturnRows(sqlmock.NewRows(bookCols))

	_, err := store.GetBook(context.Background(), db, testBookID)

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMarkBorrowedLosesRace(t *testing.T) {
	db, mock := newTestDB(t)
	store := NewStore()

	mock.ExpectExec(`UPDATE books`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkBorrowed(context.Background(), db, testBookID, testAccountID)

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestMarkBorrowedFlipsAvailability(t *testing.T) {
	db, mock := newTestDB(t)
	store := NewStore()

	mock.ExpectExec(`UPDATE books SET is_available = FALSE`).WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.MarkBorrowed(context.Background(), db, testBookID, testAccountID)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailableBooks(t *testing.T) {
	db, mock := newTestDB(t)
	store := NewStore()

	rows := sqlmock.NewRows(bookCols).
		AddRow(testBookID.String(), "B002", "1984", "George Orwell", "3.00", "2.20", true, nil, testNow, testNow).
		AddRow(uuid.New().String(), "B003", "Pride and Prejudice", "Jane Austen", "2.00", "1.50", true, nil, testNow, testNow)
	mock.ExpectQuery(`SELECT (.+) FROM books WHERE is_available`).WillReturnRows(rows)

	books, err := store.ListAvailableBooks(context.Background(), db)

	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "B002", books[0].Code)
}
