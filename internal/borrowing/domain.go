package borrowing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxBorrowDays is the longest allowed borrow period.
const MaxBorrowDays = 30

// overdueRate is the fixed daily late penalty: 50% of the snapshotted
// price per day, for each day past the due date.
var overdueRate = decimal.New(5, -1)

// Status is the closed set of borrow states. A borrow is created
// Active and moves to Returned or Overdue exactly once.
type Status string

const (
	StatusActive   Status = "Active"
	StatusReturned Status = "Returned"
	StatusOverdue  Status = "Overdue"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusReturned, StatusOverdue:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transition.
func (s Status) Terminal() bool {
	return s == StatusReturned || s == StatusOverdue
}

// Borrow records one lending of one book to one account. Price per day
// is snapshotted at borrow time so later catalog changes cannot alter
// what the student owes.
type Borrow struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AccountID     uuid.UUID       `json:"accountId" db:"account_id"`
	BookID        uuid.UUID       `json:"bookId" db:"book_id"`
	BorrowDate    time.Time       `json:"borrowDate" db:"borrow_date"`
	DueDate       time.Time       `json:"dueDate" db:"due_date"`
	ReturnDate    *time.Time      `json:"returnDate" db:"return_date"`
	NumberOfDays  int             `json:"numberOfDays" db:"number_of_days"`
	PricePerDay   decimal.Decimal `json:"pricePerDay" db:"price_per_day"`
	TotalCost     decimal.Decimal `json:"totalCost" db:"total_cost"`
	OverdueDays   int             `json:"overdueDays" db:"overdue_days"`
	OverdueAmount decimal.Decimal `json:"overdueAmount" db:"overdue_amount"`
	TotalAmount   decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Status        Status          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// BookSummary is the slice of book data joined onto borrow responses.
type BookSummary struct {
	Code        string          `json:"bookId"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	PricePerDay decimal.Decimal `json:"pricePerDay"`
}

// Detail is a borrow joined with its book summary.
type Detail struct {
	Borrow
	Book BookSummary `json:"book"`
}

// CostBreakdown is the quote returned before a borrow is committed.
type CostBreakdown struct {
	BookTitle     string          `json:"bookTitle"`
	PricePerDay   decimal.Decimal `json:"pricePerDay"`
	NumberOfDays  int             `json:"numberOfDays"`
	TotalCost     string          `json:"totalCost"`
	MaxBorrowDays int             `json:"maxBorrowDays"`
}

// Cost is the exact borrow cost: price per day times whole days. No
// rounding happens here; presentation rounds to two decimals.
func Cost(pricePerDay decimal.Decimal, numberOfDays int) decimal.Decimal {
	return pricePerDay.Mul(decimal.NewFromInt(int64(numberOfDays)))
}

// civilDate truncates t to its calendar date, re-anchored in UTC so
// day arithmetic is immune to daylight-saving shifts.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OverdueDays is the calendar-day gap between the due date and the
// return date, zero when the return is on time. Time of day never
// contributes: returning late in the evening of the due date is not
// overdue, and returning one minute into the next day is one full day.
func OverdueDays(dueDate, returnDate time.Time) int {
	due, ret := civilDate(dueDate), civilDate(returnDate)
	if !ret.After(due) {
		return 0
	}
	return int(ret.Sub(due) / (24 * time.Hour))
}

// OverdueFee is days late times price per day times the 50% penalty
// rate, exact.
func OverdueFee(pricePerDay decimal.Decimal, overdueDays int) decimal.Decimal {
	return pricePerDay.Mul(decimal.NewFromInt(int64(overdueDays))).Mul(overdueRate)
}

// settle computes the terminal state for a borrow returned on the
// given date.
func (b *Borrow) settle(returnDate time.Time) {
	days := OverdueDays(b.DueDate, returnDate)
	b.ReturnDate = &returnDate
	b.OverdueDays = days
	if days > 0 {
		b.OverdueAmount = OverdueFee(b.PricePerDay, days)
		b.Status = StatusOverdue
	} else {
		b.OverdueAmount = decimal.Zero
		b.Status = StatusReturned
	}
	b.TotalAmount = b.TotalCost.Add(b.OverdueAmount)
}
