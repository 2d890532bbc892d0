package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the closed set of payment states.
type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

// Payment tracks the amount owed for exactly one borrow. The amount
// mirrors the borrow's total amount until the payment is marked Paid;
// after that it is immutable.
type Payment struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	AccountID   uuid.UUID       `json:"accountId" db:"account_id"`
	BorrowID    uuid.UUID       `json:"borrowId" db:"borrow_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Status      Status          `json:"status" db:"status"`
	PaymentDate *time.Time      `json:"paymentDate" db:"payment_date"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// BorrowSummary is the slice of borrow data joined onto payment
// history responses.
type BorrowSummary struct {
	ID          uuid.UUID       `json:"id"`
	BorrowDate  time.Time       `json:"borrowDate"`
	DueDate     time.Time       `json:"dueDate"`
	ReturnDate  *time.Time      `json:"returnDate"`
	Status      string          `json:"status"`
	TotalCost   decimal.Decimal `json:"totalCost"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	BookCode    string          `json:"bookId"`
	BookTitle   string          `json:"title"`
	BookAuthor  string          `json:"author"`
}

// Detail is a payment joined with its borrow and book.
type Detail struct {
	Payment
	Borrow BorrowSummary `json:"borrow"`
}
