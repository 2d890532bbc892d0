package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the per-student ledger: what they owe, what they have
// paid, and whether a borrow is currently open.
type Account struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Email           string          `json:"email" db:"email"`
	StudentID       string          `json:"studentId" db:"student_id"`
	TotalDebt       decimal.Decimal `json:"totalDebt" db:"total_debt"`
	Balance         decimal.Decimal `json:"balance" db:"balance"`
	HasActiveBorrow bool            `json:"hasActiveBorrow" db:"has_active_borrow"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}
