package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Book is a borrowable title in the fixed catalog. Availability is
// false exactly when a current borrower is set.
type Book struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	Code             string          `json:"bookId" db:"code"`
	Title            string          `json:"title" db:"title"`
	Author           string          `json:"author" db:"author"`
	PricePerDay      decimal.Decimal `json:"pricePerDay" db:"price_per_day"`
	GroupPricePerDay decimal.Decimal `json:"groupPricePerDay" db:"group_price_per_day"`
	IsAvailable      bool            `json:"isAvailable" db:"is_available"`
	CurrentBorrower  *uuid.UUID      `json:"currentBorrower" db:"current_borrower"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}
