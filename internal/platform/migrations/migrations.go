// Package migrations creates the schema and seeds the fixed catalog.
// Both routines are idempotent and invoked explicitly by the process
// entry point before the server starts accepting requests.
package migrations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		student_id TEXT NOT NULL DEFAULT '',
		total_debt NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (total_debt >= 0),
		balance NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		has_active_borrow BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS books (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		price_per_day NUMERIC(12,2) NOT NULL,
		group_price_per_day NUMERIC(12,2) NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		current_borrower UUID REFERENCES accounts(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (is_available = (current_borrower IS NULL))
	)`,

	`CREATE TABLE IF NOT EXISTS borrows (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		book_id UUID NOT NULL REFERENCES books(id),
		borrow_date TIMESTAMPTZ NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		return_date TIMESTAMPTZ,
		number_of_days INT NOT NULL CHECK (number_of_days BETWEEN 1 AND 30),
		price_per_day NUMERIC(12,2) NOT NULL,
		total_cost NUMERIC(12,2) NOT NULL,
		overdue_days INT NOT NULL DEFAULT 0 CHECK (overdue_days >= 0),
		overdue_amount NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (overdue_amount >= 0),
		total_amount NUMERIC(12,2) NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('Active', 'Returned', 'Overdue')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		borrow_id UUID NOT NULL UNIQUE REFERENCES borrows(id),
		amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
		status TEXT NOT NULL CHECK (status IN ('Pending', 'Paid')),
		payment_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_borrows_account_status ON borrows (account_id, status)`,

	`CREATE INDEX IF NOT EXISTS idx_payments_account_status ON payments (account_id, status)`,
}

// Apply runs every schema statement in order.
func Apply(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

type seedBook struct {
	code             string
	title            string
	author           string
	pricePerDay      string
	groupPricePerDay string
}

var seedBooks = []seedBook{
	{"B001", "To Kill a Mockingbird", "Harper Lee", "2.50", "1.80"},
	{"B002", "1984", "George Orwell", "3.00", "2.20"},
	{"B003", "Pride and Prejudice", "Jane Austen", "2.00", "1.50"},
	{"B004", "The Great Gatsby", "F. Scott Fitzgerald", "2.80", "2.00"},
	{"B005", "Moby Dick", "Herman Melville", "3.50", "2.50"},
	{"B006", "War and Peace", "Leo Tolstoy", "4.00", "3.00"},
	{"B007", "The Catcher in the Rye", "J.D. Salinger", "2.50", "1.80"},
	{"B008", "The Hobbit", "J.R.R. Tolkien", "3.00", "2.30"},
	{"B009", "Fahrenheit 451", "Ray Bradbury", "2.70", "2.00"},
	{"B010", "Jane Eyre", "Charlotte Bronte", "2.50", "1.80"},
	{"B011", "Animal Farm", "George Orwell", "2.20", "1.60"},
	{"B012", "Brave New World", "Aldous Huxley", "2.80", "2.10"},
	{"B013", "The Lord of the Rings", "J.R.R. Tolkien", "4.50", "3.50"},
	{"B014", "Wuthering Heights", "Emily Bronte", "2.60", "1.90"},
	{"B015", "The Chronicles of Narnia", "C.S. Lewis", "3.20", "2.40"},
	{"B016", "Crime and Punishment", "Fyodor Dostoevsky", "3.80", "2.80"},
	{"B017", "The Odyssey", "Homer", "3.50", "2.60"},
	{"B018", "Great Expectations", "Charles Dickens", "2.90", "2.20"},
	{"B019", "Hamlet", "William Shakespeare", "3.00", "2.30"},
	{"B020", "The Divine Comedy", "Dante Alighieri", "4.20", "3.20"},
}

// SeedCatalog inserts the fixed book list, but only when the catalog
// is empty.
func SeedCatalog(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM books`); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, b := range seedBooks {
		price, err := decimal.NewFromString(b.pricePerDay)
		if err != nil {
			return fmt.Errorf("seed catalog: bad price for %s: %w", b.code, err)
		}
		groupPrice, err := decimal.NewFromString(b.groupPricePerDay)
		if err != nil {
			return fmt.Errorf("seed catalog: bad group price for %s: %w", b.code, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO books (id, code, title, author, price_per_day, group_price_per_day)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), b.code, b.title, b.author, price, groupPrice)
		if err != nil {
			return fmt.Errorf("seed catalog: insert %s: %w", b.code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	logrus.WithField("books", len(seedBooks)).Info("catalog seeded")
	return nil
}
