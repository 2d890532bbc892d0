package billing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"borrowdesk/internal/apperr"
)

// Store reads and mutates payment rows. Methods take a sqlx.ExtContext
// so the lifecycle engine can create and re-sync payments inside its
// borrow and return transactions.
type Store struct{}

func NewStore() *Store { return &Store{} }

const paymentColumns = `p.id, p.account_id, p.borrow_id, p.amount, p.status, p.payment_date, p.created_at, p.updated_at`

func (s *Store) Insert(ctx context.Context, q sqlx.ExtContext, p *Payment) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO payments (id, account_id, borrow_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.AccountID, p.BorrowID, p.Amount, p.Status)
	if err != nil {
		return apperr.Internal("failed to insert payment", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*Payment, error) {
	p := &Payment{}
	err := sqlx.GetContext(ctx, q, p, `
		SELECT `+paymentColumns+` FROM payments p WHERE p.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "Payment not found")
		}
		return nil, apperr.Internal("failed to load payment", err)
	}
	return p, nil
}

// SyncAmount re-points a still-pending payment at the borrow's new
// total after overdue fees land. Paid payments are immutable.
func (s *Store) SyncAmount(ctx context.Context, q sqlx.ExtContext, borrowID uuid.UUID, amount decimal.Decimal) error {
	_, err := q.ExecContext(ctx, `
		UPDATE payments
		SET amount = $2, updated_at = NOW()
		WHERE borrow_id = $1 AND status = 'Pending'`, borrowID, amount)
	if err != nil {
		return apperr.Internal("failed to sync payment amount", err)
	}
	return nil
}

// MarkPaid settles a payment. The status guard rejects a second
// settlement of the same payment.
func (s *Store) MarkPaid(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, when time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE payments
		SET status = 'Paid', payment_date = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'Pending'`, id, when)
	if err != nil {
		return apperr.Internal("failed to mark payment paid", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("failed to mark payment paid", err)
	}
	if affected == 0 {
		return apperr.New(apperr.KindConflict, "Payment is already paid")
	}
	return nil
}

// detailRow is the scan target for payment rows joined with borrow
// and book data.
type detailRow struct {
	Payment
	JBorrowID    uuid.UUID       `db:"b_id"`
	BorrowDate   time.Time       `db:"b_borrow_date"`
	DueDate      time.Time       `db:"b_due_date"`
	ReturnDate   *time.Time      `db:"b_return_date"`
	BorrowStatus string          `db:"b_status"`
	TotalCost    decimal.Decimal `db:"b_total_cost"`
	TotalAmount  decimal.Decimal `db:"b_total_amount"`
	BookCode     string          `db:"book_code"`
	BookTitle    string          `db:"book_title"`
	BookAuthor   string          `db:"book_author"`
}

func (s *Store) ListByAccount(ctx context.Context, q sqlx.ExtContext, accountID uuid.UUID) ([]*Detail, error) {
	var rows []*detailRow
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT `+paymentColumns+`,
			b.id AS b_id, b.borrow_date AS b_borrow_date, b.due_date AS b_due_date,
			b.return_date AS b_return_date, b.status AS b_status,
			b.total_cost AS b_total_cost, b.total_amount AS b_total_amount,
			bk.code AS book_code, bk.title AS book_title, bk.author AS book_author
		FROM payments p
		JOIN borrows b ON b.id = p.borrow_id
		JOIN books bk ON bk.id = b.book_id
		WHERE p.account_id = $1
		ORDER BY p.created_at DESC`, accountID)
	if err != nil {
		return nil, apperr.Internal("failed to list payments", err)
	}

	details := make([]*Detail, 0, len(rows))
	for _, row := range rows {
		details = append(details, &Detail{
			Payment: row.Payment,
			Borrow: BorrowSummary{
				ID:          row.JBorrowID,
				BorrowDate:  row.BorrowDate,
				DueDate:     row.DueDate,
				ReturnDate:  row.ReturnDate,
				Status:      row.BorrowStatus,
				TotalCost:   row.TotalCost,
				TotalAmount: row.TotalAmount,
				BookCode:    row.BookCode,
				BookTitle:   row.BookTitle,
				BookAuthor:  row.BookAuthor,
			},
		})
	}
	return details, nil
}

// SumPendingByAccount totals the still-pending payment amounts.
func (s *Store) SumPendingByAccount(ctx context.Context, q sqlx.ExtContext, accountID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := sqlx.GetContext(ctx, q, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE account_id = $1 AND status = 'Pending'`, accountID)
	if err != nil {
		return decimal.Zero, apperr.Internal("failed to sum pending payments", err)
	}
	return sum, nil
}
