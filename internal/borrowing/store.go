package borrowing

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"borrowdesk/internal/apperr"
)

// Store reads and mutates borrow rows. Methods take a sqlx.ExtContext
// so the engine can compose them into one transaction per operation.
type Store struct{}

func NewStore() *Store { return &Store{} }

const borrowColumns = `b.id, b.account_id, b.book_id, b.borrow_date, b.due_date, b.return_date,
	b.number_of_days, b.price_per_day, b.total_cost, b.overdue_days, b.overdue_amount,
	b.total_amount, b.status, b.created_at, b.updated_at`

const bookJoinColumns = `bk.code AS book_code, bk.title AS book_title, bk.author AS book_author,
	bk.price_per_day AS book_price_per_day`

// detailRow is the scan target for borrow rows joined with their book.
type detailRow struct {
	Borrow
	BookCode        string          `db:"book_code"`
	BookTitle       string          `db:"book_title"`
	BookAuthor      string          `db:"book_author"`
	BookPricePerDay decimal.Decimal `db:"book_price_per_day"`
}

func (r *detailRow) detail() *Detail {
	return &Detail{
		Borrow: r.Borrow,
		Book: BookSummary{
			Code:        r.BookCode,
			Title:       r.BookTitle,
			Author:      r.BookAuthor,
			PricePerDay: r.BookPricePerDay,
		},
	}
}

func (s *Store) Insert(ctx context.Context, q sqlx.ExtContext, b *Borrow) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO borrows (id, account_id, book_id, borrow_date, due_date, number_of_days,
			price_per_day, total_cost, overdue_days, overdue_amount, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.AccountID, b.BookID, b.BorrowDate, b.DueDate, b.NumberOfDays,
		b.PricePerDay, b.TotalCost, b.OverdueDays, b.OverdueAmount, b.TotalAmount, b.Status)
	if err != nil {
		return apperr.Internal("failed to insert borrow", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*Borrow, error) {
	b := &Borrow{}
	err := sqlx.GetContext(ctx, q, b, `
		SELECT `+borrowColumns+` FROM borrows b WHERE b.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "Borrow record not found")
		}
		return nil, apperr.Internal("failed to load borrow", err)
	}
	return b, nil
}

func (s *Store) GetDetail(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*Detail, error) {
	row := &detailRow{}
	err := sqlx.GetContext(ctx, q, row, `
		SELECT `+borrowColumns+`, `+bookJoinColumns+`
		FROM borrows b JOIN books bk ON bk.id = b.book_id
		WHERE b.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "Borrow record not found")
		}
		return nil, apperr.Internal("failed to load borrow", err)
	}
	return row.detail(), nil
}

func (s *Store) ListActiveByAccount(ctx context.Context, q sqlx.ExtContext, accountID uuid.UUID) ([]*Detail, error) {
	return s.listByAccount(ctx, q, accountID, `b.status = 'Active'`, `b.borrow_date DESC`, 0)
}

func (s *Store) ListHistoryByAccount(ctx context.Context, q sqlx.ExtContext, accountID uuid.UUID) ([]*Detail, error) {
	return s.listByAccount(ctx, q, accountID, `b.status IN ('Returned', 'Overdue')`, `b.return_date DESC`, 0)
}

func (s *Store) ListRecentByAccount(ctx context.Context, q sqlx.ExtContext, accountID uuid.UUID, limit int) ([]*Detail, error) {
	return s.listByAccount(ctx, q, accountID, `TRUE`, `b.borrow_date DESC`, limit)
}

func (s *Store) listByAccount(ctx context.Context, q sqlx.ExtContext, accountID uuid.UUID, where, order string, limit int) ([]*Detail, error) {
	query := `
		SELECT ` + borrowColumns + `, ` + bookJoinColumns + `
		FROM borrows b JOIN books bk ON bk.id = b.book_id
		WHERE b.account_id = $1 AND ` + where + `
		ORDER BY ` + order
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []*detailRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, apperr.Internal("failed to list borrows", err)
	}
	details := make([]*Detail, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.detail())
	}
	return details, nil
}

func (s *Store) CountByStatus(ctx context.Context, q sqlx.ExtContext, accountID uuid.UUID, statuses ...Status) (int, error) {
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, string(st))
	}
	var count int
	err := sqlx.GetContext(ctx, q, &count, `
		SELECT COUNT(*) FROM borrows
		WHERE account_id = $1 AND status = ANY($2)`, accountID, pq.Array(names))
	if err != nil {
		return 0, apperr.Internal("failed to count borrows", err)
	}
	return count, nil
}

// MarkReturned persists a settled borrow. The status guard makes the
// transition happen at most once even under concurrent returns.
func (s *Store) MarkReturned(ctx context.Context, q sqlx.ExtContext, b *Borrow) error {
	res, err := q.ExecContext(ctx, `
		UPDATE borrows
		SET return_date = $2, overdue_days = $3, overdue_amount = $4,
			total_amount = $5, status = $6, updated_at = NOW()
		WHERE id = $1 AND status = 'Active'`,
		b.ID, b.ReturnDate, b.OverdueDays, b.OverdueAmount, b.TotalAmount, b.Status)
	if err != nil {
		return apperr.Internal("failed to mark borrow returned", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("failed to mark borrow returned", err)
	}
	if affected == 0 {
		return apperr.New(apperr.KindConflict, "This borrow is already returned")
	}
	return nil
}
