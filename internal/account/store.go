package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"borrowdesk/internal/apperr"
)

// Store reads and mutates account rows. Methods take a sqlx.ExtContext
// so callers can compose them into a transaction.
type Store struct{}

func NewStore() *Store { return &Store{} }

const accountColumns = `id, name, email, student_id, total_debt, balance, has_active_borrow, created_at, updated_at`

func (s *Store) Get(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*Account, error) {
	acct := &Account{}
	err := sqlx.GetContext(ctx, q, acct, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "Account not found")
		}
		return nil, apperr.Internal("failed to load account", err)
	}
	return acct, nil
}

// OpenBorrow flips the active-borrow flag and adds the borrow cost to
// the debt in one conditional update. The WHERE clause re-checks the
// no-active-borrow and no-debt preconditions so a concurrent borrow
// cannot slip through between validation and commit.
func (s *Store) OpenBorrow(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, cost decimal.Decimal) error {
	res, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET has_active_borrow = TRUE, total_debt = total_debt + $2, updated_at = NOW()
		WHERE id = $1 AND NOT has_active_borrow AND total_debt = 0`, id, cost)
	if err != nil {
		return apperr.Internal("failed to open borrow on account", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("failed to open borrow on account", err)
	}
	if affected == 0 {
		return apperr.New(apperr.KindConflict, "You already have an active borrow or outstanding debt")
	}
	return nil
}

// CloseBorrow clears the active-borrow flag and adds any overdue fee
// to the debt, keeping debt in sync with the pending payment amount.
func (s *Store) CloseBorrow(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, overdueFee decimal.Decimal) error {
	_, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET has_active_borrow = FALSE, total_debt = total_debt + $2, updated_at = NOW()
		WHERE id = $1`, id, overdueFee)
	if err != nil {
		return apperr.Internal("failed to close borrow on account", err)
	}
	return nil
}

// SettlePayment moves a paid amount from debt to balance.
func (s *Store) SettlePayment(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, amount decimal.Decimal) error {
	_, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET total_debt = total_debt - $2, balance = balance + $2, updated_at = NOW()
		WHERE id = $1`, id, amount)
	if err != nil {
		return apperr.Internal("failed to settle payment on account", err)
	}
	return nil
}
