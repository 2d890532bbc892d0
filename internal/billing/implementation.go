package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"borrowdesk/internal/account"
	"borrowdesk/internal/apperr"
)

// service implements the Service interface.
type service struct {
	db       *sqlx.DB
	payments *Store
	accounts *account.Store
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates a new billing service instance.
func NewService(db *sqlx.DB, payments *Store, accounts *account.Store) Service {
	return &service{
		db:       db,
		payments: payments,
		accounts: accounts,
		tracer:   otel.Tracer("borrowdesk/billing"),
		now:      time.Now,
	}
}

// MarkPaid settles a pending payment and moves its amount from the
// account's debt to its balance, in one transaction.
func (s *service) MarkPaid(ctx context.Context, accountID, paymentID uuid.UUID) (*Payment, error) {
	ctx, span := s.tracer.Start(ctx, "billing.mark_paid",
		trace.WithAttributes(
			attribute.String("account.id", accountID.String()),
			attribute.String("payment.id", paymentID.String()),
		),
	)
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	payment, err := s.payments.Get(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.AccountID != accountID {
		return nil, apperr.New(apperr.KindForbidden, "Not authorized to pay this payment")
	}
	if payment.Status == StatusPaid {
		return nil, apperr.New(apperr.KindConflict, "Payment is already paid")
	}

	paidAt := s.now()
	if err := s.payments.MarkPaid(ctx, tx, paymentID, paidAt); err != nil {
		return nil, err
	}
	if err := s.accounts.SettlePayment(ctx, tx, accountID, payment.Amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("failed to commit payment", err)
	}

	payment.Status = StatusPaid
	payment.PaymentDate = &paidAt

	logrus.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"account_id": accountID,
		"amount":     payment.Amount,
	}).Info("payment settled")

	return payment, nil
}

// History lists all payments for the account, newest first, joined
// with borrow and book data.
func (s *service) History(ctx context.Context, accountID uuid.UUID) ([]*Detail, error) {
	ctx, span := s.tracer.Start(ctx, "billing.history")
	defer span.End()

	details, err := s.payments.ListByAccount(ctx, s.db, accountID)
	if err != nil {
		return nil, fmt.Errorf("payment history: %w", err)
	}
	return details, nil
}
