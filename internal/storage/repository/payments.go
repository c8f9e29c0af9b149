package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pyrmontaction/membership-backend/internal/models"
)

// CreatePayment сохраняет запись о платеже в статусе pending.
func (s *Storage) CreatePayment(ctx context.Context, payment models.Payment) (int, error) {
	const op = "storage.CreatePayment"

	var id int
	query := `INSERT INTO payments (email, amount_cents, currency, checkout_id, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		strings.ToLower(strings.TrimSpace(payment.Email)), payment.AmountCents,
		payment.Currency, payment.CheckoutID, models.PaymentStatusPending).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrAlreadyProcessed)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetPaymentByCheckoutID возвращает платеж по идентификатору checkout-сессии.
func (s *Storage) GetPaymentByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	const op = "storage.GetPaymentByCheckoutID"

	query := `SELECT id, email, amount_cents, currency, checkout_id, status, paid_at, expires_at
			  FROM payments
			  WHERE checkout_id = $1`
	p := &models.Payment{}
	var paidAt, expiresAt sql.NullTime
	row := s.DB.QueryRowContext(ctx, query, checkoutID)
	if err := row.Scan(&p.ID, &p.Email, &p.AmountCents, &p.Currency, &p.CheckoutID,
		&p.Status, &paidAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	if expiresAt.Valid {
		p.ExpiresAt = &expiresAt.Time
	}
	return p, nil
}

// MarkPaymentPaid переводит платеж из pending в paid. Перевод выполняется
// не более одного раза: для платежа в терминальном статусе возвращается
// ErrAlreadyProcessed, что защищает от повторной доставки webhook-событий.
func (s *Storage) MarkPaymentPaid(ctx context.Context, checkoutID string, paidAt, expiresAt time.Time) error {
	const op = "storage.MarkPaymentPaid"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE payments SET status = $1, paid_at = $2, expires_at = $3
		 WHERE checkout_id = $4 AND status = $5`,
		models.PaymentStatusPaid, paidAt, expiresAt, checkoutID, models.PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		var exists bool
		if err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM payments WHERE checkout_id = $1)`,
			checkoutID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if exists {
			return fmt.Errorf("%s: %w", op, ErrAlreadyProcessed)
		}
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// FailStalePayments переводит в failed платежи, зависшие в pending дольше
// olderThan, и возвращает количество затронутых записей. Страховка на случай
// потерянного события об истечении checkout-сессии.
func (s *Storage) FailStalePayments(ctx context.Context, olderThan time.Duration) (int64, error) {
	const op = "storage.FailStalePayments"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE payments SET status = $1
		 WHERE status = $2 AND created_at < now() - make_interval(secs => $3)`,
		models.PaymentStatusFailed, models.PaymentStatusPending, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// MarkPaymentFailed переводит платеж из pending в failed. Платеж в терминальном
// статусе не трогается, отсутствие записи не считается ошибкой.
func (s *Storage) MarkPaymentFailed(ctx context.Context, checkoutID string) error {
	const op = "storage.MarkPaymentFailed"

	if _, err := s.DB.ExecContext(ctx,
		`UPDATE payments SET status = $1
		 WHERE checkout_id = $2 AND status = $3`,
		models.PaymentStatusFailed, checkoutID, models.PaymentStatusPending); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
