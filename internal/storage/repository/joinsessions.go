package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pyrmontaction/membership-backend/internal/models"
)

// Все чтения регистрационных сессий фильтруют по expires_at > now():
// истекшая запись невидима для читателей еще до физического удаления.

// CreateJoinSession сохраняет новую регистрационную сессию со сроком жизни
// ttlMinutes и возвращает ее UID. Почта должна быть свободна и среди
// постоянных пользователей, и среди живых сессий, иначе ErrDuplicateEmail.
func (s *Storage) CreateJoinSession(ctx context.Context, session models.JoinSession, ttlMinutes int) (string, error) {
	const op = "storage.CreateJoinSession"

	exists, err := s.EmailExists(ctx, session.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return "", fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
	}

	uid := uuid.NewString()
	expiresAt := time.Now().Add(time.Duration(ttlMinutes) * time.Minute)
	query := `INSERT INTO join_sessions (uid, email, password_hash, first_name, last_name,
			      mobile_phone, area_of_interest, street_name, city, state, postcode,
			      checkout_id, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '', $12)`
	if _, err := s.DB.ExecContext(ctx, query,
		uid, strings.ToLower(strings.TrimSpace(session.Email)), session.PasswordHash,
		session.FirstName, session.LastName, session.MobilePhone, session.AreaOfInterest,
		session.StreetName, session.City, session.State, session.Postcode, expiresAt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetJoinSession возвращает живую сессию по UID либо ErrNotFound.
func (s *Storage) GetJoinSession(ctx context.Context, uid string) (*models.JoinSession, error) {
	const op = "storage.GetJoinSession"

	query := `SELECT uid, email, password_hash, first_name, last_name, mobile_phone,
			      area_of_interest, street_name, city, state, postcode, checkout_id, expires_at
			  FROM join_sessions
			  WHERE uid = $1 AND expires_at > now()`
	js := &models.JoinSession{}
	row := s.DB.QueryRowContext(ctx, query, uid)
	if err := row.Scan(&js.UID, &js.Email, &js.PasswordHash, &js.FirstName, &js.LastName,
		&js.MobilePhone, &js.AreaOfInterest, &js.StreetName, &js.City, &js.State,
		&js.Postcode, &js.CheckoutID, &js.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return js, nil
}

// AttachCheckoutID привязывает к сессии идентификатор checkout-сессии провайдера.
func (s *Storage) AttachCheckoutID(ctx context.Context, uid, checkoutID string) error {
	const op = "storage.AttachCheckoutID"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE join_sessions SET checkout_id = $1 WHERE uid = $2 AND expires_at > now()`,
		checkoutID, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// ExtendJoinSession сдвигает срок жизни сессии на minutes минут от текущего момента.
func (s *Storage) ExtendJoinSession(ctx context.Context, uid string, minutes int) error {
	const op = "storage.ExtendJoinSession"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE join_sessions SET expires_at = now() + make_interval(mins => $1)
		 WHERE uid = $2 AND expires_at > now()`,
		minutes, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// DeleteJoinSession удаляет сессию. Отсутствие записи не считается ошибкой:
// webhook-уведомления могут приходить повторно.
func (s *Storage) DeleteJoinSession(ctx context.Context, uid string) error {
	const op = "storage.DeleteJoinSession"

	if _, err := s.DB.ExecContext(ctx,
		`DELETE FROM join_sessions WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteExpiredJoinSessions физически удаляет истекшие сессии и возвращает
// количество удаленных записей. Вызывается фоновым уборщиком.
func (s *Storage) DeleteExpiredJoinSessions(ctx context.Context) (int64, error) {
	const op = "storage.DeleteExpiredJoinSessions"

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM join_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
