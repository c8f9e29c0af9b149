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

const userColumns = `uid, email, password_hash, first_name, last_name, mobile_phone,
			      area_of_interest, street_name, city, state, postcode,
			      stripe_customer_id, member_expiry_date, role`

// CreateUser сохраняет нового пользователя в базу данных и возвращает его UID.
// Нарушение уникальности почты превращается в ErrDuplicateEmail.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"

	var newUID string
	query := `INSERT INTO users (email, password_hash, first_name, last_name, mobile_phone,
			      area_of_interest, street_name, city, state, postcode,
			      stripe_customer_id, member_expiry_date, role)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		strings.ToLower(strings.TrimSpace(user.Email)), user.PasswordHash,
		user.FirstName, user.LastName, user.MobilePhone, user.AreaOfInterest,
		user.StreetName, user.City, user.State, user.Postcode,
		nullString(user.StripeCustomerID), user.MemberExpiryDate, user.Role).Scan(&newUID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по его почте.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	row := s.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	row := s.DB.QueryRowContext(ctx, query, userUID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserProfile обновляет поля профиля и, если передан непустой хэш,
// пароль пользователя. Пустая почта и пустой хэш оставляют текущие значения:
// почта не редактируется из личного кабинета.
func (s *Storage) UpdateUserProfile(ctx context.Context, userUID string, profile models.Profile, passwordHash string) error {
	const op = "storage.UpdateUserProfile"

	query := `UPDATE users
			  SET email = COALESCE(NULLIF($1, ''), email),
			      first_name = $2, last_name = $3, mobile_phone = $4,
			      area_of_interest = $5, street_name = $6, city = $7, state = $8,
			      postcode = $9,
			      password_hash = COALESCE(NULLIF($10, ''), password_hash)
			  WHERE uid = $11`
	res, err := s.DB.ExecContext(ctx, query,
		strings.ToLower(strings.TrimSpace(profile.Email)), profile.FirstName,
		profile.LastName, profile.MobilePhone, profile.AreaOfInterest,
		profile.StreetName, profile.City, profile.State, profile.Postcode,
		passwordHash, userUID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// UpdateUserPassword заменяет хэш пароля пользователя.
func (s *Storage) UpdateUserPassword(ctx context.Context, userUID, passwordHash string) error {
	const op = "storage.UpdateUserPassword"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE uid = $2`, passwordHash, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// UpdateUserRole меняет роль пользователя.
func (s *Storage) UpdateUserRole(ctx context.Context, userUID, role string) error {
	const op = "storage.UpdateUserRole"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET role = $1 WHERE uid = $2`, role, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// SetStripeCustomerID привязывает к пользователю идентификатор клиента
// платежного провайдера.
func (s *Storage) SetStripeCustomerID(ctx context.Context, userUID, customerID string) error {
	const op = "storage.SetStripeCustomerID"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET stripe_customer_id = $1 WHERE uid = $2`, customerID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// UpdateMemberExpiry устанавливает новую дату истечения членства.
func (s *Storage) UpdateMemberExpiry(ctx context.Context, userUID string, expiry time.Time) error {
	const op = "storage.UpdateMemberExpiry"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET member_expiry_date = $1 WHERE uid = $2`, expiry, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// DeleteUser удаляет пользователя по UID.
func (s *Storage) DeleteUser(ctx context.Context, userUID string) error {
	const op = "storage.DeleteUser"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// ListMembers возвращает список участников, отфильтрованный по подстроке
// имени или почты.
func (s *Storage) ListMembers(ctx context.Context, search string) ([]*models.User, error) {
	const op = "storage.ListMembers"

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE $1 = ''
			     OR first_name || ' ' || last_name ILIKE '%' || $1 || '%'
			     OR email ILIKE '%' || $1 || '%'
			  ORDER BY last_name, first_name`
	rows, err := s.DB.QueryContext(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// EmailExists проверяет, занята ли почта постоянным пользователем либо
// живой регистрационной сессией. Истекшие сессии не учитываются.
func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.EmailExists"

	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
			      OR EXISTS (SELECT 1 FROM join_sessions WHERE email = $1 AND expires_at > now())`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query,
		strings.ToLower(strings.TrimSpace(email))).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var stripeCustomerID sql.NullString
	var memberExpiryDate sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.MobilePhone, &u.AreaOfInterest, &u.StreetName, &u.City, &u.State,
		&u.Postcode, &stripeCustomerID, &memberExpiryDate, &u.Role); err != nil {
		return nil, err
	}
	if stripeCustomerID.Valid {
		u.StripeCustomerID = stripeCustomerID.String
	}
	if memberExpiryDate.Valid {
		u.MemberExpiryDate = &memberExpiryDate.Time
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRowsAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
