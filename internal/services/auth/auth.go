// Package auth содержит логику аутентификации, проверки токенов
// и ролевого доступа.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pyrmontaction/membership-backend/internal/lib/jwt"
	"github.com/pyrmontaction/membership-backend/internal/lib/password"
	"github.com/pyrmontaction/membership-backend/internal/models"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// Ошибки уровня аутентификации и авторизации.
var (
	// ErrInvalidCredentials почта не найдена либо пароль неверен.
	// Одна ошибка на оба случая: существование учётной записи не раскрывается.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden роль вызывающего не входит в список разрешенных.
	ErrForbidden = errors.New("forbidden")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateUserRole(ctx context.Context, userUID, role string) error
}

// AuthService отвечает за вход, проверку JWT и ролевой доступ.
type AuthService struct {
	users            UserRepository
	jwtMaker         jwt.Maker
	masterAdminEmail string
	log              *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, masterAdminEmail string, log *slog.Logger) *AuthService {
	return &AuthService{
		users:            users,
		jwtMaker:         jwtMaker,
		masterAdminEmail: strings.ToLower(strings.TrimSpace(masterAdminEmail)),
		log:              log,
	}
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(user.UID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает claims с данными пользователя.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}

// Authorize проверяет, входит ли роль в список разрешенных.
func (s *AuthService) Authorize(role string, allowed ...string) error {
	for _, a := range allowed {
		if role == a {
			return nil
		}
	}
	return ErrForbidden
}

// IsMasterAdmin сообщает, принадлежит ли почта защищённой учётной записи
// главного администратора.
func (s *AuthService) IsMasterAdmin(email string) bool {
	return s.masterAdminEmail != "" &&
		strings.ToLower(strings.TrimSpace(email)) == s.masterAdminEmail
}

// EnsureMasterAdmin выполняется один раз при старте процесса: если учётная
// запись с настроенной почтой главного администратора существует, ей
// идемпотентно присваивается роль admin.
func (s *AuthService) EnsureMasterAdmin(ctx context.Context) error {
	const op = "auth.EnsureMasterAdmin"
	if s.masterAdminEmail == "" {
		return nil
	}
	user, err := s.users.GetUserByEmail(ctx, s.masterAdminEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("master admin account not found, skipping bootstrap",
				slog.String("email", s.masterAdminEmail))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.Role == models.RoleAdmin {
		return nil
	}
	if err := s.users.UpdateUserRole(ctx, user.UID, models.RoleAdmin); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("master admin role ensured", slog.String("email", s.masterAdminEmail))
	return nil
}
