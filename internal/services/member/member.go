// Package member содержит логику работы с учётными записями участников:
// профиль, административный список, создание менеджеров и удаление.
package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pyrmontaction/membership-backend/internal/lib/password"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
)

// ErrProtectedAccount операция затрагивает учётную запись главного
// администратора, защищённую от удаления и смены роли.
var ErrProtectedAccount = errors.New("protected account")

const membersCacheKey = "members:list"

// Repository описывает контракт хранилища пользователей.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (string, error)
	UpdateUserProfile(ctx context.Context, userUID string, profile models.Profile, passwordHash string) error
	UpdateUserPassword(ctx context.Context, userUID, passwordHash string) error
	DeleteUser(ctx context.Context, userUID string) error
	ListMembers(ctx context.Context, search string) ([]*models.User, error)
}

// Cache описывает контракт кэша списков.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Notifier описывает контракт публикации заданий на отправку писем.
type Notifier interface {
	EnqueueEmail(task models.EmailTask) error
}

// MasterAdminChecker сообщает, защищена ли учётная запись с данной почтой.
type MasterAdminChecker interface {
	IsMasterAdmin(email string) bool
}

// Service реализует операции над участниками.
type Service struct {
	repo     Repository
	cache    Cache
	notifier Notifier
	master   MasterAdminChecker
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, notifier Notifier, master MasterAdminChecker, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		master:   master,
		log:      log,
	}
}

// GetProfile возвращает профиль пользователя. Хэш пароля наружу не отдается.
func (s *Service) GetProfile(ctx context.Context, userUID string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile обновляет профиль пользователя. Если в запросе присутствует
// новый пароль, он хэшируется перед записью — явный шаг вместо неявных
// хуков хранилища.
func (s *Service) UpdateProfile(ctx context.Context, userUID string, profile models.Profile, newPassword string) error {
	const op = "member.UpdateProfile"

	hash, err := hashPasswordIfPresent(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateUserProfile(ctx, userUID, profile, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateMembersCache()
	return nil
}

// DeleteSelf удаляет собственную учётную запись пользователя.
// Главный администратор не может удалить сам себя.
func (s *Service) DeleteSelf(ctx context.Context, userUID string) error {
	const op = "member.DeleteSelf"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.master.IsMasterAdmin(user.Email) {
		return fmt.Errorf("%s: %w", op, ErrProtectedAccount)
	}
	if err := s.repo.DeleteUser(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateMembersCache()
	return nil
}

// DeleteUser удаляет учётную запись по UID от имени администратора.
// Администратор не может удалить сам себя этим путем, учётная запись
// главного администратора не удаляется ни при каких условиях.
func (s *Service) DeleteUser(ctx context.Context, callerUID, targetUID string) error {
	const op = "member.DeleteUser"

	if callerUID == targetUID {
		return fmt.Errorf("%s: %w", op, ErrProtectedAccount)
	}
	target, err := s.repo.GetUser(ctx, targetUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.master.IsMasterAdmin(target.Email) {
		return fmt.Errorf("%s: %w", op, ErrProtectedAccount)
	}
	if err := s.repo.DeleteUser(ctx, targetUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateMembersCache()
	return nil
}

// GetMember возвращает пользователя по UID для административной панели.
func (s *Service) GetMember(ctx context.Context, userUID string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ListMembers возвращает список участников с вычисленным статусом членства.
// Полный список кэшируется; фильтры применяются поверх кэша.
func (s *Service) ListMembers(ctx context.Context, search, status string) ([]models.MemberSummary, error) {
	const op = "member.ListMembers"

	var summaries []models.MemberSummary
	useCache := search == ""
	if useCache {
		if found, err := s.cache.Get(membersCacheKey, &summaries); err != nil {
			s.log.Error("members cache read failed", sl.Err(err))
		} else if found {
			return filterByStatus(summaries, status, time.Now()), nil
		}
	}

	users, err := s.repo.ListMembers(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := time.Now()
	summaries = make([]models.MemberSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, models.MemberSummary{
			UID:              u.UID,
			Name:             strings.TrimSpace(u.FirstName + " " + u.LastName),
			Email:            u.Email,
			MemberExpiryDate: u.MemberExpiryDate,
			Status:           u.MembershipStatus(now),
		})
	}

	if useCache {
		if err := s.cache.Set(membersCacheKey, summaries, 5*time.Minute); err != nil {
			s.log.Error("members cache write failed", sl.Err(err))
		}
	}
	return filterByStatus(summaries, status, now), nil
}

// CreateManager создает учётную запись администратора или редактора со
// сгенерированным паролем. Пароль отправляется новому менеджеру письмом.
func (s *Service) CreateManager(ctx context.Context, email, firstName, lastName, role string) (string, error) {
	const op = "member.CreateManager"

	rawPassword := uuid.NewString()
	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.repo.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.EnqueueEmail(models.EmailTask{
		To:      email,
		Subject: "Your Pyrmont Action account",
		Body: fmt.Sprintf("Hello %s!\n\nAn account has been created for you "+
			"with the %s role.\n\nTemporary password: %s\n\nPlease log in and "+
			"change it as soon as possible.", firstName, role, rawPassword),
	}); err != nil {
		s.log.Error("failed to enqueue manager credentials email", sl.Err(err))
	}
	s.invalidateMembersCache()
	return uid, nil
}

// SetRandomPassword сбрасывает пароль пользователя на случайный и
// отправляет его письмом. Учётная запись главного администратора
// через этот путь не меняется.
func (s *Service) SetRandomPassword(ctx context.Context, targetUID string) error {
	const op = "member.SetRandomPassword"

	target, err := s.repo.GetUser(ctx, targetUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.master.IsMasterAdmin(target.Email) {
		return fmt.Errorf("%s: %w", op, ErrProtectedAccount)
	}

	rawPassword := uuid.NewString()
	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateUserPassword(ctx, targetUID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.EnqueueEmail(models.EmailTask{
		To:      target.Email,
		Subject: "Your password has been reset",
		Body: fmt.Sprintf("Hello %s!\n\nYour password has been reset by an "+
			"administrator.\n\nTemporary password: %s\n\nPlease log in and "+
			"change it as soon as possible.", target.FirstName, rawPassword),
	}); err != nil {
		s.log.Error("failed to enqueue password reset email", sl.Err(err))
	}
	return nil
}

// hashPasswordIfPresent возвращает bcrypt-хэш пароля либо пустую строку,
// если пароль не передан. Чистая функция, вызывается перед каждой записью.
func hashPasswordIfPresent(rawPassword string) (string, error) {
	if rawPassword == "" {
		return "", nil
	}
	return password.GetHash(rawPassword)
}

func filterByStatus(summaries []models.MemberSummary, status string, now time.Time) []models.MemberSummary {
	if status == "" || status == "all" {
		return summaries
	}
	filtered := make([]models.MemberSummary, 0, len(summaries))
	for _, m := range summaries {
		if m.Status == status {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func (s *Service) invalidateMembersCache() {
	if err := s.cache.Invalidate(membersCacheKey); err != nil {
		s.log.Error("failed to invalidate members cache", sl.Err(err))
	}
}
