package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pyrmontaction/membership-backend/internal/lib/jwt"
	"github.com/pyrmontaction/membership-backend/internal/lib/password"
	"github.com/pyrmontaction/membership-backend/internal/models"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UsersMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UsersMock) UpdateUserRole(ctx context.Context, userUID, role string) error {
	return m.Called(ctx, userUID, role).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	maker := jwt.NewJWTMaker("test-secret", time.Hour)

	hash, err := password.GetHash("correct-password")
	assert.NoError(t, err)
	user := &models.User{
		UID:          "user-1",
		Email:        "jane@example.com",
		PasswordHash: hash,
		Role:         models.RoleMember,
	}

	t.Run("valid credentials return token and role", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, maker, "", newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(user, nil).Once()

		token, role, err := svc.Login(ctx, "jane@example.com", "correct-password")

		assert.NoError(t, err)
		assert.Equal(t, models.RoleMember, role)

		claims, err := maker.ParseToken(token)
		assert.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserUID)
		assert.Equal(t, models.RoleMember, claims.Role)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, maker, "", newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "ghost@example.com").
			Return(nil, repository.ErrNotFound).Once()
		users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(user, nil).Once()

		_, _, errUnknown := svc.Login(ctx, "ghost@example.com", "whatever")
		_, _, errWrongPass := svc.Login(ctx, "jane@example.com", "wrong-password")

		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
		assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
	})
}

func TestAuthorize(t *testing.T) {
	svc := NewAuthService(new(UsersMock), jwt.NewJWTMaker("s", time.Hour), "", newNoopLogger())

	assert.NoError(t, svc.Authorize(models.RoleAdmin, models.RoleAdmin, models.RoleEditor))
	assert.ErrorIs(t, svc.Authorize(models.RoleMember, models.RoleAdmin), ErrForbidden)
}

func TestIsMasterAdmin(t *testing.T) {
	svc := NewAuthService(new(UsersMock), jwt.NewJWTMaker("s", time.Hour),
		"Admin@PyrmontAction.org.au", newNoopLogger())

	assert.True(t, svc.IsMasterAdmin("admin@pyrmontaction.org.au"))
	assert.True(t, svc.IsMasterAdmin(" ADMIN@pyrmontaction.org.au "))
	assert.False(t, svc.IsMasterAdmin("other@pyrmontaction.org.au"))

	unset := NewAuthService(new(UsersMock), jwt.NewJWTMaker("s", time.Hour), "", newNoopLogger())
	assert.False(t, unset.IsMasterAdmin(""))
}

func TestEnsureMasterAdmin(t *testing.T) {
	ctx := context.Background()
	maker := jwt.NewJWTMaker("s", time.Hour)

	t.Run("promotes existing account to admin", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, maker, "admin@example.com", newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "admin@example.com").Return(&models.User{
			UID:  "user-1",
			Role: models.RoleMember,
		}, nil).Once()
		users.On("UpdateUserRole", mock.Anything, "user-1", models.RoleAdmin).Return(nil).Once()

		assert.NoError(t, svc.EnsureMasterAdmin(ctx))
		users.AssertExpectations(t)
	})

	t.Run("already admin is a no-op", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, maker, "admin@example.com", newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "admin@example.com").Return(&models.User{
			UID:  "user-1",
			Role: models.RoleAdmin,
		}, nil).Once()

		assert.NoError(t, svc.EnsureMasterAdmin(ctx))
		users.AssertNotCalled(t, "UpdateUserRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("absent account only logs a warning", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, maker, "admin@example.com", newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "admin@example.com").
			Return(nil, repository.ErrNotFound).Once()

		assert.NoError(t, svc.EnsureMasterAdmin(ctx))
	})
}
