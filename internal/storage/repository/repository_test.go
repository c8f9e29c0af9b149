package repository

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pyrmontaction/membership-backend/internal/migrations"
	"github.com/pyrmontaction/membership-backend/internal/models"
)

// setupTestDB поднимает контейнер PostgreSQL, накатывает миграции проекта
// и возвращает готовое хранилище.
func setupTestDB(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForAll(
			wait.ForListeningPort(nat.Port("5432/tcp")),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3*time.Minute)),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	require.NoError(t, migrations.Run(storage.DB, "../../../migrations"),
		"failed to run migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		_ = container.Terminate(ctx)
	}
	return storage, cleanup
}

func testUser(email string) models.User {
	return models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		FirstName:    "Jane",
		LastName:     "Doe",
		Postcode:     "2009",
		Role:         models.RoleMember,
	}
}

func testJoinSession(email string) models.JoinSession {
	return models.JoinSession{
		Email:        email,
		PasswordHash: "hashedpassword",
		FirstName:    "Jane",
		LastName:     "Doe",
		Postcode:     "2009",
	}
}

func TestStorage_Users(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		uid, err := storage.CreateUser(ctx, testUser("jane@example.com"))
		require.NoError(t, err)
		require.NotEmpty(t, uid)

		got, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", got.Email)
		assert.Equal(t, models.RoleMember, got.Role)
		assert.Nil(t, got.MemberExpiryDate)
	})

	t.Run("duplicate email rejected case-insensitively", func(t *testing.T) {
		_, err := storage.CreateUser(ctx, testUser("Jane@Example.COM"))
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("get by email normalizes input", func(t *testing.T) {
		got, err := storage.GetUserByEmail(ctx, "  JANE@example.com ")
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", got.Email)
	})

	t.Run("update member expiry", func(t *testing.T) {
		got, err := storage.GetUserByEmail(ctx, "jane@example.com")
		require.NoError(t, err)

		expiry := time.Now().AddDate(1, 0, 0).UTC().Truncate(time.Second)
		require.NoError(t, storage.UpdateMemberExpiry(ctx, got.UID, expiry))

		got, err = storage.GetUser(ctx, got.UID)
		require.NoError(t, err)
		require.NotNil(t, got.MemberExpiryDate)
		assert.True(t, expiry.Equal(got.MemberExpiryDate.UTC()))
	})

	t.Run("profile update with empty email keeps the email", func(t *testing.T) {
		got, err := storage.GetUserByEmail(ctx, "jane@example.com")
		require.NoError(t, err)

		// Личный кабинет не редактирует почту: поле приходит пустым.
		require.NoError(t, storage.UpdateUserProfile(ctx, got.UID, models.Profile{
			FirstName: "Janet",
			LastName:  "Doe",
			Postcode:  "2009",
		}, ""))

		got, err = storage.GetUserByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", got.Email)
		assert.Equal(t, "Janet", got.FirstName)
		assert.Equal(t, "hashedpassword", got.PasswordHash)
	})

	t.Run("delete unknown user", func(t *testing.T) {
		err := storage.DeleteUser(ctx, "00000000-0000-4000-8000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list members filters by name and email", func(t *testing.T) {
		members, err := storage.ListMembers(ctx, "jane")
		require.NoError(t, err)
		require.Len(t, members, 1)

		members, err = storage.ListMembers(ctx, "nobody-matches-this")
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}

func TestStorage_JoinSessions(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("create, attach checkout, read back", func(t *testing.T) {
		uid, err := storage.CreateJoinSession(ctx, testJoinSession("candidate@example.com"), 30)
		require.NoError(t, err)

		require.NoError(t, storage.AttachCheckoutID(ctx, uid, "cs_1"))

		got, err := storage.GetJoinSession(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "candidate@example.com", got.Email)
		assert.Equal(t, "cs_1", got.CheckoutID)
	})

	t.Run("live session blocks reuse of email", func(t *testing.T) {
		exists, err := storage.EmailExists(ctx, "candidate@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		_, err = storage.CreateJoinSession(ctx, testJoinSession("candidate@example.com"), 30)
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("extend pushes expiry forward from now", func(t *testing.T) {
		uid, err := storage.CreateJoinSession(ctx, testJoinSession("slow@example.com"), 5)
		require.NoError(t, err)

		before, err := storage.GetJoinSession(ctx, uid)
		require.NoError(t, err)

		require.NoError(t, storage.ExtendJoinSession(ctx, uid, 60))

		after, err := storage.GetJoinSession(ctx, uid)
		require.NoError(t, err)
		assert.True(t, after.ExpiresAt.After(before.ExpiresAt))
		assert.WithinDuration(t, time.Now().Add(60*time.Minute), after.ExpiresAt, time.Minute)

		// Истекшую сессию продлить нельзя.
		err = storage.ExtendJoinSession(ctx, "00000000-0000-4000-8000-000000000000", 60)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired session is invisible and frees the email", func(t *testing.T) {
		uid, err := storage.CreateJoinSession(ctx, testJoinSession("expired@example.com"), -1)
		require.NoError(t, err)

		_, err = storage.GetJoinSession(ctx, uid)
		assert.ErrorIs(t, err, ErrNotFound)

		exists, err := storage.EmailExists(ctx, "expired@example.com")
		require.NoError(t, err)
		assert.False(t, exists)

		deleted, err := storage.DeleteExpiredJoinSessions(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, deleted)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		uid, err := storage.CreateJoinSession(ctx, testJoinSession("gone@example.com"), 30)
		require.NoError(t, err)

		require.NoError(t, storage.DeleteJoinSession(ctx, uid))
		require.NoError(t, storage.DeleteJoinSession(ctx, uid))
	})
}

func TestStorage_Payments(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	payment := models.Payment{
		Email:       "payer@example.com",
		AmountCents: 2500,
		Currency:    "aud",
		CheckoutID:  "cs_pay_1",
	}

	t.Run("create pending payment", func(t *testing.T) {
		id, err := storage.CreatePayment(ctx, payment)
		require.NoError(t, err)
		require.NotZero(t, id)

		got, err := storage.GetPaymentByCheckoutID(ctx, "cs_pay_1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, got.Status)
		assert.Nil(t, got.PaidAt)
	})

	t.Run("duplicate checkout id rejected", func(t *testing.T) {
		_, err := storage.CreatePayment(ctx, payment)
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
	})

	t.Run("mark paid exactly once", func(t *testing.T) {
		paidAt := time.Now()
		expiresAt := paidAt.AddDate(1, 0, 0)

		require.NoError(t, storage.MarkPaymentPaid(ctx, "cs_pay_1", paidAt, expiresAt))

		got, err := storage.GetPaymentByCheckoutID(ctx, "cs_pay_1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, got.Status)
		require.NotNil(t, got.PaidAt)

		// Повторная пометка означает повторную доставку события.
		err = storage.MarkPaymentPaid(ctx, "cs_pay_1", paidAt, expiresAt)
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
	})

	t.Run("mark paid for unknown checkout", func(t *testing.T) {
		err := storage.MarkPaymentPaid(ctx, "cs_missing", time.Now(), time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("mark failed leaves terminal statuses alone", func(t *testing.T) {
		require.NoError(t, storage.MarkPaymentFailed(ctx, "cs_pay_1"))

		got, err := storage.GetPaymentByCheckoutID(ctx, "cs_pay_1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, got.Status)
	})
}

func TestStorage_Posts(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("create lands in pending", func(t *testing.T) {
		id, err := storage.CreatePost(ctx, models.Post{
			Title:       "Park upgrade",
			Content:     "Community garden proposal.",
			AuthorEmail: "author@example.com",
		})
		require.NoError(t, err)

		got, err := storage.GetPost(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusPending, got.Status)
		assert.Equal(t, "author@example.com", got.AuthorEmail)
	})

	t.Run("list by status after moderation", func(t *testing.T) {
		id, err := storage.CreatePost(ctx, models.Post{Title: "Second", Content: "Body"})
		require.NoError(t, err)

		require.NoError(t, storage.UpdatePostStatus(ctx, id, models.PostStatusApproved))

		approved, err := storage.ListPostsByStatus(ctx, models.PostStatusApproved)
		require.NoError(t, err)
		require.Len(t, approved, 1)
		assert.Equal(t, id, approved[0].ID)

		pending, err := storage.ListPostsByStatus(ctx, models.PostStatusPending)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("update unknown post", func(t *testing.T) {
		err := storage.UpdatePost(ctx, 9999, "Title", "Body")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete post", func(t *testing.T) {
		id, err := storage.CreatePost(ctx, models.Post{Title: "Short lived", Content: "Body"})
		require.NoError(t, err)

		require.NoError(t, storage.DeletePost(ctx, id))

		_, err = storage.GetPost(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
