package membership

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pyrmontaction/membership-backend/internal/models"
	"github.com/pyrmontaction/membership-backend/internal/paymentprovider"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateJoinSession(ctx context.Context, session models.JoinSession, ttlMinutes int) (string, error) {
	args := m.Called(ctx, session, ttlMinutes)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) GetJoinSession(ctx context.Context, uid string) (*models.JoinSession, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinSession), args.Error(1)
}
func (m *RepoMock) AttachCheckoutID(ctx context.Context, uid, checkoutID string) error {
	return m.Called(ctx, uid, checkoutID).Error(0)
}
func (m *RepoMock) DeleteJoinSession(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}
func (m *RepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) SetStripeCustomerID(ctx context.Context, userUID, customerID string) error {
	return m.Called(ctx, userUID, customerID).Error(0)
}
func (m *RepoMock) UpdateMemberExpiry(ctx context.Context, userUID string, expiry time.Time) error {
	return m.Called(ctx, userUID, expiry).Error(0)
}
func (m *RepoMock) CreatePayment(ctx context.Context, payment models.Payment) (int, error) {
	args := m.Called(ctx, payment)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetPaymentByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	args := m.Called(ctx, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}
func (m *RepoMock) MarkPaymentPaid(ctx context.Context, checkoutID string, paidAt, expiresAt time.Time) error {
	return m.Called(ctx, checkoutID, paidAt, expiresAt).Error(0)
}
func (m *RepoMock) MarkPaymentFailed(ctx context.Context, checkoutID string) error {
	return m.Called(ctx, checkoutID).Error(0)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) CreateCheckoutSession(ctx context.Context, params paymentprovider.CreateCheckoutParams) (*paymentprovider.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.CheckoutSession), args.Error(1)
}
func (m *ProviderMock) RetrieveCheckoutSession(ctx context.Context, checkoutID string) (*paymentprovider.CheckoutSession, error) {
	args := m.Called(ctx, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.CheckoutSession), args.Error(1)
}
func (m *ProviderMock) CreateCustomer(ctx context.Context, email, name string) (*paymentprovider.Customer, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.Customer), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) EnqueueEmail(task models.EmailTask) error {
	return m.Called(task).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func defaultOptions() Options {
	return Options{
		FrontendBaseURL: "http://localhost:3000",
		FeeAmountCents:  2500,
		FeeCurrency:     "aud",
		SessionTTLMin:   60,
	}
}

func TestStartJoin(t *testing.T) {
	ctx := context.Background()

	t.Run("success hashes password before storing", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, new(ProviderMock), new(NotifierMock), defaultOptions(), newNoopLogger())

		repo.On("CreateJoinSession", mock.Anything, mock.MatchedBy(func(s models.JoinSession) bool {
			return s.Email == "jane@example.com" && s.PasswordHash != "" && s.PasswordHash != "secret123"
		}), 60).Return("uid-1", nil).Once()

		uid, err := svc.StartJoin(ctx, models.Profile{
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
		}, "secret123")

		assert.NoError(t, err)
		assert.Equal(t, "uid-1", uid)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate email surfaces sentinel", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, new(ProviderMock), new(NotifierMock), defaultOptions(), newNoopLogger())

		repo.On("CreateJoinSession", mock.Anything, mock.Anything, 60).
			Return("", repository.ErrDuplicateEmail).Once()

		_, err := svc.StartJoin(ctx, models.Profile{Email: "jane@example.com"}, "secret123")

		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	})
}

func TestCreateJoinCheckout(t *testing.T) {
	ctx := context.Background()
	session := &models.JoinSession{
		UID:       "sess-1",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	}

	t.Run("success attaches checkout and records pending payment", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		svc := New(repo, provider, new(NotifierMock), defaultOptions(), newNoopLogger())

		repo.On("GetJoinSession", mock.Anything, "sess-1").Return(session, nil).Once()
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p paymentprovider.CreateCheckoutParams) bool {
			return p.Metadata["type"] == "join" &&
				p.Metadata["join_session_id"] == "sess-1" &&
				p.AmountCents == 2500
		})).Return(&paymentprovider.CheckoutSession{ID: "cs_1", URL: "https://pay/cs_1"}, nil).Once()
		repo.On("AttachCheckoutID", mock.Anything, "sess-1", "cs_1").Return(nil).Once()
		repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
			return p.CheckoutID == "cs_1" && p.Email == "jane@example.com"
		})).Return(1, nil).Once()

		url, err := svc.CreateJoinCheckout(ctx, "sess-1")

		assert.NoError(t, err)
		assert.Equal(t, "https://pay/cs_1", url)
		repo.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("expired session returns not found", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, new(ProviderMock), new(NotifierMock), defaultOptions(), newNoopLogger())

		repo.On("GetJoinSession", mock.Anything, "sess-gone").
			Return(nil, repository.ErrNotFound).Once()

		_, err := svc.CreateJoinCheckout(ctx, "sess-gone")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("provider failure rolls back join session", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		svc := New(repo, provider, new(NotifierMock), defaultOptions(), newNoopLogger())

		repo.On("GetJoinSession", mock.Anything, "sess-1").Return(session, nil).Once()
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(nil, paymentprovider.ErrGateway).Once()
		repo.On("DeleteJoinSession", mock.Anything, "sess-1").Return(nil).Once()

		_, err := svc.CreateJoinCheckout(ctx, "sess-1")

		assert.ErrorIs(t, err, paymentprovider.ErrGateway)
		repo.AssertExpectations(t)
	})
}

func TestCreateRenewCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("creates provider customer on first renewal", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		svc := New(repo, provider, new(NotifierMock), defaultOptions(), newNoopLogger())

		repo.On("GetUser", mock.Anything, "user-1").Return(&models.User{
			UID:       "user-1",
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
		}, nil).Once()
		provider.On("CreateCustomer", mock.Anything, "jane@example.com", "Jane Doe").
			Return(&paymentprovider.Customer{ID: "cus_1"}, nil).Once()
		repo.On("SetStripeCustomerID", mock.Anything, "user-1", "cus_1").Return(nil).Once()
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p paymentprovider.CreateCheckoutParams) bool {
			return p.CustomerID == "cus_1" && p.Metadata["type"] == "renew" &&
				p.Metadata["user_uid"] == "user-1"
		})).Return(&paymentprovider.CheckoutSession{ID: "cs_2", URL: "https://pay/cs_2"}, nil).Once()
		repo.On("CreatePayment", mock.Anything, mock.Anything).Return(2, nil).Once()

		url, err := svc.CreateRenewCheckout(ctx, "user-1")

		assert.NoError(t, err)
		assert.Equal(t, "https://pay/cs_2", url)
		repo.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("reuses stored provider customer", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		svc := New(repo, provider, new(NotifierMock), defaultOptions(), newNoopLogger())

		repo.On("GetUser", mock.Anything, "user-1").Return(&models.User{
			UID:              "user-1",
			Email:            "jane@example.com",
			StripeCustomerID: "cus_1",
		}, nil).Once()
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(&paymentprovider.CheckoutSession{ID: "cs_3", URL: "https://pay/cs_3"}, nil).Once()
		repo.On("CreatePayment", mock.Anything, mock.Anything).Return(3, nil).Once()

		_, err := svc.CreateRenewCheckout(ctx, "user-1")

		assert.NoError(t, err)
		provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMembershipExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no current expiry starts from now", func(t *testing.T) {
		got := membershipExpiry(nil, now)
		assert.Equal(t, now.AddDate(1, 0, 0), got)
	})

	t.Run("active membership stacks on current expiry", func(t *testing.T) {
		current := now.AddDate(0, 2, 0)
		got := membershipExpiry(&current, now)
		assert.Equal(t, current.AddDate(1, 0, 0), got)
	})

	t.Run("lapsed membership restarts from now", func(t *testing.T) {
		current := now.AddDate(0, -2, 0)
		got := membershipExpiry(&current, now)
		assert.Equal(t, now.AddDate(1, 0, 0), got)
	})
}
