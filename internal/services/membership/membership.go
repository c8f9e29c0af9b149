// Package membership реализует основной сценарий системы:
// регистрация кандидата, создание checkout-сессии на оплату взноса,
// обработка webhook-уведомлений провайдера и продление членства.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pyrmontaction/membership-backend/internal/lib/password"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
	"github.com/pyrmontaction/membership-backend/internal/paymentprovider"
)

// ErrIntegrityMismatch корреляционные данные webhook-события не совпадают
// с сохраненной записью. Защита от подмены metadata и повторов чужих событий.
var ErrIntegrityMismatch = errors.New("webhook metadata does not match stored record")

// Repository описывает контракт хранилища для сценария членства.
type Repository interface {
	CreateJoinSession(ctx context.Context, session models.JoinSession, ttlMinutes int) (string, error)
	GetJoinSession(ctx context.Context, uid string) (*models.JoinSession, error)
	AttachCheckoutID(ctx context.Context, uid, checkoutID string) error
	DeleteJoinSession(ctx context.Context, uid string) error

	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userUID, customerID string) error
	UpdateMemberExpiry(ctx context.Context, userUID string, expiry time.Time) error

	CreatePayment(ctx context.Context, payment models.Payment) (int, error)
	GetPaymentByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error)
	MarkPaymentPaid(ctx context.Context, checkoutID string, paidAt, expiresAt time.Time) error
	MarkPaymentFailed(ctx context.Context, checkoutID string) error
}

// Provider описывает контракт платежного провайдера.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params paymentprovider.CreateCheckoutParams) (*paymentprovider.CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, checkoutID string) (*paymentprovider.CheckoutSession, error)
	CreateCustomer(ctx context.Context, email, name string) (*paymentprovider.Customer, error)
}

// Notifier описывает контракт публикации заданий на отправку писем.
type Notifier interface {
	EnqueueEmail(task models.EmailTask) error
}

// Options параметры сценария членства из конфигурации.
type Options struct {
	FrontendBaseURL string
	FeeAmountCents  int
	FeeCurrency     string
	SessionTTLMin   int
}

// Service координирует регистрацию, оплату и активацию членства.
type Service struct {
	repo     Repository
	provider Provider
	notifier Notifier
	opts     Options
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, provider Provider, notifier Notifier, opts Options, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		opts:     opts,
		log:      log,
	}
}

// StartJoin создает временную регистрационную сессию для кандидата.
// Пароль хэшируется до записи: в хранилище он не попадает в открытом виде.
func (s *Service) StartJoin(ctx context.Context, profile models.Profile, rawPassword string) (string, error) {
	const op = "membership.StartJoin"

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	session := models.JoinSession{
		Email:          profile.Email,
		PasswordHash:   hash,
		FirstName:      profile.FirstName,
		LastName:       profile.LastName,
		MobilePhone:    profile.MobilePhone,
		AreaOfInterest: profile.AreaOfInterest,
		StreetName:     profile.StreetName,
		City:           profile.City,
		State:          profile.State,
		Postcode:       profile.Postcode,
	}
	uid, err := s.repo.CreateJoinSession(ctx, session, s.opts.SessionTTLMin)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// CancelJoin удаляет регистрационную сессию, если кандидат передумал.
func (s *Service) CancelJoin(ctx context.Context, sessionUID string) error {
	return s.repo.DeleteJoinSession(ctx, sessionUID)
}

// CreateJoinCheckout создает checkout-сессию на оплату вступительного взноса.
// Идентификатор регистрационной сессии передается провайдеру в metadata и
// возвращается в webhook-уведомлении. При ошибке провайдера только что
// созданная регистрационная сессия откатывается, чтобы не оставлять
// осиротевших записей.
func (s *Service) CreateJoinCheckout(ctx context.Context, sessionUID string) (string, error) {
	const op = "membership.CreateJoinCheckout"

	session, err := s.repo.GetJoinSession(ctx, sessionUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	checkout, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CreateCheckoutParams{
		CustomerEmail:      session.Email,
		AmountCents:        s.opts.FeeAmountCents,
		Currency:           s.opts.FeeCurrency,
		ProductName:        "Membership Registration",
		ProductDescription: "Annual membership fee",
		SuccessURL:         s.opts.FrontendBaseURL + "/login?status=success",
		CancelURL:          s.opts.FrontendBaseURL + "/joinus?status=cancelled&session_id=" + sessionUID,
		Metadata: map[string]string{
			"type":            "join",
			"join_session_id": sessionUID,
		},
	})
	if err != nil {
		s.log.Error("checkout creation failed, rolling back join session",
			slog.String("join_session_id", sessionUID), sl.Err(err))
		if delErr := s.repo.DeleteJoinSession(ctx, sessionUID); delErr != nil {
			s.log.Error("failed to roll back join session", sl.Err(delErr))
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.AttachCheckoutID(ctx, sessionUID, checkout.ID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.CreatePayment(ctx, models.Payment{
		Email:       session.Email,
		AmountCents: s.opts.FeeAmountCents,
		Currency:    s.opts.FeeCurrency,
		CheckoutID:  checkout.ID,
	}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return checkout.URL, nil
}

// CreateRenewCheckout создает checkout-сессию на продление членства
// существующего пользователя. Клиент у провайдера создается при первом
// продлении и запоминается.
func (s *Service) CreateRenewCheckout(ctx context.Context, userUID string) (string, error) {
	const op = "membership.CreateRenewCheckout"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if user.StripeCustomerID == "" {
		customer, err := s.provider.CreateCustomer(ctx, user.Email, user.FirstName+" "+user.LastName)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if err := s.repo.SetStripeCustomerID(ctx, userUID, customer.ID); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		user.StripeCustomerID = customer.ID
	}

	description := "Annual membership renewal"
	if user.MemberExpiryDate != nil {
		description = "Current membership expires on " + user.MemberExpiryDate.Format("02/01/2006")
	}
	checkout, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CreateCheckoutParams{
		CustomerID:         user.StripeCustomerID,
		AmountCents:        s.opts.FeeAmountCents,
		Currency:           s.opts.FeeCurrency,
		ProductName:        "Annual Membership Renewal",
		ProductDescription: description,
		SuccessURL:         s.opts.FrontendBaseURL + "/dashboard/member?status=success",
		CancelURL:          s.opts.FrontendBaseURL + "/dashboard/member?status=cancelled",
		Metadata: map[string]string{
			"type":     "renew",
			"user_uid": userUID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.repo.CreatePayment(ctx, models.Payment{
		Email:       user.Email,
		AmountCents: s.opts.FeeAmountCents,
		Currency:    s.opts.FeeCurrency,
		CheckoutID:  checkout.ID,
	}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return checkout.URL, nil
}

// GetPaymentState возвращает состояние платежа по идентификатору
// checkout-сессии. Используется фронтендом для опроса после редиректа.
func (s *Service) GetPaymentState(ctx context.Context, checkoutID string) (*models.Payment, error) {
	return s.repo.GetPaymentByCheckoutID(ctx, checkoutID)
}

// membershipExpiry вычисляет новую дату истечения членства: год от более
// позднего из двух моментов — сейчас или текущее истечение. Продление
// никогда не сжигает неиспользованное время.
func membershipExpiry(current *time.Time, now time.Time) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.AddDate(1, 0, 0)
}
