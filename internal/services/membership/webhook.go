package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
	"github.com/pyrmontaction/membership-backend/internal/paymentprovider"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

var webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "membership_webhook_events_total",
	Help: "Обработанные webhook-события платежного провайдера.",
}, []string{"type", "outcome"})

// HandleWebhookEvent обрабатывает проверенное webhook-событие провайдера.
// Подпись уже проверена на границе HTTP; сюда событие попадает только
// подлинным. Обработка безопасна при повторной и конкурентной доставке
// одного события.
func (s *Service) HandleWebhookEvent(ctx context.Context, event *paymentprovider.Event) error {
	const op = "membership.HandleWebhookEvent"

	switch event.Type {
	case paymentprovider.EventCheckoutCompleted:
		switch event.Data.Object.Metadata["type"] {
		case "join":
			return s.handleJoinCompleted(ctx, event)
		case "renew":
			return s.handleRenewCompleted(ctx, event)
		}
		s.log.Info("ignored completed checkout without known metadata type",
			slog.String("checkout_id", event.Data.Object.ID))
		webhookEvents.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	case paymentprovider.EventCheckoutExpired:
		return s.handleCheckoutExpired(ctx, event)
	default:
		s.log.Info("ignored webhook event", slog.String("event_type", event.Type))
		webhookEvents.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}
}

// handleJoinCompleted завершает регистрацию: создает постоянную учётную
// запись из регистрационной сессии и удаляет сессию.
func (s *Service) handleJoinCompleted(ctx context.Context, event *paymentprovider.Event) error {
	const op = "membership.handleJoinCompleted"
	checkout := event.Data.Object
	sessionUID := checkout.Metadata["join_session_id"]

	log := s.log.With(
		slog.String("op", op),
		slog.String("join_session_id", sessionUID),
		slog.String("checkout_id", checkout.ID),
	)

	session, err := s.repo.GetJoinSession(ctx, sessionUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Сессия уже обработана первой доставкой либо истекла.
			log.Info("join session absent, treating webhook as replay")
			webhookEvents.WithLabelValues(event.Type, "replay").Inc()
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if session.CheckoutID != checkout.ID {
		log.Error("checkout id mismatch for join session",
			slog.String("stored_checkout_id", session.CheckoutID))
		webhookEvents.WithLabelValues(event.Type, "mismatch").Inc()
		return fmt.Errorf("%s: %w", op, ErrIntegrityMismatch)
	}

	customer, err := s.provider.CreateCustomer(ctx, session.Email, session.FirstName+" "+session.LastName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	expiry := membershipExpiry(nil, now)
	user := models.User{
		Email:            session.Email,
		PasswordHash:     session.PasswordHash,
		FirstName:        session.FirstName,
		LastName:         session.LastName,
		MobilePhone:      session.MobilePhone,
		AreaOfInterest:   session.AreaOfInterest,
		StreetName:       session.StreetName,
		City:             session.City,
		State:            session.State,
		Postcode:         session.Postcode,
		StripeCustomerID: customer.ID,
		MemberExpiryDate: &expiry,
		Role:             models.RoleMember,
	}
	if _, err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Конкурентная доставка того же события: учётная запись уже
			// создана, осталось убрать сессию.
			log.Info("user already exists, concurrent webhook delivery")
			if delErr := s.repo.DeleteJoinSession(ctx, sessionUID); delErr != nil {
				log.Error("failed to delete join session after duplicate", sl.Err(delErr))
			}
			webhookEvents.WithLabelValues(event.Type, "replay").Inc()
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.MarkPaymentPaid(ctx, checkout.ID, now, expiry); err != nil &&
		!errors.Is(err, repository.ErrAlreadyProcessed) && !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to mark payment paid", sl.Err(err))
	}
	if err := s.repo.DeleteJoinSession(ctx, sessionUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.EnqueueEmail(welcomeEmail(session.Email, session.FirstName, expiry)); err != nil {
		log.Error("failed to enqueue welcome email", sl.Err(err))
	}

	log.Info("membership activated", slog.String("email", session.Email))
	webhookEvents.WithLabelValues(event.Type, "activated").Inc()
	return nil
}

// handleRenewCompleted продлевает членство существующего пользователя.
// Платеж помечается оплаченным до пересчета даты: повторная доставка
// события не продлевает членство дважды.
func (s *Service) handleRenewCompleted(ctx context.Context, event *paymentprovider.Event) error {
	const op = "membership.handleRenewCompleted"
	checkout := event.Data.Object
	userUID := checkout.Metadata["user_uid"]

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.String("checkout_id", checkout.ID),
	)

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("user referenced by renewal webhook not found")
			webhookEvents.WithLabelValues(event.Type, "missing").Inc()
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if checkout.Customer != "" && user.StripeCustomerID != checkout.Customer {
		log.Error("customer id mismatch for renewal",
			slog.String("stored_customer_id", user.StripeCustomerID))
		webhookEvents.WithLabelValues(event.Type, "mismatch").Inc()
		return fmt.Errorf("%s: %w", op, ErrIntegrityMismatch)
	}

	now := time.Now()
	expiry := membershipExpiry(user.MemberExpiryDate, now)
	if err := s.repo.MarkPaymentPaid(ctx, checkout.ID, now, expiry); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			// Повторная доставка: продление уже применено первой доставкой.
			log.Info("renewal already applied for checkout, skipping")
			webhookEvents.WithLabelValues(event.Type, "replay").Inc()
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpdateMemberExpiry(ctx, userUID, expiry); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.EnqueueEmail(renewalEmail(user.Email, user.FirstName, expiry)); err != nil {
		log.Error("failed to enqueue renewal email", sl.Err(err))
	}

	log.Info("membership renewed", slog.String("email", user.Email),
		slog.Time("new_expiry", expiry))
	webhookEvents.WithLabelValues(event.Type, "renewed").Inc()
	return nil
}

// handleCheckoutExpired убирает регистрационную сессию после отмены либо
// истечения checkout-сессии. Отсутствие записей не считается ошибкой.
func (s *Service) handleCheckoutExpired(ctx context.Context, event *paymentprovider.Event) error {
	const op = "membership.handleCheckoutExpired"
	checkout := event.Data.Object

	if sessionUID := checkout.Metadata["join_session_id"]; sessionUID != "" {
		if err := s.repo.DeleteJoinSession(ctx, sessionUID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := s.repo.MarkPaymentFailed(ctx, checkout.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("checkout expired, join session cleaned up",
		slog.String("checkout_id", checkout.ID))
	webhookEvents.WithLabelValues(event.Type, "expired").Inc()
	return nil
}

func welcomeEmail(to, firstName string, expiry time.Time) models.EmailTask {
	return models.EmailTask{
		To:      to,
		Subject: "Welcome to Pyrmont Action",
		Body: fmt.Sprintf("Hello %s!\n\nYour membership payment has been received. "+
			"Your membership is active until %s.\n\nWelcome aboard!",
			firstName, expiry.Format("02 January 2006")),
	}
}

func renewalEmail(to, firstName string, expiry time.Time) models.EmailTask {
	return models.EmailTask{
		To:      to,
		Subject: "Membership renewal confirmed",
		Body: fmt.Sprintf("Hello %s!\n\nThank you for renewing your membership. "+
			"It is now valid until %s.",
			firstName, expiry.Format("02 January 2006")),
	}
}
