// Package membership собирает основное приложение: хранилище, кэш, очередь
// уведомлений, платежный клиент, сервисы и HTTP-сервер.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/pyrmontaction/membership-backend/internal/cache"
	"github.com/pyrmontaction/membership-backend/internal/config"
	libjwt "github.com/pyrmontaction/membership-backend/internal/lib/jwt"
	"github.com/pyrmontaction/membership-backend/internal/lib/rabbitmq"
	"github.com/pyrmontaction/membership-backend/internal/migrations"
	"github.com/pyrmontaction/membership-backend/internal/paymentprovider"
	authservice "github.com/pyrmontaction/membership-backend/internal/services/auth"
	"github.com/pyrmontaction/membership-backend/internal/services/janitor"
	memberservice "github.com/pyrmontaction/membership-backend/internal/services/member"
	membershipservice "github.com/pyrmontaction/membership-backend/internal/services/membership"
	postservice "github.com/pyrmontaction/membership-backend/internal/services/post"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// App инкапсулирует зависимости основного приложения.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	rabbit  *amqp.Connection
	janitor *janitor.Janitor
}

// New собирает приложение из конфигурации: подключает зависимости,
// прогоняет миграции, продвигает главного администратора и строит маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.membership.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	notifier := rabbitmq.NewEmailNotifier(rabbitCh)

	providerClient := paymentprovider.NewClient(cfg.Stripe.APIKey)
	jwtMaker := libjwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker, cfg.MasterAdminEmail, logger)
	if err := authService.EnsureMasterAdmin(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	membershipService := membershipservice.New(db, providerClient, notifier,
		membershipservice.Options{
			FrontendBaseURL: cfg.FrontendBaseURL,
			FeeAmountCents:  cfg.FeeAmountCents,
			FeeCurrency:     cfg.FeeCurrency,
			SessionTTLMin:   cfg.TTLMinutes,
		}, logger)
	memberService := memberservice.New(db, cacheRedis, notifier, authService, logger)
	postService := postservice.New(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, authService, membershipService,
		memberService, postService, notifier)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		logger:  logger,
		db:      db,
		rabbit:  rabbitConn,
		janitor: janitor.New(db, cfg.CleanupInterval, logger),
	}, nil
}

// Run запускает HTTP-сервер и фоновую очистку регистрационных сессий,
// блокируется до отмены контекста или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	go a.janitor.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.rabbit.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq connection")
		}
		_ = a.db.DB.Close()
		return err
	}
}
