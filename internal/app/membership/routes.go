package membership

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pyrmontaction/membership-backend/internal/config"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/auth/cancel"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/auth/join"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/auth/login"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/contact"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/health"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/member/createmanager"
	memberlist "github.com/pyrmontaction/membership-backend/internal/http/handlers/member/list"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/member/profile"
	memberread "github.com/pyrmontaction/membership-backend/internal/http/handlers/member/read"
	memberremove "github.com/pyrmontaction/membership-backend/internal/http/handlers/member/remove"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/member/removeself"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/member/resetpassword"
	memberupdate "github.com/pyrmontaction/membership-backend/internal/http/handlers/member/update"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/payment/checkout"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/payment/confirm"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/payment/renew"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/payment/webhook"
	postcreate "github.com/pyrmontaction/membership-backend/internal/http/handlers/post/create"
	postlist "github.com/pyrmontaction/membership-backend/internal/http/handlers/post/list"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/post/moderate"
	"github.com/pyrmontaction/membership-backend/internal/http/handlers/post/pending"
	postremove "github.com/pyrmontaction/membership-backend/internal/http/handlers/post/remove"
	postupdate "github.com/pyrmontaction/membership-backend/internal/http/handlers/post/update"
	"github.com/pyrmontaction/membership-backend/internal/http/middlewarectx"
	"github.com/pyrmontaction/membership-backend/internal/models"
	authservice "github.com/pyrmontaction/membership-backend/internal/services/auth"
	memberservice "github.com/pyrmontaction/membership-backend/internal/services/member"
	membershipservice "github.com/pyrmontaction/membership-backend/internal/services/membership"
	postservice "github.com/pyrmontaction/membership-backend/internal/services/post"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	authService *authservice.AuthService,
	membershipService *membershipservice.Service,
	memberService *memberservice.Service,
	postService *postservice.Service,
	notifier contact.Notifier,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки с ограничением частоты
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, 5, 10))
			r.Post("/join", join.New(logger, membershipService).ServeHTTP)
			r.Delete("/join/{id}", cancel.New(logger, membershipService).ServeHTTP)
			r.Post("/login", login.New(logger, authService).ServeHTTP)
			r.Post("/payments/checkout", checkout.New(logger, membershipService).ServeHTTP)
			r.Get("/payments/confirm", confirm.New(logger, membershipService).ServeHTTP)
			r.Post("/contact", contact.New(logger, notifier, cfg.ContactRecipient).ServeHTTP)
			r.Get("/posts", postlist.New(logger, postService).ServeHTTP)
		})

		// Webhook платежного провайдера, аутентификация по подписи
		r.Post("/payments/webhook", webhook.New(logger, membershipService,
			cfg.Stripe.WebhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))

			r.Post("/payments/renew", renew.New(logger, membershipService).ServeHTTP)
			r.Get("/users/me", profile.New(logger, memberService).ServeHTTP)
			r.Put("/users/me", memberupdate.New(logger, memberService).ServeHTTP)
			r.Delete("/users/me", removeself.New(logger, memberService).ServeHTTP)
			r.Post("/posts", postcreate.New(logger, postService).ServeHTTP)

			// Модерация блога доступна редакторам и администраторам
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoles(logger, models.RoleAdmin, models.RoleEditor))
				r.Get("/posts/pending", pending.New(logger, postService).ServeHTTP)
				r.Post("/posts/{id}/moderate", moderate.New(logger, postService).ServeHTTP)
				r.Put("/posts/{id}", postupdate.New(logger, postService).ServeHTTP)
				r.Delete("/posts/{id}", postremove.New(logger, postService).ServeHTTP)
			})

			// Управление участниками доступно только администраторам
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoles(logger, models.RoleAdmin))
				r.Delete("/users/{uid}", memberremove.New(logger, memberService).ServeHTTP)
				r.Get("/admin/members", memberlist.New(logger, memberService).ServeHTTP)
				r.Post("/admin/members", createmanager.New(logger, memberService).ServeHTTP)
				r.Get("/admin/members/{uid}", memberread.New(logger, memberService).ServeHTTP)
				r.Post("/admin/members/{uid}/reset-password",
					resetpassword.New(logger, memberService).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
