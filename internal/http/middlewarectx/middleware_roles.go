package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
)

// RequireRoles возвращает middleware, пропускающий запрос только если роль
// из контекста входит в список разрешённых. Ставится после JWTMiddleware.
func RequireRoles(log *slog.Logger, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(Role).(string)
			if !ok || role == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.ErrorKind(response.KindUnauthorized,
					"user identification missing"))
				return
			}
			for _, a := range allowed {
				if role == a {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Warn("access denied", slog.String("role", role))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.ErrorKind(response.KindForbidden,
				"insufficient permissions"))
		})
	}
}
