// Package removeself реализует HTTP-обработчик удаления собственной
// учётной записи. Учётная запись главного администратора защищена.
package removeself

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyrmontaction/membership-backend/internal/http/middlewarectx"
	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/services/member"
)

// Service описывает интерфейс бизнес-логики удаления учётной записи.
type Service interface {
	DeleteSelf(ctx context.Context, userUID string) error
}

// Handler обрабатывает HTTP-запросы удаления собственной учётной записи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление собственной учётной записи
// @Description Удаляет учётную запись текущего пользователя.
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Success 204 "Учётная запись удалена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 403 {object} response.ErrorResponse "Учётная запись защищена"
// @Router /users/me [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.removeself"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.ErrorKind(response.KindUnauthorized,
			"user identification missing"))
		return
	}

	if err := h.service.DeleteSelf(r.Context(), userUID); err != nil {
		if errors.Is(err, member.ErrProtectedAccount) {
			log.Warn("attempt to delete protected account",
				slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.ErrorKind(response.KindProtectedAccount,
				"this account cannot be deleted"))
			return
		}
		log.Error("failed to delete account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete account"))
		return
	}

	log.Info("account deleted", slog.String("user_uid", userUID))
	w.WriteHeader(http.StatusNoContent)
}
