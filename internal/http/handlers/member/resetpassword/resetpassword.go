// Package resetpassword реализует HTTP-обработчик сброса пароля участника
// администратором. Новый пароль генерируется и отправляется участнику письмом.
package resetpassword

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/pyrmontaction/membership-backend/internal/http/middlewarectx"
	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/services/member"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики сброса паролей.
type Service interface {
	SetRandomPassword(ctx context.Context, targetUID string) error
}

// Handler обрабатывает HTTP-запросы сброса пароля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сброс пароля участника
// @Description Сбрасывает пароль участника на случайный и отправляет его письмом.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Идентификатор пользователя"
// @Success 200 {object} response.Response "Пароль сброшен"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 403 {object} response.ErrorResponse "Учётная запись защищена"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /admin/members/{uid}/reset-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.resetpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	callerUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	targetUID := chi.URLParam(r, "uid")
	if _, err := uuid.Parse(targetUID); err != nil {
		log.Error("invalid user uid", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user uid"))
		return
	}

	if err := h.service.SetRandomPassword(r.Context(), targetUID); err != nil {
		switch {
		case errors.Is(err, member.ErrProtectedAccount):
			log.Warn("attempt to reset protected account password",
				slog.String("caller_uid", callerUID),
				slog.String("target_uid", targetUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.ErrorKind(response.KindProtectedAccount,
				"this account password cannot be reset"))
		case errors.Is(err, repository.ErrNotFound):
			log.Info("user not found", slog.String("target_uid", targetUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.ErrorKind(response.KindNotFound, "user not found"))
		default:
			log.Error("failed to reset password", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to reset password"))
		}
		return
	}

	log.Info("password reset", slog.String("target_uid", targetUID))
	render.JSON(w, r, response.OK())
}
