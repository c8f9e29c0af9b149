// Package remove реализует HTTP-обработчик удаления учётной записи
// администратором. Администратор не может удалить сам себя этим путем,
// учётная запись главного администратора защищена.
package remove

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

// Service описывает интерфейс бизнес-логики удаления учётных записей.
type Service interface {
	DeleteUser(ctx context.Context, callerUID, targetUID string) error
}

// Handler обрабатывает HTTP-запросы удаления учётных записей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление учётной записи администратором
// @Description Удаляет учётную запись по идентификатору.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Идентификатор пользователя"
// @Success 204 "Учётная запись удалена"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 403 {object} response.ErrorResponse "Учётная запись защищена"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{uid} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	callerUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || callerUID == "" {
		log.Error("user identification missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.ErrorKind(response.KindUnauthorized,
			"user identification missing"))
		return
	}

	targetUID := chi.URLParam(r, "uid")
	if _, err := uuid.Parse(targetUID); err != nil {
		log.Error("invalid user uid", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user uid"))
		return
	}

	if err := h.service.DeleteUser(r.Context(), callerUID, targetUID); err != nil {
		switch {
		case errors.Is(err, member.ErrProtectedAccount):
			log.Warn("attempt to delete protected account",
				slog.String("target_uid", targetUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.ErrorKind(response.KindProtectedAccount,
				"this account cannot be deleted"))
		case errors.Is(err, repository.ErrNotFound):
			log.Info("user not found", slog.String("target_uid", targetUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.ErrorKind(response.KindNotFound, "user not found"))
		default:
			log.Error("failed to delete user", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to delete user"))
		}
		return
	}

	log.Info("user deleted", slog.String("target_uid", targetUID))
	w.WriteHeader(http.StatusNoContent)
}
