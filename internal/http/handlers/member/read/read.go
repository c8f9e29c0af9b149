// Package read реализует HTTP-обработчик выдачи профиля участника
// по идентификатору для административной панели.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/pyrmontaction/membership-backend/internal/http/handlers/member/profile"
	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// Service описывает интерфейс получения участника.
type Service interface {
	GetMember(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы выдачи участника.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль участника
// @Description Возвращает профиль участника по идентификатору.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Идентификатор пользователя"
// @Success 200 {object} map[string]any "Профиль участника"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /admin/members/{uid} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")
	if _, err := uuid.Parse(userUID); err != nil {
		log.Error("invalid user uid", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user uid"))
		return
	}

	user, err := h.service.GetMember(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.ErrorKind(response.KindNotFound, "user not found"))
			return
		}
		log.Error("failed to get user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get user"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(profile.UserView(user)))
}
