// Package cancel реализует HTTP-обработчик отмены начатой регистрации.
// Удаление сессии идемпотентно: повторная отмена или отмена уже истекшей
// сессии возвращает тот же результат.
package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики отмены регистрации.
type Service interface {
	CancelJoin(ctx context.Context, sessionUID string) error
}

// Handler обрабатывает HTTP-запросы отмены регистрации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отмена начатой регистрации
// @Description Удаляет временную регистрационную сессию кандидата.
// @Tags Auth
// @Produce json
// @Param id path string true "Идентификатор сессии"
// @Success 204 "Сессия удалена"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /join/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessionUID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(sessionUID); err != nil {
		log.Error("invalid session id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid session id"))
		return
	}

	if err := h.service.CancelJoin(r.Context(), sessionUID); err != nil {
		log.Error("failed to cancel join session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to cancel registration"))
		return
	}

	log.Info("join session cancelled", slog.String("session_id", sessionUID))
	w.WriteHeader(http.StatusNoContent)
}
