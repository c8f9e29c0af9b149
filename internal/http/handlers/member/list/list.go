// Package list реализует HTTP-обработчик списка участников для
// административной панели с поиском и фильтром по статусу членства.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
)

// Service описывает интерфейс получения списка участников.
type Service interface {
	ListMembers(ctx context.Context, search, status string) ([]models.MemberSummary, error)
}

// Handler обрабатывает HTTP-запросы списка участников.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список участников
// @Description Возвращает список участников с поиском и фильтром по статусу членства.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Поиск по имени или почте"
// @Param status query string false "Фильтр по статусу: active, expired или all"
// @Success 200 {object} map[string]any "Список участников"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Router /admin/members [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	search := r.URL.Query().Get("q")
	status := r.URL.Query().Get("status")

	members, err := h.service.ListMembers(r.Context(), search, status)
	if err != nil {
		log.Error("failed to list members", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list members"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"members": members,
		"count":   len(members),
	}))
}
