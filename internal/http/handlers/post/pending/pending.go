// Package pending реализует HTTP-обработчик очереди модерации блога.
// Доступен редакторам и администраторам.
package pending

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyrmontaction/membership-backend/internal/http/handlers/post/list"
	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
)

// Service описывает интерфейс получения очереди модерации.
type Service interface {
	ListPending(ctx context.Context) ([]*models.Post, error)
}

// Handler обрабатывает HTTP-запросы очереди модерации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Очередь модерации блога
// @Description Возвращает записи блога, ожидающие модерации.
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список записей"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Router /posts/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.post.pending"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	posts, err := h.service.ListPending(r.Context())
	if err != nil {
		log.Error("failed to list pending posts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list pending posts"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"posts": list.PostViews(posts),
		"count": len(posts),
	}))
}
