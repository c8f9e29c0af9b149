// Package list реализует HTTP-обработчик публичной ленты блога:
// выдаются только одобренные записи.
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

// Service описывает интерфейс получения одобренных записей.
type Service interface {
	ListApproved(ctx context.Context) ([]*models.Post, error)
}

// Handler обрабатывает HTTP-запросы публичной ленты блога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Публичная лента блога
// @Description Возвращает одобренные записи блога от новых к старым.
// @Tags Posts
// @Produce json
// @Success 200 {object} map[string]any "Список записей"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /posts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.post.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	posts, err := h.service.ListApproved(r.Context())
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list posts"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"posts": PostViews(posts),
		"count": len(posts),
	}))
}

// PostViews формирует представление записей для выдачи наружу.
func PostViews(posts []*models.Post) []map[string]any {
	views := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		views = append(views, map[string]any{
			"id":           p.ID,
			"title":        p.Title,
			"content":      p.Content,
			"author_email": p.AuthorEmail,
			"status":       p.Status,
			"created_at":   p.CreatedAt,
			"updated_at":   p.UpdatedAt,
		})
	}
	return views
}
