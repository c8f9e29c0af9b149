// Package create реализует HTTP-обработчик создания записи блога.
// Запись попадает в очередь модерации и не видна публично до одобрения.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pyrmontaction/membership-backend/internal/http/middlewarectx"
	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
)

// Request — структура входных данных записи блога.
type Request struct {
	Title   string `json:"title" validate:"required,max=300"`
	Content string `json:"content" validate:"required"`
}

// Service описывает интерфейс бизнес-логики создания записей.
type Service interface {
	Create(ctx context.Context, authorEmail, title, content string) (int, error)
}

// Handler обрабатывает HTTP-запросы создания записей блога.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание записи блога
// @Description Сохраняет запись блога в очередь модерации.
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Запись блога"
// @Success 201 {object} map[string]any "Запись создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /posts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.post.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// Почта автора берется из токена, анонимные записи не принимаются.
	authorEmail, ok := r.Context().Value(middlewarectx.Email).(string)
	if !ok || authorEmail == "" {
		log.Error("user identification missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.ErrorKind(response.KindUnauthorized,
			"user identification missing"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.Create(r.Context(), authorEmail, req.Title, req.Content)
	if err != nil {
		log.Error("failed to create post", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create post"))
		return
	}

	log.Info("post created", slog.Int("post_id", id))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":     id,
		"status": "pending",
	}))
}
