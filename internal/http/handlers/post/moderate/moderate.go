// Package moderate реализует HTTP-обработчик вынесения вердикта модерации
// записи блога: approved или rejected.
package moderate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/services/post"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// Request — структура входных данных вердикта модерации.
type Request struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// Service описывает интерфейс бизнес-логики модерации.
type Service interface {
	Moderate(ctx context.Context, id int, status string) error
}

// Handler обрабатывает HTTP-запросы модерации записей.
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
// @Summary Модерация записи блога
// @Description Выставляет записи вердикт модерации: approved или rejected.
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Идентификатор записи"
// @Param request body Request true "Вердикт модерации"
// @Success 200 {object} response.Response "Вердикт сохранен"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /posts/{id}/moderate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.post.moderate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid post id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid post id"))
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

	if err := h.service.Moderate(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Info("post not found", slog.Int("post_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.ErrorKind(response.KindNotFound, "post not found"))
		case errors.Is(err, post.ErrInvalidStatus):
			log.Error("invalid moderation status", slog.String("status", req.Status))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid moderation status"))
		default:
			log.Error("failed to moderate post", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to moderate post"))
		}
		return
	}

	log.Info("post moderated", slog.Int("post_id", id), slog.String("status", req.Status))
	render.JSON(w, r, response.OK())
}
