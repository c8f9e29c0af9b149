// Package contact реализует HTTP-обработчик формы обратной связи.
// Сообщение ставится в очередь писем и доставляется на адрес ассоциации.
package contact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
)

// Request — структура входных данных формы обратной связи.
type Request struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Notifier описывает контракт публикации заданий на отправку писем.
type Notifier interface {
	EnqueueEmail(task models.EmailTask) error
}

// Handler обрабатывает HTTP-запросы формы обратной связи.
type Handler struct {
	log       *slog.Logger
	notifier  Notifier
	recipient string
	validate  *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, notifier Notifier, recipient string) *Handler {
	return &Handler{
		log:       log,
		notifier:  notifier,
		recipient: recipient,
		validate:  validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Форма обратной связи
// @Description Принимает сообщение посетителя и отправляет его на адрес ассоциации.
// @Tags Contact
// @Accept json
// @Produce json
// @Param request body Request true "Сообщение посетителя"
// @Success 200 {object} response.Response "Сообщение принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /contact [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contact"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	err := h.notifier.EnqueueEmail(models.EmailTask{
		To:      h.recipient,
		Subject: fmt.Sprintf("Website enquiry from %s", req.Name),
		Body: fmt.Sprintf("Name: %s\nEmail: %s\n\n%s",
			req.Name, req.Email, req.Message),
	})
	if err != nil {
		log.Error("failed to enqueue contact email", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to send message"))
		return
	}

	log.Info("contact message enqueued", slog.String("from", req.Email))
	render.JSON(w, r, response.OK())
}
