// Package createmanager реализует HTTP-обработчик создания учётной записи
// администратора или редактора. Пароль генерируется и отправляется письмом,
// обработчик его не возвращает.
package createmanager

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// Request — структура входных данных создания менеджера.
type Request struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Role      string `json:"role" validate:"required,oneof=admin editor"`
}

// Service описывает интерфейс бизнес-логики создания менеджеров.
type Service interface {
	CreateManager(ctx context.Context, email, firstName, lastName, role string) (string, error)
}

// Handler обрабатывает HTTP-запросы создания менеджеров.
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
// @Summary Создание менеджера
// @Description Создает учётную запись администратора или редактора со сгенерированным паролем.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Данные новой учётной записи"
// @Success 201 {object} map[string]any "Учётная запись создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Почта уже занята"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /admin/members [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.createmanager"

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

	uid, err := h.service.CreateManager(r.Context(), req.Email, req.FirstName,
		req.LastName, req.Role)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			log.Info("email already registered", slog.String("email", req.Email))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.ErrorKind(response.KindDuplicateEmail,
				"email is already registered"))
			return
		}
		log.Error("failed to create manager", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create manager"))
		return
	}

	log.Info("manager created", slog.String("uid", uid), slog.String("role", req.Role))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"uid":   uid,
		"email": req.Email,
		"role":  req.Role,
	}))
}
