// Package join реализует HTTP-обработчик начала регистрации участника.
//
// В нём определяется структура Request с данными анкеты, выполняется
// декодирование JSON, валидация полей и делегирование операции сервису
// членства. Учётная запись на этом шаге не создается: кандидат получает
// идентификатор временной сессии, действующей до оплаты взноса.
package join

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
	"github.com/pyrmontaction/membership-backend/internal/models"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// Request — структура входных данных анкеты кандидата.
type Request struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	MobilePhone    string `json:"mobile_phone" validate:"max=30"`
	AreaOfInterest string `json:"area_of_interest" validate:"max=200"`
	StreetName     string `json:"street_name" validate:"max=200"`
	City           string `json:"city" validate:"max=100"`
	State          string `json:"state" validate:"max=50"`
	Postcode       string `json:"postcode" validate:"max=10"`
}

// Service описывает интерфейс бизнес-логики начала регистрации.
type Service interface {
	StartJoin(ctx context.Context, profile models.Profile, rawPassword string) (string, error)
}

// Handler обрабатывает HTTP-запросы начала регистрации.
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
// @Summary Начало регистрации участника
// @Description Принимает анкету кандидата и создает временную регистрационную сессию.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Анкета кандидата"
// @Success 201 {object} map[string]any "Сессия создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Почта уже занята"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /join [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.join"

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

	sessionUID, err := h.service.StartJoin(r.Context(), models.Profile{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		MobilePhone:    req.MobilePhone,
		AreaOfInterest: req.AreaOfInterest,
		StreetName:     req.StreetName,
		City:           req.City,
		State:          req.State,
		Postcode:       req.Postcode,
	}, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			log.Info("email already registered", slog.String("email", req.Email))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.ErrorKind(response.KindDuplicateEmail,
				"email is already registered"))
			return
		}
		log.Error("failed to start join", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start registration"))
		return
	}

	log.Info("join session created", slog.String("session_id", sessionUID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"session_id": sessionUID,
		"email":      req.Email,
	}))
}
