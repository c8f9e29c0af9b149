// Package update реализует HTTP-обработчик редактирования профиля
// текущего пользователя. Почта пользователя не меняется, пароль
// меняется только при передаче нового значения.
package update

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
	"github.com/pyrmontaction/membership-backend/internal/models"
)

// Request — структура входных данных редактирования профиля.
type Request struct {
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	MobilePhone    string `json:"mobile_phone" validate:"max=30"`
	AreaOfInterest string `json:"area_of_interest" validate:"max=200"`
	StreetName     string `json:"street_name" validate:"max=200"`
	City           string `json:"city" validate:"max=100"`
	State          string `json:"state" validate:"max=50"`
	Postcode       string `json:"postcode" validate:"max=10"`
	Password       string `json:"password" validate:"omitempty,min=8"`
}

// Service описывает интерфейс бизнес-логики редактирования профиля.
type Service interface {
	UpdateProfile(ctx context.Context, userUID string, profile models.Profile, newPassword string) error
}

// Handler обрабатывает HTTP-запросы редактирования профиля.
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
// @Summary Редактирование профиля
// @Description Обновляет профиль текущего пользователя, опционально меняет пароль.
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Новые данные профиля"
// @Success 200 {object} response.Response "Профиль обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /users/me [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
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

	err := h.service.UpdateProfile(r.Context(), userUID, models.Profile{
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
		log.Error("failed to update profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update profile"))
		return
	}

	log.Info("profile updated", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OK())
}
