// Package profile реализует HTTP-обработчик выдачи профиля текущего
// пользователя вместе с вычисленным статусом членства.
package profile

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyrmontaction/membership-backend/internal/http/middlewarectx"
	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
)

// Service описывает интерфейс получения профиля.
type Service interface {
	GetProfile(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы выдачи профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Description Возвращает профиль и статус членства текущего пользователя.
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Router /users/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.profile"

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

	user, err := h.service.GetProfile(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get profile"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(UserView(user)))
}

// UserView формирует представление пользователя для выдачи наружу.
// Хэш пароля и служебные поля провайдера не раскрываются.
func UserView(user *models.User) map[string]any {
	return map[string]any{
		"uid":                user.UID,
		"email":              user.Email,
		"first_name":         user.FirstName,
		"last_name":          user.LastName,
		"mobile_phone":       user.MobilePhone,
		"area_of_interest":   user.AreaOfInterest,
		"street_name":        user.StreetName,
		"city":               user.City,
		"state":              user.State,
		"postcode":           user.Postcode,
		"role":               user.Role,
		"member_expiry_date": user.MemberExpiryDate,
		"membership_status":  user.MembershipStatus(time.Now()),
	}
}
