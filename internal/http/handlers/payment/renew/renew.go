// Package renew реализует HTTP-обработчик создания checkout-сессии
// на продление членства. Обработчик доступен только аутентифицированным
// пользователям, идентификатор берется из контекста запроса.
package renew

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyrmontaction/membership-backend/internal/http/middlewarectx"
	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/paymentprovider"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики продления членства.
type Service interface {
	CreateRenewCheckout(ctx context.Context, userUID string) (string, error)
}

// Handler обрабатывает HTTP-запросы продления членства.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Создание оплаты продления членства
// @Description Создает checkout-сессию на продление членства текущего пользователя.
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Ссылка на оплату"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 502 {object} response.ErrorResponse "Ошибка платежного провайдера"
// @Router /payments/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.renew"

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

	checkoutURL, err := h.service.CreateRenewCheckout(r.Context(), userUID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.ErrorKind(response.KindNotFound, "user not found"))
		case errors.Is(err, paymentprovider.ErrGateway),
			errors.Is(err, paymentprovider.ErrGatewayTimeout):
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.ErrorKind(response.KindGatewayError,
				"payment provider unavailable"))
		default:
			log.Error("failed to create renew checkout", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create checkout"))
		}
		return
	}

	log.Info("renew checkout created", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"checkout_url": checkoutURL,
	}))
}
