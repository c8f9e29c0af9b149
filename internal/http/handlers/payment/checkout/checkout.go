// Package checkout реализует HTTP-обработчик создания checkout-сессии
// на оплату вступительного взноса. Кандидат передает идентификатор
// регистрационной сессии и получает ссылку на страницу оплаты.
package checkout

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
	"github.com/pyrmontaction/membership-backend/internal/paymentprovider"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// Request — структура входных данных для создания оплаты.
type Request struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

// Service описывает интерфейс бизнес-логики создания оплаты вступления.
type Service interface {
	CreateJoinCheckout(ctx context.Context, sessionUID string) (string, error)
}

// Handler обрабатывает HTTP-запросы создания оплаты вступления.
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
// @Summary Создание оплаты вступительного взноса
// @Description Создает checkout-сессию у платежного провайдера и возвращает ссылку на оплату.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body Request true "Идентификатор регистрационной сессии"
// @Success 200 {object} map[string]any "Ссылка на оплату"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена или истекла"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка платежного провайдера"
// @Router /payments/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"

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

	checkoutURL, err := h.service.CreateJoinCheckout(r.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Info("join session not found or expired",
				slog.String("session_id", req.SessionID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.ErrorKind(response.KindNotFound,
				"registration session not found or expired"))
		case errors.Is(err, paymentprovider.ErrGateway),
			errors.Is(err, paymentprovider.ErrGatewayTimeout):
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.ErrorKind(response.KindGatewayError,
				"payment provider unavailable"))
		default:
			log.Error("failed to create checkout", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create checkout"))
		}
		return
	}

	log.Info("join checkout created", slog.String("session_id", req.SessionID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"checkout_url": checkoutURL,
	}))
}
