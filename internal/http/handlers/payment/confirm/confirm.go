// Package confirm реализует HTTP-обработчик опроса состояния платежа.
// Страница успеха фронтенда опрашивает эту ручку, пока webhook не
// активирует членство. Каноничный путь активации остается за webhook.
package confirm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

// Service описывает интерфейс получения состояния платежа.
type Service interface {
	GetPaymentState(ctx context.Context, checkoutID string) (*models.Payment, error)
}

// Handler обрабатывает HTTP-запросы опроса состояния платежа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Состояние платежа
// @Description Возвращает текущий статус платежа по идентификатору checkout-сессии.
// @Tags Payments
// @Produce json
// @Param session_id query string true "Идентификатор checkout-сессии"
// @Success 200 {object} map[string]any "Статус платежа"
// @Failure 400 {object} response.ErrorResponse "Не передан session_id"
// @Failure 404 {object} response.ErrorResponse "Платеж не найден"
// @Router /payments/confirm [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	checkoutID := r.URL.Query().Get("session_id")
	if checkoutID == "" {
		log.Error("missing session_id query parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("session_id is required"))
		return
	}

	payment, err := h.service.GetPaymentState(r.Context(), checkoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("payment not found", slog.String("checkout_id", checkoutID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.ErrorKind(response.KindNotFound, "payment not found"))
			return
		}
		log.Error("failed to get payment state", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get payment state"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": payment.Status,
		"email":  payment.Email,
	}))
}
