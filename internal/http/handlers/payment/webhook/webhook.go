// Package webhook реализует HTTP-обработчик событий платежного провайдера.
//
// Тело запроса читается целиком до разбора: подпись считается по сырым
// байтам. Запрос с неверной подписью отклоняется до любых изменений
// состояния. Валидное событие подтверждается статусом 200 независимо от
// бизнес-результата, чтобы провайдер не повторял доставку вечно.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/paymentprovider"
	"github.com/pyrmontaction/membership-backend/internal/services/membership"
)

// maxBodySize предельный размер тела webhook-запроса.
const maxBodySize = 1 << 20

// Service описывает интерфейс бизнес-логики обработки событий оплаты.
type Service interface {
	HandleWebhookEvent(ctx context.Context, event *paymentprovider.Event) error
}

// Handler обрабатывает HTTP-запросы от платежного провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: webhookSecret,
	}
}

// ServeHTTP godoc
// @Summary Обработка события платежного провайдера
// @Description Проверяет подпись события и активирует или продлевает членство.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} response.Response "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись или тело запроса"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}

	event, err := paymentprovider.VerifyWebhook(payload,
		r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Error("webhook verification failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ErrorKind(response.KindInvalidSignature,
			"invalid webhook signature"))
		return
	}

	if err := h.service.HandleWebhookEvent(r.Context(), event); err != nil {
		// Несовпадение корреляционных данных означает чужое или испорченное
		// событие. Отвечаем 200, чтобы провайдер не доставлял его повторно,
		// расхождение остается в логах.
		if errors.Is(err, membership.ErrIntegrityMismatch) {
			log.Error("webhook integrity mismatch",
				slog.String("event_id", event.ID), sl.Err(err))
			render.JSON(w, r, response.OK())
			return
		}
		log.Error("failed to process webhook event",
			slog.String("event_id", event.ID), sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	log.Info("webhook event processed",
		slog.String("event_id", event.ID), slog.String("type", event.Type))
	render.JSON(w, r, response.OK())
}
