package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/paymentprovider"
	"github.com/pyrmontaction/membership-backend/internal/services/membership"
)

const testSecret = "whsec_test"

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) HandleWebhookEvent(ctx context.Context, event *paymentprovider.Event) error {
	return m.Called(ctx, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func eventPayload(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": paymentprovider.EventCheckoutCompleted,
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_1",
				"status":         "complete",
				"payment_status": "paid",
				"metadata":       map[string]string{"type": "join", "join_session_id": "sess-1"},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func doRequest(handler *Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandler_ServeHTTP(t *testing.T) {
	payload := eventPayload(t)

	t.Run("valid signature dispatches event", func(t *testing.T) {
		serviceMock := new(ServiceMock)
		handler := New(newNoopLogger(), serviceMock, testSecret)

		serviceMock.On("HandleWebhookEvent", mock.Anything,
			mock.MatchedBy(func(e *paymentprovider.Event) bool {
				return e.ID == "evt_1" && e.Data.Object.ID == "cs_1"
			})).Return(nil).Once()

		rec := doRequest(handler, payload, paymentprovider.SignPayload(payload, testSecret, time.Now()))

		assert.Equal(t, http.StatusOK, rec.Code)
		serviceMock.AssertExpectations(t)
	})

	t.Run("invalid signature rejected before service call", func(t *testing.T) {
		serviceMock := new(ServiceMock)
		handler := New(newNoopLogger(), serviceMock, testSecret)

		rec := doRequest(handler, payload, paymentprovider.SignPayload(payload, "whsec_other", time.Now()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var got map[string]any
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, response.KindInvalidSignature, got["kind"])
		serviceMock.AssertNotCalled(t, "HandleWebhookEvent", mock.Anything, mock.Anything)
	})

	t.Run("missing signature header rejected", func(t *testing.T) {
		serviceMock := new(ServiceMock)
		handler := New(newNoopLogger(), serviceMock, testSecret)

		rec := doRequest(handler, payload, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		serviceMock.AssertNotCalled(t, "HandleWebhookEvent", mock.Anything, mock.Anything)
	})

	t.Run("integrity mismatch acknowledged with 200", func(t *testing.T) {
		serviceMock := new(ServiceMock)
		handler := New(newNoopLogger(), serviceMock, testSecret)

		serviceMock.On("HandleWebhookEvent", mock.Anything, mock.Anything).
			Return(membership.ErrIntegrityMismatch).Once()

		rec := doRequest(handler, payload, paymentprovider.SignPayload(payload, testSecret, time.Now()))

		// Провайдер не должен повторять доставку испорченного события.
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("processing failure returns 500 for retry", func(t *testing.T) {
		serviceMock := new(ServiceMock)
		handler := New(newNoopLogger(), serviceMock, testSecret)

		serviceMock.On("HandleWebhookEvent", mock.Anything, mock.Anything).
			Return(errors.New("storage down")).Once()

		rec := doRequest(handler, payload, paymentprovider.SignPayload(payload, testSecret, time.Now()))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
