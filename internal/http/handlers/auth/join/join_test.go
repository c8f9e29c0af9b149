package join

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

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pyrmontaction/membership-backend/internal/http/response"
	"github.com/pyrmontaction/membership-backend/internal/models"
	"github.com/pyrmontaction/membership-backend/internal/storage/repository"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) StartJoin(ctx context.Context, profile models.Profile, rawPassword string) (string, error) {
	args := m.Called(ctx, profile, rawPassword)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func validRequest() Request {
	return Request{
		Email:     "candidate@example.com",
		Password:  "password123",
		FirstName: "Jane",
		LastName:  "Doe",
		Postcode:  "2009",
	}
}

func TestJoinHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(ServiceMock)
	handler := New(newNoopLogger(), serviceMock)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockSession    string
		mockErr        error
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantKind       string
		wantStatus     string
	}{
		{
			name:           "valid join",
			requestBody:    validRequest(),
			mockSession:    "b2f9f4f0-0000-4000-8000-000000000001",
			wantStatusCode: http.StatusCreated,
			wantData: map[string]any{
				"session_id": "b2f9f4f0-0000-4000-8000-000000000001",
				"email":      "candidate@example.com",
			},
			wantStatus: "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - bad email",
			requestBody:    Request{Email: "not-an-email", Password: "password123", FirstName: "Jane", LastName: "Doe"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Email must be a valid email address",
			wantKind:       response.KindValidationError,
			wantStatus:     "Error",
		},
		{
			name:           "duplicate email",
			requestBody:    validRequest(),
			mockErr:        repository.ErrDuplicateEmail,
			wantStatusCode: http.StatusConflict,
			wantError:      "email is already registered",
			wantKind:       response.KindDuplicateEmail,
			wantStatus:     "Error",
		},
		{
			name:           "service failure",
			requestBody:    validRequest(),
			mockErr:        errors.New("storage down"),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "failed to start registration",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockSession != "" || tt.mockErr != nil {
				serviceMock.On("StartJoin", mock.Anything, mock.Anything,
					tt.requestBody.(Request).Password).
					Return(tt.mockSession, tt.mockErr).Once()
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/join", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			}
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, got["kind"])
			}
			if tt.wantData != nil {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				for k, v := range tt.wantData {
					assert.Equal(t, v, data[k])
				}
			}

			if tt.mockSession != "" || tt.mockErr != nil {
				serviceMock.AssertExpectations(t)
			}
		})
	}

	t.Run("profile fields reach the service", func(t *testing.T) {
		serviceMock.ExpectedCalls = nil
		serviceMock.Calls = nil

		serviceMock.On("StartJoin", mock.Anything, mock.MatchedBy(func(p models.Profile) bool {
			return p.Email == "candidate@example.com" && p.FirstName == "Jane" &&
				p.LastName == "Doe" && p.Postcode == "2009"
		}), "password123").Return("session-uid", nil).Once()

		bodyBytes, err := json.Marshal(validRequest())
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/join", bytes.NewReader(bodyBytes))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		serviceMock.AssertExpectations(t)
	})
}
