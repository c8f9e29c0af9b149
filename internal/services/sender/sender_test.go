package sender

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pyrmontaction/membership-backend/internal/lib/smtp"
	"github.com/pyrmontaction/membership-backend/internal/models"
)

type TransportMock struct{ mock.Mock }

func (m *TransportMock) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *TransportMock) GetSMTPUser() string {
	return m.Called().String(0)
}

type ClientMock struct{ mock.Mock }

func (m *ClientMock) Mail(from string) error { return m.Called(from).Error(0) }
func (m *ClientMock) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *ClientMock) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}
func (m *ClientMock) Quit() error  { return m.Called().Error(0) }
func (m *ClientMock) Close() error { return m.Called().Error(0) }

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func taskBody(t *testing.T, task models.EmailTask) []byte {
	t.Helper()
	body, err := json.Marshal(task)
	require.NoError(t, err)
	return body
}

func TestHandleEmailTask(t *testing.T) {
	transport := new(TransportMock)
	client := new(ClientMock)
	svc := New(transport, newNoopLogger())

	buf := &bytes.Buffer{}
	transport.On("GetSMTPUser").Return("noreply@example.com")
	transport.On("Connect").Return(client, nil).Once()
	client.On("Mail", "noreply@example.com").Return(nil).Once()
	client.On("Rcpt", "member@example.com").Return(nil).Once()
	client.On("Data").Return(nopWriteCloser{buf}, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	err := svc.HandleEmailTask(taskBody(t, models.EmailTask{
		To:      "member@example.com",
		Subject: "Welcome",
		Body:    "Your membership is active.",
	}))

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "To: member@example.com")
	assert.Contains(t, buf.String(), "Subject: Welcome")
	assert.Contains(t, buf.String(), "Your membership is active.")
	client.AssertExpectations(t)
}

func TestHandleEmailTask_BadJSON(t *testing.T) {
	transport := new(TransportMock)
	svc := New(transport, newNoopLogger())

	// Битое сообщение подтверждается без повторной доставки.
	err := svc.HandleEmailTask([]byte("not json"))

	assert.NoError(t, err)
	transport.AssertNotCalled(t, "Connect")
}

func TestHandleEmailTask_SMTPFailure(t *testing.T) {
	transport := new(TransportMock)
	svc := New(transport, newNoopLogger())

	transport.On("GetSMTPUser").Return("noreply@example.com")
	transport.On("Connect").Return(nil, errors.New("connection refused")).Once()

	err := svc.HandleEmailTask(taskBody(t, models.EmailTask{
		To:      "member@example.com",
		Subject: "Welcome",
		Body:    "hello",
	}))

	assert.Error(t, err)
}
