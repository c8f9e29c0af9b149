package janitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) DeleteExpiredJoinSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) FailStalePayments(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRun(t *testing.T) {
	t.Run("sweeps until context is cancelled", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("DeleteExpiredJoinSessions", mock.Anything).Return(int64(2), nil)
		repo.On("FailStalePayments", mock.Anything, stalePaymentAge).Return(int64(1), nil)

		j := New(repo, 10*time.Millisecond, newNoopLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			j.Run(ctx)
			close(done)
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("janitor did not stop after context cancellation")
		}

		repo.AssertCalled(t, "DeleteExpiredJoinSessions", mock.Anything)
		repo.AssertCalled(t, "FailStalePayments", mock.Anything, stalePaymentAge)
	})

	t.Run("session sweep failure skips payment sweep", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("DeleteExpiredJoinSessions", mock.Anything).
			Return(int64(0), errors.New("storage down"))

		j := New(repo, time.Minute, newNoopLogger())
		j.sweep(context.Background())

		repo.AssertNotCalled(t, "FailStalePayments", mock.Anything, mock.Anything)
	})
}
