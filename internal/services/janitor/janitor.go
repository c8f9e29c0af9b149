// Package janitor выполняет фоновую очистку: удаляет просроченные
// регистрационные сессии и помечает брошенные платежи как failed.
// Чтение сессий само отфильтровывает просроченные записи, фоновая очистка
// лишь не дает таблицам расти.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
)

// Платежи, не оплаченные за сутки, считаются брошенными.
const stalePaymentAge = 24 * time.Hour

// Repository описывает контракт фоновой очистки.
type Repository interface {
	DeleteExpiredJoinSessions(ctx context.Context) (int64, error)
	FailStalePayments(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Janitor запускает периодическую очистку просроченных сессий.
type Janitor struct {
	repo     Repository
	interval time.Duration
	log      *slog.Logger
}

// New создает новый экземпляр Janitor.
func New(repo Repository, interval time.Duration, log *slog.Logger) *Janitor {
	return &Janitor{repo: repo, interval: interval, log: log}
}

// Run блокируется до отмены контекста, выполняя очистку каждый интервал.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-ctx.Done():
			j.log.Info("janitor stopped")
			return
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	deleted, err := j.repo.DeleteExpiredJoinSessions(ctx)
	if err != nil {
		j.log.Error("failed to delete expired join sessions", sl.Err(err))
		return
	}
	if deleted > 0 {
		j.log.Info("expired join sessions removed", slog.Int64("count", deleted))
	}

	failed, err := j.repo.FailStalePayments(ctx, stalePaymentAge)
	if err != nil {
		j.log.Error("failed to fail stale payments", sl.Err(err))
		return
	}
	if failed > 0 {
		j.log.Info("stale pending payments marked failed", slog.Int64("count", failed))
	}
}
