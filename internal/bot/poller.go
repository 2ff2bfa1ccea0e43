// poller.go — получение обновлений через long polling (getUpdates).
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oddava/finance-tracker/internal/telegram"
)

var pollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "financebot_poll_errors_total",
	Help: "Количество ошибок getUpdates.",
})

// UpdateSource — источник обновлений. Реализуется *telegram.Client.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]telegram.Update, error)
}

// UpdateHandler обрабатывает обновление. Реализуется *Bot.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u *telegram.Update)
}

// Poller — цикл long polling.
type Poller struct {
	source  UpdateSource
	handler UpdateHandler
	// timeout — время ожидания getUpdates на стороне Telegram
	timeout time.Duration
	backoff time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller создаёт Poller.
func NewPoller(source UpdateSource, handler UpdateHandler, timeout time.Duration, logger *slog.Logger) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{
		source:  source,
		handler: handler,
		timeout: timeout,
		backoff: 3 * time.Second,
		logger:  logger.With(slog.String("component", "poller")),
	}
}

// Start запускает цикл в отдельной горутине.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(pollCtx, p.done)

	p.logger.Info("Long polling запущен", slog.Duration("timeout", p.timeout))
}

// Stop останавливает цикл и ждёт завершения обработки текущей пачки.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("Long polling остановлен")
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	var offset int
	for ctx.Err() == nil {
		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			pollErrorsTotal.Inc()

			wait := p.backoff
			if ra := telegram.RetryAfter(err); ra > 0 {
				wait = ra
			}
			p.logger.Warn("Ошибка получения обновлений",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", wait),
			)
			if !sleepCtx(ctx, wait) {
				return
			}
			continue
		}

		for i := range updates {
			u := &updates[i]
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.handler.HandleUpdate(context.WithoutCancel(ctx), u)
		}
	}
}

// sleepCtx ждёт d. Возвращает false при отмене контекста.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
