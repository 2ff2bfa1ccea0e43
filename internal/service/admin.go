// admin.go — административные операции: статистика и рассылка.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/repository"
	"github.com/oddava/finance-tracker/internal/telegram"
)

// Sender отправляет сообщение в чат. Реализуется telegram.Client.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (*telegram.Message, error)
}

// BroadcastOptions — параметры рассылки.
type BroadcastOptions struct {
	// BatchSize — после каждых BatchSize отправок делается пауза
	BatchSize int
	// Pause — длительность паузы между пачками
	Pause time.Duration
	// ProgressEvery — как часто логировать прогресс
	ProgressEvery int
}

// DefaultBroadcastOptions — 20 сообщений, затем пауза 1s (лимит Telegram ~30 msg/s).
func DefaultBroadcastOptions() BroadcastOptions {
	return BroadcastOptions{BatchSize: 20, Pause: time.Second, ProgressEvery: 100}
}

// BroadcastResult — итог рассылки.
type BroadcastResult struct {
	ID       uuid.UUID
	Total    int
	Success  int
	Failed   int
	Blocked  int
	Duration time.Duration
	// Cancelled — рассылка прервана отменой контекста
	Cancelled bool
}

// AdminService — сервис администратора.
type AdminService struct {
	users  *UserService
	stats  repository.StatsRepository
	sender Sender
	opts   BroadcastOptions
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

// NewAdminService создаёт сервис администратора.
func NewAdminService(
	users *UserService,
	stats repository.StatsRepository,
	sender Sender,
	opts BroadcastOptions,
	logger *slog.Logger,
) *AdminService {
	def := DefaultBroadcastOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = def.ProgressEvery
	}
	return &AdminService{
		users:  users,
		stats:  stats,
		sender: sender,
		opts:   opts,
		sleep:  sleepCtx,
		logger: logger.With(slog.String("service", "admin")),
	}
}

// Stats собирает статистику бота.
func (s *AdminService) Stats(ctx context.Context) (*model.BotStats, error) {
	st, err := s.stats.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка сбора статистики: %w", err)
	}
	return st, nil
}

// Broadcast отправляет HTML-сообщение всем пользователям, кроме exclude.
// Заблокировавшие бота (403) считаются отдельно от прочих ошибок.
// При ответе 429 отправка повторяется один раз после retry_after.
func (s *AdminService) Broadcast(ctx context.Context, text string, exclude ...int64) (*BroadcastResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: пустой текст рассылки", ErrValidation)
	}

	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	res := &BroadcastResult{ID: uuid.New()}
	logger := s.logger.With(slog.String("broadcast_id", res.ID.String()))
	started := time.Now()
	logger.Info("Рассылка начата", slog.Int("users", len(ids)))

	opts := &telegram.SendOptions{ParseMode: telegram.ParseModeHTML}
	sent := 0
	for _, id := range ids {
		if skip[id] {
			continue
		}
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		res.Total++
		err := s.send(ctx, id, text, opts)
		switch {
		case err == nil:
			res.Success++
		case telegram.IsForbidden(err):
			res.Blocked++
		default:
			res.Failed++
			logger.Debug("Ошибка отправки", slog.Int64("user_id", id), slog.String("error", err.Error()))
		}

		sent++
		if sent%s.opts.ProgressEvery == 0 {
			logger.Info("Прогресс рассылки",
				slog.Int("sent", sent),
				slog.Int("success", res.Success),
			)
		}
		if sent%s.opts.BatchSize == 0 && s.opts.Pause > 0 {
			if err := s.sleep(ctx, s.opts.Pause); err != nil {
				res.Cancelled = true
				break
			}
		}
	}

	res.Duration = time.Since(started)
	logger.Info("Рассылка завершена",
		slog.Int("total", res.Total),
		slog.Int("success", res.Success),
		slog.Int("failed", res.Failed),
		slog.Int("blocked", res.Blocked),
		slog.Bool("cancelled", res.Cancelled),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

func (s *AdminService) send(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) error {
	_, err := s.sender.SendMessage(ctx, chatID, text, opts)
	if wait := telegram.RetryAfter(err); wait > 0 {
		if sleepErr := s.sleep(ctx, wait); sleepErr != nil {
			return errors.Join(err, sleepErr)
		}
		_, err = s.sender.SendMessage(ctx, chatID, text, opts)
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
