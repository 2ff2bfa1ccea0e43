// settings.go — глобальные настройки бота (режим обслуживания).
// Значение хранится в bot_settings и кэшируется в памяти.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/oddava/finance-tracker/internal/repository"
)

// KeyMaintenance — ключ режима обслуживания в bot_settings.
const KeyMaintenance = "maintenance_mode"

// SettingsService — сервис настроек бота.
type SettingsService struct {
	repo        repository.BotSettingsRepository
	maintenance atomic.Bool
	logger      *slog.Logger
}

// NewSettingsService создаёт сервис настроек.
func NewSettingsService(repo repository.BotSettingsRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:   repo,
		logger: logger.With(slog.String("service", "bot_settings")),
	}
}

// Seed загружает настройки при старте. Если initial = true
// (MAINTENANCE_MODE), режим обслуживания включается и сохраняется;
// иначе используется сохранённое значение.
func (s *SettingsService) Seed(ctx context.Context, initial bool) error {
	if initial {
		return s.SetMaintenance(ctx, true)
	}
	return s.Refresh(ctx)
}

// Refresh перечитывает настройки из БД.
func (s *SettingsService) Refresh(ctx context.Context) error {
	on, err := s.repo.GetBool(ctx, KeyMaintenance, false)
	if err != nil {
		return fmt.Errorf("ошибка загрузки режима обслуживания: %w", err)
	}
	s.maintenance.Store(on)
	return nil
}

// Maintenance сообщает, включён ли режим обслуживания.
func (s *SettingsService) Maintenance() bool {
	return s.maintenance.Load()
}

// SetMaintenance включает или выключает режим обслуживания.
func (s *SettingsService) SetMaintenance(ctx context.Context, on bool) error {
	if err := s.repo.Set(ctx, KeyMaintenance, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("ошибка сохранения режима обслуживания: %w", err)
	}
	s.maintenance.Store(on)
	s.logger.Warn("Режим обслуживания изменён", slog.Bool("enabled", on))
	return nil
}
