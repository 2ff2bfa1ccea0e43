package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// BotSettingsRepository — интерфейс для таблицы bot_settings (ключ-значение).
type BotSettingsRepository interface {
	// Get возвращает значение по ключу. Если не найдено — ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set создаёт или обновляет значение (upsert).
	Set(ctx context.Context, key, value string) error
	// GetBool возвращает логическое значение. Отсутствующий ключ — def.
	GetBool(ctx context.Context, key string, def bool) (bool, error)
}

type botSettingsRepo struct {
	db DBTX
}

// NewBotSettingsRepository создаёт репозиторий настроек бота.
func NewBotSettingsRepository(db DBTX) BotSettingsRepository {
	return &botSettingsRepo{db: db}
}

func (r *botSettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, `SELECT value FROM bot_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if noRows(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ошибка получения bot_settings[%s]: %w", key, err)
	}
	return value, nil
}

func (r *botSettingsRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO bot_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("ошибка сохранения bot_settings[%s]: %w", key, err)
	}
	return nil
}

func (r *botSettingsRepo) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	value, err := r.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return def, nil
		}
		return def, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def, fmt.Errorf("bot_settings[%s]: некорректное логическое значение %q", key, value)
	}
	return b, nil
}
