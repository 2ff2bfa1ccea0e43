package service

import "errors"

// Ошибки сервисов. Обработчики бота сравнивают их через errors.Is.
var (
	// ErrNotFound — пользователь, транзакция или бюджет не найдены.
	ErrNotFound = errors.New("не найдено")
	// ErrValidation — неверная сумма, тип, валюта, язык или часовой пояс.
	ErrValidation = errors.New("ошибка валидации")
	ErrCategoryNotFound = errors.New("категория не найдена")
	// ErrAmountOutOfRange — сумма не число, не больше нуля или не помещается в БД.
	// Всегда оборачивается вместе с ErrValidation.
	ErrAmountOutOfRange = errors.New("сумма вне допустимого диапазона")
	// ErrAIUnavailable — AI-разбор отключён или исчерпан лимит вызовов.
	ErrAIUnavailable = errors.New("AI-разбор недоступен")
)
