package model

import "time"

// User — пользователь бота.
// Хранится в таблице users.
type User struct {
	// ID — внутренний идентификатор записи
	ID int64
	// UserID — Telegram ID пользователя
	UserID int64
	// Username — @username в Telegram (может отсутствовать)
	Username *string
	// FirstName — имя в Telegram
	FirstName *string
	// LanguageCode — язык интерфейса (en, ru, uz)
	LanguageCode string
	// Currency — основная валюта (ISO 4217)
	Currency string
	// Timezone — часовой пояс IANA (Asia/Tashkent)
	Timezone string
	// PersonalityProfile — финансовый профиль (saver, balanced, spender, unknown)
	PersonalityProfile string
	// CreatedAt — время регистрации
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// Location возвращает часовой пояс пользователя. При ошибке — UTC.
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DisplayName возвращает имя для приветствия.
func (u *User) DisplayName() string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return ""
}
