package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oddava/finance-tracker/internal/domain/model"
)

// UserRepository — интерфейс для таблицы users.
type UserRepository interface {
	// GetByUserID возвращает пользователя по Telegram ID. Если не найден — ErrNotFound.
	GetByUserID(ctx context.Context, userID int64) (*model.User, error)
	// Create создаёт пользователя. Повторная регистрация — ErrConflict.
	Create(ctx context.Context, u *model.User) error
	// GetOrCreate возвращает существующего пользователя или создаёт нового.
	// created = true, если запись была вставлена.
	GetOrCreate(ctx context.Context, u *model.User) (user *model.User, created bool, err error)
	UpdateLanguage(ctx context.Context, userID int64, lang string) error
	UpdateCurrency(ctx context.Context, userID int64, currency string) error
	UpdateTimezone(ctx context.Context, userID int64, tz string) error
	// ListUserIDs возвращает Telegram ID всех пользователей (для рассылки).
	ListUserIDs(ctx context.Context) ([]int64, error)
	// Count возвращает общее число пользователей.
	Count(ctx context.Context) (int, error)
}

type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, user_id, username, first_name, language_code, currency,
	timezone, personality_profile, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.UserID, &u.Username, &u.FirstName, &u.LanguageCode, &u.Currency,
		&u.Timezone, &u.PersonalityProfile, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByUserID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя %d: %w", userID, err)
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (user_id, username, first_name, language_code, currency, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, personality_profile, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		u.UserID, u.Username, u.FirstName, u.LanguageCode, u.Currency, u.Timezone,
	).Scan(&u.ID, &u.PersonalityProfile, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пользователь %d уже зарегистрирован", ErrConflict, u.UserID)
		}
		return fmt.Errorf("ошибка создания пользователя %d: %w", u.UserID, err)
	}
	return nil
}

// GetOrCreate использует INSERT ... ON CONFLICT DO NOTHING, чтобы параллельные
// первые сообщения одного пользователя не приводили к ошибке.
func (r *userRepo) GetOrCreate(ctx context.Context, u *model.User) (*model.User, bool, error) {
	query := `
		INSERT INTO users (user_id, username, first_name, language_code, currency, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query,
		u.UserID, u.Username, u.FirstName, u.LanguageCode, u.Currency, u.Timezone,
	))
	if err == nil {
		return created, true, nil
	}
	if !noRows(err) {
		return nil, false, fmt.Errorf("ошибка регистрации пользователя %d: %w", u.UserID, err)
	}

	existing, err := r.GetByUserID(ctx, u.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *userRepo) UpdateLanguage(ctx context.Context, userID int64, lang string) error {
	return r.updateField(ctx, userID, "language_code", lang)
}

func (r *userRepo) UpdateCurrency(ctx context.Context, userID int64, currency string) error {
	return r.updateField(ctx, userID, "currency", currency)
}

func (r *userRepo) UpdateTimezone(ctx context.Context, userID int64, tz string) error {
	return r.updateField(ctx, userID, "timezone", tz)
}

// updateField обновляет одну колонку. column — только из констант выше.
func (r *userRepo) updateField(ctx context.Context, userID int64, column, value string) error {
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = NOW() WHERE user_id = $1`, column)

	tag, err := r.db.Exec(ctx, query, userID, value)
	if err != nil {
		return fmt.Errorf("ошибка обновления %s пользователя %d: %w", column, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования user_id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return n, nil
}
