package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oddava/finance-tracker/internal/domain/model"
)

// CategoryRepository — интерфейс для таблицы categories.
type CategoryRepository interface {
	// ListByUser возвращает категории пользователя. typ == "" — все типы.
	ListByUser(ctx context.Context, userID int64, typ string) ([]*model.Category, error)
	// GetByID возвращает категорию пользователя. Чужая категория — ErrNotFound.
	GetByID(ctx context.Context, userID, id int64) (*model.Category, error)
	// CreateBatch вставляет категории, пропуская уже существующие (user_id, type, slug).
	// Возвращает число вставленных записей.
	CreateBatch(ctx context.Context, categories []*model.Category) (int, error)
}

type categoryRepo struct {
	db DBTX
}

// NewCategoryRepository создаёт репозиторий категорий.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepo{db: db}
}

const categoryColumns = `id, user_id, name, slug, icon_emoji, color, type, is_default, created_at`

func scanCategory(row pgx.Row) (*model.Category, error) {
	c := &model.Category{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Slug, &c.IconEmoji, &c.Color, &c.Type, &c.IsDefault, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *categoryRepo) ListByUser(ctx context.Context, userID int64, typ string) ([]*model.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE user_id = $1 AND ($2 = '' OR type = $2)
		ORDER BY type, is_default DESC, id`

	rows, err := r.db.Query(ctx, query, userID, typ)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения категорий пользователя %d: %w", userID, err)
	}
	defer rows.Close()

	var result []*model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования категории: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *categoryRepo) GetByID(ctx context.Context, userID, id int64) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND user_id = $2`

	c, err := scanCategory(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения категории %d: %w", id, err)
	}
	return c, nil
}

func (r *categoryRepo) CreateBatch(ctx context.Context, categories []*model.Category) (int, error) {
	query := `
		INSERT INTO categories (user_id, name, slug, icon_emoji, color, type, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, type, slug) DO NOTHING
		RETURNING id, created_at`

	inserted := 0
	for _, c := range categories {
		err := r.db.QueryRow(ctx, query,
			c.UserID, c.Name, c.Slug, c.IconEmoji, c.Color, c.Type, c.IsDefault,
		).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			if noRows(err) {
				continue
			}
			return inserted, fmt.Errorf("ошибка создания категории %q: %w", c.Name, err)
		}
		inserted++
	}
	return inserted, nil
}
