package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oddava/finance-tracker/internal/domain/model"
)

// BudgetRepository — интерфейс для таблицы budgets.
type BudgetRepository interface {
	// Upsert создаёт бюджет или обновляет существующий для той же категории.
	Upsert(ctx context.Context, b *model.Budget) error
	// GetByCategory возвращает бюджет категории. Если нет — ErrNotFound.
	GetByCategory(ctx context.Context, userID, categoryID int64) (*model.Budget, error)
	// ListByUser возвращает все бюджеты пользователя с данными категорий.
	ListByUser(ctx context.Context, userID int64) ([]*model.Budget, error)
}

type budgetRepo struct {
	db DBTX
}

// NewBudgetRepository создаёт репозиторий бюджетов.
func NewBudgetRepository(db DBTX) BudgetRepository {
	return &budgetRepo{db: db}
}

func (r *budgetRepo) Upsert(ctx context.Context, b *model.Budget) error {
	query := `
		INSERT INTO budgets (user_id, category_id, amount, period, alert_threshold, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, category_id) DO UPDATE
		SET amount = EXCLUDED.amount,
			period = EXCLUDED.period,
			alert_threshold = EXCLUDED.alert_threshold,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		b.UserID, b.CategoryID, b.Amount, b.Period, b.AlertThreshold, b.StartDate, b.EndDate,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения бюджета категории %d: %w", b.CategoryID, err)
	}
	return nil
}

const budgetSelect = `
	SELECT b.id, b.user_id, b.category_id, b.amount::float8, b.period, b.alert_threshold,
		b.start_date, b.end_date, b.created_at, b.updated_at, c.name, c.icon_emoji
	FROM budgets b
	JOIN categories c ON c.id = b.category_id`

func scanBudget(row pgx.Row) (*model.Budget, error) {
	b := &model.Budget{}
	err := row.Scan(
		&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.Period, &b.AlertThreshold,
		&b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt, &b.CategoryName, &b.CategoryEmoji,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *budgetRepo) GetByCategory(ctx context.Context, userID, categoryID int64) (*model.Budget, error) {
	query := budgetSelect + ` WHERE b.user_id = $1 AND b.category_id = $2`

	b, err := scanBudget(r.db.QueryRow(ctx, query, userID, categoryID))
	if err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения бюджета категории %d: %w", categoryID, err)
	}
	return b, nil
}

func (r *budgetRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Budget, error) {
	query := budgetSelect + ` WHERE b.user_id = $1 ORDER BY c.name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения бюджетов: %w", err)
	}
	defer rows.Close()

	var result []*model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования бюджета: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}
