package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oddava/finance-tracker/internal/domain/model"
)

// TransactionRepository — интерфейс для таблицы transactions.
type TransactionRepository interface {
	// Create сохраняет транзакцию и заполняет ID, CreatedAt, UpdatedAt.
	Create(ctx context.Context, tx *model.Transaction) error
	// ListRecent возвращает последние транзакции пользователя (с категорией).
	ListRecent(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error)
	// ListBetween возвращает транзакции в интервале [from, to).
	ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]*model.Transaction, error)
	// SumExpenses возвращает сумму расходов по категории начиная с since.
	SumExpenses(ctx context.Context, userID, categoryID int64, since time.Time) (float64, error)
	// MonthlySummary считает итоги по типам и разбивку расходов по категориям за [from, to).
	MonthlySummary(ctx context.Context, userID int64, from, to time.Time) (*model.Summary, error)
	// Delete удаляет транзакцию пользователя. Если не найдена — ErrNotFound.
	Delete(ctx context.Context, userID, id int64) error
	// CountSince возвращает число транзакций всех пользователей начиная с since.
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type transactionRepo struct {
	db DBTX
}

// NewTransactionRepository создаёт репозиторий транзакций.
func NewTransactionRepository(db DBTX) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, category_id, type, amount, currency,
			description, date, payment_method, photo_url, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}

	err := r.db.QueryRow(ctx, query,
		t.UserID, t.CategoryID, t.Type, t.Amount, t.Currency,
		t.Description, t.Date, t.PaymentMethod, t.PhotoURL, tags,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания транзакции: %w", err)
	}
	return nil
}

const transactionSelect = `
	SELECT t.id, t.user_id, t.category_id, t.type, t.amount::float8, t.currency,
		t.description, t.date, t.payment_method, t.photo_url, t.tags,
		t.created_at, t.updated_at, c.name, c.icon_emoji
	FROM transactions t
	JOIN categories c ON c.id = t.category_id`

func scanTransactions(rows pgx.Rows) ([]*model.Transaction, error) {
	defer rows.Close()

	var result []*model.Transaction
	for rows.Next() {
		t := &model.Transaction{}
		err := rows.Scan(
			&t.ID, &t.UserID, &t.CategoryID, &t.Type, &t.Amount, &t.Currency,
			&t.Description, &t.Date, &t.PaymentMethod, &t.PhotoURL, &t.Tags,
			&t.CreatedAt, &t.UpdatedAt, &t.CategoryName, &t.CategoryEmoji,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *transactionRepo) ListRecent(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	query := transactionSelect + `
		WHERE t.user_id = $1
		ORDER BY t.date DESC, t.id DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения последних транзакций: %w", err)
	}
	return scanTransactions(rows)
}

func (r *transactionRepo) ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]*model.Transaction, error) {
	query := transactionSelect + `
		WHERE t.user_id = $1 AND t.date >= $2 AND t.date < $3
		ORDER BY t.date DESC, t.id DESC`

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций за период: %w", err)
	}
	return scanTransactions(rows)
}

func (r *transactionRepo) SumExpenses(ctx context.Context, userID, categoryID int64, since time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)::float8
		FROM transactions
		WHERE user_id = $1 AND category_id = $2 AND type = 'expense' AND date >= $3`

	var sum float64
	if err := r.db.QueryRow(ctx, query, userID, categoryID, since).Scan(&sum); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта расходов по категории %d: %w", categoryID, err)
	}
	return sum, nil
}

func (r *transactionRepo) MonthlySummary(ctx context.Context, userID int64, from, to time.Time) (*model.Summary, error) {
	s := &model.Summary{PeriodStart: from, PeriodEnd: to}

	totalsQuery := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0)::float8,
			COUNT(*)
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date < $3`

	err := r.db.QueryRow(ctx, totalsQuery, userID, from, to).Scan(
		&s.TotalExpenses, &s.TotalIncome, &s.TransactionCount,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта итогов за период: %w", err)
	}
	s.Balance = s.TotalIncome - s.TotalExpenses

	breakdownQuery := `
		SELECT c.name, c.icon_emoji, SUM(t.amount)::float8 AS total
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.type = 'expense' AND t.date >= $2 AND t.date < $3
		GROUP BY c.id, c.name, c.icon_emoji
		ORDER BY total DESC`

	rows, err := r.db.Query(ctx, breakdownQuery, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения разбивки по категориям: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ca model.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Emoji, &ca.Amount); err != nil {
			return nil, fmt.Errorf("ошибка сканирования разбивки: %w", err)
		}
		s.Categories = append(s.Categories, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *transactionRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления транзакции %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *transactionRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE created_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта транзакций: %w", err)
	}
	return n, nil
}
