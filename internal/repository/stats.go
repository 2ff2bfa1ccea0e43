package repository

import (
	"context"
	"fmt"

	"github.com/oddava/finance-tracker/internal/domain/model"
)

// StatsRepository — агрегированная статистика бота для администраторов.
type StatsRepository interface {
	Collect(ctx context.Context) (*model.BotStats, error)
}

type statsRepo struct {
	db DBTX
}

// NewStatsRepository создаёт репозиторий статистики.
func NewStatsRepository(db DBTX) StatsRepository {
	return &statsRepo{db: db}
}

// Collect выполняет набор агрегирующих запросов.
// «Сегодня» и «неделя» считаются по часовому поясу сервера PostgreSQL.
func (r *statsRepo) Collect(ctx context.Context) (*model.BotStats, error) {
	s := &model.BotStats{}

	countersQuery := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE created_at >= CURRENT_DATE),
			(SELECT COUNT(DISTINCT user_id) FROM transactions WHERE created_at >= CURRENT_DATE),
			(SELECT COUNT(DISTINCT user_id) FROM transactions WHERE created_at >= CURRENT_DATE - INTERVAL '7 days'),
			(SELECT COUNT(*) FROM transactions WHERE created_at >= CURRENT_DATE),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COALESCE(SUM(amount), 0)::float8 FROM transactions WHERE type = 'expense'),
			(SELECT COALESCE(SUM(amount), 0)::float8 FROM transactions WHERE type = 'income'),
			pg_size_pretty(pg_database_size(current_database()))`

	err := r.db.QueryRow(ctx, countersQuery).Scan(
		&s.TotalUsers, &s.NewUsersToday, &s.ActiveUsersToday, &s.ActiveUsersWeek,
		&s.TransactionsToday, &s.TransactionsTotal,
		&s.TotalExpenseVolume, &s.TotalIncomeVolume, &s.DatabaseSize,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения счётчиков статистики: %w", err)
	}

	topUsersQuery := `
		SELECT u.user_id, COALESCE(u.username, ''), COALESCE(u.first_name, ''), COUNT(t.id) AS cnt
		FROM users u
		JOIN transactions t ON t.user_id = u.user_id
		GROUP BY u.user_id, u.username, u.first_name
		ORDER BY cnt DESC
		LIMIT 5`

	rows, err := r.db.Query(ctx, topUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения активных пользователей: %w", err)
	}
	for rows.Next() {
		var u model.TopUser
		if err := rows.Scan(&u.UserID, &u.Username, &u.FirstName, &u.TransactionCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		s.TopUsers = append(s.TopUsers, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	popularQuery := `
		SELECT c.name, c.icon_emoji, COUNT(t.id) AS cnt
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		GROUP BY c.name, c.icon_emoji
		ORDER BY cnt DESC
		LIMIT 5`

	rows, err = r.db.Query(ctx, popularQuery)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения популярных категорий: %w", err)
	}
	for rows.Next() {
		var c model.PopularCategory
		if err := rows.Scan(&c.Name, &c.Emoji, &c.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка сканирования категории: %w", err)
		}
		s.PopularCategories = append(s.PopularCategories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Удержание: пользователи старше 7 дней, у которых есть транзакции за последнюю неделю
	retentionQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE EXISTS (
				SELECT 1 FROM transactions t
				WHERE t.user_id = u.user_id AND t.created_at >= NOW() - INTERVAL '7 days'
			))
		FROM users u
		WHERE u.created_at < NOW() - INTERVAL '7 days'`

	var old, retained int
	if err := r.db.QueryRow(ctx, retentionQuery).Scan(&old, &retained); err != nil {
		return nil, fmt.Errorf("ошибка расчёта удержания: %w", err)
	}
	if old > 0 {
		s.RetentionRate = float64(retained) / float64(old) * 100
	}

	return s, nil
}
