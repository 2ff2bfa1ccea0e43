// transactions.go — запись расходов и доходов, выборки за день и месяц.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/repository"
)

// maxDescriptionLen — ограничение колонки transactions.description.
const maxDescriptionLen = 500

// NewTransaction — входные данные для записи транзакции.
type NewTransaction struct {
	UserID      int64
	Category    *model.Category
	Type        string
	Amount      float64
	Currency    string
	Description string
	// Date — момент операции; нулевое значение — сейчас
	Date          time.Time
	PaymentMethod string
}

// DaySummary — транзакции и итоги за день.
type DaySummary struct {
	Transactions  []*model.Transaction
	TotalExpenses float64
	TotalIncome   float64
	// ByCategory — расходы по категориям, по убыванию суммы
	ByCategory []model.CategoryAmount
}

// TransactionService — сервис транзакций.
type TransactionService struct {
	repo   repository.TransactionRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewTransactionService создаёт сервис транзакций.
func NewTransactionService(repo repository.TransactionRepository, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		repo:   repo,
		now:    time.Now,
		logger: logger.With(slog.String("service", "transactions")),
	}
}

// Create валидирует и сохраняет транзакцию.
func (s *TransactionService) Create(ctx context.Context, in NewTransaction) (*model.Transaction, error) {
	if !model.ValidAmount(in.Amount) {
		return nil, fmt.Errorf("%w: %w: %v", ErrValidation, ErrAmountOutOfRange, in.Amount)
	}
	if !model.ValidType(in.Type) {
		return nil, fmt.Errorf("%w: неизвестный тип транзакции %q", ErrValidation, in.Type)
	}
	if in.Category == nil {
		return nil, fmt.Errorf("%w: не указана категория", ErrValidation)
	}
	if in.Currency == "" {
		return nil, fmt.Errorf("%w: не указана валюта", ErrValidation)
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	method := in.PaymentMethod
	if method == "" {
		method = model.PaymentCash
		if in.Type == model.TypeIncome {
			method = model.PaymentBank
		}
	}

	t := &model.Transaction{
		UserID:        in.UserID,
		CategoryID:    in.Category.ID,
		Type:          in.Type,
		Amount:        in.Amount,
		Currency:      in.Currency,
		Description:   truncateRunes(strings.TrimSpace(in.Description), maxDescriptionLen),
		Date:          date,
		PaymentMethod: method,
		CategoryName:  in.Category.Name,
		CategoryEmoji: in.Category.IconEmoji,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	s.logger.Debug("Транзакция записана",
		slog.Int64("user_id", t.UserID),
		slog.Int64("id", t.ID),
		slog.String("type", t.Type),
	)
	return t, nil
}

// Recent возвращает последние limit транзакций пользователя.
func (s *TransactionService) Recent(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	list, err := s.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения последних транзакций: %w", err)
	}
	return list, nil
}

// Today возвращает транзакции за текущий день в часовом поясе пользователя.
func (s *TransactionService) Today(ctx context.Context, u *model.User) (*DaySummary, error) {
	from, to := DayBounds(s.now(), u.Location())
	list, err := s.repo.ListBetween(ctx, u.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций за день: %w", err)
	}
	return summarizeDay(list), nil
}

// Month возвращает сводку за текущий месяц в часовом поясе пользователя.
func (s *TransactionService) Month(ctx context.Context, u *model.User) (*model.Summary, error) {
	from, to := MonthBounds(s.now(), u.Location())
	sum, err := s.repo.MonthlySummary(ctx, u.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сводки за месяц: %w", err)
	}
	sum.PeriodStart = from
	sum.PeriodEnd = to.Add(-time.Second)
	return sum, nil
}

// Delete удаляет транзакцию пользователя.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка удаления транзакции: %w", err)
	}
	return nil
}

// DayBounds возвращает границы дня [from, to), содержащего now, в loc.
func DayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// MonthBounds возвращает границы месяца [from, to), содержащего now, в loc.
func MonthBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

func summarizeDay(list []*model.Transaction) *DaySummary {
	d := &DaySummary{Transactions: list}
	byName := make(map[string]*model.CategoryAmount)
	var order []string

	for _, t := range list {
		if t.Type == model.TypeIncome {
			d.TotalIncome += t.Amount
			continue
		}
		d.TotalExpenses += t.Amount
		ca, ok := byName[t.CategoryName]
		if !ok {
			ca = &model.CategoryAmount{Name: t.CategoryName, Emoji: t.CategoryEmoji}
			byName[t.CategoryName] = ca
			order = append(order, t.CategoryName)
		}
		ca.Amount += t.Amount
	}

	for _, name := range order {
		d.ByCategory = append(d.ByCategory, *byName[name])
	}
	sort.SliceStable(d.ByCategory, func(i, j int) bool {
		return d.ByCategory[i].Amount > d.ByCategory[j].Amount
	})
	return d
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
