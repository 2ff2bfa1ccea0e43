// budgets.go — бюджеты категорий и их состояние в текущем периоде.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/repository"
)

// DefaultAlertThreshold — порог предупреждения бюджета (%).
const DefaultAlertThreshold = 80

// BudgetService — сервис бюджетов.
type BudgetService struct {
	budgets      repository.BudgetRepository
	transactions repository.TransactionRepository
	logger       *slog.Logger
}

// NewBudgetService создаёт сервис бюджетов.
func NewBudgetService(
	budgets repository.BudgetRepository,
	transactions repository.TransactionRepository,
	logger *slog.Logger,
) *BudgetService {
	return &BudgetService{
		budgets:      budgets,
		transactions: transactions,
		logger:       logger.With(slog.String("service", "budgets")),
	}
}

// Set создаёт или обновляет бюджет категории.
func (s *BudgetService) Set(ctx context.Context, userID, categoryID int64, amount float64, period string, now time.Time) (*model.Budget, error) {
	if !model.ValidAmount(amount) {
		return nil, fmt.Errorf("%w: %w: бюджет %v", ErrValidation, ErrAmountOutOfRange, amount)
	}
	if !model.ValidPeriod(period) {
		return nil, fmt.Errorf("%w: неизвестный период %q", ErrValidation, period)
	}

	b := &model.Budget{
		UserID:         userID,
		CategoryID:     categoryID,
		Amount:         amount,
		Period:         period,
		AlertThreshold: DefaultAlertThreshold,
		StartDate:      now,
	}
	if err := s.budgets.Upsert(ctx, b); err != nil {
		return nil, fmt.Errorf("ошибка сохранения бюджета: %w", err)
	}

	s.logger.Info("Бюджет установлен",
		slog.Int64("user_id", userID),
		slog.Int64("category_id", categoryID),
		slog.String("period", period),
	)
	return b, nil
}

// Status возвращает состояние бюджета категории на момент now
// (границы периода — в часовом поясе loc). Если бюджета нет — ErrNotFound.
func (s *BudgetService) Status(ctx context.Context, userID, categoryID int64, loc *time.Location, now time.Time) (*model.BudgetStatus, error) {
	b, err := s.budgets.GetByCategory(ctx, userID, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения бюджета: %w", err)
	}
	return s.status(ctx, b, loc, now)
}

// List возвращает бюджеты пользователя с их состоянием.
func (s *BudgetService) List(ctx context.Context, userID int64, loc *time.Location, now time.Time) ([]*model.BudgetStatus, error) {
	list, err := s.budgets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения бюджетов: %w", err)
	}

	out := make([]*model.BudgetStatus, 0, len(list))
	for _, b := range list {
		st, err := s.status(ctx, b, loc, now)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *BudgetService) status(ctx context.Context, b *model.Budget, loc *time.Location, now time.Time) (*model.BudgetStatus, error) {
	since := PeriodStart(b.Period, now.In(loc))
	spent, err := s.transactions.SumExpenses(ctx, b.UserID, b.CategoryID, since)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта расходов по бюджету: %w", err)
	}
	return CalculateStatus(*b, spent), nil
}

// CalculateStatus вычисляет состояние бюджета по сумме расходов.
func CalculateStatus(b model.Budget, spent float64) *model.BudgetStatus {
	var pct float64
	if b.Amount > 0 {
		pct = math.Round(spent/b.Amount*1000) / 10
	}
	return &model.BudgetStatus{
		Budget:     b,
		Spent:      spent,
		Remaining:  b.Amount - spent,
		Percentage: pct,
		Exceeded:   spent > b.Amount,
		Warning:    pct >= float64(b.AlertThreshold),
	}
}

// PeriodStart возвращает начало текущего периода бюджета:
// daily — полночь, weekly — понедельник, monthly — первое число.
// Неизвестный период считается месячным.
func PeriodStart(period string, now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case model.PeriodDaily:
		return day
	case model.PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
}
