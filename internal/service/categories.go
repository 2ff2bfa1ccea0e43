// categories.go — категории пользователя: набор по умолчанию и поиск по имени.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/repository"
)

// TxRunner выполняет функцию в транзакции PostgreSQL.
// Реализуется repository.TxRunner.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// DefaultCategory — категория, создаваемая новому пользователю.
type DefaultCategory struct {
	Name  string
	Emoji string
	Color string
	Type  string
}

// DefaultCategories возвращает категории по умолчанию.
func DefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{"Food", "🍔", "#FF6B6B", model.TypeExpense},
		{"Transport", "🚗", "#4ECDC4", model.TypeExpense},
		{"Groceries", "🛒", "#45B7D1", model.TypeExpense},
		{"Entertainment", "🎮", "#FFA07A", model.TypeExpense},
		{"Shopping", "🛍️", "#98D8C8", model.TypeExpense},
		{"Bills & Utilities", "💡", "#F7DC6F", model.TypeExpense},
		{"Healthcare", "🏥", "#BB8FCE", model.TypeExpense},
		{"Education", "📚", "#85C1E2", model.TypeExpense},
		{"Other", "💸", "#BDC3C7", model.TypeExpense},

		{"Salary", "💰", "#2ECC71", model.TypeIncome},
		{"Freelance", "💼", "#27AE60", model.TypeIncome},
		{"Investment", "📈", "#16A085", model.TypeIncome},
		{"Gift", "🎁", "#52BE80", model.TypeIncome},
		{"Other Income", "💵", "#58D68D", model.TypeIncome},
	}
}

// CategoryService — сервис категорий.
type CategoryService struct {
	repo   repository.CategoryRepository
	tx     TxRunner
	logger *slog.Logger
}

// NewCategoryService создаёт сервис категорий.
// tx может быть nil — тогда категории по умолчанию создаются без транзакции.
func NewCategoryService(repo repository.CategoryRepository, tx TxRunner, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		tx:     tx,
		logger: logger.With(slog.String("service", "categories")),
	}
}

// CreateDefaults создаёт пользователю категории по умолчанию.
// Уже существующие (по slug) пропускаются. Возвращает число созданных.
func (s *CategoryService) CreateDefaults(ctx context.Context, userID int64) (int, error) {
	defaults := DefaultCategories()
	cats := make([]*model.Category, 0, len(defaults))
	for _, d := range defaults {
		cats = append(cats, &model.Category{
			UserID:    userID,
			Name:      d.Name,
			Slug:      slug.Make(d.Name),
			IconEmoji: d.Emoji,
			Color:     d.Color,
			Type:      d.Type,
			IsDefault: true,
		})
	}

	var (
		created int
		err     error
	)
	if s.tx != nil {
		err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
			var txErr error
			created, txErr = repository.NewCategoryRepository(tx).CreateBatch(ctx, cats)
			return txErr
		})
	} else {
		created, err = s.repo.CreateBatch(ctx, cats)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка создания категорий по умолчанию: %w", err)
	}

	s.logger.Info("Созданы категории по умолчанию",
		slog.Int64("user_id", userID),
		slog.Int("count", created),
	)
	return created, nil
}

// List возвращает категории пользователя. typ == "" — все типы.
func (s *CategoryService) List(ctx context.Context, userID int64, typ string) ([]*model.Category, error) {
	cats, err := s.repo.ListByUser(ctx, userID, typ)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения категорий: %w", err)
	}
	return cats, nil
}

// Get возвращает категорию пользователя по ID.
func (s *CategoryService) Get(ctx context.Context, userID, id int64) (*model.Category, error) {
	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("ошибка получения категории: %w", err)
	}
	return c, nil
}

// FindByName ищет категорию: сначала по имени без учёта регистра,
// затем по slug, затем по префиксу slug.
func (s *CategoryService) FindByName(ctx context.Context, userID int64, name, typ string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNotFound
	}

	cats, err := s.List(ctx, userID, typ)
	if err != nil {
		return nil, err
	}
	if c := MatchCategory(cats, name); c != nil {
		return c, nil
	}
	return nil, ErrCategoryNotFound
}

// MatchCategory выбирает категорию из списка по имени (см. FindByName).
func MatchCategory(cats []*model.Category, name string) *model.Category {
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}

	want := slug.Make(name)
	if want == "" {
		return nil
	}
	for _, c := range cats {
		if c.Slug == want || slug.Make(c.Name) == want {
			return c
		}
	}
	for _, c := range cats {
		if strings.HasPrefix(c.Slug, want) {
			return c
		}
	}
	return nil
}

// Names возвращает имена категорий (для разбора пользовательских категорий).
func Names(cats []*model.Category) []string {
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names
}
