// users.go — пользователи бота: регистрация при первом обращении
// и LRU-кэш профилей с TTL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/repository"
)

// Prometheus-метрики кэша пользователей.
var (
	userCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financebot_user_cache_hits_total",
		Help: "Общее количество попаданий в кэш пользователей.",
	})
	userCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financebot_user_cache_misses_total",
		Help: "Общее количество промахов кэша пользователей.",
	})
)

// Поддерживаемые валюты.
var supportedCurrencies = []string{"USD", "RUB", "UZS", "EUR"}

// SupportedCurrencies возвращает список валют, доступных пользователю.
func SupportedCurrencies() []string {
	out := make([]string, len(supportedCurrencies))
	copy(out, supportedCurrencies)
	return out
}

// TelegramProfile — данные отправителя из Telegram update.
type TelegramProfile struct {
	UserID       int64
	Username     string
	FirstName    string
	LanguageCode string
}

// UserDefaults — значения профиля нового пользователя.
type UserDefaults struct {
	Language string
	Currency string
	Timezone string
}

// UserService — сервис пользователей.
type UserService struct {
	repo       repository.UserRepository
	categories *CategoryService
	defaults   UserDefaults
	// resolveLang выбирает язык нового пользователя по language_code Telegram
	resolveLang func(code string) string
	cache       *expirable.LRU[int64, *model.User]
	logger      *slog.Logger
}

// NewUserService создаёт сервис пользователей.
// resolveLang может быть nil — тогда используется defaults.Language.
func NewUserService(
	repo repository.UserRepository,
	categories *CategoryService,
	defaults UserDefaults,
	resolveLang func(code string) string,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		repo:        repo,
		categories:  categories,
		defaults:    defaults,
		resolveLang: resolveLang,
		cache:       expirable.NewLRU[int64, *model.User](cacheSize, nil, cacheTTL),
		logger:      logger.With(slog.String("service", "users")),
	}
}

// EnsureUser возвращает пользователя, создавая его при первом обращении.
// Новому пользователю создаются категории по умолчанию; isNew = true.
func (s *UserService) EnsureUser(ctx context.Context, p TelegramProfile) (*model.User, bool, error) {
	if u, ok := s.cache.Get(p.UserID); ok {
		userCacheHitsTotal.Inc()
		return u, false, nil
	}
	userCacheMissesTotal.Inc()

	lang := s.defaults.Language
	if s.resolveLang != nil && p.LanguageCode != "" {
		lang = s.resolveLang(p.LanguageCode)
	}

	candidate := &model.User{
		UserID:             p.UserID,
		Username:           optional(p.Username),
		FirstName:          optional(p.FirstName),
		LanguageCode:       lang,
		Currency:           s.defaults.Currency,
		Timezone:           s.defaults.Timezone,
		PersonalityProfile: "unknown",
	}

	u, created, err := s.repo.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка регистрации пользователя %d: %w", p.UserID, err)
	}

	if created {
		s.logger.Info("Зарегистрирован новый пользователь",
			slog.Int64("user_id", u.UserID),
			slog.String("language", u.LanguageCode),
		)
		if s.categories != nil {
			if _, err := s.categories.CreateDefaults(ctx, u.UserID); err != nil {
				return nil, false, err
			}
		}
	}

	s.cache.Add(u.UserID, u)
	return u, created, nil
}

// Get возвращает пользователя по Telegram ID.
func (s *UserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	if u, ok := s.cache.Get(userID); ok {
		userCacheHitsTotal.Inc()
		return u, nil
	}
	userCacheMissesTotal.Inc()

	u, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	s.cache.Add(userID, u)
	return u, nil
}

// SetLanguage меняет язык интерфейса.
func (s *UserService) SetLanguage(ctx context.Context, userID int64, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return fmt.Errorf("%w: пустой код языка", ErrValidation)
	}
	if err := s.repo.UpdateLanguage(ctx, userID, lang); err != nil {
		return s.updateError(err, "языка")
	}
	s.Invalidate(userID)
	return nil
}

// SetCurrency меняет основную валюту. Допустимы USD, RUB, UZS, EUR.
func (s *UserService) SetCurrency(ctx context.Context, userID int64, currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !isSupportedCurrency(currency) {
		return fmt.Errorf("%w: неподдерживаемая валюта %q", ErrValidation, currency)
	}
	if err := s.repo.UpdateCurrency(ctx, userID, currency); err != nil {
		return s.updateError(err, "валюты")
	}
	s.Invalidate(userID)
	return nil
}

// SetTimezone меняет часовой пояс (имя IANA).
func (s *UserService) SetTimezone(ctx context.Context, userID int64, tz string) error {
	tz = strings.TrimSpace(tz)
	if tz == "" || strings.EqualFold(tz, "local") {
		return fmt.Errorf("%w: пустой часовой пояс", ErrValidation)
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: неизвестный часовой пояс %q", ErrValidation, tz)
	}
	if err := s.repo.UpdateTimezone(ctx, userID, tz); err != nil {
		return s.updateError(err, "часового пояса")
	}
	s.Invalidate(userID)
	return nil
}

// ListUserIDs возвращает Telegram ID всех пользователей (для рассылки).
func (s *UserService) ListUserIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	return ids, nil
}

// Count возвращает число пользователей.
func (s *UserService) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return n, nil
}

// Invalidate удаляет пользователя из кэша.
func (s *UserService) Invalidate(userID int64) {
	s.cache.Remove(userID)
}

func (s *UserService) updateError(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("ошибка обновления %s: %w", what, err)
}

func isSupportedCurrency(c string) bool {
	for _, sc := range supportedCurrencies {
		if sc == c {
			return true
		}
	}
	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
