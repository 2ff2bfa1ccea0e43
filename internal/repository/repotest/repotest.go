// Пакет repotest — in-memory реализации репозиториев для unit-тестов
// сервисов и обработчиков бота. Поведение повторяет SQL-реализации:
// ErrNotFound, ErrConflict, ON CONFLICT DO NOTHING для категорий.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/repository"
)

// Store — общее хранилище всех фейковых репозиториев.
type Store struct {
	mu sync.Mutex

	nextID       int64
	users        map[int64]*model.User
	categories   []*model.Category
	transactions []*model.Transaction
	budgets      []*model.Budget
	settings     map[string]string

	// Stats возвращается StatsRepository.Collect; нулевые счётчики
	// пользователей и транзакций считаются по содержимому хранилища
	Stats *model.BotStats
	// Err — если задана, возвращается всеми методами
	Err error
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		users:    make(map[int64]*model.User),
		settings: map[string]string{"maintenance_mode": "false"},
		Stats:    &model.BotStats{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users возвращает UserRepository.
func (s *Store) Users() repository.UserRepository { return &users{s} }

// Categories возвращает CategoryRepository.
func (s *Store) Categories() repository.CategoryRepository { return &categories{s} }

// Transactions возвращает TransactionRepository.
func (s *Store) Transactions() repository.TransactionRepository { return &transactions{s} }

// Budgets возвращает BudgetRepository.
func (s *Store) Budgets() repository.BudgetRepository { return &budgets{s} }

// Settings возвращает BotSettingsRepository.
func (s *Store) Settings() repository.BotSettingsRepository { return &settings{s} }

// StatsRepo возвращает StatsRepository.
func (s *Store) StatsRepo() repository.StatsRepository { return &stats{s} }

// AllTransactions возвращает копию всех транзакций.
func (s *Store) AllTransactions() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, *t)
	}
	return out
}

// --- users ---

type users struct{ s *Store }

func (r *users) GetByUserID(_ context.Context, userID int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *users) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.users[u.UserID]; ok {
		return fmt.Errorf("%w: пользователь %d уже зарегистрирован", repository.ErrConflict, u.UserID)
	}
	r.insert(u)
	return nil
}

func (r *users) insert(u *model.User) {
	now := time.Now()
	u.ID = r.s.id()
	if u.PersonalityProfile == "" {
		u.PersonalityProfile = "unknown"
	}
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	r.s.users[u.UserID] = &cp
}

func (r *users) GetOrCreate(_ context.Context, u *model.User) (*model.User, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, false, r.s.Err
	}
	if existing, ok := r.s.users[u.UserID]; ok {
		cp := *existing
		return &cp, false, nil
	}
	created := *u
	r.insert(&created)
	return &created, true, nil
}

func (r *users) update(userID int64, fn func(u *model.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *users) UpdateLanguage(_ context.Context, userID int64, lang string) error {
	return r.update(userID, func(u *model.User) { u.LanguageCode = lang })
}

func (r *users) UpdateCurrency(_ context.Context, userID int64, currency string) error {
	return r.update(userID, func(u *model.User) { u.Currency = currency })
}

func (r *users) UpdateTimezone(_ context.Context, userID int64, tz string) error {
	return r.update(userID, func(u *model.User) { u.Timezone = tz })
}

func (r *users) ListUserIDs(_ context.Context) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	list := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	ids := make([]int64, 0, len(list))
	for _, u := range list {
		ids = append(ids, u.UserID)
	}
	return ids, nil
}

func (r *users) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	return len(r.s.users), nil
}

// --- categories ---

type categories struct{ s *Store }

func (r *categories) ListByUser(_ context.Context, userID int64, typ string) ([]*model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []*model.Category
	for _, c := range r.s.categories {
		if c.UserID == userID && (typ == "" || c.Type == typ) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *categories) GetByID(_ context.Context, userID, id int64) (*model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, c := range r.s.categories {
		if c.ID == id && c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *categories) CreateBatch(_ context.Context, list []*model.Category) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	created := 0
	for _, c := range list {
		if r.exists(c) {
			continue
		}
		c.ID = r.s.id()
		c.CreatedAt = time.Now()
		cp := *c
		r.s.categories = append(r.s.categories, &cp)
		created++
	}
	return created, nil
}

func (r *categories) exists(c *model.Category) bool {
	for _, e := range r.s.categories {
		if e.UserID == c.UserID && e.Type == c.Type && e.Slug == c.Slug {
			return true
		}
	}
	return false
}

func (r *categories) byID(id int64) *model.Category {
	for _, c := range r.s.categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// --- transactions ---

type transactions struct{ s *Store }

func (r *transactions) Create(_ context.Context, t *model.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	now := time.Now()
	t.ID = r.s.id()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	r.s.transactions = append(r.s.transactions, &cp)
	return nil
}

func (r *transactions) withCategory(t *model.Transaction) *model.Transaction {
	cp := *t
	if c := (&categories{r.s}).byID(t.CategoryID); c != nil {
		cp.CategoryName = c.Name
		cp.CategoryEmoji = c.IconEmoji
	}
	return &cp
}

func (r *transactions) sorted(userID int64, keep func(t *model.Transaction) bool) []*model.Transaction {
	var out []*model.Transaction
	for _, t := range r.s.transactions {
		if t.UserID == userID && keep(t) {
			out = append(out, r.withCategory(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *transactions) ListRecent(_ context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := r.sorted(userID, func(*model.Transaction) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func inRange(t *model.Transaction, from, to time.Time) bool {
	return !t.Date.Before(from) && t.Date.Before(to)
}

func (r *transactions) ListBetween(_ context.Context, userID int64, from, to time.Time) ([]*model.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return r.sorted(userID, func(t *model.Transaction) bool { return inRange(t, from, to) }), nil
}

func (r *transactions) SumExpenses(_ context.Context, userID, categoryID int64, since time.Time) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	var sum float64
	for _, t := range r.s.transactions {
		if t.UserID == userID && t.CategoryID == categoryID &&
			t.Type == model.TypeExpense && !t.Date.Before(since) {
			sum += t.Amount
		}
	}
	return sum, nil
}

func (r *transactions) MonthlySummary(_ context.Context, userID int64, from, to time.Time) (*model.Summary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	sum := &model.Summary{PeriodStart: from, PeriodEnd: to}
	byName := map[string]*model.CategoryAmount{}
	for _, t := range r.sorted(userID, func(t *model.Transaction) bool { return inRange(t, from, to) }) {
		sum.TransactionCount++
		if t.Type == model.TypeIncome {
			sum.TotalIncome += t.Amount
			continue
		}
		sum.TotalExpenses += t.Amount
		ca, ok := byName[t.CategoryName]
		if !ok {
			ca = &model.CategoryAmount{Name: t.CategoryName, Emoji: t.CategoryEmoji}
			byName[t.CategoryName] = ca
		}
		ca.Amount += t.Amount
	}
	for _, ca := range byName {
		sum.Categories = append(sum.Categories, *ca)
	}
	sort.Slice(sum.Categories, func(i, j int) bool {
		return sum.Categories[i].Amount > sum.Categories[j].Amount
	})
	sum.Balance = sum.TotalIncome - sum.TotalExpenses
	return sum, nil
}

func (r *transactions) Delete(_ context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for i, t := range r.s.transactions {
		if t.ID == id && t.UserID == userID {
			r.s.transactions = append(r.s.transactions[:i], r.s.transactions[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *transactions) CountSince(_ context.Context, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	n := 0
	for _, t := range r.s.transactions {
		if !t.Date.Before(since) {
			n++
		}
	}
	return n, nil
}

// --- budgets ---

type budgets struct{ s *Store }

func (r *budgets) Upsert(_ context.Context, b *model.Budget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	now := time.Now()
	for _, e := range r.s.budgets {
		if e.UserID == b.UserID && e.CategoryID == b.CategoryID {
			e.Amount, e.Period, e.AlertThreshold = b.Amount, b.Period, b.AlertThreshold
			e.StartDate, e.EndDate, e.UpdatedAt = b.StartDate, b.EndDate, now
			b.ID, b.CreatedAt, b.UpdatedAt = e.ID, e.CreatedAt, now
			return nil
		}
	}
	b.ID = r.s.id()
	b.CreatedAt, b.UpdatedAt = now, now
	cp := *b
	r.s.budgets = append(r.s.budgets, &cp)
	return nil
}

func (r *budgets) withCategory(b *model.Budget) *model.Budget {
	cp := *b
	if c := (&categories{r.s}).byID(b.CategoryID); c != nil {
		cp.CategoryName = c.Name
		cp.CategoryEmoji = c.IconEmoji
	}
	return &cp
}

func (r *budgets) GetByCategory(_ context.Context, userID, categoryID int64) (*model.Budget, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, b := range r.s.budgets {
		if b.UserID == userID && b.CategoryID == categoryID {
			return r.withCategory(b), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *budgets) ListByUser(_ context.Context, userID int64) ([]*model.Budget, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []*model.Budget
	for _, b := range r.s.budgets {
		if b.UserID == userID {
			out = append(out, r.withCategory(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CategoryName < out[j].CategoryName })
	return out, nil
}

// --- bot_settings ---

type settings struct{ s *Store }

func (r *settings) Get(_ context.Context, key string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return "", r.s.Err
	}
	v, ok := r.s.settings[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (r *settings) Set(_ context.Context, key, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	r.s.settings[key] = value
	return nil
}

func (r *settings) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	v, err := r.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("некорректное значение bot_settings[%s]=%q: %w", key, v, err)
	}
	return b, nil
}

// --- stats ---

type stats struct{ s *Store }

func (r *stats) Collect(_ context.Context) (*model.BotStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	st := *r.s.Stats
	if st.TotalUsers == 0 {
		st.TotalUsers = len(r.s.users)
	}
	if st.TransactionsTotal == 0 {
		st.TransactionsTotal = len(r.s.transactions)
	}
	return &st, nil
}
