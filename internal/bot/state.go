package bot

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// stateCacheSize — максимальное число пользователей с незавершённым выбором.
const stateCacheSize = 10000

// PendingItem — транзакция, ожидающая выбора категории.
type PendingItem struct {
	Amount      float64
	Type        string
	Description string
	// Suggested — категория, предложенная парсером
	Suggested  string
	Confidence float64
	Source     string
}

// Pending — состояние выбора категории: текущая транзакция и очередь.
type Pending struct {
	Current PendingItem
	Queue   []PendingItem
}

// StateStore хранит незавершённые выборы категорий и черновики рассылок.
// Записи истекают через ttl. Take-методы атомарны: параллельные
// нажатия одной кнопки получают запись только один раз.
type StateStore struct {
	mu         sync.Mutex
	pending    *expirable.LRU[int64, *Pending]
	broadcasts *expirable.LRU[int64, string]
}

// NewStateStore создаёт хранилище состояний.
func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		pending:    expirable.NewLRU[int64, *Pending](stateCacheSize, nil, ttl),
		broadcasts: expirable.NewLRU[int64, string](100, nil, ttl),
	}
}

// SetPending сохраняет выбор категории пользователя.
func (s *StateStore) SetPending(userID int64, p *Pending) {
	s.pending.Add(userID, p)
}

// Pending возвращает выбор категории пользователя.
func (s *StateStore) Pending(userID int64) (*Pending, bool) {
	return s.pending.Get(userID)
}

// TakePending возвращает и удаляет выбор категории.
func (s *StateStore) TakePending(userID int64) (*Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending.Get(userID)
	if ok {
		s.pending.Remove(userID)
	}
	return p, ok
}

// ClearPending удаляет выбор категории. Возвращает true, если он был.
func (s *StateStore) ClearPending(userID int64) bool {
	return s.pending.Remove(userID)
}

// SetBroadcast сохраняет черновик рассылки администратора.
func (s *StateStore) SetBroadcast(adminID int64, text string) {
	s.broadcasts.Add(adminID, text)
}

// TakeBroadcast возвращает и удаляет черновик рассылки.
func (s *StateStore) TakeBroadcast(adminID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.broadcasts.Get(adminID)
	if ok {
		s.broadcasts.Remove(adminID)
	}
	return text, ok
}
