package bot

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// throttleCacheSize — максимальное число отслеживаемых пользователей.
const throttleCacheSize = 10000

// Throttle — ограничение числа сообщений пользователя в окне.
// Предупреждение о превышении выдаётся не чаще одного раза за warnTTL.
type Throttle struct {
	mu     sync.Mutex
	limit  int
	counts *expirable.LRU[int64, int]
	warned *expirable.LRU[int64, struct{}]
}

// NewThrottle создаёт ограничитель: limit сообщений за window.
func NewThrottle(limit int, window, warnTTL time.Duration) *Throttle {
	return &Throttle{
		limit:  limit,
		counts: expirable.NewLRU[int64, int](throttleCacheSize, nil, window),
		warned: expirable.NewLRU[int64, struct{}](throttleCacheSize/10, nil, warnTTL),
	}
}

// Allow учитывает сообщение пользователя. Возвращает allowed = false при
// превышении лимита; warn = true, если пользователя нужно предупредить.
func (t *Throttle) Allow(userID int64) (allowed, warn bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	count, _ := t.counts.Get(userID)
	if count >= t.limit {
		if _, ok := t.warned.Get(userID); ok {
			return false, false
		}
		t.warned.Add(userID, struct{}{})
		return false, true
	}
	t.counts.Add(userID, count+1)
	return true, false
}
