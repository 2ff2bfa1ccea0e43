package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oddava/finance-tracker/internal/repository/repotest"
	"github.com/oddava/finance-tracker/internal/telegram"
)

// fakeSender — Sender с заданными ответами по chatID.
type fakeSender struct {
	mu    sync.Mutex
	calls map[int64]int
	// errs — ошибки по chatID; для 429 ошибка возвращается только при первой попытке
	errs map[int64]error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, _ string, opts *telegram.SendOptions) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[int64]int)
	}
	f.calls[chatID]++
	if opts == nil || opts.ParseMode != telegram.ParseModeHTML {
		return nil, errors.New("ожидался parse_mode HTML")
	}

	err := f.errs[chatID]
	if telegram.RetryAfter(err) > 0 && f.calls[chatID] > 1 {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &telegram.Message{MessageID: 1, Chat: &telegram.Chat{ID: chatID}}, nil
}

func newAdminFixture(t *testing.T, n int) (*AdminService, *fakeSender, *[]time.Duration) {
	t.Helper()
	store := repotest.New()
	users := newUserService(store)
	for i := 1; i <= n; i++ {
		if _, _, err := users.EnsureUser(context.Background(), TelegramProfile{UserID: int64(i)}); err != nil {
			t.Fatalf("EnsureUser() ошибка: %v", err)
		}
	}

	sender := &fakeSender{}
	svc := NewAdminService(users, store.StatsRepo(), sender,
		BroadcastOptions{BatchSize: 2, Pause: time.Second}, testLogger())

	var sleeps []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return svc, sender, &sleeps
}

func TestAdminService_Broadcast(t *testing.T) {
	svc, sender, sleeps := newAdminFixture(t, 6)
	sender.errs = map[int64]error{
		2: &telegram.APIError{Method: "sendMessage", Code: 403, Description: "Forbidden: bot was blocked by the user"},
		3: &telegram.APIError{Method: "sendMessage", Code: 400, Description: "Bad Request: chat not found"},
		4: &telegram.APIError{Method: "sendMessage", Code: 429, Description: "Too Many Requests", RetryAfter: 3},
	}

	res, err := svc.Broadcast(context.Background(), "<b>Новость</b>", 6)
	if err != nil {
		t.Fatalf("Broadcast() ошибка: %v", err)
	}

	if res.Total != 5 || res.Success != 3 || res.Blocked != 1 || res.Failed != 1 {
		t.Errorf("результат = %+v, ожидалось total=5 success=3 blocked=1 failed=1", res)
	}
	if res.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("ID рассылки не заполнен")
	}
	if sender.calls[6] != 0 {
		t.Error("исключённый пользователь получил сообщение")
	}
	if sender.calls[4] != 2 {
		t.Errorf("после 429 сделано %d попыток, ожидалось 2", sender.calls[4])
	}

	// Пауза 3s после 429 и по 1s после каждой пачки из двух сообщений
	want := []time.Duration{time.Second, 3 * time.Second, time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("паузы = %v, ожидалось %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Errorf("пауза[%d] = %v, ожидалось %v", i, (*sleeps)[i], want[i])
		}
	}
}

func TestAdminService_BroadcastCancelled(t *testing.T) {
	svc, sender, _ := newAdminFixture(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Broadcast(ctx, "hello")
	if err != nil {
		t.Fatalf("Broadcast() ошибка: %v", err)
	}
	if !res.Cancelled || res.Total != 0 {
		t.Errorf("результат = %+v, ожидалась отмена до первой отправки", res)
	}
	if len(sender.calls) != 0 {
		t.Errorf("отправлено %d сообщений после отмены", len(sender.calls))
	}
}

func TestAdminService_BroadcastEmptyText(t *testing.T) {
	svc, _, _ := newAdminFixture(t, 1)
	if _, err := svc.Broadcast(context.Background(), "  \n"); !errors.Is(err, ErrValidation) {
		t.Errorf("пустой текст: %v, ожидалась ErrValidation", err)
	}
}

func TestAdminService_Stats(t *testing.T) {
	svc, _, _ := newAdminFixture(t, 3)
	st, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() ошибка: %v", err)
	}
	if st.TotalUsers != 3 {
		t.Errorf("TotalUsers = %d, ожидалось 3", st.TotalUsers)
	}
}
