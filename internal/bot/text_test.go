package bot

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestShouldSkipInput(t *testing.T) {
	tests := []struct {
		text string
		skip bool
	}{
		{"50k taxi", false},
		{"обед 25000", false},
		{"def parse(self):", true},
		{"const x = 5", true},
		{"see https://example.com", true},
		{"www.shop.com 50k", true},
		{"@@##$$%%^^", true},
		{"coffee & cake 15k", false},
		{strings.Repeat("a", 201), true},
		{strings.Repeat("a", 200), false},
	}
	for _, tt := range tests {
		if got := shouldSkipInput(tt.text); got != tt.skip {
			t.Errorf("shouldSkipInput(%q) = %v, ожидалось %v", tt.text, got, tt.skip)
		}
	}
}

func TestConfidenceMark(t *testing.T) {
	tests := []struct {
		conf float64
		want string
	}{
		{0.5, " 🤔"},
		{0.7, " 💭"},
		{0.8, ""},
		{0.95, " ✨"},
	}
	for _, tt := range tests {
		if got := confidenceMark(tt.conf); got != tt.want {
			t.Errorf("confidenceMark(%v) = %q, ожидалось %q", tt.conf, got, tt.want)
		}
	}
}

func TestStripTags(t *testing.T) {
	got := stripTags("🔧 <b>Bot is under maintenance</b>\n\n<i>soon</i>")
	if got != "🔧 Bot is under maintenance\n\nsoon" {
		t.Errorf("stripTags() = %q", got)
	}
}

func TestParseAmountArg(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"500000", 500000, true},
		{"500k", 500000, true},
		{"1.5K", 1500, true},
		{"2,5к", 2500, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"nan", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
		{"-Inf", 0, false},
		{"1e300", 0, false},
		{"0.001", 0, false},
		{"9999999999999.99", 9999999999999.99, true},
		{"10000000000k", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAmountArg(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseAmountArg(%q) = %v, %v; ожидалось %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestThrottle_Allow(t *testing.T) {
	th := NewThrottle(2, time.Minute, time.Minute)

	for i := range 2 {
		if allowed, _ := th.Allow(1); !allowed {
			t.Fatalf("сообщение %d отклонено", i+1)
		}
	}
	if allowed, warn := th.Allow(1); allowed || !warn {
		t.Errorf("третье сообщение: allowed=%v warn=%v, ожидалось false, true", allowed, warn)
	}
	if allowed, warn := th.Allow(1); allowed || warn {
		t.Errorf("четвёртое сообщение: allowed=%v warn=%v, ожидалось false, false", allowed, warn)
	}
	if allowed, _ := th.Allow(2); !allowed {
		t.Error("лимит другого пользователя не должен учитываться")
	}
}

func TestThrottle_WindowExpires(t *testing.T) {
	th := NewThrottle(1, 20*time.Millisecond, time.Minute)

	th.Allow(1)
	if allowed, _ := th.Allow(1); allowed {
		t.Fatal("второе сообщение в окне разрешено")
	}
	time.Sleep(50 * time.Millisecond)
	if allowed, _ := th.Allow(1); !allowed {
		t.Error("после окна сообщение должно быть разрешено")
	}
}

func TestStateStore(t *testing.T) {
	s := NewStateStore(time.Minute)

	if _, ok := s.Pending(1); ok {
		t.Fatal("пустое хранилище вернуло состояние")
	}
	s.SetPending(1, &Pending{Current: PendingItem{Amount: 10}})
	p, ok := s.Pending(1)
	if !ok || p.Current.Amount != 10 {
		t.Errorf("Pending() = %+v, %v", p, ok)
	}
	if !s.ClearPending(1) || s.ClearPending(1) {
		t.Error("ClearPending() должен вернуть true только один раз")
	}

	s.SetPending(2, &Pending{Current: PendingItem{Amount: 20}})
	var (
		wg    sync.WaitGroup
		taken atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.TakePending(2); ok {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()
	if n := taken.Load(); n != 1 {
		t.Errorf("TakePending() выдал состояние %d раз, ожидался 1", n)
	}

	s.SetBroadcast(7, "hello")
	if text, ok := s.TakeBroadcast(7); !ok || text != "hello" {
		t.Errorf("TakeBroadcast() = %q, %v", text, ok)
	}
	if _, ok := s.TakeBroadcast(7); ok {
		t.Error("черновик должен удаляться после TakeBroadcast()")
	}
}
