package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/oddava/finance-tracker/internal/api/handlers"
	"github.com/oddava/finance-tracker/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	cfg := &config.Config{
		HTTPPort:        0,
		WebhookPath:     "/webhook",
		ShutdownTimeout: time.Second,
	}
	api := handlers.NewAPIHandler(handlers.NewHealthHandler(nil, "test"), nil, testLogger())
	srv := New(cfg, testLogger(), api)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ошибка открытия порта: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health/live")
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("статус = %d, ожидался 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() вернул ошибку: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("сервер не остановился за 5s")
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	cfg := &config.Config{WebhookPath: "/webhook", ShutdownTimeout: time.Second}
	api := handlers.NewAPIHandler(handlers.NewHealthHandler(nil, "test"), nil, testLogger())
	srv := New(cfg, testLogger(), api)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ошибка открытия порта: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200", resp.StatusCode)
	}
	if len(body) == 0 {
		t.Error("пустой ответ /metrics")
	}
}
