// serve.go — сборка зависимостей бота и запуск.
package servecmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oddava/finance-tracker/internal/api/handlers"
	"github.com/oddava/finance-tracker/internal/bot"
	"github.com/oddava/finance-tracker/internal/config"
	"github.com/oddava/finance-tracker/internal/database"
	"github.com/oddava/finance-tracker/internal/i18n"
	"github.com/oddava/finance-tracker/internal/parser"
	"github.com/oddava/finance-tracker/internal/repository"
	"github.com/oddava/finance-tracker/internal/server"
	"github.com/oddava/finance-tracker/internal/service"
	"github.com/oddava/finance-tracker/internal/telegram"
)

// webhookTimeout — время на обработку одного обновления из webhook.
const webhookTimeout = 30 * time.Second

func execute(ctx context.Context, cfg *config.Config) error {
	// 1. Логгер и Sentry
	logger := config.SetupLogger(cfg)
	logger.Info("financebot запускается",
		slog.String("version", config.Version),
		slog.String("environment", cfg.Environment),
		slog.Bool("webhook", cfg.UseWebhook),
	)

	if os.Getenv("DEPHEALTH_GROUP") == "" {
		logger.Warn("DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     config.Version,
		}); err != nil {
			logger.Warn("Sentry не инициализирован", slog.String("error", err.Error()))
		} else {
			logger.Info("Sentry инициализирован")
			defer sentry.Flush(2 * time.Second)
		}
	}

	// 2. Миграции
	if cfg.AutoMigrate {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(&cfg.DB, logger); err != nil {
			return err
		}
	}

	// 3. PostgreSQL (pgxpool) и адаптер *sql.DB для topologymetrics
	pool, err := database.Connect(ctx, &cfg.DB, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 4. Переводы
	bundle, err := i18n.LoadDir(cfg.LocalesDir, cfg.DefaultLanguage, logger)
	if err != nil {
		return err
	}

	// 5. Telegram
	tg := telegram.New(cfg.TelegramAPIURL, cfg.BotToken, &http.Client{Timeout: cfg.PollTimeout + 15*time.Second}, logger)
	me, err := tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("ошибка проверки токена бота: %w", err)
	}
	logger.Info("Бот авторизован",
		slog.Int64("bot_id", me.ID),
		slog.String("username", me.UserName),
	)

	// 6. Repositories
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	budgetRepo := repository.NewBudgetRepository(pool)
	settingsRepo := repository.NewBotSettingsRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// 7. Services
	categories := service.NewCategoryService(categoryRepo, repository.NewTxRunner(pool), logger)
	users := service.NewUserService(
		userRepo, categories,
		service.UserDefaults{
			Language: cfg.DefaultLanguage,
			Currency: cfg.DefaultCurrency,
			Timezone: cfg.DefaultTimezone,
		},
		bundle.Match,
		cfg.UserCacheSize, cfg.UserCacheTTL,
		logger,
	)
	transactions := service.NewTransactionService(transactionRepo, logger)
	budgets := service.NewBudgetService(budgetRepo, transactionRepo, logger)
	settings := service.NewSettingsService(settingsRepo, logger)
	admin := service.NewAdminService(users, statsRepo, tg, service.DefaultBroadcastOptions(), logger)

	if err := settings.Seed(ctx, cfg.MaintenanceMode); err != nil {
		return err
	}

	// 8. AI-разбор (опционально)
	var ai bot.AIParser
	if cfg.EnableAIParsing {
		ai = service.NewAIParser(service.AIParserConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIModel,
			CallsPerMinute: cfg.RateLimitAICalls,
		}, logger)
		logger.Info("AI-разбор включён", slog.String("model", cfg.OpenAIModel))
	}

	// 9. Бот
	b := bot.New(bot.Deps{
		API:          tg,
		Users:        users,
		Categories:   categories,
		Transactions: transactions,
		Budgets:      budgets,
		Settings:     settings,
		Admin:        admin,
		Parser:       parser.New(),
		AI:           ai,
		I18n:         bundle,
	}, bot.Options{
		AdminIDs:   cfg.AdminIDs,
		RateLimit:  cfg.RateLimitMessages,
		StateTTL:   cfg.StateTTL,
		UseWebhook: cfg.UseWebhook,
		Version:    config.Version,
	}, logger)

	// 10. topologymetrics и бизнес-метрики
	dephealthSvc := startDephealth(ctx, cfg, pgDB, logger)

	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("ошибка загрузки часового пояса %s: %w", cfg.DefaultTimezone, err)
	}
	if err := prometheus.Register(service.NewStatsCollector(userRepo, transactionRepo, loc, logger)); err != nil {
		logger.Warn("Коллектор статистики не зарегистрирован", slog.String("error", err.Error()))
	}

	// 11. Источник обновлений
	var webhook http.Handler
	var poller *bot.Poller
	if cfg.UseWebhook {
		if err := tg.SetWebhook(ctx, cfg.WebhookEndpoint(), cfg.WebhookSecret); err != nil {
			return fmt.Errorf("ошибка установки webhook: %w", err)
		}
		logger.Info("Webhook установлен", slog.String("path", cfg.WebhookPath))
		webhook = handlers.NewWebhookHandler(b, webhookTimeout, logger)
	} else {
		if err := tg.DeleteWebhook(ctx, true); err != nil {
			return fmt.Errorf("ошибка удаления webhook: %w", err)
		}
		poller = bot.NewPoller(tg, b, cfg.PollTimeout, logger)
		poller.Start(ctx)
	}

	// 12. HTTP-сервер (блокирующий вызов с graceful shutdown)
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), config.Version)
	apiHandler := handlers.NewAPIHandler(healthHandler, webhook, logger)
	srv := server.New(cfg, logger, apiHandler)

	runErr := srv.Run(ctx)

	// 13. Остановка
	if poller != nil {
		poller.Stop()
	}
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	b.Close(shutdownCtx)

	if cfg.UseWebhook {
		if err := tg.DeleteWebhook(shutdownCtx, false); err != nil {
			logger.Warn("Ошибка удаления webhook при остановке", slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("financebot остановлен")
	return nil
}

// startDephealth запускает мониторинг PostgreSQL и Bot API.
// При ошибке возвращает nil, бот работает без метрик зависимостей.
func startDephealth(ctx context.Context, cfg *config.Config, pgDB *sql.DB, logger *slog.Logger) *service.DephealthService {
	svc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:      "financebot",
		Group:          cfg.DephealthGroup,
		DB:             pgDB,
		PgConnURL:      cfg.DB.URL(),
		TelegramAPIURL: cfg.TelegramAPIURL,
		BotToken:       cfg.BotToken,
		CheckInterval:  cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if err := svc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("topologymetrics запущен",
		slog.String("group", cfg.DephealthGroup),
		slog.Duration("check_interval", cfg.DephealthCheckInterval),
	)
	return svc
}
