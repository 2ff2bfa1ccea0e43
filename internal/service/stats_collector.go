// stats_collector.go — Prometheus-коллектор бизнес-метрик,
// значения читаются из БД в момент scrape.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// scrapeTimeout — ограничение на запросы к БД при scrape.
const scrapeTimeout = 3 * time.Second

// UserCounter возвращает число пользователей.
type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

// TransactionCounter возвращает число транзакций начиная с since.
type TransactionCounter interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// StatsCollector — prometheus.Collector для financebot_users_total
// и financebot_transactions_today.
type StatsCollector struct {
	users        UserCounter
	transactions TransactionCounter
	loc          *time.Location
	now          func() time.Time
	logger       *slog.Logger

	usersDesc        *prometheus.Desc
	transactionsDesc *prometheus.Desc
}

// NewStatsCollector создаёт коллектор. loc — часовой пояс для границы «сегодня».
func NewStatsCollector(users UserCounter, transactions TransactionCounter, loc *time.Location, logger *slog.Logger) *StatsCollector {
	return &StatsCollector{
		users:        users,
		transactions: transactions,
		loc:          loc,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "stats_collector")),
		usersDesc: prometheus.NewDesc(
			"financebot_users_total",
			"Количество зарегистрированных пользователей.",
			nil, nil,
		),
		transactionsDesc: prometheus.NewDesc(
			"financebot_transactions_today",
			"Количество транзакций за текущий день.",
			nil, nil,
		),
	}
}

// Describe реализует prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.usersDesc
	ch <- c.transactionsDesc
}

// Collect реализует prometheus.Collector. Метрика, которую не удалось
// получить, пропускается.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	if n, err := c.users.Count(ctx); err != nil {
		c.logger.Warn("Не удалось получить число пользователей", slog.String("error", err.Error()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.usersDesc, prometheus.GaugeValue, float64(n))
	}

	from, _ := DayBounds(c.now(), c.loc)
	if n, err := c.transactions.CountSince(ctx, from); err != nil {
		c.logger.Warn("Не удалось получить число транзакций", slog.String("error", err.Error()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.transactionsDesc, prometheus.GaugeValue, float64(n))
	}
}
