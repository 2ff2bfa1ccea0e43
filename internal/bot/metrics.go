package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики обработки обновлений.
var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financebot_updates_total",
		Help: "Количество обработанных обновлений Telegram по типу.",
	}, []string{"kind"})

	handlerErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financebot_handler_errors_total",
		Help: "Количество ошибок обработчиков.",
	})

	transactionsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financebot_transactions_created_total",
		Help: "Количество записанных транзакций по типу и способу разбора.",
	}, []string{"type", "source"})

	throttledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financebot_throttled_total",
		Help: "Количество сообщений, отброшенных ограничителем частоты.",
	})
)
