// Пакет repository — хранение пользователей, категорий, транзакций,
// бюджетов и настроек бота в PostgreSQL. Запросы написаны на SQL через pgx.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound — строка не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — строка с таким ключом уже есть.
	ErrConflict = errors.New("запись уже существует")
)

// codeUniqueViolation — SQLSTATE нарушения UNIQUE.
const codeUniqueViolation = "23505"

// DBTX — то, на чём выполняются запросы: *pgxpool.Pool или pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner открывает транзакцию (*pgxpool.Pool, *pgx.Conn).
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxRunner запускает функции в транзакции.
type TxRunner struct {
	db Beginner
}

// NewTxRunner создаёт TxRunner.
func NewTxRunner(db Beginner) *TxRunner {
	return &TxRunner{db: db}
}

// RunInTx коммитит транзакцию, если fn вернула nil, иначе откатывает.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("ошибка отката транзакции: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// isUniqueViolation сообщает, что запрос нарушил UNIQUE-ограничение.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// noRows сообщает, что QueryRow не нашёл строку.
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
