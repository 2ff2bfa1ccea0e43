// migrate.go — применение и откат SQL-миграций через golang-migrate.
// Источник — встроенный FS (migrations/*.sql) или каталог на диске.
package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/oddava/finance-tracker/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS возвращает встроенные миграции (корень — каталог migrations).
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// Каталог встроен при компиляции, ошибка невозможна.
		panic(err)
	}
	return sub
}

// Migrator — обёртка над migrate.Migrate с логированием.
type Migrator struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

// MigrationVersion — текущее состояние схемы.
type MigrationVersion struct {
	// Номер последней применённой миграции
	Version uint
	// Миграция прервалась и требует ручного вмешательства
	Dirty bool
	// Хотя бы одна миграция применена
	Applied bool
}

// NewMigrator создаёт Migrator. Если dir пустой — используются встроенные миграции,
// иначе SQL-файлы читаются из каталога dir.
func NewMigrator(cfg *config.DatabaseConfig, dir string, logger *slog.Logger) (*Migrator, error) {
	var fsys fs.FS = MigrationsFS()
	sourceName := "embedded"
	if dir != "" {
		fsys = os.DirFS(dir)
		sourceName = dir
	}

	source, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания источника миграций (%s): %w", sourceName, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.MigrateURL())
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации миграций: %w", err)
	}

	return &Migrator{
		m:      m,
		logger: logger.With(slog.String("component", "migrator"), slog.String("source", sourceName)),
	}, nil
}

// Up применяет все миграции до последней.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}
	mg.logVersion("Миграции применены")
	return nil
}

// Down откатывает steps миграций. steps <= 0 — откат всех миграций.
func (mg *Migrator) Down(steps int) error {
	var err error
	if steps <= 0 {
		err = mg.m.Down()
	} else {
		err = mg.m.Steps(-steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка отката миграций: %w", err)
	}
	mg.logVersion("Миграции откачены")
	return nil
}

// Goto переводит схему на указанную версию (вверх или вниз).
func (mg *Migrator) Goto(version uint) error {
	if err := mg.m.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка перехода на версию %d: %w", version, err)
	}
	mg.logVersion("Схема переведена на версию")
	return nil
}

// Version возвращает текущую версию схемы.
func (mg *Migrator) Version() (MigrationVersion, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationVersion{}, nil
	}
	if err != nil {
		return MigrationVersion{}, fmt.Errorf("ошибка получения версии схемы: %w", err)
	}
	return MigrationVersion{Version: version, Dirty: dirty, Applied: true}, nil
}

// Close освобождает источник и подключение к БД.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (mg *Migrator) logVersion(msg string) {
	v, err := mg.Version()
	if err != nil {
		mg.logger.Warn(msg, slog.String("error", err.Error()))
		return
	}
	mg.logger.Info(msg,
		slog.Uint64("version", uint64(v.Version)),
		slog.Bool("dirty", v.Dirty),
	)
}

// Migrate применяет встроенные SQL-миграции к базе данных.
// Вызывается при старте бота (AUTO_MIGRATE=true).
func Migrate(cfg *config.DatabaseConfig, logger *slog.Logger) error {
	mg, err := NewMigrator(cfg, "", logger)
	if err != nil {
		return err
	}
	defer mg.Close()

	return mg.Up()
}
