package migratecmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/oddava/finance-tracker/internal/command"
	"github.com/oddava/finance-tracker/internal/config"
	"github.com/oddava/finance-tracker/internal/database"
	"github.com/oddava/finance-tracker/internal/migration"
)

const (
	dirFlag     = "dir"
	messageFlag = "message"
	stepsFlag   = "steps"
	allFlag     = "all"

	defaultMigrationsDir = "internal/database/migrations"
)

func New(_ context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "manage database schema migrations",
	}
	cmd.AddCommand(
		newRevisionCmd(),
		newUpgradeCmd(),
		newDowngradeCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newRevisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revision",
		Short: "create a new pair of empty up/down migration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			message, err := cmd.Flags().GetString(messageFlag)
			if err != nil {
				return fmt.Errorf("get message flag: %w", err)
			}
			dir, err := resolveDir(cmd, defaultMigrationsDir)
			if err != nil {
				return err
			}
			return command.WrapError(revision(dir, message))
		},
	}
	cmd.Flags().StringP(messageFlag, "m", "", "revision message")
	cmd.Flags().String(dirFlag, defaultMigrationsDir, "migrations directory")
	_ = cmd.MarkFlagRequired(messageFlag)
	return cmd
}

func revision(dir, message string) error {
	rev, err := migration.CreateRevision(dir, message, time.Now())
	if err != nil {
		return fmt.Errorf("create revision: %w", err)
	}
	slog.Info("Revision created",
		slog.Uint64("version", rev.Version),
		slog.String("up", rev.UpPath),
		slog.String("down", rev.DownPath),
	)
	return nil
}

func newUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(mg *database.Migrator) error {
				return mg.Up()
			})
		},
	}
	cmd.Flags().String(dirFlag, "", "read migrations from directory instead of the embedded set")
	return cmd
}

func newDowngradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "downgrade",
		Short: "roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, err := cmd.Flags().GetInt(stepsFlag)
			if err != nil {
				return fmt.Errorf("get steps flag: %w", err)
			}
			all, err := cmd.Flags().GetBool(allFlag)
			if err != nil {
				return fmt.Errorf("get all flag: %w", err)
			}
			if all {
				steps = 0
			} else if steps <= 0 {
				return fmt.Errorf("--%s must be positive (use --%s to roll back everything)", stepsFlag, allFlag)
			}

			return withMigrator(cmd, func(mg *database.Migrator) error {
				return mg.Down(steps)
			})
		},
	}
	cmd.Flags().Int(stepsFlag, 1, "number of migrations to roll back")
	cmd.Flags().Bool(allFlag, false, "roll back all migrations")
	cmd.Flags().String(dirFlag, "", "read migrations from directory instead of the embedded set")
	return cmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(mg *database.Migrator) error {
				v, err := mg.Version()
				if err != nil {
					return err
				}
				if !v.Applied {
					slog.Info("No migrations applied")
					return nil
				}
				slog.Info("Schema version",
					slog.Uint64("version", uint64(v.Version)),
					slog.Bool("dirty", v.Dirty),
				)
				return nil
			})
		},
	}
	cmd.Flags().String(dirFlag, "", "read migrations from directory instead of the embedded set")
	return cmd
}

// withMigrator загружает параметры PostgreSQL и выполняет fn.
func withMigrator(cmd *cobra.Command, fn func(mg *database.Migrator) error) error {
	dir, err := resolveDir(cmd, "")
	if err != nil {
		return err
	}
	envFile, err := command.GetEnvFile(cmd)
	if err != nil {
		return fmt.Errorf("get env file: %w", err)
	}

	return command.WrapError(func() error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		dbCfg, err := config.LoadDatabase()
		if err != nil {
			return fmt.Errorf("load database config: %w", err)
		}

		mg, err := database.NewMigrator(dbCfg, dir, slog.Default())
		if err != nil {
			return err
		}
		defer mg.Close()

		return fn(mg)
	}())
}

func resolveDir(cmd *cobra.Command, def string) (string, error) {
	dir, err := cmd.Flags().GetString(dirFlag)
	if err != nil {
		return "", fmt.Errorf("get dir flag: %w", err)
	}
	if dir == "" {
		dir = def
	}
	return command.ResolvePath(cmd, dir)
}
