// financebot — Telegram-бот учёта расходов и инструменты обслуживания:
// миграции БД и каталоги переводов.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/acronis/go-stacktrace"
	slogex "github.com/acronis/go-stacktrace/slogex"
	"github.com/dusted-go/logging/prettylog"
	"github.com/mattn/go-isatty"
	slogformatter "github.com/samber/slog-formatter"
	"github.com/spf13/cobra"

	"github.com/oddava/finance-tracker/internal/command"
	"github.com/oddava/finance-tracker/internal/commands/i18ncmd"
	"github.com/oddava/finance-tracker/internal/commands/migratecmd"
	"github.com/oddava/finance-tracker/internal/commands/servecmd"
	"github.com/oddava/finance-tracker/internal/config"
)

func initLogging(verbose bool) {
	logLvl := slog.LevelInfo
	if verbose {
		logLvl = slog.LevelDebug
	}
	w := os.Stderr

	var colorOpt prettylog.Option = func(_ *prettylog.Handler) {}
	if isatty.IsTerminal(w.Fd()) {
		colorOpt = prettylog.WithColor()
	}

	logger := slog.New(
		slogformatter.NewFormatterHandler(
			slogformatter.FormatByType(func(s []string) slog.Value {
				return slog.StringValue(strings.Join(s, ","))
			}),
		)(
			prettylog.New(&slog.HandlerOptions{Level: logLvl},
				prettylog.WithDestinationWriter(w),
				colorOpt,
			),
		),
	)
	slog.SetDefault(logger)
}

const verboseFlag = "verbose"

func main() {
	os.Exit(mainFn())
}

func mainFn() int {
	var ensureDuplicates bool
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := func() *cobra.Command {
		cmd := &cobra.Command{
			Use:           "financebot",
			Short:         "financebot is a Telegram expense tracker",
			Version:       config.Version,
			SilenceUsage:  true,
			SilenceErrors: true,
			PersistentPreRun: func(cmd *cobra.Command, _ []string) {
				verbose, err := cmd.Flags().GetBool(verboseFlag)
				if err != nil {
					fmt.Printf("Failed to get verbosity flag: %v\n", err)
					os.Exit(1)
				}

				initLogging(verbose)
			},
			CompletionOptions: cobra.CompletionOptions{
				DisableDefaultCmd: true,
			},
		}

		command.AddWorkDirFlag(cmd)
		command.AddEnvFileFlag(cmd)

		cmd.PersistentFlags().BoolP(verboseFlag, "v", false, "verbose output")
		cmd.Flags().BoolVarP(&ensureDuplicates, "ensure-duplicates", "d", false, "ensure that there are no duplicates in tracebacks")

		cmd.AddCommand(
			servecmd.New(ctx),
			migratecmd.New(ctx),
			i18ncmd.New(ctx),
		)
		return cmd
	}()

	if err := rootCmd.Execute(); err != nil {
		var cmdErr *command.Error
		if errors.As(err, &cmdErr) && cmdErr.Inner != nil {
			var stOpts []stacktrace.TracesOpt
			if ensureDuplicates {
				stOpts = append(stOpts, stacktrace.WithEnsureDuplicates())
			}
			slog.Error("Command failed", slogex.ErrToSlogAttr(cmdErr.Inner, stOpts...))
		} else {
			slog.Error("Command failed", slog.String("error", err.Error()))
			_ = rootCmd.Usage()
		}
		return 1
	}

	return 0
}
