package servecmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oddava/finance-tracker/internal/command"
	"github.com/oddava/finance-tracker/internal/config"
)

func New(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the bot (long polling or webhook) with health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			envFile, err := command.GetEnvFile(cmd)
			if err != nil {
				return fmt.Errorf("get env file: %w", err)
			}
			if err := config.LoadDotEnv(envFile); err != nil {
				return command.WrapError(err)
			}

			cfg, err := config.Load()
			if err != nil {
				return command.WrapError(fmt.Errorf("load config: %w", err))
			}

			return command.WrapError(execute(ctx, cfg))
		},
	}
}
