package i18ncmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oddava/finance-tracker/internal/command"
	"github.com/oddava/finance-tracker/internal/gettext"
)

const (
	configFlag          = "config"
	outputFlag          = "output"
	inputFlag           = "input-file"
	dirFlag             = "directory"
	localeFlag          = "locale"
	noFuzzyMatchingFlag = "no-fuzzy-matching"
	ignoreObsoleteFlag  = "ignore-obsolete"
	useFuzzyFlag        = "use-fuzzy"
	statisticsFlag      = "statistics"
)

func New(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "i18n",
		Short: "extract, update and compile translation catalogs",
	}
	cmd.PersistentFlags().StringP(configFlag, "c", "i18n.toml", "extraction settings file")

	cmd.AddCommand(
		newExtractCmd(ctx),
		newInitCmd(ctx),
		newUpdateCmd(ctx),
		newCompileCmd(ctx),
		newSyncCmd(ctx),
	)
	return cmd
}

func newExtractCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [paths...]",
		Short: "extract translatable strings from Go sources into a POT template",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			out, err := pathFlag(cmd, outputFlag)
			if err != nil {
				return err
			}
			if out == "" {
				out = env.templatePath()
			}
			return command.WrapError(extract(ctx, env, out, args...))
		},
	}
	cmd.Flags().StringP(outputFlag, "o", "", "output POT file (default <locales_dir>/<domain>.pot)")
	return cmd
}

func newInitCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "create a new catalog for a language from the template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			lang, err := cmd.Flags().GetString(localeFlag)
			if err != nil {
				return fmt.Errorf("get locale flag: %w", err)
			}
			if err := env.applyPaths(cmd); err != nil {
				return err
			}
			return command.WrapError(initCatalog(ctx, env, lang))
		},
	}
	addCatalogFlags(cmd)
	_ = cmd.MarkFlagRequired(localeFlag)
	return cmd
}

func newUpdateCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "merge the template into existing catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.applyPaths(cmd); err != nil {
				return err
			}
			opts, err := mergeOptions(cmd)
			if err != nil {
				return err
			}
			lang, err := cmd.Flags().GetString(localeFlag)
			if err != nil {
				return fmt.Errorf("get locale flag: %w", err)
			}
			return command.WrapError(update(ctx, env, opts, langs(lang)...))
		},
	}
	addCatalogFlags(cmd)
	cmd.Flags().Bool(noFuzzyMatchingFlag, false, "do not use fuzzy matching for new messages")
	cmd.Flags().Bool(ignoreObsoleteFlag, false, "drop obsolete messages instead of commenting them out")
	return cmd
}

func newCompileCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "compile PO catalogs into MO files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.applyPaths(cmd); err != nil {
				return err
			}
			useFuzzy, err := cmd.Flags().GetBool(useFuzzyFlag)
			if err != nil {
				return fmt.Errorf("get use-fuzzy flag: %w", err)
			}
			statistics, err := cmd.Flags().GetBool(statisticsFlag)
			if err != nil {
				return fmt.Errorf("get statistics flag: %w", err)
			}
			lang, err := cmd.Flags().GetString(localeFlag)
			if err != nil {
				return fmt.Errorf("get locale flag: %w", err)
			}
			return command.WrapError(compile(ctx, env, gettext.CompileOptions{UseFuzzy: useFuzzy}, statistics, langs(lang)...))
		},
	}
	addCatalogFlags(cmd)
	cmd.Flags().BoolP(useFuzzyFlag, "f", false, "include fuzzy translations")
	cmd.Flags().Bool(statisticsFlag, false, "print translation statistics")
	return cmd
}

func newSyncCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [paths...]",
		Short: "extract strings and update all catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.applyPaths(cmd); err != nil {
				return err
			}
			opts, err := mergeOptions(cmd)
			if err != nil {
				return err
			}
			return command.WrapError(func() error {
				if err := extract(ctx, env, env.templatePath(), args...); err != nil {
					return err
				}
				return update(ctx, env, opts)
			}())
		},
	}
	cmd.Flags().StringP(dirFlag, "d", "", "catalogs directory (default locales_dir from config)")
	cmd.Flags().Bool(noFuzzyMatchingFlag, false, "do not use fuzzy matching for new messages")
	cmd.Flags().Bool(ignoreObsoleteFlag, false, "drop obsolete messages instead of commenting them out")
	return cmd
}

func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(inputFlag, "i", "", "POT template (default <directory>/<domain>.pot)")
	cmd.Flags().StringP(dirFlag, "d", "", "catalogs directory (default locales_dir from config)")
	cmd.Flags().StringP(localeFlag, "l", "", "language of the catalog")
}

func mergeOptions(cmd *cobra.Command) (gettext.MergeOptions, error) {
	noFuzzy, err := cmd.Flags().GetBool(noFuzzyMatchingFlag)
	if err != nil {
		return gettext.MergeOptions{}, fmt.Errorf("get no-fuzzy-matching flag: %w", err)
	}
	ignoreObsolete, err := cmd.Flags().GetBool(ignoreObsoleteFlag)
	if err != nil {
		return gettext.MergeOptions{}, fmt.Errorf("get ignore-obsolete flag: %w", err)
	}
	return gettext.MergeOptions{NoFuzzyMatching: noFuzzy, IgnoreObsolete: ignoreObsolete}, nil
}

func langs(lang string) []string {
	if lang == "" {
		return nil
	}
	return []string{lang}
}
