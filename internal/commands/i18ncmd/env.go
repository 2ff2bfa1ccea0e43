package i18ncmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oddava/finance-tracker/internal/command"
	"github.com/oddava/finance-tracker/internal/gettext"
)

// env — настройки i18n.toml с путями, разрешёнными относительно рабочего каталога.
type env struct {
	cfg      *gettext.Config
	root     string
	dir      string
	template string
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	root, err := command.GetWorkingDir(cmd)
	if err != nil {
		return nil, err
	}
	cfgPath, err := pathFlag(cmd, configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := gettext.LoadConfig(cfgPath)
	if err != nil {
		return nil, command.WrapError(err)
	}

	e := &env{cfg: cfg, root: root}
	e.dir = e.resolve(cfg.LocalesDir)
	return e, nil
}

// applyPaths учитывает флаги --directory и --input-file.
func (e *env) applyPaths(cmd *cobra.Command) error {
	if dir, err := pathFlag(cmd, dirFlag); err != nil {
		return err
	} else if dir != "" {
		e.dir = dir
	}
	if cmd.Flags().Lookup(inputFlag) == nil {
		return nil
	}
	input, err := pathFlag(cmd, inputFlag)
	if err != nil {
		return err
	}
	e.template = input
	return nil
}

func (e *env) templatePath() string {
	if e.template != "" {
		return e.template
	}
	return filepath.Join(e.dir, e.cfg.Domain+".pot")
}

func (e *env) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.root, path)
}

func pathFlag(cmd *cobra.Command, name string) (string, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("get %s flag: %w", name, err)
	}
	return command.ResolvePath(cmd, value)
}
