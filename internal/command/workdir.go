package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	workingDirFlag = "working-dir"
	envFileFlag    = "env-file"
)

func AddWorkDirFlag(cmd *cobra.Command) {
	cwd, _ := os.Getwd()

	cmd.PersistentFlags().StringP(workingDirFlag, "w", cwd, "define working directory")
}

func GetWorkingDir(cmd *cobra.Command) (string, error) {
	baseDir, err := cmd.Flags().GetString(workingDirFlag)
	if err != nil {
		return "", fmt.Errorf("get working-dir flag: %w", err)
	}
	return baseDir, nil
}

// ResolvePath makes a relative path relative to the working directory.
func ResolvePath(cmd *cobra.Command, path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	baseDir, err := GetWorkingDir(cmd)
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, path), nil
}

func AddEnvFileFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String(envFileFlag, ".env", "load environment variables from file if it exists")
}

func GetEnvFile(cmd *cobra.Command) (string, error) {
	envFile, err := cmd.Flags().GetString(envFileFlag)
	if err != nil {
		return "", fmt.Errorf("get env-file flag: %w", err)
	}
	return ResolvePath(cmd, envFile)
}
