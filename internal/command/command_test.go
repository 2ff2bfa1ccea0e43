package command

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func Test_WrapError(t *testing.T) {
	require.NoError(t, WrapError(nil))

	inner := errors.New("boom")
	err := WrapError(inner)
	require.Error(t, err)
	require.ErrorIs(t, err, inner)
	require.Equal(t, "command failed: boom", err.Error())

	var cmdErr *Error
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, inner, cmdErr.Inner)
}

func Test_ResolvePath(t *testing.T) {
	base := t.TempDir()

	var (
		got     = map[string]string{}
		envFile string
	)
	inputs := map[string]string{
		"empty":    "",
		"relative": "bot/locales",
		"absolute": filepath.Join(base, "x"),
	}

	root := &cobra.Command{Use: "root"}
	AddWorkDirFlag(root)
	AddEnvFileFlag(root)
	root.AddCommand(&cobra.Command{
		Use: "child",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for name, in := range inputs {
				p, err := ResolvePath(cmd, in)
				if err != nil {
					return err
				}
				got[name] = p
			}
			var err error
			envFile, err = GetEnvFile(cmd)
			return err
		},
	})
	root.SetArgs([]string{"child", "--" + workingDirFlag, base})
	require.NoError(t, root.Execute())

	require.Equal(t, map[string]string{
		"empty":    "",
		"relative": filepath.Join(base, "bot/locales"),
		"absolute": filepath.Join(base, "x"),
	}, got)
	require.Equal(t, filepath.Join(base, ".env"), envFile)
}

func Test_GetWorkingDir_NotExecuted(t *testing.T) {
	root := &cobra.Command{Use: "root"}
	AddWorkDirFlag(root)

	// До Execute persistent-флаги ещё не слиты в Flags()
	_, err := GetWorkingDir(root)
	require.Error(t, err)
}
