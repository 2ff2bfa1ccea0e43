package migratecmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/oddava/finance-tracker/internal/command"
)

func run(t *testing.T, dir string, args ...string) error {
	t.Helper()
	root := &cobra.Command{Use: "financebot", SilenceUsage: true, SilenceErrors: true}
	command.AddWorkDirFlag(root)
	command.AddEnvFileFlag(root)
	root.AddCommand(New(context.Background()))
	root.SetArgs(append(append([]string{}, args...), "-w", dir))
	return root.Execute()
}

func Test_Revision(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, run(t, dir, "migrate", "revision", "-m", "initial"))
	require.NoError(t, run(t, dir, "migrate", "revision", "-m", "add goals"))

	entries, err := os.ReadDir(filepath.Join(dir, defaultMigrationsDir))
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{
		"000001_initial.up.sql", "000001_initial.down.sql",
		"000002_add_goals.up.sql", "000002_add_goals.down.sql",
	}, names)
}

func Test_Revision_RequiresMessage(t *testing.T) {
	require.Error(t, run(t, t.TempDir(), "migrate", "revision"))
}

func Test_Downgrade_RejectsZeroSteps(t *testing.T) {
	err := run(t, t.TempDir(), "migrate", "downgrade", "--steps", "0")
	require.ErrorContains(t, err, "--steps must be positive")
}
