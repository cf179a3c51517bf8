//go:build unit

package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/recipebump/internal/domain/commands"
)

func TestCleanCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should remove every configured working copy by default", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		for _, name := range []string{"meta-s6", "app", "lib", "unrelated"} {
			require.NoError(t, os.MkdirAll(filepath.Join(f.settings.Workspace, name, ".git"), 0o755))
		}
		cmd := commands.NewCleanCommand(f.workspaces())

		// when
		err := cmd.Execute(context.Background(), f.settings, commands.CleanOptions{})

		// then
		require.NoError(t, err)
		for _, name := range []string{"meta-s6", "app", "lib"} {
			assert.NoDirExists(t, filepath.Join(f.settings.Workspace, name))
		}
		assert.DirExists(t, filepath.Join(f.settings.Workspace, "unrelated"))
	})

	t.Run("should remove only the named working copies", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		for _, name := range []string{"app", "lib"} {
			require.NoError(t, os.MkdirAll(filepath.Join(f.settings.Workspace, name), 0o755))
		}
		cmd := commands.NewCleanCommand(f.workspaces())

		// when
		err := cmd.Execute(context.Background(), f.settings, commands.CleanOptions{Names: []string{"app", "missing"}})

		// then
		require.NoError(t, err)
		assert.NoDirExists(t, filepath.Join(f.settings.Workspace, "app"))
		assert.DirExists(t, filepath.Join(f.settings.Workspace, "lib"))
	})

	t.Run("should keep everything on dry-run", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		require.NoError(t, os.MkdirAll(filepath.Join(f.settings.Workspace, "app"), 0o755))
		cmd := commands.NewCleanCommand(f.workspaces())

		// when
		err := cmd.Execute(context.Background(), f.settings, commands.CleanOptions{DryRun: true})

		// then
		require.NoError(t, err)
		assert.DirExists(t, filepath.Join(f.settings.Workspace, "app"))
	})
}
