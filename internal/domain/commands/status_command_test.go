//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/recipebump/internal/domain/commands"
	"github.com/rios0rios0/recipebump/internal/infrastructure/repositories/recipe"
)

func overviewFor(overviews []commands.RecipeOverview, recipe string) commands.RecipeOverview {
	for _, overview := range overviews {
		if overview.Recipe == recipe {
			return overview
		}
	}
	return commands.RecipeOverview{}
}

func TestStatusCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should report pinned and latest tags with the commits in between", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		cmd := commands.NewStatusCommand(f.workspaces(), recipe.NewRecipeFileRepository())

		// when
		overviews, err := cmd.Execute(context.Background(), f.settings, commands.StatusOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, overviews, 2)

		app := overviewFor(overviews, "app")
		require.NoError(t, app.Err)
		assert.Equal(t, "meta-s6", app.Meta)
		assert.Equal(t, "@s6mobis", app.Branch)
		assert.Equal(t, "2.3.4_aaaaaaa", app.Version)
		assert.Equal(t, "version/2.3.4", app.CurrentTag)
		assert.Equal(t, "version/2.3.5", app.LatestTag)
		assert.Equal(t, []string{"version/2.3.5"}, app.HeadTags)
		assert.Equal(t, 2, app.NewCommits)
		assert.Empty(t, app.NextVersion)
		assert.False(t, app.UpToDate())
	})

	t.Run("should propose the next version when HEAD is untagged", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.app.HeadTags = nil
		cmd := commands.NewStatusCommand(f.workspaces(), recipe.NewRecipeFileRepository())

		// when
		overviews, err := cmd.Execute(context.Background(), f.settings, commands.StatusOptions{Recipes: []string{"app"}})

		// then
		require.NoError(t, err)
		require.Len(t, overviews, 1)
		assert.Equal(t, "version/2.3.6", overviews[0].NextVersion)
	})

	t.Run("should never write, commit or tag", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.app.HeadTags = nil
		cmd := commands.NewStatusCommand(f.workspaces(), recipe.NewRecipeFileRepository())

		// when
		_, err := cmd.Execute(context.Background(), f.settings, commands.StatusOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, f.meta.Commits)
		assert.Empty(t, f.app.CreatedTags)
		assert.Zero(t, f.git.CallCount("push"))
	})

	t.Run("should report a source clone failure on the affected recipe only", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.git.CloneErrs[libURL] = errors.New("denied")
		cmd := commands.NewStatusCommand(f.workspaces(), recipe.NewRecipeFileRepository())

		// when
		overviews, err := cmd.Execute(context.Background(), f.settings, commands.StatusOptions{})

		// then
		require.NoError(t, err)
		require.Error(t, overviewFor(overviews, "lib").Err)
		require.NoError(t, overviewFor(overviews, "app").Err)
	})
}
