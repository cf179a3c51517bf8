//go:build unit

package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/recipebump/internal/domain/commands"
	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/infrastructure/repositories/recipe"
)

func newBumpCommand(f *fixture) *commands.BumpCommand {
	return commands.NewBumpCommand(f.workspaces(), recipe.NewRecipeFileRepository(), f.providers(), f.metrics)
}

func TestBumpCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should update resolvable recipes and report the ambiguous one", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, report.Results, 2)
		assert.NotEmpty(t, report.RunID)

		app := resultFor(report, "app")
		assert.Equal(t, entities.StatusUpdated, app.Status)
		assert.Equal(t, "2.3.4_aaaaaaa", app.OldVersion)
		assert.Equal(t, "2.3.5_bbbbbbb", app.NewVersion)

		lib := resultFor(report, "lib")
		assert.Equal(t, entities.StatusNeedsDecision, lib.Status)
		assert.Equal(t, []string{"version/1.1", "version/1.1-alt"}, lib.Candidates)

		assert.Equal(t, "SUMMARY = \"app\"\nCCOS_VERSION = \"2.3.5_bbbbbbb\"\n", f.meta.Files[appRecipePath])
		assert.Equal(t, "CCOS_VERSION = \"1.0_1111111\"\nCCOS_GIT_BRANCH_NAME = \"@s6mobis\"\n", f.meta.Files[libRecipePath])
		require.Len(t, f.meta.Commits, 1)
		assert.Equal(t, "app=2.3.5\n\nFix crash on start\nTweak APP-3\n\nJiras:\nAPP-3\nAPP-7\n", f.meta.Commits[0])
		assert.Equal(t, []string{"@s6mobis"}, f.meta.Pushes)

		assert.Equal(t, 1, f.metrics.RecipeResults["updated"])
		assert.Equal(t, 1, f.metrics.RecipeResults["needs-decision"])
		assert.False(t, report.Failed())
	})

	t.Run("should resolve an ambiguous recipe to the explicitly requested tag", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{
			Targets: map[string]string{"lib": "1.1"},
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, report.Count(entities.StatusUpdated))
		assert.Contains(t, f.meta.Files[libRecipePath], `CCOS_VERSION = "1.1_2222222"`)
		require.Len(t, f.meta.Commits, 1)
		assert.Contains(t, f.meta.Commits[0], "app=2.3.5 lib=1.1\n")
		assert.Contains(t, f.meta.Commits[0], "Jiras:\nAPP-3\nAPP-7\nLIB-1\n")
	})

	t.Run("should not write or push anything on dry-run", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{DryRun: true})

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.StatusUpdated, resultFor(report, "app").Status)
		assert.Empty(t, f.meta.Commits)
		assert.Empty(t, f.meta.Pushes)
		assert.Contains(t, f.meta.Files[appRecipePath], "2.3.4_aaaaaaa")
	})

	t.Run("should skip recipes that are already up to date on a second run", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		cmd := newBumpCommand(f)
		_, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{Recipes: []string{"app"}})
		require.NoError(t, err)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{Recipes: []string{"app"}})

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.StatusSkipped, resultFor(report, "app").Status)
		assert.Len(t, f.meta.Commits, 1)
	})

	t.Run("should keep going when one source repository cannot be cloned", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.git.CloneErrs[libURL] = errors.New("permission denied")
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.StatusFailed, resultFor(report, "lib").Status)
		require.ErrorIs(t, resultFor(report, "lib").Err, entities.ErrCloneFailed)
		assert.Equal(t, entities.StatusUpdated, resultFor(report, "app").Status)
		assert.Len(t, f.meta.Commits, 1)
		assert.True(t, report.Failed())
	})

	t.Run("should fail every recipe of a meta repository that cannot be cloned", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.git.CloneErrs[metaURL] = errors.New("host unreachable")
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, report.Count(entities.StatusFailed))
		assert.Zero(t, f.git.CloneCalls[appURL])
	})

	t.Run("should mark updated recipes failed when the push is rejected", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.meta.PushErr = entities.ErrPushRejected
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{Recipes: []string{"app"}})

		// then
		require.NoError(t, err)
		app := resultFor(report, "app")
		assert.Equal(t, entities.StatusFailed, app.Status)
		require.ErrorIs(t, app.Err, entities.ErrPushRejected)
		require.Len(t, report.Errors, 1)
	})

	t.Run("should restore the recipe files when the commit fails", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.meta.CommitErr = errors.New("pre-commit hook failed")
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{Recipes: []string{"app"}})

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.StatusFailed, resultFor(report, "app").Status)
		data, readErr := os.ReadFile(filepath.Join(f.settings.Workspace, "meta-s6", appRecipePath))
		require.NoError(t, readErr)
		assert.Equal(t, "SUMMARY = \"app\"\nCCOS_VERSION = \"2.3.4_aaaaaaa\"\n", string(data))
		assert.Empty(t, f.meta.Pushes)
	})

	t.Run("should keep processing siblings of a recipe without a recipe file", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.settings.Metas[0].Recipes = append(f.settings.Metas[0].Recipes,
			entities.RecipeSettings{Name: "ghost", URL: "git@bitbucket.org:team/ghost.git"})
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{
			Targets: map[string]string{"lib": "1.1"},
		})

		// then
		require.NoError(t, err)
		require.Len(t, report.Results, 3)
		ghost := resultFor(report, "ghost")
		assert.Equal(t, entities.StatusFailed, ghost.Status)
		require.ErrorIs(t, ghost.Err, entities.ErrRecipeNotFound)
		assert.Equal(t, entities.StatusUpdated, resultFor(report, "app").Status)
		assert.Equal(t, entities.StatusUpdated, resultFor(report, "lib").Status)
		require.Len(t, f.meta.Commits, 1)
		assert.Contains(t, f.meta.Commits[0], "app=2.3.5 lib=1.1\n")
	})

	t.Run("should open a pull request from the target branch when asked", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{CreatePR: true})

		// then
		require.NoError(t, err)
		require.Len(t, f.provider.PRInputs, 1)
		input := f.provider.PRInputs[0]
		assert.Equal(t, "app=2.3.5", input.Title)
		assert.Equal(t, "team/meta-s6", input.Repository)
		assert.Equal(t, "@s6mobis", input.SourceBranch)
		assert.Equal(t, "@s6mobis", input.DestinationBranch)
		assert.Equal(t, f.meta.Commits[0], input.Description)
		assert.Len(t, report.PullRequests, 1)
		assert.Equal(t, 1, f.metrics.PullRequests["bitbucket/created"])
	})

	t.Run("should record a failed pull request without failing the recipes", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.provider.CreatePRErr = errors.New("403")
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{CreatePR: true})

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.StatusUpdated, resultFor(report, "app").Status)
		assert.Len(t, report.Errors, 1)
		assert.Equal(t, 1, f.metrics.PullRequests["bitbucket/failed"])
	})

	t.Run("should move a recipe to another source branch", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{
			Recipes:        []string{"app"},
			SourceBranches: map[string]string{"app": "next"},
		})

		// then
		require.NoError(t, err)
		app := resultFor(report, "app")
		assert.Equal(t, entities.StatusUpdated, app.Status)
		assert.Equal(t, "next", app.NewBranch)
		assert.Equal(t,
			"SUMMARY = \"app\"\nCCOS_VERSION = \"2.3.5_bbbbbbb\"\nCCOS_GIT_BRANCH_NAME = \"next\"\n",
			f.meta.Files[appRecipePath],
		)
		assert.Contains(t, f.meta.Commits[0], "app: branch @s6mobis -> next")
	})

	t.Run("should ask for confirmation before tagging an untagged HEAD", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.app.HeadTags = nil
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{Recipes: []string{"app"}})

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.StatusNeedsDecision, resultFor(report, "app").Status)
		assert.Empty(t, f.app.CreatedTags)
		assert.Empty(t, f.meta.Commits)
	})

	t.Run("should tag HEAD and pin the new tag when confirmed", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		f.app.HeadTags = nil
		f.app.HeadHash = "ccccccc"
		cmd := newBumpCommand(f)

		// when
		report, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{
			Recipes: []string{"app"},
			Confirm: true,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "2.3.6_ccccccc", resultFor(report, "app").NewVersion)
		assert.Equal(t, []string{"version/2.3.6"}, f.app.CreatedTags)
		assert.Equal(t, []string{"version/2.3.6"}, f.app.PushedTags)
	})

	t.Run("should reject filters that match no branch", func(t *testing.T) {
		t.Parallel()

		// given
		f := newFixture(t)
		cmd := newBumpCommand(f)

		// when
		_, err := cmd.Execute(context.Background(), f.settings, commands.BumpOptions{Branches: []string{"missing"}})

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
	})
}
