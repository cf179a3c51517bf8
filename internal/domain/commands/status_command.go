package commands

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

// Status is the interface for the status command.
type Status interface {
	Execute(ctx context.Context, settings *entities.Settings, opts StatusOptions) ([]RecipeOverview, error)
}

// StatusOptions selects what to report on.
type StatusOptions struct {
	Verbose  bool
	Branches []string
	Metas    []string
	Recipes  []string
}

// RecipeOverview is the read-only view of one recipe on one branch.
type RecipeOverview struct {
	Meta        string
	Branch      string
	Recipe      string
	Version     string // persisted pin value
	GitBranch   string
	CurrentTag  string
	LatestTag   string
	HeadTags    []string
	NewCommits  int
	NextVersion string // proposed tag when HEAD has new, untagged commits
	Err         error
}

// UpToDate reports whether no commit landed after the pinned tag.
func (it RecipeOverview) UpToDate() bool {
	return it.Err == nil && it.NewCommits == 0
}

// StatusCommand reports, per recipe, how far its pin is behind the source branch.
type StatusCommand struct {
	workspaces repositories.WorkspaceFactory
	recipes    repositories.RecipeRepository
}

// NewStatusCommand creates a new StatusCommand.
func NewStatusCommand(workspaces repositories.WorkspaceFactory, recipes repositories.RecipeRepository) *StatusCommand {
	return &StatusCommand{workspaces: workspaces, recipes: recipes}
}

// Execute never writes; per-recipe failures are returned inside the statuses.
func (it *StatusCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts StatusOptions,
) ([]RecipeOverview, error) {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	workspace, err := it.workspaces(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare workspace: %w", err)
	}

	var statuses []RecipeOverview
	for _, meta := range settings.FilterMetas(opts.Metas) {
		for _, branch := range settings.FilterBranches(opts.Branches, nil) {
			statuses = append(statuses, it.inspectMeta(ctx, workspace, meta, branch.Name, opts.Recipes)...)
		}
	}
	return statuses, nil
}

func (it *StatusCommand) inspectMeta(
	ctx context.Context,
	workspace repositories.WorkspaceRepository,
	meta entities.MetaSettings,
	branch string,
	recipeFilter []string,
) []RecipeOverview {
	recipes := meta.FilterRecipes(recipeFilter)
	statuses := make([]RecipeOverview, len(recipes))
	for i, recipe := range recipes {
		statuses[i] = RecipeOverview{Meta: meta.Name, Branch: branch, Recipe: recipe.Name}
	}

	if _, err := workspace.EnsureCloned(ctx, entities.CloneSpec{Name: meta.Name, URL: meta.URL, Branch: branch}); err != nil {
		for i := range statuses {
			statuses[i].Err = err
		}
		return statuses
	}

	for i, recipe := range recipes {
		it.inspectRecipe(ctx, workspace, meta, recipe, &statuses[i])
	}
	return statuses
}

func (it *StatusCommand) inspectRecipe(
	ctx context.Context,
	workspace repositories.WorkspaceRepository,
	meta entities.MetaSettings,
	recipe entities.RecipeSettings,
	status *RecipeOverview,
) {
	var pin entities.RecipePin
	status.Err = workspace.WithRead(meta.Name, func(root string) error {
		path, err := it.recipes.Locate(root, recipe.Name)
		if err != nil {
			return err
		}
		pin, err = it.recipes.ReadPin(path)
		return err
	})
	if status.Err != nil {
		return
	}
	status.Version = pin.Version
	status.GitBranch = pin.GitBranchName

	pinned, err := pin.Pinned()
	if err != nil {
		status.Err = err
		return
	}
	status.CurrentTag = pinned.Tag()

	repository := entities.RepositoryNameFromURL(recipe.URL)
	spec := entities.CloneSpec{Name: repository, URL: recipe.URL, Branch: pin.GitBranchName}
	if _, err = workspace.EnsureCloned(ctx, spec); err != nil {
		status.Err = err
		return
	}

	status.LatestTag, err = workspace.LatestVersionTag(ctx, repository)
	if err != nil && !errors.Is(err, entities.ErrNoVersionTags) {
		status.Err = err
		return
	}
	if status.HeadTags, err = workspace.TagsAtHead(ctx, repository); err != nil {
		status.Err = err
		return
	}
	if status.NewCommits, err = workspace.CommitCountBetween(ctx, repository, status.CurrentTag, TargetHead); err != nil {
		status.Err = err
		return
	}

	if status.NewCommits > 0 && len(status.HeadTags) == 0 {
		base := status.LatestTag
		if base == "" {
			base = status.CurrentTag
		}
		if next, nextErr := entities.NextTag(base); nextErr == nil {
			status.NextVersion = next
		}
	}
}
