package repositories

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	domainRepos "github.com/rios0rios0/recipebump/internal/domain/repositories"
	"github.com/rios0rios0/recipebump/internal/infrastructure/metrics"
	gitRepo "github.com/rios0rios0/recipebump/internal/infrastructure/repositories/git"
	recipeRepo "github.com/rios0rios0/recipebump/internal/infrastructure/repositories/recipe"
	wsRepo "github.com/rios0rios0/recipebump/internal/infrastructure/repositories/workspace"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewDefaultProviderRegistry); err != nil {
		return err
	}

	// One metrics set per process, shared by git invocations and commands
	if err := container.Provide(metrics.New); err != nil {
		return err
	}
	if err := container.Provide(func(impl *metrics.Metrics) domainRepos.MetricsRepository {
		return impl
	}); err != nil {
		return err
	}

	if err := container.Provide(recipeRepo.NewRecipeFileRepository); err != nil {
		return err
	}
	if err := container.Provide(func(impl *recipeRepo.RecipeFileRepository) domainRepos.RecipeRepository {
		return impl
	}); err != nil {
		return err
	}

	// The workspace depends on settings that are only known once a controller loaded them
	if err := container.Provide(NewWorkspaceFactory); err != nil {
		return err
	}

	return nil
}

// NewWorkspaceFactory builds workspaces backed by the git CLI and go-git.
func NewWorkspaceFactory(recorder domainRepos.MetricsRepository) domainRepos.WorkspaceFactory {
	return func(settings *entities.Settings) (domainRepos.WorkspaceRepository, error) {
		timeout, err := settings.Timeout()
		if err != nil {
			return nil, err
		}
		git := gitRepo.NewGitRepository(timeout, recorder)
		return wsRepo.NewWorkspaceManager(settings.Workspace, settings.Workers, git), nil
	}
}
