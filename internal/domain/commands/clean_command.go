package commands

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

// Clean is the interface for the clean command.
type Clean interface {
	Execute(ctx context.Context, settings *entities.Settings, opts CleanOptions) error
}

// CleanOptions lists the working copies to delete; empty means every configured repository.
type CleanOptions struct {
	Names  []string
	DryRun bool
}

// CleanCommand deletes local working copies.
type CleanCommand struct {
	workspaces repositories.WorkspaceFactory
}

// NewCleanCommand creates a new CleanCommand.
func NewCleanCommand(workspaces repositories.WorkspaceFactory) *CleanCommand {
	return &CleanCommand{workspaces: workspaces}
}

func (it *CleanCommand) Execute(_ context.Context, settings *entities.Settings, opts CleanOptions) error {
	workspace, err := it.workspaces(settings)
	if err != nil {
		return fmt.Errorf("failed to prepare workspace: %w", err)
	}

	names := opts.Names
	if len(names) == 0 {
		names = configuredRepositories(settings)
	}

	failures := 0
	for _, name := range names {
		if opts.DryRun {
			logger.Infof("[dry-run] Would remove %s", name)
			continue
		}
		cleanErr := workspace.Cleanup(name)
		switch {
		case cleanErr == nil:
			logger.Infof("Removed %s", name)
		case errors.Is(cleanErr, entities.ErrUnknownRepository):
			logger.Debugf("Nothing to remove for %s", name)
		default:
			logger.Errorf("Failed to remove %s: %v", name, cleanErr)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d working copies could not be removed", failures, len(names))
	}
	return nil
}

// configuredRepositories lists every meta and source repository name once, in configuration order.
func configuredRepositories(settings *entities.Settings) []string {
	seen := map[string]bool{}
	var names []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, meta := range settings.Metas {
		add(meta.Name)
		for _, recipe := range meta.Recipes {
			add(entities.RepositoryNameFromURL(recipe.URL))
		}
	}
	return names
}
