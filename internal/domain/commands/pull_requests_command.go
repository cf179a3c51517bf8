package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	infraRepos "github.com/rios0rios0/recipebump/internal/infrastructure/repositories"
)

// PullRequests is the interface for the pull requests command.
type PullRequests interface {
	Execute(ctx context.Context, settings *entities.Settings, opts PullRequestsOptions) ([]MetaPullRequests, error)
}

// PullRequestsOptions selects the meta repositories to list; empty means all.
type PullRequestsOptions struct {
	Verbose bool
	Metas   []string
}

// MetaPullRequests is the open pull request listing of one meta repository.
type MetaPullRequests struct {
	Meta         string
	Repository   string
	PullRequests []entities.PullRequest
	Err          error
}

// PullRequestsCommand lists the pull requests still open on the meta repositories.
type PullRequestsCommand struct {
	providers *infraRepos.ProviderRegistry
}

// NewPullRequestsCommand creates a new PullRequestsCommand.
func NewPullRequestsCommand(providers *infraRepos.ProviderRegistry) *PullRequestsCommand {
	return &PullRequestsCommand{providers: providers}
}

// Execute fails only when the provider cannot be built; a meta that cannot be listed
// carries its error in the listing.
func (it *PullRequestsCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts PullRequestsOptions,
) ([]MetaPullRequests, error) {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	provider, err := it.providers.Get(settings.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider %q: %w", settings.Provider.Type, err)
	}

	var listings []MetaPullRequests
	for _, meta := range settings.FilterMetas(opts.Metas) {
		listing := MetaPullRequests{Meta: meta.Name, Repository: settings.ProviderRepository(meta)}
		logger.Debugf("Listing open pull requests of %s on %s", listing.Repository, provider.Name())
		listing.PullRequests, listing.Err = provider.ListPullRequests(ctx, listing.Repository)
		if listing.Err != nil {
			logger.Errorf("Failed to list pull requests of %s: %v", meta.Name, listing.Err)
		}
		listings = append(listings, listing)
	}
	return listings, nil
}
