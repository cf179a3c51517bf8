package repositories

import (
	"fmt"
	"sort"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	domainRepos "github.com/rios0rios0/recipebump/internal/domain/repositories"
	bbRepo "github.com/rios0rios0/recipebump/internal/infrastructure/repositories/bitbucket"
	ghRepo "github.com/rios0rios0/recipebump/internal/infrastructure/repositories/github"
	glRepo "github.com/rios0rios0/recipebump/internal/infrastructure/repositories/gitlab"
)

// ProviderFactory builds a pull request provider from its settings.
type ProviderFactory func(settings entities.ProviderSettings) (domainRepos.PullRequestRepository, error)

// ProviderRegistry manages all registered pull request providers.
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// NewDefaultProviderRegistry registers every provider recipebump ships with.
func NewDefaultProviderRegistry() *ProviderRegistry {
	reg := NewProviderRegistry()
	reg.Register("bitbucket", bbRepo.NewBitbucketProviderRepository)
	reg.Register("github", ghRepo.NewGitHubProviderRepository)
	reg.Register("gitlab", glRepo.NewGitLabProviderRepository)
	return reg
}

// Register adds a provider factory under the given name (e.g. "bitbucket").
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// Get returns a configured provider instance for the given settings.
func (r *ProviderRegistry) Get(settings entities.ProviderSettings) (domainRepos.PullRequestRepository, error) {
	factory, ok := r.providers[settings.Type]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %q", settings.Type)
	}
	return factory(settings)
}

// Names returns the registered provider names in sorted order.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
