//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

// SpyPullRequestRepository implements repositories.PullRequestRepository as a configurable spy.
type SpyPullRequestRepository struct {
	// --- identity ---
	ProviderName string

	// --- CreatePullRequest ---
	CreatedPR   *entities.PullRequest
	CreatePRErr error
	// spy: inputs received
	PRInputs []entities.PullRequestInput

	// --- ListPullRequests ---
	Open    map[string][]entities.PullRequest // repository -> open pull requests
	ListErr map[string]error                  // repository -> error
	// spy: repositories asked for
	ListedRepositories []string
}

var _ repositories.PullRequestRepository = (*SpyPullRequestRepository)(nil)

func (p *SpyPullRequestRepository) Name() string { return p.ProviderName }

func (p *SpyPullRequestRepository) CreatePullRequest(
	_ context.Context,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	p.PRInputs = append(p.PRInputs, input)
	if p.CreatePRErr != nil {
		return nil, p.CreatePRErr
	}
	if p.CreatedPR != nil {
		return p.CreatedPR, nil
	}
	return &entities.PullRequest{
		ID:    1,
		Title: input.Title,
		URL:   "https://example.com/pr/1",
	}, nil
}

func (p *SpyPullRequestRepository) ListPullRequests(
	_ context.Context,
	repository string,
) ([]entities.PullRequest, error) {
	p.ListedRepositories = append(p.ListedRepositories, repository)
	if err := p.ListErr[repository]; err != nil {
		return nil, err
	}
	return p.Open[repository], nil
}
