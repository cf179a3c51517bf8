package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

const (
	providerName = "github"
	listPageSize = 100
)

// GitHubProviderRepository implements repositories.PullRequestRepository for GitHub.
type GitHubProviderRepository struct {
	client *gh.Client
}

// NewGitHubProviderRepository creates a GitHub provider; a base URL selects a GitHub Enterprise server.
func NewGitHubProviderRepository(settings entities.ProviderSettings) (repositories.PullRequestRepository, error) {
	client := gh.NewClient(nil).WithAuthToken(settings.Token)
	if settings.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(settings.BaseURL, settings.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", settings.BaseURL, err)
		}
	}
	return &GitHubProviderRepository{client: client}, nil
}

func (p *GitHubProviderRepository) Name() string { return providerName }

func (p *GitHubProviderRepository) CreatePullRequest(
	ctx context.Context,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	owner, repoName, err := splitRepository(input.Repository)
	if err != nil {
		return nil, err
	}

	maintainerCanModify := true
	var pr *gh.PullRequest
	pr, _, err = p.client.PullRequests.Create(
		ctx, owner, repoName,
		&gh.NewPullRequest{
			Title:               &input.Title,
			Head:                &input.SourceBranch,
			Base:                &input.DestinationBranch,
			Body:                &input.Description,
			MaintainerCanModify: &maintainerCanModify,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	converted := toEntity(pr)
	return &converted, nil
}

func (p *GitHubProviderRepository) ListPullRequests(
	ctx context.Context,
	repository string,
) ([]entities.PullRequest, error) {
	owner, repoName, err := splitRepository(repository)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: listPageSize},
	}
	var prs []entities.PullRequest
	for {
		page, resp, listErr := p.client.PullRequests.List(ctx, owner, repoName, opts)
		if listErr != nil {
			return nil, fmt.Errorf("failed to list pull requests of %s: %w", repository, listErr)
		}
		for _, pr := range page {
			prs = append(prs, toEntity(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

func splitRepository(repository string) (string, string, error) {
	owner, repoName, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repoName == "" {
		return "", "", fmt.Errorf("repository %q is not in owner/name form", repository)
	}
	return owner, repoName, nil
}

func toEntity(pr *gh.PullRequest) entities.PullRequest {
	return entities.PullRequest{
		ID:                pr.GetNumber(),
		Title:             pr.GetTitle(),
		URL:               pr.GetHTMLURL(),
		Status:            pr.GetState(),
		SourceBranch:      pr.GetHead().GetRef(),
		DestinationBranch: pr.GetBase().GetRef(),
		Author:            pr.GetUser().GetLogin(),
	}
}
