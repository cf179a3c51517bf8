package gitlab

import (
	"context"
	"fmt"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

const (
	providerName = "gitlab"
	listPageSize = 100
)

// GitLabProviderRepository implements repositories.PullRequestRepository for GitLab merge requests.
type GitLabProviderRepository struct {
	client *gl.Client
}

// NewGitLabProviderRepository creates a GitLab provider; a base URL selects a self-managed instance.
func NewGitLabProviderRepository(settings entities.ProviderSettings) (repositories.PullRequestRepository, error) {
	var options []gl.ClientOptionFunc
	if settings.BaseURL != "" {
		options = append(options, gl.WithBaseURL(settings.BaseURL))
	}
	client, err := gl.NewClient(settings.Token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	return &GitLabProviderRepository{client: client}, nil
}

func (p *GitLabProviderRepository) Name() string { return providerName }

func (p *GitLabProviderRepository) CreatePullRequest(
	ctx context.Context,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	mr, _, err := p.client.MergeRequests.CreateMergeRequest(
		input.Repository,
		&gl.CreateMergeRequestOptions{
			Title:        gl.Ptr(input.Title),
			Description:  gl.Ptr(input.Description),
			SourceBranch: gl.Ptr(input.SourceBranch),
			TargetBranch: gl.Ptr(input.DestinationBranch),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create merge request: %w", err)
	}

	converted := toEntity(&mr.BasicMergeRequest)
	return &converted, nil
}

// ListPullRequests lists the opened merge requests of the project path in repository.
func (p *GitLabProviderRepository) ListPullRequests(
	ctx context.Context,
	repository string,
) ([]entities.PullRequest, error) {
	opts := &gl.ListProjectMergeRequestsOptions{
		ListOptions: gl.ListOptions{PerPage: listPageSize},
		State:       gl.Ptr("opened"),
		OrderBy:     gl.Ptr("created_at"),
		Sort:        gl.Ptr("desc"),
	}
	var prs []entities.PullRequest
	for {
		page, resp, err := p.client.MergeRequests.ListProjectMergeRequests(repository, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list merge requests of %s: %w", repository, err)
		}
		for _, mr := range page {
			prs = append(prs, toEntity(mr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

func toEntity(mr *gl.BasicMergeRequest) entities.PullRequest {
	pr := entities.PullRequest{
		ID:                int(mr.IID),
		Title:             mr.Title,
		URL:               mr.WebURL,
		Status:            mr.State,
		SourceBranch:      mr.SourceBranch,
		DestinationBranch: mr.TargetBranch,
	}
	if mr.Author != nil {
		pr.Author = mr.Author.Username
	}
	return pr
}
