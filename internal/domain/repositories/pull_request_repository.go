package repositories

import (
	"context"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
)

// PullRequestRepository abstracts a Git hosting service able to open pull requests.
type PullRequestRepository interface {
	// Name returns the provider identifier (e.g. "bitbucket", "github").
	Name() string

	// CreatePullRequest opens one pull request. It is never retried.
	CreatePullRequest(ctx context.Context, input entities.PullRequestInput) (*entities.PullRequest, error)

	// ListPullRequests returns the open pull requests of repository ("owner/name"), newest first.
	ListPullRequests(ctx context.Context, repository string) ([]entities.PullRequest, error)
}
