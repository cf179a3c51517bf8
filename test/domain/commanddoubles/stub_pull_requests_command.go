//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/recipebump/internal/domain/commands"
	"github.com/rios0rios0/recipebump/internal/domain/entities"
)

// StubPullRequestsCommand is a stub implementation of commands.PullRequests.
type StubPullRequestsCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Listings         []commands.MetaPullRequests
	LastSettings     *entities.Settings
	LastOpts         commands.PullRequestsOptions
	// OnExecute runs after the call is recorded, e.g. to stop a watch loop.
	OnExecute func()
}

var _ commands.PullRequests = (*StubPullRequestsCommand)(nil)

func (s *StubPullRequestsCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	opts commands.PullRequestsOptions,
) ([]commands.MetaPullRequests, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	if s.OnExecute != nil {
		s.OnExecute()
	}
	return s.Listings, s.ExecuteErr
}
