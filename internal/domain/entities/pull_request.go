package entities

// PullRequestInput is what the engine hands to a pull request provider.
type PullRequestInput struct {
	Title             string
	Description       string
	SourceBranch      string
	DestinationBranch string
	Repository        string // provider path, e.g. "workspace/meta-ccos"
}

// PullRequest is a pull request as the provider reports it, after creation or when listing.
type PullRequest struct {
	ID                int
	Title             string
	URL               string
	Status            string
	SourceBranch      string
	DestinationBranch string
	Author            string
}
