package repositories

import "context"

// GitRepository abstracts git operations against a local working copy.
// Every method is keyed by the working copy's path and blocks until git returns.
type GitRepository interface {
	Clone(ctx context.Context, url, branch, path string) error
	Checkout(ctx context.Context, path, branch string) error
	Pull(ctx context.Context, path string) error
	Fetch(ctx context.Context, path string) error

	// IsRepository reports whether path holds an openable repository.
	IsRepository(path string) bool
	OriginURL(ctx context.Context, path string) (string, error)
	CurrentBranch(ctx context.Context, path string) (string, error)

	// HasChanges ignores untracked files, matching what AddTracked stages.
	HasChanges(ctx context.Context, path string) (bool, error)
	AddTracked(ctx context.Context, path string) error
	Commit(ctx context.Context, path, message string) error
	// DiscardChanges restores tracked files and the index to HEAD; untracked files are kept.
	DiscardChanges(ctx context.Context, path string) error
	Push(ctx context.Context, path, branch string) error
	Diff(ctx context.Context, path string) (string, error)

	VersionTags(ctx context.Context, path string) ([]string, error)
	TagsAtHead(ctx context.Context, path string) ([]string, error)
	TagCommitHash(ctx context.Context, path, tag string) (string, error)
	CommitCountBetween(ctx context.Context, path, from, to string) (int, error)
	CommitMessagesBetween(ctx context.Context, path, from, to string) ([]string, error)
	CreateTag(ctx context.Context, path, tag, message string) error
	PushTag(ctx context.Context, path, tag string) error
	DeleteTag(ctx context.Context, path, tag string) error
}
