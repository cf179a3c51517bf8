package repositories

import (
	"context"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
)

// TagRepository answers version-tag questions about a materialized repository, by name.
type TagRepository interface {
	LatestVersionTag(ctx context.Context, name string) (string, error)
	TagsAtHead(ctx context.Context, name string) ([]string, error)
	CommitCountBetween(ctx context.Context, name, from, to string) (int, error)
	TagCommitHash(ctx context.Context, name, tag string) (string, error)
	CreateVersionTag(ctx context.Context, name, tag, message string) error
}

// WorkspaceRepository owns every local working copy. Other components reach a
// repository's files only through WithRead and WithWrite.
type WorkspaceRepository interface {
	TagRepository

	EnsureCloned(ctx context.Context, spec entities.CloneSpec) (string, error)
	Checkout(ctx context.Context, name, branch string) (string, error)
	// MaterializeAll clones or syncs every spec concurrently; failures are reported per spec.
	MaterializeAll(ctx context.Context, specs []entities.CloneSpec) []entities.MaterializeResult
	// CommitAndPush returns false without committing when nothing tracked changed.
	CommitAndPush(ctx context.Context, name, message string) (bool, error)
	Cleanup(name string) error

	Path(name string) (string, error)
	Names() []string
	Diff(ctx context.Context, name string) (string, error)
	VersionTags(ctx context.Context, name string) ([]string, error)
	CommitMessagesBetween(ctx context.Context, name, from, to string) ([]string, error)

	WithRead(name string, fn func(path string) error) error
	WithWrite(name string, fn func(path string) error) error
}

// WorkspaceFactory builds a workspace for one run's settings.
type WorkspaceFactory func(settings *entities.Settings) (WorkspaceRepository, error)
