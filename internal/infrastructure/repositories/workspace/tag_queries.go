package workspace

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
)

// LatestVersionTag returns the highest version tag of a repository.
func (it *WorkspaceManager) LatestVersionTag(ctx context.Context, name string) (string, error) {
	tags, err := it.VersionTags(ctx, name)
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("%w: %s", entities.ErrNoVersionTags, name)
	}
	return entities.LatestTag(tags), nil
}

func (it *WorkspaceManager) VersionTags(ctx context.Context, name string) ([]string, error) {
	var tags []string
	err := it.WithRead(name, func(path string) error {
		var err error
		tags, err = it.git.VersionTags(ctx, path)
		return err
	})
	return tags, err
}

func (it *WorkspaceManager) TagsAtHead(ctx context.Context, name string) ([]string, error) {
	var tags []string
	err := it.WithRead(name, func(path string) error {
		var err error
		tags, err = it.git.TagsAtHead(ctx, path)
		return err
	})
	return tags, err
}

func (it *WorkspaceManager) CommitCountBetween(ctx context.Context, name, from, to string) (int, error) {
	var count int
	err := it.WithRead(name, func(path string) error {
		var err error
		count, err = it.git.CommitCountBetween(ctx, path, from, to)
		return err
	})
	return count, err
}

func (it *WorkspaceManager) TagCommitHash(ctx context.Context, name, tag string) (string, error) {
	var hash string
	err := it.WithRead(name, func(path string) error {
		var err error
		hash, err = it.git.TagCommitHash(ctx, path, tag)
		return err
	})
	return hash, err
}

func (it *WorkspaceManager) CommitMessagesBetween(ctx context.Context, name, from, to string) ([]string, error) {
	var messages []string
	err := it.WithRead(name, func(path string) error {
		var err error
		messages, err = it.git.CommitMessagesBetween(ctx, path, from, to)
		return err
	})
	return messages, err
}

func (it *WorkspaceManager) Diff(ctx context.Context, name string) (string, error) {
	var diff string
	err := it.WithRead(name, func(path string) error {
		var err error
		diff, err = it.git.Diff(ctx, path)
		return err
	})
	return diff, err
}

// CreateVersionTag creates an annotated tag at HEAD and pushes it. A tag whose push fails is deleted
// locally so HEAD does not look released.
func (it *WorkspaceManager) CreateVersionTag(ctx context.Context, name, tag, message string) error {
	return it.WithWrite(name, func(path string) error {
		if err := it.git.CreateTag(ctx, path, tag, message); err != nil {
			return fmt.Errorf("failed to create tag %s on %s: %w", tag, name, err)
		}
		if err := it.git.PushTag(ctx, path, tag); err != nil {
			if delErr := it.git.DeleteTag(ctx, path, tag); delErr != nil {
				logger.Warnf("Failed to delete unpushed tag %s on %s: %v", tag, name, delErr)
			}
			return fmt.Errorf("failed to push tag %s on %s: %w", tag, name, err)
		}
		logger.Infof("Created and pushed tag %s on %s", tag, name)
		return nil
	})
}
