package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

const (
	gitBinary = "git"
	remote    = "origin"
)

// pushRejectedMarkers are the stderr fragments git prints when the remote diverged.
var pushRejectedMarkers = []string{"[rejected]", "non-fast-forward", "fetch first"}

// GitRepository implements repositories.GitRepository. Commands that touch the network
// or the worktree run the git binary so SSH agents and credential helpers apply; read-only
// ref queries go through go-git.
type GitRepository struct {
	timeout time.Duration
	metrics repositories.MetricsRepository
}

// NewGitRepository creates an adapter whose git invocations are each bounded by timeout (zero means no bound).
func NewGitRepository(timeout time.Duration, metrics repositories.MetricsRepository) *GitRepository {
	return &GitRepository{timeout: timeout, metrics: metrics}
}

var _ repositories.GitRepository = (*GitRepository)(nil)

func (it *GitRepository) Clone(ctx context.Context, url, branch, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	args := []string{"clone"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, path)
	_, err := it.run(ctx, filepath.Dir(path), args...)
	return err
}

func (it *GitRepository) Checkout(ctx context.Context, path, branch string) error {
	_, err := it.run(ctx, path, "checkout", branch)
	return err
}

func (it *GitRepository) Pull(ctx context.Context, path string) error {
	_, err := it.run(ctx, path, "pull", "--ff-only")
	return err
}

func (it *GitRepository) Fetch(ctx context.Context, path string) error {
	_, err := it.run(ctx, path, "fetch", "--all", "--tags")
	return err
}

func (it *GitRepository) IsRepository(path string) bool {
	_, err := gogit.PlainOpen(path)
	return err == nil
}

func (it *GitRepository) OriginURL(_ context.Context, path string) (string, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", path, err)
	}
	origin, err := repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("failed to read remote %q: %w", remote, err)
	}
	if urls := origin.Config().URLs; len(urls) > 0 {
		return urls[0], nil
	}
	return "", fmt.Errorf("remote %q has no URL", remote)
}

// CurrentBranch returns the checked-out branch, or "HEAD" when detached.
func (it *GitRepository) CurrentBranch(_ context.Context, path string) (string, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return plumbing.HEAD.String(), nil
	}
	return head.Name().Short(), nil
}

func (it *GitRepository) HasChanges(ctx context.Context, path string) (bool, error) {
	output, err := it.run(ctx, path, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

func (it *GitRepository) AddTracked(ctx context.Context, path string) error {
	_, err := it.run(ctx, path, "add", "--update")
	return err
}

func (it *GitRepository) Commit(ctx context.Context, path, message string) error {
	_, err := it.run(ctx, path, "commit", "-m", message)
	return err
}

func (it *GitRepository) DiscardChanges(ctx context.Context, path string) error {
	_, err := it.run(ctx, path, "reset", "--hard", "HEAD")
	return err
}

func (it *GitRepository) Push(ctx context.Context, path, branch string) error {
	_, err := it.run(ctx, path, "push", remote, branch)
	return err
}

func (it *GitRepository) Diff(ctx context.Context, path string) (string, error) {
	return it.run(ctx, path, "diff")
}

// VersionTags lists every tag under the version namespace.
func (it *GitRepository) VersionTags(_ context.Context, path string) ([]string, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	refs, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var tags []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if name := ref.Name().Short(); strings.HasPrefix(name, entities.TagPrefix) {
			tags = append(tags, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// TagsAtHead lists version tags whose target commit is HEAD.
func (it *GitRepository) TagsAtHead(_ context.Context, path string) ([]string, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	refs, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var tags []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !strings.HasPrefix(name, entities.TagPrefix) {
			return nil
		}
		commit, peelErr := peel(repo, ref)
		if peelErr != nil {
			logger.Debugf("Skipping tag %q: %v", name, peelErr)
			return nil
		}
		if commit == head.Hash() {
			tags = append(tags, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	entities.SortTags(tags)
	return tags, nil
}

// TagCommitHash returns the commit a tag points at, peeling annotated tags.
func (it *GitRepository) TagCommitHash(_ context.Context, path, tag string) (string, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", path, err)
	}
	ref, err := repo.Tag(tag)
	if err != nil {
		if errors.Is(err, gogit.ErrTagNotFound) || errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("%w: %s", entities.ErrUnknownTag, tag)
		}
		return "", fmt.Errorf("failed to read tag %q: %w", tag, err)
	}
	commit, err := peel(repo, ref)
	if err != nil {
		return "", fmt.Errorf("%w: %s does not resolve to a commit: %w", entities.ErrUnknownTag, tag, err)
	}
	return commit.String(), nil
}

func (it *GitRepository) CommitCountBetween(ctx context.Context, path, from, to string) (int, error) {
	output, err := it.run(ctx, path, "rev-list", "--count", from+".."+to)
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", output, err)
	}
	return count, nil
}

// CommitMessagesBetween returns full commit bodies, newest first.
func (it *GitRepository) CommitMessagesBetween(ctx context.Context, path, from, to string) ([]string, error) {
	output, err := it.run(ctx, path, "log", "--pretty=format:%B%x00", from+".."+to)
	if err != nil {
		return nil, err
	}

	var messages []string
	for _, record := range strings.Split(output, "\x00") {
		if message := strings.TrimSpace(record); message != "" {
			messages = append(messages, message)
		}
	}
	return messages, nil
}

func (it *GitRepository) CreateTag(ctx context.Context, path, tag, message string) error {
	_, err := it.run(ctx, path, "tag", "-a", tag, "-m", message)
	return err
}

func (it *GitRepository) PushTag(ctx context.Context, path, tag string) error {
	_, err := it.run(ctx, path, "push", remote, "refs/tags/"+tag)
	return err
}

func (it *GitRepository) DeleteTag(ctx context.Context, path, tag string) error {
	_, err := it.run(ctx, path, "tag", "-d", tag)
	return err
}

// run executes git in dir under the configured timeout and returns stdout.
func (it *GitRepository) run(ctx context.Context, dir string, args ...string) (string, error) {
	if it.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, it.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, gitBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debugf("Running git %s in %s", strings.Join(args, " "), dir)
	start := time.Now()
	err := cmd.Run()
	if it.metrics != nil {
		it.metrics.RecordGitCommand(args[0], time.Since(start), err != nil)
	}
	if err == nil {
		return stdout.String(), nil
	}

	cause := fmt.Errorf("%w: %w", entities.ErrGitCommand, err)
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		cause = fmt.Errorf("%w after %s", entities.ErrGitCommandTimeout, it.timeout)
	case args[0] == "push" && containsAny(stderr.String(), pushRejectedMarkers):
		cause = fmt.Errorf("%w: %w", entities.ErrPushRejected, err)
	}
	return "", &entities.GitCommandError{Args: args, Stderr: stderr.String(), Err: cause}
}

// peel resolves a tag reference to the commit it ultimately names.
func peel(repo *gogit.Repository, ref *plumbing.Reference) (plumbing.Hash, error) {
	tagObject, err := repo.TagObject(ref.Hash())
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return ref.Hash(), nil
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	commit, err := tagObject.Commit()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return commit.Hash, nil
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
