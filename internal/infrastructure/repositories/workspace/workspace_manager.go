package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

// entry is one materialized repository. lock serializes mutations of the working copy;
// queries share it.
type entry struct {
	name    string
	url     string
	path    string
	lock    sync.RWMutex
	cloned  bool
	removed bool
}

// WorkspaceManager implements repositories.WorkspaceRepository over a directory of working copies,
// one per repository name.
type WorkspaceManager struct {
	root    string
	workers int
	git     repositories.GitRepository
	slots   *semaphore.Weighted

	mu      sync.Mutex
	entries map[string]*entry
}

// NewWorkspaceManager creates a manager rooted at root running at most workers background operations.
func NewWorkspaceManager(root string, workers int, git repositories.GitRepository) *WorkspaceManager {
	if workers <= 0 {
		workers = 1
	}
	return &WorkspaceManager{
		root:    root,
		workers: workers,
		git:     git,
		slots:   semaphore.NewWeighted(int64(workers)),
		entries: make(map[string]*entry),
	}
}

var _ repositories.WorkspaceRepository = (*WorkspaceManager)(nil)

// EnsureCloned makes spec available on spec.Branch and returns its path. A known repository is synced;
// a directory left by an earlier run is adopted when its origin matches; anything else is cloned fresh.
func (it *WorkspaceManager) EnsureCloned(ctx context.Context, spec entities.CloneSpec) (string, error) {
	name := spec.Name
	if name == "" {
		name = entities.RepositoryNameFromURL(spec.URL)
	}
	if !validName(name) {
		return "", fmt.Errorf("%w: invalid repository name %q", entities.ErrCloneFailed, name)
	}

	e, err := it.acquire(name, spec.URL)
	if err != nil {
		return "", err
	}
	defer e.lock.Unlock()

	if e.cloned && it.git.IsRepository(e.path) {
		return e.path, it.sync(ctx, e, spec.Branch)
	}
	if !e.cloned && it.adoptable(ctx, e) {
		logger.Debugf("Adopting existing working copy %s", e.path)
		e.cloned = true
		return e.path, it.sync(ctx, e, spec.Branch)
	}
	return e.path, it.clone(ctx, e, spec.Branch)
}

// Checkout switches a known repository to branch and pulls.
func (it *WorkspaceManager) Checkout(ctx context.Context, name, branch string) (string, error) {
	e, err := it.lookup(name)
	if err != nil {
		return "", err
	}

	e.lock.Lock()
	defer e.lock.Unlock()
	if e.removed {
		return "", fmt.Errorf("%w: %s", entities.ErrUnknownRepository, name)
	}

	if !it.git.IsRepository(e.path) {
		logger.Warnf("Working copy of %s is missing or corrupt, cloning again", name)
		return e.path, it.clone(ctx, e, branch)
	}
	return e.path, it.sync(ctx, e, branch)
}

// EnsureClonedAsync runs EnsureCloned in the background, bounded by the worker count.
func (it *WorkspaceManager) EnsureClonedAsync(ctx context.Context, spec entities.CloneSpec) *Future[string] {
	return Go(func() (string, error) {
		if err := it.slots.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer it.slots.Release(1)
		return it.EnsureCloned(ctx, spec)
	})
}

// CheckoutAsync runs Checkout in the background, bounded by the worker count.
func (it *WorkspaceManager) CheckoutAsync(ctx context.Context, name, branch string) *Future[string] {
	return Go(func() (string, error) {
		if err := it.slots.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer it.slots.Release(1)
		return it.Checkout(ctx, name, branch)
	})
}

// MaterializeAll runs EnsureCloned for every spec on a bounded pool. Results keep the order of specs
// and one failure never cancels the others.
func (it *WorkspaceManager) MaterializeAll(
	ctx context.Context,
	specs []entities.CloneSpec,
) []entities.MaterializeResult {
	results := make([]entities.MaterializeResult, len(specs))

	var group errgroup.Group
	group.SetLimit(it.workers)
	for i, spec := range specs {
		group.Go(func() error {
			path, err := it.EnsureCloned(ctx, spec)
			name := spec.Name
			if name == "" {
				name = entities.RepositoryNameFromURL(spec.URL)
			}
			results[i] = entities.MaterializeResult{Name: name, Path: path, Err: err}
			return nil
		})
	}
	_ = group.Wait()

	return results
}

// CommitAndPush stages tracked changes, commits them with message and pushes the current branch.
// It returns false, without committing, when nothing changed.
func (it *WorkspaceManager) CommitAndPush(ctx context.Context, name, message string) (bool, error) {
	pushed := false
	err := it.WithWrite(name, func(path string) error {
		changed, err := it.git.HasChanges(ctx, path)
		if err != nil {
			return err
		}
		if !changed {
			logger.Infof("No changes to commit in %s", name)
			return nil
		}

		branch, err := it.git.CurrentBranch(ctx, path)
		if err != nil {
			return err
		}
		if err = it.git.AddTracked(ctx, path); err != nil {
			return it.discard(ctx, name, path, err)
		}
		if err = it.git.Commit(ctx, path, message); err != nil {
			return it.discard(ctx, name, path, err)
		}
		if err = it.git.Push(ctx, path, branch); err != nil {
			return fmt.Errorf("failed to push %s to %s: %w", name, branch, err)
		}
		pushed = true
		return nil
	})
	return pushed, err
}

// discard drops uncommitted edits after a failed commit so they cannot reach the next branch's commit.
func (it *WorkspaceManager) discard(ctx context.Context, name, path string, cause error) error {
	if err := it.git.DiscardChanges(ctx, path); err != nil {
		logger.Warnf("Failed to discard uncommitted changes in %s: %v", name, err)
	}
	return fmt.Errorf("failed to commit %s: %w", name, cause)
}

// Cleanup deletes a working copy and forgets it. An unknown name still removes a directory of
// that name left under the workspace root by an earlier run.
func (it *WorkspaceManager) Cleanup(name string) error {
	it.mu.Lock()
	defer it.mu.Unlock()

	e, ok := it.entries[name]
	if !ok {
		path, inside := it.within(name)
		if !inside {
			return fmt.Errorf("%w: invalid repository name %q", entities.ErrUnknownRepository, name)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", entities.ErrUnknownRepository, name)
		}
		return removeDir(path)
	}

	e.lock.Lock()
	defer e.lock.Unlock()
	e.removed = true
	delete(it.entries, name)
	return removeDir(e.path)
}

func (it *WorkspaceManager) Path(name string) (string, error) {
	e, err := it.lookup(name)
	if err != nil {
		return "", err
	}
	return e.path, nil
}

// Names lists known repositories in sorted order.
func (it *WorkspaceManager) Names() []string {
	it.mu.Lock()
	defer it.mu.Unlock()

	names := make([]string, 0, len(it.entries))
	for name := range it.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithRead runs fn with the repository's path while mutations are excluded.
func (it *WorkspaceManager) WithRead(name string, fn func(path string) error) error {
	e, err := it.lookup(name)
	if err != nil {
		return err
	}

	e.lock.RLock()
	defer e.lock.RUnlock()
	if e.removed {
		return fmt.Errorf("%w: %s", entities.ErrUnknownRepository, name)
	}
	return fn(e.path)
}

// WithWrite runs fn with exclusive access to the repository.
func (it *WorkspaceManager) WithWrite(name string, fn func(path string) error) error {
	e, err := it.lookup(name)
	if err != nil {
		return err
	}

	e.lock.Lock()
	defer e.lock.Unlock()
	if e.removed {
		return fmt.Errorf("%w: %s", entities.ErrUnknownRepository, name)
	}
	return fn(e.path)
}

// acquire registers name before releasing the map lock, so concurrent first clones of one name
// share a single entry, then returns the entry write-locked. A name already bound to another URL
// is refused.
func (it *WorkspaceManager) acquire(name, url string) (*entry, error) {
	for {
		it.mu.Lock()
		e, ok := it.entries[name]
		if !ok {
			e = &entry{name: name, url: url, path: filepath.Join(it.root, name)}
			it.entries[name] = e
		}
		it.mu.Unlock()

		e.lock.Lock()
		if e.removed {
			e.lock.Unlock()
			continue
		}
		switch {
		case url == "":
		case e.url == "":
			e.url = url
		case normalizeURL(e.url) != normalizeURL(url):
			bound := e.url
			e.lock.Unlock()
			return nil, fmt.Errorf("%w: %s is already bound to %s, not %s",
				entities.ErrCloneFailed, name, bound, url)
		}
		return e, nil
	}
}

// within resolves name under the workspace root and reports whether it names a direct child of it.
func (it *WorkspaceManager) within(name string) (string, bool) {
	if !validName(name) {
		return "", false
	}
	path := filepath.Join(it.root, name)
	rel, err := filepath.Rel(it.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func normalizeURL(url string) string {
	return strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(url), "/"), ".git")
}

func (it *WorkspaceManager) lookup(name string) (*entry, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	e, ok := it.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnknownRepository, name)
	}
	return e, nil
}

// adoptable reports whether e.path already holds a clone of e.url.
func (it *WorkspaceManager) adoptable(ctx context.Context, e *entry) bool {
	if !it.git.IsRepository(e.path) {
		return false
	}
	origin, err := it.git.OriginURL(ctx, e.path)
	if err != nil {
		return false
	}
	return normalizeURL(origin) == normalizeURL(e.url)
}

// clone replaces whatever is at e.path with a fresh clone. Caller holds e.lock.
func (it *WorkspaceManager) clone(ctx context.Context, e *entry, branch string) error {
	if err := removeDir(e.path); err != nil {
		return fmt.Errorf("%w: %s: %w", entities.ErrCloneFailed, e.name, err)
	}

	logger.Infof("Cloning %s into %s", e.url, e.path)
	if err := it.git.Clone(ctx, e.url, branch, e.path); err != nil {
		if rmErr := removeDir(e.path); rmErr != nil {
			logger.Warnf("Failed to remove partial clone %s: %v", e.path, rmErr)
		}
		e.cloned = false
		return fmt.Errorf("%w: %s: %w", entities.ErrCloneFailed, e.name, err)
	}
	e.cloned = true
	return nil
}

// sync fetches, switches to branch when needed and fast-forwards. Caller holds e.lock.
func (it *WorkspaceManager) sync(ctx context.Context, e *entry, branch string) error {
	if err := it.git.Fetch(ctx, e.path); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", e.name, err)
	}

	if branch != "" {
		current, err := it.git.CurrentBranch(ctx, e.path)
		if err != nil {
			return fmt.Errorf("failed to read branch of %s: %w", e.name, err)
		}
		if current != branch {
			logger.Debugf("Switching %s from %s to %s", e.name, current, branch)
			if err = it.git.Checkout(ctx, e.path, branch); err != nil {
				return fmt.Errorf("failed to checkout %s on %s: %w", e.name, branch, err)
			}
		}
	}

	if err := it.git.Pull(ctx, e.path); err != nil {
		return fmt.Errorf("failed to pull %s: %w", e.name, err)
	}
	return nil
}

func removeDir(path string) error {
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
