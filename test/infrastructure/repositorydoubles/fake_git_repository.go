//go:build integration || unit || test

// Package repositorydoubles provides test doubles (fakes, spies, stubs) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

const (
	fakeGitDir     = ".git"
	fakeOriginFile = "origin"
	fakeHeadFile   = "HEAD"
)

// FakeRemote is the server side of a repository known to FakeGitRepository.
type FakeRemote struct {
	// --- content ---
	Files        map[string]string   // relative path -> content, written on clone
	Tags         map[string]string   // tag -> commit hash
	HeadTags     []string            // tags pointing at the branch tip
	HeadHash     string              // hash given to tags created at HEAD
	CommitCounts map[string]int      // "from..to" -> commit count
	Messages     map[string][]string // "from..to" -> raw commit messages
	CommitErr    error
	PushErr      error
	PushTagErr   error

	// --- spy ---
	Commits     []string // commit messages
	Pushes      []string // pushed branches
	CreatedTags []string
	PushedTags  []string
	DeletedTags []string
}

// FakeGitRepository implements repositories.GitRepository on plain directories. A clone writes
// the remote's files plus a ".git" directory recording origin and branch, so working copies
// survive across fakes sharing one workspace root.
type FakeGitRepository struct {
	mu sync.Mutex

	Remotes    map[string]*FakeRemote // clone URL -> remote
	CloneErrs  map[string]error       // clone URL -> error, after leaving a partial directory
	FetchErr   error
	CloneDelay time.Duration

	// --- spy ---
	CloneCalls      map[string]int // clone URL -> count
	Calls           []string       // "<command> <path>"
	MaxActiveClones int
	activeClones    int
}

var _ repositories.GitRepository = (*FakeGitRepository)(nil)

// NewFakeGitRepository creates a fake serving the given remotes.
func NewFakeGitRepository(remotes map[string]*FakeRemote) *FakeGitRepository {
	return &FakeGitRepository{
		Remotes:    remotes,
		CloneErrs:  map[string]error{},
		CloneCalls: map[string]int{},
	}
}

// CallCount returns how many times command ran, over all paths.
func (f *FakeGitRepository) CallCount(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.Calls {
		if strings.HasPrefix(call, command+" ") {
			count++
		}
	}
	return count
}

func (f *FakeGitRepository) Clone(_ context.Context, url, branch, path string) error {
	f.mu.Lock()
	f.record("clone", path)
	f.CloneCalls[url]++
	f.activeClones++
	f.MaxActiveClones = max(f.MaxActiveClones, f.activeClones)
	cloneErr := f.CloneErrs[url]
	remote := f.Remotes[url]
	delay := f.CloneDelay
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.activeClones--
		f.mu.Unlock()
	}()
	if delay > 0 {
		time.Sleep(delay)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	if cloneErr != nil {
		return cloneErr
	}
	if remote == nil {
		return fmt.Errorf("repository %s not found", url)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for rel, content := range remote.Files {
		target := filepath.Join(path, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return err
		}
	}
	gitDir := filepath.Join(path, fakeGitDir)
	if err := os.MkdirAll(gitDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(gitDir, fakeOriginFile), []byte(url), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(gitDir, fakeHeadFile), []byte(branch), 0o644)
}

func (f *FakeGitRepository) Checkout(_ context.Context, path, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("checkout", path)
	return os.WriteFile(filepath.Join(path, fakeGitDir, fakeHeadFile), []byte(branch), 0o644)
}

func (f *FakeGitRepository) Pull(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pull", path)
	return nil
}

func (f *FakeGitRepository) Fetch(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("fetch", path)
	return f.FetchErr
}

func (f *FakeGitRepository) IsRepository(path string) bool {
	info, err := os.Stat(filepath.Join(path, fakeGitDir))
	return err == nil && info.IsDir()
}

func (f *FakeGitRepository) OriginURL(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(path, fakeGitDir, fakeOriginFile))
	return string(data), err
}

func (f *FakeGitRepository) CurrentBranch(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(path, fakeGitDir, fakeHeadFile))
	return string(data), err
}

// HasChanges compares the working copy against the remote's files.
func (f *FakeGitRepository) HasChanges(ctx context.Context, path string) (bool, error) {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for rel, content := range remote.Files {
		data, readErr := os.ReadFile(filepath.Join(path, rel))
		if readErr != nil || string(data) != content {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeGitRepository) AddTracked(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("add", path)
	return nil
}

func (f *FakeGitRepository) Commit(ctx context.Context, path, message string) error {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("commit", path)
	if remote.CommitErr != nil {
		return remote.CommitErr
	}
	remote.Commits = append(remote.Commits, message)
	return nil
}

// DiscardChanges rewrites the remote's files over the working copy.
func (f *FakeGitRepository) DiscardChanges(ctx context.Context, path string) error {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reset", path)
	for rel, content := range remote.Files {
		if writeErr := os.WriteFile(filepath.Join(path, rel), []byte(content), 0o644); writeErr != nil {
			return writeErr
		}
	}
	return nil
}

// Push publishes the working copy's tracked files to the remote.
func (f *FakeGitRepository) Push(ctx context.Context, path, branch string) error {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("push", path)
	if remote.PushErr != nil {
		return remote.PushErr
	}
	for rel := range remote.Files {
		if data, readErr := os.ReadFile(filepath.Join(path, rel)); readErr == nil {
			remote.Files[rel] = string(data)
		}
	}
	remote.Pushes = append(remote.Pushes, branch)
	return nil
}

func (f *FakeGitRepository) Diff(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("diff", path)
	return "", nil
}

func (f *FakeGitRepository) VersionTags(ctx context.Context, path string) ([]string, error) {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var tags []string
	for tag := range remote.Tags {
		if strings.HasPrefix(tag, entities.TagPrefix) {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (f *FakeGitRepository) TagsAtHead(ctx context.Context, path string) ([]string, error) {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), remote.HeadTags...), nil
}

func (f *FakeGitRepository) TagCommitHash(ctx context.Context, path, tag string) (string, error) {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := remote.Tags[tag]
	if !ok {
		return "", fmt.Errorf("%w: %s", entities.ErrUnknownTag, tag)
	}
	return hash, nil
}

func (f *FakeGitRepository) CommitCountBetween(ctx context.Context, path, from, to string) (int, error) {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return remote.CommitCounts[from+".."+to], nil
}

func (f *FakeGitRepository) CommitMessagesBetween(ctx context.Context, path, from, to string) ([]string, error) {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return remote.Messages[from+".."+to], nil
}

func (f *FakeGitRepository) CreateTag(ctx context.Context, path, tag, _ string) error {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("tag", path)
	if remote.Tags == nil {
		remote.Tags = map[string]string{}
	}
	remote.Tags[tag] = remote.HeadHash
	remote.HeadTags = append(remote.HeadTags, tag)
	remote.CreatedTags = append(remote.CreatedTags, tag)
	return nil
}

func (f *FakeGitRepository) PushTag(ctx context.Context, path, tag string) error {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("push-tag", path)
	if remote.PushTagErr != nil {
		return remote.PushTagErr
	}
	remote.PushedTags = append(remote.PushedTags, tag)
	return nil
}

func (f *FakeGitRepository) DeleteTag(ctx context.Context, path, tag string) error {
	remote, err := f.remote(ctx, path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(remote.Tags, tag)
	remote.HeadTags = removeString(remote.HeadTags, tag)
	remote.DeletedTags = append(remote.DeletedTags, tag)
	return nil
}

func (f *FakeGitRepository) remote(ctx context.Context, path string) (*FakeRemote, error) {
	url, err := f.OriginURL(ctx, path)
	if err != nil {
		return nil, errors.New("not a git repository: " + path)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	remote, ok := f.Remotes[url]
	if !ok {
		return nil, fmt.Errorf("repository %s not found", url)
	}
	return remote, nil
}

// record must be called with f.mu held.
func (f *FakeGitRepository) record(command, path string) {
	f.Calls = append(f.Calls, command+" "+path)
}

func removeString(values []string, target string) []string {
	out := values[:0]
	for _, value := range values {
		if value != target {
			out = append(out, value)
		}
	}
	return out
}
