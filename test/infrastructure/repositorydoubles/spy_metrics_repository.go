//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"sync"
	"time"

	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

// SpyMetricsRepository implements repositories.MetricsRepository and counts what it is told.
// It is safe for concurrent use.
type SpyMetricsRepository struct {
	mu sync.Mutex

	RecipeResults map[string]int // status -> count
	GitCommands   []string
	FailedGit     int
	PullRequests  map[string]int // "provider/result" -> count

	WriteErr     error
	WrittenPaths []string
}

var _ repositories.MetricsRepository = (*SpyMetricsRepository)(nil)

// NewSpyMetricsRepository creates an empty spy.
func NewSpyMetricsRepository() *SpyMetricsRepository {
	return &SpyMetricsRepository{
		RecipeResults: map[string]int{},
		PullRequests:  map[string]int{},
	}
}

func (s *SpyMetricsRepository) RecordRecipeResult(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecipeResults[status]++
}

func (s *SpyMetricsRepository) RecordGitCommand(command string, _ time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GitCommands = append(s.GitCommands, command)
	if failed {
		s.FailedGit++
	}
}

func (s *SpyMetricsRepository) RecordPullRequest(provider, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PullRequests[provider+"/"+result]++
}

func (s *SpyMetricsRepository) WriteTextfile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WrittenPaths = append(s.WrittenPaths, path)
	return s.WriteErr
}
