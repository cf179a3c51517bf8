//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

// StubTagRepository implements repositories.TagRepository for a single repository.
type StubTagRepository struct {
	// --- LatestVersionTag ---
	Latest    string
	LatestErr error

	// --- TagsAtHead ---
	HeadTags []string
	HeadErr  error

	// --- TagCommitHash ---
	Hashes map[string]string // tag -> hash

	// --- CommitCountBetween ---
	CommitCount int
	CountErr    error
	// spy: "from..to" ranges counted
	CountedRanges []string

	// --- CreateVersionTag ---
	CreatedHash string
	CreateErr   error
	// spy: tags and messages received
	CreatedTags     []string
	CreatedMessages []string
}

var _ repositories.TagRepository = (*StubTagRepository)(nil)

func (s *StubTagRepository) LatestVersionTag(_ context.Context, name string) (string, error) {
	if s.LatestErr != nil {
		return "", s.LatestErr
	}
	if s.Latest == "" {
		return "", fmt.Errorf("%w: %s", entities.ErrNoVersionTags, name)
	}
	return s.Latest, nil
}

func (s *StubTagRepository) TagsAtHead(_ context.Context, _ string) ([]string, error) {
	return s.HeadTags, s.HeadErr
}

func (s *StubTagRepository) CommitCountBetween(_ context.Context, _, from, to string) (int, error) {
	s.CountedRanges = append(s.CountedRanges, from+".."+to)
	return s.CommitCount, s.CountErr
}

func (s *StubTagRepository) TagCommitHash(_ context.Context, _, tag string) (string, error) {
	hash, ok := s.Hashes[tag]
	if !ok {
		return "", fmt.Errorf("%w: %s", entities.ErrUnknownTag, tag)
	}
	return hash, nil
}

func (s *StubTagRepository) CreateVersionTag(_ context.Context, _, tag, message string) error {
	s.CreatedTags = append(s.CreatedTags, tag)
	s.CreatedMessages = append(s.CreatedMessages, message)
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if s.Hashes == nil {
		s.Hashes = map[string]string{}
	}
	s.Hashes[tag] = s.CreatedHash
	return nil
}
