//go:build unit

package commands_test

import (
	"testing"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/recipebump/internal/infrastructure/repositories"
	"github.com/rios0rios0/recipebump/internal/infrastructure/repositories/workspace"
	builders "github.com/rios0rios0/recipebump/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/recipebump/test/infrastructure/repositorydoubles"
)

const (
	metaURL = "git@bitbucket.org:team/meta-s6.git"
	appURL  = "git@bitbucket.org:team/app.git"
	libURL  = "git@bitbucket.org:team/lib.git"

	appRecipePath = "recipes-app/app/app.bb"
	libRecipePath = "recipes-lib/lib/lib.bb"
)

// fixture is a meta repository pinning "app" (one tag at HEAD) and "lib" (two tags at HEAD).
type fixture struct {
	git      *doubles.FakeGitRepository
	meta     *doubles.FakeRemote
	app      *doubles.FakeRemote
	lib      *doubles.FakeRemote
	settings *entities.Settings
	provider *doubles.SpyPullRequestRepository
	metrics  *doubles.SpyMetricsRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	meta := &doubles.FakeRemote{
		Files: map[string]string{
			appRecipePath: "SUMMARY = \"app\"\nCCOS_VERSION = \"2.3.4_aaaaaaa\"\n",
			libRecipePath: "CCOS_VERSION = \"1.0_1111111\"\nCCOS_GIT_BRANCH_NAME = \"@s6mobis\"\n",
		},
	}
	app := &doubles.FakeRemote{
		Tags:         map[string]string{"version/2.3.4": "aaaaaaa", "version/2.3.5": "bbbbbbb"},
		HeadTags:     []string{"version/2.3.5"},
		CommitCounts: map[string]int{"version/2.3.4..version/2.3.5": 2, "version/2.3.4..HEAD": 2},
		Messages: map[string][]string{
			"version/2.3.4..version/2.3.5": {
				"[fix]: Fix crash\n\nDescription:\nFix crash on start\nJira:\nAPP-7",
				"Tweak APP-3",
			},
		},
	}
	lib := &doubles.FakeRemote{
		Tags: map[string]string{
			"version/1.0": "1111111", "version/1.1": "2222222", "version/1.1-alt": "2222222",
		},
		HeadTags:     []string{"version/1.1", "version/1.1-alt"},
		CommitCounts: map[string]int{"version/1.0..version/1.1": 4, "version/1.0..HEAD": 4},
		Messages:     map[string][]string{"version/1.0..version/1.1": {"Speed up parser LIB-1"}},
	}

	settings := builders.NewSettingsBuilder().
		WithWorkspace(t.TempDir()).
		WithProvider(entities.ProviderSettings{Type: "bitbucket"}).
		WithMeta("meta-s6", metaURL,
			entities.RecipeSettings{Name: "app", URL: appURL},
			entities.RecipeSettings{Name: "lib", URL: libURL},
		).
		BuildSettings()

	return &fixture{
		git:      doubles.NewFakeGitRepository(map[string]*doubles.FakeRemote{metaURL: meta, appURL: app, libURL: lib}),
		meta:     meta,
		app:      app,
		lib:      lib,
		settings: settings,
		provider: &doubles.SpyPullRequestRepository{ProviderName: "bitbucket"},
		metrics:  doubles.NewSpyMetricsRepository(),
	}
}

func (it *fixture) workspaces() repositories.WorkspaceFactory {
	return func(settings *entities.Settings) (repositories.WorkspaceRepository, error) {
		return workspace.NewWorkspaceManager(settings.Workspace, settings.Workers, it.git), nil
	}
}

func (it *fixture) providers() *infraRepos.ProviderRegistry {
	registry := infraRepos.NewProviderRegistry()
	registry.Register("bitbucket", func(_ entities.ProviderSettings) (repositories.PullRequestRepository, error) {
		return it.provider, nil
	})
	return registry
}

func resultFor(report *entities.BatchReport, recipe string) entities.RecipeResult {
	for _, result := range report.Results {
		if result.Recipe == recipe {
			return result
		}
	}
	return entities.RecipeResult{}
}
