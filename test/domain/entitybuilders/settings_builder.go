//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/recipebump/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// SettingsBuilder helps create test settings with a fluent interface.
type SettingsBuilder struct {
	*testkit.BaseBuilder
	workspace  string
	workers    int
	structured bool
	provider   entities.ProviderSettings
	metas      []entities.MetaSettings
	branches   []entities.BranchSettings
}

// NewSettingsBuilder creates a new settings builder with one target branch and no meta repository.
func NewSettingsBuilder() *SettingsBuilder {
	return &SettingsBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		workers:     2,
		branches:    []entities.BranchSettings{{Name: entities.DefaultGitBranchName, Tags: []string{"release"}}},
	}
}

// WithWorkspace sets the workspace root.
func (b *SettingsBuilder) WithWorkspace(path string) *SettingsBuilder {
	b.workspace = path
	return b
}

// WithWorkers sets the worker pool size.
func (b *SettingsBuilder) WithWorkers(workers int) *SettingsBuilder {
	b.workers = workers
	return b
}

// WithStructuredMessage toggles the Cause and Countermeasure sections.
func (b *SettingsBuilder) WithStructuredMessage(structured bool) *SettingsBuilder {
	b.structured = structured
	return b
}

// WithProvider sets the pull request provider.
func (b *SettingsBuilder) WithProvider(provider entities.ProviderSettings) *SettingsBuilder {
	b.provider = provider
	return b
}

// WithMeta adds a meta repository pinning the given recipes.
func (b *SettingsBuilder) WithMeta(name, url string, recipes ...entities.RecipeSettings) *SettingsBuilder {
	b.metas = append(b.metas, entities.MetaSettings{Name: name, URL: url, Recipes: recipes})
	return b
}

// WithBranches replaces the target branches.
func (b *SettingsBuilder) WithBranches(branches ...entities.BranchSettings) *SettingsBuilder {
	b.branches = branches
	return b
}

// Build creates the settings (satisfies testkit.Builder interface).
func (b *SettingsBuilder) Build() interface{} {
	return b.BuildSettings()
}

// BuildSettings creates the settings with a concrete return type.
func (b *SettingsBuilder) BuildSettings() *entities.Settings {
	return &entities.Settings{
		Workspace:         b.workspace,
		Workers:           b.workers,
		StructuredMessage: b.structured,
		Provider:          b.provider,
		Metas:             append([]entities.MetaSettings(nil), b.metas...),
		Branches:          append([]entities.BranchSettings(nil), b.branches...),
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *SettingsBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.workspace = ""
	b.workers = 2
	b.structured = false
	b.provider = entities.ProviderSettings{}
	b.metas = nil
	b.branches = []entities.BranchSettings{{Name: entities.DefaultGitBranchName, Tags: []string{"release"}}}
	return b
}

// Clone creates a deep copy of the SettingsBuilder.
func (b *SettingsBuilder) Clone() testkit.Builder {
	return &SettingsBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		workspace:   b.workspace,
		workers:     b.workers,
		structured:  b.structured,
		provider:    b.provider,
		metas:       append([]entities.MetaSettings(nil), b.metas...),
		branches:    append([]entities.BranchSettings(nil), b.branches...),
	}
}
