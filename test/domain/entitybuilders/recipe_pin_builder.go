//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/recipebump/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// RecipePinBuilder helps create test recipe pins with a fluent interface.
type RecipePinBuilder struct {
	*testkit.BaseBuilder
	path      string
	version   string
	branch    string
	hasBranch bool
}

// NewRecipePinBuilder creates a new pin builder with sensible defaults.
func NewRecipePinBuilder() *RecipePinBuilder {
	return &RecipePinBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		path:        "recipes-app/app/app.bb",
		version:     "2.3.4_aaaaaaa",
		branch:      entities.DefaultGitBranchName,
	}
}

// WithPath sets the recipe file path.
func (b *RecipePinBuilder) WithPath(path string) *RecipePinBuilder {
	b.path = path
	return b
}

// WithVersion sets the persisted version value.
func (b *RecipePinBuilder) WithVersion(version string) *RecipePinBuilder {
	b.version = version
	return b
}

// WithBranch sets an explicitly declared source branch.
func (b *RecipePinBuilder) WithBranch(branch string) *RecipePinBuilder {
	b.branch = branch
	b.hasBranch = true
	return b
}

// Build creates the pin (satisfies testkit.Builder interface).
func (b *RecipePinBuilder) Build() interface{} {
	return b.BuildRecipePin()
}

// BuildRecipePin creates the pin with a concrete return type.
func (b *RecipePinBuilder) BuildRecipePin() entities.RecipePin {
	return entities.RecipePin{
		Path:          b.path,
		Version:       b.version,
		GitBranchName: b.branch,
		HasBranch:     b.hasBranch,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *RecipePinBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.path = "recipes-app/app/app.bb"
	b.version = "2.3.4_aaaaaaa"
	b.branch = entities.DefaultGitBranchName
	b.hasBranch = false
	return b
}

// Clone creates a deep copy of the RecipePinBuilder.
func (b *RecipePinBuilder) Clone() testkit.Builder {
	return &RecipePinBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		path:        b.path,
		version:     b.version,
		branch:      b.branch,
		hasBranch:   b.hasBranch,
	}
}
