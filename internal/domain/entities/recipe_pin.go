package entities

const (
	// VersionField and BranchField are the recipe variables holding a pin.
	VersionField = "CCOS_VERSION"
	BranchField  = "CCOS_GIT_BRANCH_NAME"

	// DefaultGitBranchName is assumed when a recipe does not declare its branch.
	DefaultGitBranchName = "@s6mobis"

	// RecipeExtension is appended to a recipe base name to find its file.
	RecipeExtension = ".bb"
)

// RecipePin is the (version, branch) pair recorded inside one recipe file.
type RecipePin struct {
	Path          string
	Version       string // raw persisted value, e.g. "0.0.1_7683c0f6"
	GitBranchName string
	HasBranch     bool // false when the branch was defaulted
}

// Pinned parses the persisted version value.
func (it RecipePin) Pinned() (PinnedVersion, error) {
	return ParsePinnedVersion(it.Version)
}

// Tag is the version tag the pin refers to, or "" when the value is malformed.
func (it RecipePin) Tag() string {
	pinned, err := it.Pinned()
	if err != nil {
		return ""
	}
	return pinned.Tag()
}
