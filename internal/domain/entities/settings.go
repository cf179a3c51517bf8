package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultWorkspace  = "~/.auto-pr/workspace"
	defaultGitTimeout = 2 * time.Minute
	defaultWorkers    = 4
	envPrefix         = "RECIPEBUMP"
)

// Settings is the top-level configuration for recipebump.
type Settings struct {
	Workspace         string           `yaml:"workspace"          toml:"workspace"`
	GitTimeout        string           `yaml:"git_timeout"        toml:"git_timeout"`
	Workers           int              `yaml:"workers"            toml:"workers"`
	StructuredMessage bool             `yaml:"structured_message" toml:"structured_message"`
	Provider          ProviderSettings `yaml:"provider"           toml:"provider"`
	Metas             []MetaSettings   `yaml:"meta"               toml:"meta"`
	Branches          []BranchSettings `yaml:"branches"           toml:"branches"`
}

// ProviderSettings selects and authenticates the pull request provider.
type ProviderSettings struct {
	Type      string `yaml:"type"      toml:"type"`  // "bitbucket", "github", "gitlab"
	Token     string `yaml:"token"     toml:"token"` // Inline, ${ENV_VAR}, or file path
	Username  string `yaml:"username"  toml:"username"`
	Workspace string `yaml:"workspace" toml:"workspace"` // overrides the owner parsed from the clone URL
	BaseURL   string `yaml:"base_url"  toml:"base_url"`
}

// MetaSettings describes one meta repository and the recipes it pins.
type MetaSettings struct {
	Name    string           `yaml:"name"    toml:"name"`
	URL     string           `yaml:"url"     toml:"url"`
	Recipes []RecipeSettings `yaml:"recipes" toml:"recipes"`
}

// RecipeSettings names a recipe and the source repository it pins.
type RecipeSettings struct {
	ID   int    `yaml:"id"   toml:"id"`
	Name string `yaml:"name" toml:"name"`
	URL  string `yaml:"url"  toml:"url"`
}

// BranchSettings is a target branch with free-form labels used for filtering.
type BranchSettings struct {
	Name string   `yaml:"name" toml:"name"`
	Tags []string `yaml:"tags" toml:"tags"`
}

type envOverrides struct {
	Workspace     string        `envconfig:"WORKSPACE"`
	GitTimeout    time.Duration `envconfig:"GIT_TIMEOUT"`
	Workers       int           `envconfig:"WORKERS"`
	ProviderType  string        `envconfig:"PROVIDER_TYPE"`
	ProviderToken string        `envconfig:"PROVIDER_TOKEN"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads a YAML or TOML file (by extension), applies RECIPEBUMP_* environment
// overrides, fills defaults and validates the result.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return ParseSettings(data, filepath.Ext(path))
}

// ParseSettings decodes raw configuration bytes. ext selects the format (".toml" or YAML otherwise).
func ParseSettings(data []byte, ext string) (*Settings, error) {
	var settings Settings
	var err error
	if strings.EqualFold(ext, ".toml") {
		err = toml.Unmarshal(data, &settings)
	} else {
		err = yaml.Unmarshal(data, &settings)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err = settings.applyEnv(); err != nil {
		return nil, err
	}
	settings.Provider.Token = resolveToken(settings.Provider.Token)
	settings.applyDefaults()

	if err = settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
func FindConfigFile() (string, error) {
	locations := []string{".", ".config", "configs"}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{
		".recipebump.yaml",
		".recipebump.yml",
		"recipebump.yaml",
		"recipebump.yml",
		"recipebump.toml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

func (it *Settings) applyEnv() error {
	var overrides envOverrides
	if err := envconfig.Process(envPrefix, &overrides); err != nil {
		return fmt.Errorf("failed to read %s_* environment: %w", envPrefix, err)
	}

	if overrides.Workspace != "" {
		it.Workspace = overrides.Workspace
	}
	if overrides.GitTimeout > 0 {
		it.GitTimeout = overrides.GitTimeout.String()
	}
	if overrides.Workers > 0 {
		it.Workers = overrides.Workers
	}
	if overrides.ProviderType != "" {
		it.Provider.Type = overrides.ProviderType
	}
	if overrides.ProviderToken != "" {
		it.Provider.Token = overrides.ProviderToken
	}
	return nil
}

func (it *Settings) applyDefaults() {
	if it.Workspace == "" {
		it.Workspace = defaultWorkspace
	}
	it.Workspace = expandHome(it.Workspace)
	if it.Workers <= 0 {
		it.Workers = defaultWorkers
	}
	if len(it.Branches) == 0 {
		it.Branches = []BranchSettings{{Name: DefaultGitBranchName, Tags: []string{"release"}}}
	}
}

// Validate checks for required configuration values.
func (it *Settings) Validate() error {
	if len(it.Metas) == 0 {
		return fmt.Errorf("%w: at least one meta repository must be configured", ErrInvalidConfig)
	}
	if _, err := it.Timeout(); err != nil {
		return err
	}

	metaNames := map[string]bool{}
	for i, meta := range it.Metas {
		if meta.Name == "" || meta.URL == "" {
			return fmt.Errorf("%w: meta[%d] requires name and url", ErrInvalidConfig, i)
		}
		if metaNames[meta.Name] {
			return fmt.Errorf("%w: duplicate meta %q", ErrInvalidConfig, meta.Name)
		}
		metaNames[meta.Name] = true

		recipeNames := map[string]bool{}
		for j, recipe := range meta.Recipes {
			if recipe.Name == "" || recipe.URL == "" {
				return fmt.Errorf("%w: meta[%d].recipes[%d] requires name and url", ErrInvalidConfig, i, j)
			}
			if recipeNames[recipe.Name] {
				return fmt.Errorf("%w: duplicate recipe %q in meta %q", ErrInvalidConfig, recipe.Name, meta.Name)
			}
			recipeNames[recipe.Name] = true
		}
	}

	if err := it.validateWorkingCopies(); err != nil {
		return err
	}

	for i, branch := range it.Branches {
		if branch.Name == "" {
			return fmt.Errorf("%w: branches[%d].name is required", ErrInvalidConfig, i)
		}
	}

	if it.Provider.Type != "" && !slices.Contains([]string{"bitbucket", "github", "gitlab"}, it.Provider.Type) {
		return fmt.Errorf("%w: unknown provider type %q", ErrInvalidConfig, it.Provider.Type)
	}
	return nil
}

// validateWorkingCopies rejects two repositories that would share one working copy: metas are stored
// under their name and recipe sources under their URL basename.
func (it *Settings) validateWorkingCopies() error {
	owners := map[string]string{}
	claim := func(name, url string) error {
		normalized := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(url), "/"), ".git")
		if bound, ok := owners[name]; ok && bound != normalized {
			return fmt.Errorf("%w: working copy %q is claimed by both %s and %s", ErrInvalidConfig, name, bound, url)
		}
		owners[name] = normalized
		return nil
	}

	for _, meta := range it.Metas {
		if err := claim(meta.Name, meta.URL); err != nil {
			return err
		}
	}
	for _, meta := range it.Metas {
		for _, recipe := range meta.Recipes {
			if err := claim(RepositoryNameFromURL(recipe.URL), recipe.URL); err != nil {
				return err
			}
		}
	}
	return nil
}

// Timeout is the per-invocation git timeout; zero disables it.
func (it *Settings) Timeout() (time.Duration, error) {
	if it.GitTimeout == "" {
		return defaultGitTimeout, nil
	}
	timeout, err := time.ParseDuration(it.GitTimeout)
	if err != nil || timeout < 0 {
		return 0, fmt.Errorf("%w: git_timeout %q is not a duration", ErrInvalidConfig, it.GitTimeout)
	}
	return timeout, nil
}

// FindMeta returns the meta repository configured under name.
func (it *Settings) FindMeta(name string) (MetaSettings, bool) {
	for _, meta := range it.Metas {
		if meta.Name == name {
			return meta, true
		}
	}
	return MetaSettings{}, false
}

// ProviderRepository is the "owner/name" path the provider knows meta by. A configured
// provider workspace replaces the owner parsed from the clone URL.
func (it *Settings) ProviderRepository(meta MetaSettings) string {
	if owner := it.Provider.Workspace; owner != "" {
		return owner + "/" + RepositoryNameFromURL(meta.URL)
	}
	return ParseRepositoryPath(meta.URL)
}

// FilterMetas keeps the metas named in names; an empty filter keeps all.
func (it *Settings) FilterMetas(names []string) []MetaSettings {
	if len(names) == 0 {
		return it.Metas
	}
	var metas []MetaSettings
	for _, meta := range it.Metas {
		if slices.Contains(names, meta.Name) {
			metas = append(metas, meta)
		}
	}
	return metas
}

// FilterBranches keeps branches matching any of names or carrying any of tags.
// Both filters empty keeps every branch.
func (it *Settings) FilterBranches(names, tags []string) []BranchSettings {
	if len(names) == 0 && len(tags) == 0 {
		return it.Branches
	}
	var branches []BranchSettings
	for _, branch := range it.Branches {
		if slices.Contains(names, branch.Name) || slices.ContainsFunc(branch.Tags, func(tag string) bool {
			return slices.Contains(tags, tag)
		}) {
			branches = append(branches, branch)
		}
	}
	return branches
}

// FilterRecipes keeps the recipes named in names; an empty filter keeps all.
func (it MetaSettings) FilterRecipes(names []string) []RecipeSettings {
	if len(names) == 0 {
		return it.Recipes
	}
	var recipes []RecipeSettings
	for _, recipe := range it.Recipes {
		if slices.Contains(names, recipe.Name) {
			recipes = append(recipes, recipe)
		}
	}
	return recipes
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Debugf("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
