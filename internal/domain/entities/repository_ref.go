package entities

import (
	"net/url"
	"path"
	"strings"
)

// CloneSpec asks the workspace to materialize a repository on a branch.
type CloneSpec struct {
	Name   string
	URL    string
	Branch string
}

// RepositoryNameFromURL derives a working-copy name from a clone URL ("git@h:ws/app.git" -> "app").
func RepositoryNameFromURL(rawURL string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(rawURL), "/"), ".git")
	if idx := strings.LastIndexAny(trimmed, "/:"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return trimmed
}

// ParseRepositoryPath extracts "owner/repo" from ssh ("git@host:owner/repo.git")
// and http(s) clone URLs. Nested groups are kept ("group/sub/repo").
func ParseRepositoryPath(rawURL string) string {
	cleaned := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(rawURL), "/"), ".git")

	if parsed, err := url.Parse(cleaned); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		return strings.TrimPrefix(path.Clean(parsed.Path), "/")
	}

	// scp-like syntax: [user@]host:owner/repo
	if idx := strings.Index(cleaned, ":"); idx >= 0 {
		return strings.TrimPrefix(cleaned[idx+1:], "/")
	}
	return cleaned
}

// MaterializeResult is the outcome of cloning or syncing one CloneSpec.
type MaterializeResult struct {
	Name string
	Path string
	Err  error
}
