package repositories

import "time"

// MetricsRepository records run statistics.
type MetricsRepository interface {
	RecordRecipeResult(status string)
	RecordGitCommand(command string, duration time.Duration, failed bool)
	RecordPullRequest(provider, result string)
	WriteTextfile(path string) error
}
