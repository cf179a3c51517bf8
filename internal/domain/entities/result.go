package entities

// RecipeStatus is the outcome of processing one recipe.
type RecipeStatus string

const (
	StatusUpdated       RecipeStatus = "updated"
	StatusSkipped       RecipeStatus = "skipped"
	StatusFailed        RecipeStatus = "failed"
	StatusNeedsDecision RecipeStatus = "needs-decision"
)

// RecipeResult records what happened to one recipe in a batch run.
type RecipeResult struct {
	Meta        string
	Branch      string
	Recipe      string
	Status      RecipeStatus
	OldVersion  string
	NewVersion  string
	OldBranch   string
	NewBranch   string
	Candidates  []string // tags to choose from when Status is StatusNeedsDecision
	Discrepancy bool     // tags differ but no commits separate them
	Reason      string
	Err         error
}

// BatchReport aggregates per-recipe results and the pull requests opened during a run.
type BatchReport struct {
	RunID        string
	Results      []RecipeResult
	PullRequests []PullRequest
	Errors       []error // failures not tied to a single recipe (meta clone, push, PR creation)
}

func (it *BatchReport) Add(result RecipeResult) {
	it.Results = append(it.Results, result)
}

func (it *BatchReport) Count(status RecipeStatus) int {
	count := 0
	for _, result := range it.Results {
		if result.Status == status {
			count++
		}
	}
	return count
}

// Failed reports whether any recipe or meta repository failed.
func (it *BatchReport) Failed() bool {
	return it.Count(StatusFailed) > 0 || len(it.Errors) > 0
}
