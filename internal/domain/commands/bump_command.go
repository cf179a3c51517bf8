package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/recipebump/internal/infrastructure/repositories"
)

// Bump is the interface for the bump command.
type Bump interface {
	Execute(ctx context.Context, settings *entities.Settings, opts BumpOptions) (*entities.BatchReport, error)
}

// BumpOptions holds runtime options for a single bump run.
type BumpOptions struct {
	DryRun         bool
	Verbose        bool
	Branches       []string          // target branches to process (default: all configured)
	BranchTags     []string          // target branches carrying any of these labels
	Metas          []string          // meta repositories to process (default: all)
	Recipes        []string          // recipes to process (default: all)
	Targets        map[string]string // recipe -> tag; recipes not listed resolve HEAD
	SourceBranches map[string]string // recipe -> new source branch
	Confirm        bool              // allow creating tags at HEAD
	CreatePR       bool
}

// BumpCommand walks every selected (meta repository, branch) pair, moves recipe pins to their
// resolved versions and pushes one aggregated commit per meta repository.
type BumpCommand struct {
	workspaces repositories.WorkspaceFactory
	recipes    repositories.RecipeRepository
	providers  *infraRepos.ProviderRegistry
	metrics    repositories.MetricsRepository
}

// NewBumpCommand creates a new BumpCommand.
func NewBumpCommand(
	workspaces repositories.WorkspaceFactory,
	recipes repositories.RecipeRepository,
	providers *infraRepos.ProviderRegistry,
	metrics repositories.MetricsRepository,
) *BumpCommand {
	return &BumpCommand{
		workspaces: workspaces,
		recipes:    recipes,
		providers:  providers,
		metrics:    metrics,
	}
}

// pendingRecipe is a recipe whose pin was read successfully.
type pendingRecipe struct {
	recipe     entities.RecipeSettings
	repository string
	pin        entities.RecipePin
	newBranch  string
}

// metaRun carries the state of one (meta repository, branch) pair.
type metaRun struct {
	ctx       context.Context
	settings  *entities.Settings
	opts      BumpOptions
	workspace repositories.WorkspaceRepository
	resolver  *VersionResolver
	meta      entities.MetaSettings
	branch    string
	report    *entities.BatchReport
	log       *logger.Entry
	synced    map[string]string // source repository -> branch it is checked out on
}

// Execute runs a full bump cycle. Failures of one recipe or meta repository are recorded in the
// report and never stop the others; the error return is reserved for failures of the run itself.
func (it *BumpCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts BumpOptions,
) (*entities.BatchReport, error) {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	report := &entities.BatchReport{RunID: uuid.NewString()}
	log := logger.WithField("run_id", report.RunID)

	branches := settings.FilterBranches(opts.Branches, opts.BranchTags)
	if len(branches) == 0 {
		return report, fmt.Errorf("%w: no configured branch matches the filter", entities.ErrInvalidConfig)
	}
	metas := settings.FilterMetas(opts.Metas)
	if len(metas) == 0 {
		return report, fmt.Errorf("%w: no configured meta repository matches the filter", entities.ErrInvalidConfig)
	}

	workspace, err := it.workspaces(settings)
	if err != nil {
		return report, fmt.Errorf("failed to prepare workspace: %w", err)
	}
	resolver := NewVersionResolver(workspace)

	for _, meta := range metas {
		for _, branch := range branches {
			run := &metaRun{
				ctx:       ctx,
				settings:  settings,
				opts:      opts,
				workspace: workspace,
				resolver:  resolver,
				meta:      meta,
				branch:    branch.Name,
				report:    report,
				synced:    map[string]string{},
				log:       log.WithFields(logger.Fields{"meta": meta.Name, "branch": branch.Name}),
			}
			it.processMeta(run)
		}
	}

	for _, result := range report.Results {
		it.metrics.RecordRecipeResult(string(result.Status))
	}
	log.Infof(
		"Run complete: %d updated, %d skipped, %d failed, %d need a decision, %d pull requests",
		report.Count(entities.StatusUpdated),
		report.Count(entities.StatusSkipped),
		report.Count(entities.StatusFailed),
		report.Count(entities.StatusNeedsDecision),
		len(report.PullRequests),
	)
	return report, nil
}

func (it *BumpCommand) processMeta(run *metaRun) {
	selected := run.meta.FilterRecipes(run.opts.Recipes)
	if len(selected) == 0 {
		run.log.Debug("No recipe selected")
		return
	}

	_, err := run.workspace.EnsureCloned(run.ctx, entities.CloneSpec{
		Name:   run.meta.Name,
		URL:    run.meta.URL,
		Branch: run.branch,
	})
	if err != nil {
		run.log.Errorf("Failed to prepare meta repository: %v", err)
		for _, recipe := range selected {
			run.fail(recipe.Name, err)
		}
		return
	}

	pending := it.readPins(run, selected)
	pending = it.materializeSources(run, pending)

	changeSet := entities.NewChangeSet(run.meta.Name, run.branch)
	messages := map[string][]entities.CommitMessage{}
	var updated []int

	for _, item := range pending {
		result, record, commits, ok := it.bumpRecipe(run, item)
		run.report.Add(result)
		if !ok {
			continue
		}
		updated = append(updated, len(run.report.Results)-1)
		changeSet.Add(record)
		messages[item.recipe.Name] = commits
	}

	if changeSet.Len() == 0 {
		return
	}
	it.publish(run, changeSet, messages, updated)
}

// readPins locates and reads each recipe under the meta repository's read lock.
func (it *BumpCommand) readPins(run *metaRun, selected []entities.RecipeSettings) []pendingRecipe {
	var pending []pendingRecipe
	for _, recipe := range selected {
		var pin entities.RecipePin
		err := run.workspace.WithRead(run.meta.Name, func(root string) error {
			path, err := it.recipes.Locate(root, recipe.Name)
			if err != nil {
				return err
			}
			pin, err = it.recipes.ReadPin(path)
			return err
		})
		if err != nil {
			run.log.Errorf("Failed to read recipe %s: %v", recipe.Name, err)
			run.fail(recipe.Name, err)
			continue
		}

		newBranch := pin.GitBranchName
		if override := run.opts.SourceBranches[recipe.Name]; override != "" {
			newBranch = override
		}
		pending = append(pending, pendingRecipe{
			recipe:     recipe,
			repository: entities.RepositoryNameFromURL(recipe.URL),
			pin:        pin,
			newBranch:  newBranch,
		})
	}
	return pending
}

// materializeSources clones or syncs every source repository in parallel. Recipes whose source
// could not be prepared are reported and dropped.
func (it *BumpCommand) materializeSources(run *metaRun, pending []pendingRecipe) []pendingRecipe {
	specs := make([]entities.CloneSpec, 0, len(pending))
	seen := map[string]bool{}
	for _, item := range pending {
		if seen[item.repository] {
			continue
		}
		seen[item.repository] = true
		specs = append(specs, entities.CloneSpec{Name: item.repository, URL: item.recipe.URL, Branch: item.newBranch})
	}

	failures := map[string]error{}
	for i, result := range run.workspace.MaterializeAll(run.ctx, specs) {
		if result.Err != nil {
			failures[result.Name] = result.Err
			continue
		}
		run.synced[result.Name] = specs[i].Branch
	}

	var ready []pendingRecipe
	for _, item := range pending {
		if err := failures[item.repository]; err != nil {
			run.log.Errorf("Failed to prepare source of %s: %v", item.recipe.Name, err)
			run.fail(item.recipe.Name, err)
			continue
		}
		ready = append(ready, item)
	}
	return ready
}

// bumpRecipe resolves and writes one recipe. ok is true when the recipe belongs in the change set.
func (it *BumpCommand) bumpRecipe(
	run *metaRun,
	item pendingRecipe,
) (entities.RecipeResult, entities.ChangeRecord, []entities.CommitMessage, bool) {
	log := run.log.WithField("recipe", item.recipe.Name)
	result := entities.RecipeResult{
		Meta:       run.meta.Name,
		Branch:     run.branch,
		Recipe:     item.recipe.Name,
		OldVersion: item.pin.Version,
		OldBranch:  item.pin.GitBranchName,
		NewBranch:  item.newBranch,
	}

	// recipes sharing a source repository may track different branches
	if run.synced[item.repository] != item.newBranch {
		if _, err := run.workspace.Checkout(run.ctx, item.repository, item.newBranch); err != nil {
			return failed(log, result, err), entities.ChangeRecord{}, nil, false
		}
		run.synced[item.repository] = item.newBranch
	}

	resolution, err := run.resolver.Resolve(run.ctx, ResolveRequest{
		Repository: item.repository,
		Recipe:     item.recipe.Name,
		Current:    item.pin,
		Target:     run.opts.Targets[item.recipe.Name],
		Confirm:    run.opts.Confirm,
		DryRun:     run.opts.DryRun,
	})
	if err != nil {
		if entities.IsDecisionRequired(err) {
			result.Status = entities.StatusNeedsDecision
			result.Err = err
			result.Reason = err.Error()
			var ambiguous *entities.AmbiguousTagError
			if errors.As(err, &ambiguous) {
				result.Candidates = ambiguous.Candidates
			}
			log.Warnf("Needs a decision: %v", err)
			return result, entities.ChangeRecord{}, nil, false
		}
		return failed(log, result, err), entities.ChangeRecord{}, nil, false
	}

	branchChanged := item.newBranch != item.pin.GitBranchName
	if resolution.NoOp && !branchChanged {
		result.Status = entities.StatusSkipped
		result.NewVersion = item.pin.Version
		result.Reason = "already up to date"
		log.Infof("Already at %s", resolution.Tag)
		return result, entities.ChangeRecord{}, nil, false
	}

	newTag := resolution.Tag
	newValue := resolution.PinValue
	if resolution.NoOp {
		newTag, newValue = resolution.CurrentTag, item.pin.Version
	}
	result.NewVersion = newValue
	if resolution.Proposed {
		result.NewVersion = newTag
	}
	result.Discrepancy = resolution.Discrepancy
	if resolution.Discrepancy {
		log.Warnf("%s and %s point at the same history, check the requested version", resolution.CurrentTag, newTag)
	}

	if !run.opts.DryRun {
		err = run.workspace.WithWrite(run.meta.Name, func(_ string) error {
			_, writeErr := it.recipes.WritePin(item.pin.Path, newValue, item.newBranch)
			return writeErr
		})
		if err != nil {
			return failed(log, result, err), entities.ChangeRecord{}, nil, false
		}
	}

	commits := it.collectMessages(run, item, resolution, newTag)
	result.Status = entities.StatusUpdated
	log.Infof("%s -> %s", item.pin.Version, result.NewVersion)

	record := entities.ChangeRecord{
		Recipe:     item.recipe.Name,
		OldVersion: resolution.CurrentTag,
		OldBranch:  item.pin.GitBranchName,
		NewVersion: newTag,
		NewBranch:  item.newBranch,
	}
	return result, record, commits, true
}

// collectMessages parses the commits between the pinned tag and the new one.
func (it *BumpCommand) collectMessages(
	run *metaRun,
	item pendingRecipe,
	resolution *Resolution,
	newTag string,
) []entities.CommitMessage {
	if resolution.CurrentTag == newTag {
		return nil
	}
	to := newTag
	if resolution.Proposed {
		to = TargetHead
	}

	raw, err := run.workspace.CommitMessagesBetween(run.ctx, item.repository, resolution.CurrentTag, to)
	if err != nil {
		run.log.Warnf("Failed to read commits of %s between %s and %s: %v", item.recipe.Name, resolution.CurrentTag, to, err)
		return nil
	}

	commits := make([]entities.CommitMessage, 0, len(raw))
	for _, text := range raw {
		commits = append(commits, entities.ParseCommitMessage(text))
	}
	return commits
}

// publish commits the meta repository with the aggregated message, pushes it and opens a pull request.
func (it *BumpCommand) publish(
	run *metaRun,
	changeSet *entities.ChangeSet,
	messages map[string][]entities.CommitMessage,
	updated []int,
) {
	body := changeSet.BuildBody(messages, entities.BodyOptions{Structured: run.settings.StructuredMessage})
	if run.opts.DryRun {
		run.log.Infof("[dry-run] Would commit and push:\n%s", body)
		return
	}

	if diff, err := run.workspace.Diff(run.ctx, run.meta.Name); err == nil {
		run.log.Debugf("Changes to be committed:\n%s", diff)
	}

	pushed, err := run.workspace.CommitAndPush(run.ctx, run.meta.Name, body)
	if err != nil {
		run.log.Errorf("Failed to publish: %v", err)
		run.report.Errors = append(run.report.Errors, fmt.Errorf("%s@%s: %w", run.meta.Name, run.branch, err))
		for _, index := range updated {
			run.report.Results[index].Status = entities.StatusFailed
			run.report.Results[index].Err = err
		}
		return
	}
	if !pushed || !run.opts.CreatePR {
		return
	}

	it.openPullRequest(run, changeSet, body)
}

func (it *BumpCommand) openPullRequest(run *metaRun, changeSet *entities.ChangeSet, body string) {
	provider, err := it.providers.Get(run.settings.Provider)
	if err != nil {
		run.log.Errorf("Failed to initialize provider %q: %v", run.settings.Provider.Type, err)
		run.report.Errors = append(run.report.Errors, err)
		return
	}

	pr, err := provider.CreatePullRequest(run.ctx, entities.PullRequestInput{
		Title:             changeSet.Subject(),
		Description:       body,
		SourceBranch:      run.branch,
		DestinationBranch: run.branch,
		Repository:        run.settings.ProviderRepository(run.meta),
	})
	if err != nil {
		it.metrics.RecordPullRequest(provider.Name(), "failed")
		run.log.Errorf("Failed to create pull request: %v", err)
		run.report.Errors = append(run.report.Errors, fmt.Errorf("%s@%s: %w", run.meta.Name, run.branch, err))
		return
	}

	it.metrics.RecordPullRequest(provider.Name(), "created")
	run.report.PullRequests = append(run.report.PullRequests, *pr)
	run.log.Infof("Created PR #%d: %s (%s)", pr.ID, pr.Title, pr.URL)
}

func (run *metaRun) fail(recipe string, err error) {
	run.report.Add(entities.RecipeResult{
		Meta:   run.meta.Name,
		Branch: run.branch,
		Recipe: recipe,
		Status: entities.StatusFailed,
		Reason: err.Error(),
		Err:    err,
	})
}

func failed(log *logger.Entry, result entities.RecipeResult, err error) entities.RecipeResult {
	log.Errorf("Failed: %v", err)
	result.Status = entities.StatusFailed
	result.Reason = err.Error()
	result.Err = err
	return result
}
