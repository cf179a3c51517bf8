package controllers

import (
	"context"
	"fmt"
	"io"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/recipebump/internal/domain/commands"
	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

// BumpController handles the "bump" subcommand.
type BumpController struct {
	command commands.Bump
	metrics repositories.MetricsRepository
}

// NewBumpController creates a new BumpController.
func NewBumpController(command commands.Bump, metrics repositories.MetricsRepository) *BumpController {
	return &BumpController{command: command, metrics: metrics}
}

// GetBind returns the Cobra command metadata for the bump controller.
func (it *BumpController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "bump",
		Short: "Move recipe pins to new source versions",
		Long: `Clone or refresh every configured meta repository, resolve the requested
version of each recipe (HEAD by default), rewrite CCOS_VERSION and
CCOS_GIT_BRANCH_NAME, and push one commit per meta repository and branch.

Recipes whose HEAD carries several version tags are reported as needing a
decision; pass --target recipe=tag to pick one. Creating a new tag at HEAD
requires --yes.`,
	}
}

// Execute runs a bump cycle and prints its report.
func (it *BumpController) Execute(cmd *cobra.Command, _ []string) {
	ctx := context.Background()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	branches, _ := cmd.Flags().GetStringSlice("branch")
	branchTags, _ := cmd.Flags().GetStringSlice("branch-tag")
	metas, _ := cmd.Flags().GetStringSlice("meta")
	recipes, _ := cmd.Flags().GetStringSlice("recipe")
	targets, _ := cmd.Flags().GetStringToString("target")
	sourceBranches, _ := cmd.Flags().GetStringToString("source-branch")
	confirm, _ := cmd.Flags().GetBool("yes")
	createPR, _ := cmd.Flags().GetBool("pr")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}

	logger.Info("Starting recipe bump...")

	report, runErr := it.command.Execute(ctx, settings, commands.BumpOptions{
		DryRun:         dryRun,
		Verbose:        verbose,
		Branches:       branches,
		BranchTags:     branchTags,
		Metas:          metas,
		Recipes:        recipes,
		Targets:        targets,
		SourceBranches: sourceBranches,
		Confirm:        confirm,
		CreatePR:       createPR,
	})
	if runErr != nil {
		logger.Errorf("Bump failed: %v", runErr)
	}
	if report != nil {
		printReport(cmd.OutOrStdout(), report)
	}

	if metricsFile != "" {
		if writeErr := it.metrics.WriteTextfile(metricsFile); writeErr != nil {
			logger.Errorf("Failed to write metrics to %s: %v", metricsFile, writeErr)
		}
	}
}

// AddFlags adds the bump-specific flags to the given Cobra command.
func (it *BumpController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("branch", nil, "Only process these target branches")
	cmd.Flags().StringSlice("branch-tag", nil, "Only process target branches carrying these labels")
	cmd.Flags().StringSlice("meta", nil, "Only process these meta repositories")
	cmd.Flags().StringSlice("recipe", nil, "Only process these recipes")
	cmd.Flags().StringToString("target", nil, "Pin a recipe to a tag instead of HEAD (recipe=tag)")
	cmd.Flags().StringToString("source-branch", nil, "Move a recipe to another source branch (recipe=branch)")
	cmd.Flags().Bool("yes", false, "Create and push new version tags at HEAD without asking")
	cmd.Flags().Bool("pr", false, "Open a pull request for every pushed meta repository")
	cmd.Flags().String("metrics-file", "", "Write run metrics in Prometheus text format to this file")
}

func printReport(out io.Writer, report *entities.BatchReport) {
	if len(report.Results) == 0 {
		_, _ = fmt.Fprintln(out, "No recipes processed.")
		return
	}

	recipeW, metaW, statusW := len("RECIPE"), len("META"), len("STATUS")
	for _, result := range report.Results {
		recipeW = max(recipeW, len(result.Recipe))
		metaW = max(metaW, len(result.Meta)+len(result.Branch)+1)
		statusW = max(statusW, len(result.Status))
	}

	_, _ = fmt.Fprintf(out, "%-*s  %-*s  %-*s  %s\n", recipeW, "RECIPE", metaW, "META", statusW, "STATUS", "DETAIL")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", recipeW+metaW+statusW+12))
	for _, result := range report.Results {
		_, _ = fmt.Fprintf(out, "%-*s  %-*s  %-*s  %s\n",
			recipeW, result.Recipe,
			metaW, result.Meta+"@"+result.Branch,
			statusW, result.Status,
			detail(result),
		)
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "Run %s: %d updated, %d skipped, %d needs decision, %d failed\n",
		report.RunID,
		report.Count(entities.StatusUpdated),
		report.Count(entities.StatusSkipped),
		report.Count(entities.StatusNeedsDecision),
		report.Count(entities.StatusFailed),
	)
	for _, pr := range report.PullRequests {
		_, _ = fmt.Fprintf(out, "Pull request #%d: %s\n", pr.ID, pr.URL)
	}
	for _, err := range report.Errors {
		_, _ = fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func detail(result entities.RecipeResult) string {
	switch result.Status {
	case entities.StatusUpdated:
		text := fmt.Sprintf("%s -> %s", result.OldVersion, result.NewVersion)
		if result.NewBranch != "" && result.NewBranch != result.OldBranch {
			text += fmt.Sprintf(" (branch %s -> %s)", result.OldBranch, result.NewBranch)
		}
		if result.Discrepancy {
			text += " [no new commits]"
		}
		return text
	case entities.StatusNeedsDecision:
		if len(result.Candidates) > 0 {
			return "choose one of " + strings.Join(result.Candidates, ", ")
		}
		return result.Reason
	case entities.StatusFailed:
		if result.Err != nil {
			return result.Err.Error()
		}
	}
	return result.Reason
}
