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
)

// StatusController handles the "status" subcommand.
type StatusController struct {
	command commands.Status
}

// NewStatusController creates a new StatusController.
func NewStatusController(command commands.Status) *StatusController {
	return &StatusController{command: command}
}

// GetBind returns the Cobra command metadata for the status controller.
func (it *StatusController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "status",
		Short: "Show how far each recipe pin is behind its source branch",
		Long: `List the pinned version of every configured recipe together with the latest
version tag of its source repository and the number of commits on the source
branch since the pinned tag. Nothing is written or pushed.`,
	}
}

// Execute prints the status table.
func (it *StatusController) Execute(cmd *cobra.Command, _ []string) {
	ctx := context.Background()

	verbose, _ := cmd.Flags().GetBool("verbose")
	branches, _ := cmd.Flags().GetStringSlice("branch")
	metas, _ := cmd.Flags().GetStringSlice("meta")
	recipes, _ := cmd.Flags().GetStringSlice("recipe")
	outdated, _ := cmd.Flags().GetBool("outdated")

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}

	overviews, err := it.command.Execute(ctx, settings, commands.StatusOptions{
		Verbose:  verbose,
		Branches: branches,
		Metas:    metas,
		Recipes:  recipes,
	})
	if err != nil {
		logger.Errorf("Status failed: %v", err)
		return
	}

	if outdated {
		var filtered []commands.RecipeOverview
		for _, overview := range overviews {
			if !overview.UpToDate() {
				filtered = append(filtered, overview)
			}
		}
		overviews = filtered
	}
	printOverviews(cmd.OutOrStdout(), overviews)
}

// AddFlags adds the status-specific flags to the given Cobra command.
func (it *StatusController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("branch", nil, "Only inspect these target branches")
	cmd.Flags().StringSlice("meta", nil, "Only inspect these meta repositories")
	cmd.Flags().StringSlice("recipe", nil, "Only inspect these recipes")
	cmd.Flags().Bool("outdated", false, "Show only recipes with new commits or errors")
}

func printOverviews(out io.Writer, overviews []commands.RecipeOverview) {
	if len(overviews) == 0 {
		_, _ = fmt.Fprintln(out, "No recipes found.")
		return
	}

	recipeW, metaW, pinnedW, latestW := len("RECIPE"), len("META"), len("PINNED"), len("LATEST")
	for _, o := range overviews {
		recipeW = max(recipeW, len(o.Recipe))
		metaW = max(metaW, len(o.Meta)+len(o.Branch)+1)
		pinnedW = max(pinnedW, len(o.CurrentTag))
		latestW = max(latestW, len(o.LatestTag))
	}

	_, _ = fmt.Fprintf(out, "%-*s  %-*s  %-*s  %-*s  %s\n",
		recipeW, "RECIPE", metaW, "META", pinnedW, "PINNED", latestW, "LATEST", "STATUS")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", recipeW+metaW+pinnedW+latestW+16))

	behind := 0
	for _, o := range overviews {
		state := "up to date"
		switch {
		case o.Err != nil:
			state = "error: " + o.Err.Error()
		case o.NewCommits > 0 && o.NextVersion != "":
			state = fmt.Sprintf("%d new commits (next %s)", o.NewCommits, o.NextVersion)
		case o.NewCommits > 0:
			state = fmt.Sprintf("%d new commits (HEAD tagged %s)", o.NewCommits, strings.Join(o.HeadTags, ", "))
		}
		if !o.UpToDate() {
			behind++
		}
		_, _ = fmt.Fprintf(out, "%-*s  %-*s  %-*s  %-*s  %s\n",
			recipeW, o.Recipe,
			metaW, o.Meta+"@"+o.Branch,
			pinnedW, o.CurrentTag,
			latestW, o.LatestTag,
			state,
		)
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "Total: %d recipes, %d behind\n", len(overviews), behind)
}
