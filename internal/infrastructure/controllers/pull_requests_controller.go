package controllers

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/recipebump/internal/domain/commands"
	"github.com/rios0rios0/recipebump/internal/domain/entities"
)

// PullRequestsController handles the "prs" subcommand.
type PullRequestsController struct {
	command commands.PullRequests
}

// NewPullRequestsController creates a new PullRequestsController.
func NewPullRequestsController(command commands.PullRequests) *PullRequestsController {
	return &PullRequestsController{command: command}
}

// GetBind returns the Cobra command metadata for the pull requests controller.
func (it *PullRequestsController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "prs",
		Short: "List the pull requests still open on the meta repositories",
		Long: `List the open pull requests of every configured meta repository on the
configured provider. With --watch the listing is refreshed at the given
interval until the process is interrupted.`,
	}
}

// Execute prints the listing once, or on every tick of --watch until interrupted.
func (it *PullRequestsController) Execute(cmd *cobra.Command, _ []string) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	verbose, _ := cmd.Flags().GetBool("verbose")
	metas, _ := cmd.Flags().GetStringSlice("meta")
	watch, _ := cmd.Flags().GetDuration("watch")

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}
	opts := commands.PullRequestsOptions{Verbose: verbose, Metas: metas}

	if !it.list(ctx, cmd.OutOrStdout(), settings, opts) || watch <= 0 {
		return
	}

	logger.Infof("Watching open pull requests every %s", watch)
	ticker := time.NewTicker(watch)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopped watching pull requests")
			return
		case now := <-ticker.C:
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n[%s]\n", now.Format(time.RFC3339))
			it.list(ctx, cmd.OutOrStdout(), settings, opts)
		}
	}
}

// AddFlags adds the prs-specific flags to the given Cobra command.
func (it *PullRequestsController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("meta", nil, "Only list these meta repositories")
	cmd.Flags().Duration("watch", 0, "Refresh the listing at this interval (e.g. 1m) until interrupted")
}

// list reports false when the provider could not be reached at all.
func (it *PullRequestsController) list(
	ctx context.Context,
	out io.Writer,
	settings *entities.Settings,
	opts commands.PullRequestsOptions,
) bool {
	listings, err := it.command.Execute(ctx, settings, opts)
	if err != nil {
		logger.Errorf("Listing pull requests failed: %v", err)
		return false
	}
	printPullRequests(out, listings)
	return true
}

func printPullRequests(out io.Writer, listings []commands.MetaPullRequests) {
	if len(listings) == 0 {
		_, _ = fmt.Fprintln(out, "No meta repositories selected.")
		return
	}

	total := 0
	for _, listing := range listings {
		_, _ = fmt.Fprintf(out, "%s (%s)\n", listing.Meta, listing.Repository)
		if listing.Err != nil {
			_, _ = fmt.Fprintf(out, "  error: %v\n\n", listing.Err)
			continue
		}
		if len(listing.PullRequests) == 0 {
			_, _ = fmt.Fprintln(out, "  no open pull requests")
			_, _ = fmt.Fprintln(out)
			continue
		}

		idW, titleW, branchW := len("ID"), len("TITLE"), len("SOURCE -> DESTINATION")
		for _, pr := range listing.PullRequests {
			idW = max(idW, len(fmt.Sprint(pr.ID))+1)
			titleW = max(titleW, len(pr.Title))
			branchW = max(branchW, len(pr.SourceBranch)+len(pr.DestinationBranch)+4)
		}
		_, _ = fmt.Fprintf(out, "  %-*s  %-*s  %-*s  %s\n", idW, "ID", titleW, "TITLE", branchW, "SOURCE -> DESTINATION", "STATE")
		_, _ = fmt.Fprintln(out, "  "+strings.Repeat("-", idW+titleW+branchW+11))
		for _, pr := range listing.PullRequests {
			state := pr.Status
			if pr.Author != "" {
				state += " (" + pr.Author + ")"
			}
			_, _ = fmt.Fprintf(out, "  %-*s  %-*s  %-*s  %s\n",
				idW, fmt.Sprintf("#%d", pr.ID),
				titleW, pr.Title,
				branchW, pr.SourceBranch+" -> "+pr.DestinationBranch,
				state,
			)
			if pr.URL != "" {
				_, _ = fmt.Fprintf(out, "  %-*s  %s\n", idW, "", pr.URL)
			}
		}
		total += len(listing.PullRequests)
		_, _ = fmt.Fprintln(out)
	}
	_, _ = fmt.Fprintf(out, "Total: %d open pull requests\n", total)
}
