package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/recipebump/internal/domain/commands"
	"github.com/rios0rios0/recipebump/internal/domain/entities"
)

// CleanController handles the "clean" subcommand.
type CleanController struct {
	command commands.Clean
}

// NewCleanController creates a new CleanController.
func NewCleanController(command commands.Clean) *CleanController {
	return &CleanController{command: command}
}

// GetBind returns the Cobra command metadata for the clean controller.
func (it *CleanController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "clean [name...]",
		Short: "Delete local working copies",
		Long: `Delete the named working copies from the workspace directory, or every
configured meta and source repository when no name is given.`,
	}
}

// Execute removes the working copies.
func (it *CleanController) Execute(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}

	if cleanErr := it.command.Execute(context.Background(), settings, commands.CleanOptions{
		Names:  args,
		DryRun: dryRun,
	}); cleanErr != nil {
		logger.Errorf("Clean failed: %v", cleanErr)
	}
}

// AddFlags is a no-op: clean only takes positional names.
func (it *CleanController) AddFlags(_ *cobra.Command) {}
