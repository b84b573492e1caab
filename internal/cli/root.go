// Package cli implements resumectl, the command line front end of the
// render service. It renders a resume JSON file to PDF or HTML without a
// server and lists the template catalog.
package cli

import (
	"context"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"resume-render/internal/api/handlers"
)

// Execute runs the resumectl command tree
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "resumectl",
		Short:        "Render resumes to PDF or HTML",
		Long:         "resumectl renders a resume JSON document through the same templates and headless browser pipeline as the render service.",
		Version:      handlers.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.AddCommand(newRenderCmd())
	root.AddCommand(newTemplatesCmd())
	return root
}
