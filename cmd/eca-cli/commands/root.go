package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-eca-api/pkg/logger"
)

// NewRootCmd assembles the eca-cli command tree writing results to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	app := &AppContext{Out: out}

	rootCmd := &cobra.Command{
		Use:           "eca-cli",
		Short:         "ECA allocation tooling",
		Long:          `Run, preview and export extracurricular allocations against the database, or simulate them from a YAML snapshot.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.Ctx = cmd.Context()
			if app.Ctx == nil {
				app.Ctx = context.Background()
			}
			app.Logger = logger.NewConsole(app.Verbose)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging on stderr")

	rootCmd.AddCommand(MigrateCmd(app))
	rootCmd.AddCommand(RunCmd(app))
	rootCmd.AddCommand(PreviewCmd(app))
	rootCmd.AddCommand(ExportCmd(app))
	rootCmd.AddCommand(SimulateCmd(app))
	rootCmd.AddCommand(TokenCmd(app))

	return rootCmd
}
