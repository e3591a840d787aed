package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-eca-api/internal/dto"
)

// ExportCmd writes the allocation roster of a term to a file.
func ExportCmd(app *AppContext) *cobra.Command {
	var school, format, out string
	cmd := &cobra.Command{
		Use:   "export <term_id>",
		Short: "Export the allocation roster as csv or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.AllocationService()
			if err != nil {
				return err
			}
			file, err := svc.Export(app.Ctx, dto.ExportAllocationsQuery{
				TermScopeQuery: dto.TermScopeQuery{TermID: args[0], SchoolID: school},
				Format:         format,
			})
			if err != nil {
				return err
			}
			return writeExport(app, file.Filename, file.Content, out)
		},
	}
	cmd.Flags().StringVar(&school, "school", "", "Owning school ID")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or pdf")
	cmd.Flags().StringVar(&out, "out", "", "Output path, defaults to the generated filename")
	_ = cmd.MarkFlagRequired("school")
	return cmd
}

func writeExport(app *AppContext, filename string, content []byte, out string) error {
	if out == "" {
		out = filename
	}
	if err := os.WriteFile(out, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(app.Out, "wrote %s (%d bytes)\n", out, len(content))
	return nil
}
