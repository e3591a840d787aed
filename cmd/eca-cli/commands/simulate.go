package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/allocation"
	"github.com/noah-isme/sma-eca-api/internal/dto"
	"github.com/noah-isme/sma-eca-api/internal/service"
	"github.com/noah-isme/sma-eca-api/internal/snapshot"
)

type simulateFlags struct {
	runFlags
	snapshot  string
	seed      int64
	factor    int
	preview   bool
	exportFmt string
	exportOut string
}

// SimulateCmd runs the allocation engine over a YAML snapshot entirely in memory.
func SimulateCmd(app *AppContext) *cobra.Command {
	flags := &simulateFlags{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate an allocation run from a YAML term snapshot",
		Long: `Loads a term snapshot (school, term, students, activities, selections and preserved allocations)
into memory and runs the allocation exactly as the API would, without touching the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := flags.selectionMode()
			if err != nil {
				return err
			}
			snap, err := snapshot.Load(flags.snapshot)
			if err != nil {
				return err
			}
			app.Logger.Debug("snapshot loaded",
				zap.String("term_id", snap.Term.ID),
				zap.Int("activities", len(snap.Activities)),
				zap.Int("selections", len(snap.Selections)))

			store := snap.Seed(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
			engine := allocation.NewEngine(allocation.NewRandomSource(flags.seed), app.Logger.Named("allocation"), flags.factor)
			svc := newService(service.NewMemoryECAStores(store), engine, app.Logger, service.ECAAllocationConfig{})

			if flags.preview {
				preview, err := svc.Preview(app.Ctx, dto.PreviewAllocationRequest{TermID: snap.Term.ID, SchoolID: snap.School.ID, SelectionMode: mode})
				if err != nil {
					return err
				}
				return render(app.Out, flags.output, preview, printPreview)
			}

			cancel := !flags.noCancel
			result, err := svc.Run(app.Ctx, dto.RunAllocationRequest{
				TermID:             snap.Term.ID,
				SchoolID:           snap.School.ID,
				SelectionMode:      mode,
				CancelBelowMinimum: &cancel,
			})
			if err != nil {
				return err
			}
			if err := render(app.Out, flags.output, result, printResult); err != nil {
				return err
			}
			if !result.Success {
				return errRunFailed
			}

			if flags.exportFmt != "" {
				file, err := svc.Export(app.Ctx, dto.ExportAllocationsQuery{
					TermScopeQuery: dto.TermScopeQuery{TermID: snap.Term.ID, SchoolID: snap.School.ID},
					Format:         flags.exportFmt,
				})
				if err != nil {
					return err
				}
				return writeExport(app, file.Filename, file.Content, flags.exportOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.snapshot, "snapshot", "s", "", "Path to the YAML snapshot")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "FCFS or SMART, defaults to the snapshot school setting")
	cmd.Flags().BoolVar(&flags.noCancel, "no-cancel", false, "Keep activities that miss their minimum enrollment")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "text, json or yaml")
	cmd.Flags().Int64Var(&flags.seed, "seed", 1, "Random seed for SMART tie breaks, 0 picks one from the clock")
	cmd.Flags().IntVar(&flags.factor, "iteration-factor", allocation.DefaultIterationFactor, "Proposal cap per proposer in each slot")
	cmd.Flags().BoolVar(&flags.preview, "preview", false, "Report projections without applying the run")
	cmd.Flags().StringVar(&flags.exportFmt, "export", "", "Also write the roster as csv or pdf")
	cmd.Flags().StringVar(&flags.exportOut, "export-out", "", "Roster output path")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}
