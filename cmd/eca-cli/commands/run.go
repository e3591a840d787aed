package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/dto"
	"github.com/noah-isme/sma-eca-api/internal/models"
)

var errRunFailed = errors.New("allocation run did not succeed")

type runFlags struct {
	school   string
	mode     string
	noCancel bool
	output   string
}

func (f *runFlags) bind(cmd *cobra.Command, withCancel bool) {
	cmd.Flags().StringVar(&f.school, "school", "", "Owning school ID")
	cmd.Flags().StringVar(&f.mode, "mode", "", "FCFS or SMART, defaults to the school setting")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "text, json or yaml")
	if withCancel {
		cmd.Flags().BoolVar(&f.noCancel, "no-cancel", false, "Keep activities that miss their minimum enrollment")
	}
	_ = cmd.MarkFlagRequired("school")
}

// selectionMode normalises the --mode flag. Empty means defer to the school.
func (f *runFlags) selectionMode() (string, error) {
	if f.mode == "" {
		return "", nil
	}
	mode, ok := models.ParseSelectionMode(f.mode)
	if !ok {
		return "", errors.New("--mode must be FCFS or SMART")
	}
	return string(mode), nil
}

// RunCmd runs and persists an allocation for a term.
func RunCmd(app *AppContext) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <term_id>",
		Short: "Run the allocation for a term and persist the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := flags.selectionMode()
			if err != nil {
				return err
			}
			svc, err := app.AllocationService()
			if err != nil {
				return err
			}
			cancel := !flags.noCancel
			app.Logger.Debug("run command", zap.String("term_id", args[0]), zap.String("mode", mode), zap.Bool("cancel_below_minimum", cancel))

			result, err := svc.Run(app.Ctx, dto.RunAllocationRequest{
				TermID:             args[0],
				SchoolID:           flags.school,
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
			return nil
		},
	}
	flags.bind(cmd, true)
	return cmd
}

// PreviewCmd simulates a run against live data without writing.
func PreviewCmd(app *AppContext) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "preview <term_id>",
		Short: "Show what an allocation run would do without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := flags.selectionMode()
			if err != nil {
				return err
			}
			svc, err := app.AllocationService()
			if err != nil {
				return err
			}
			preview, err := svc.Preview(app.Ctx, dto.PreviewAllocationRequest{TermID: args[0], SchoolID: flags.school, SelectionMode: mode})
			if err != nil {
				return err
			}
			return render(app.Out, flags.output, preview, printPreview)
		},
	}
	flags.bind(cmd, false)
	return cmd
}
