package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-eca-api/internal/dto"
)

func render[T any](out io.Writer, format string, value T, text func(io.Writer, T)) error {
	switch strings.ToLower(format) {
	case "", "text":
		text(out, value)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(value)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printBreakdown(w io.Writer, b dto.ChoiceBreakdown) {
	fmt.Fprintf(w, "Choices:\t1st %d\t2nd %d\t3rd %d\tforced %d\n", b.FirstChoice, b.SecondChoice, b.ThirdChoice, b.Forced)
}

func printSuggestions(out io.Writer, suggestions []dto.AllocationSuggestion) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintf(out, "\nSuggestions:\n")
	for _, s := range suggestions {
		fmt.Fprintf(out, "  [%s] %s\n", s.Priority, s.Message)
	}
}

func printResult(out io.Writer, r *dto.AllocationResult) {
	status := "SUCCESS"
	if !r.Success {
		status = "FAILED"
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Run:\t%s\n", r.RunID)
	fmt.Fprintf(w, "Term:\t%s\n", r.TermID)
	fmt.Fprintf(w, "Mode:\t%s\n", r.SelectionMode)
	fmt.Fprintf(w, "Status:\t%s\n", status)
	fmt.Fprintf(w, "Allocations:\t%d\n", r.TotalAllocations)
	fmt.Fprintf(w, "Students placed:\t%d\n", r.StudentsPlaced)
	fmt.Fprintf(w, "Waitlisted:\t%d students, %d entries\n", r.StudentsWaitlisted, r.WaitlistEntries)
	printBreakdown(w, r.ChoiceBreakdown)
	if r.IterationCapHit {
		fmt.Fprintf(w, "Iterations:\t%d (cap reached)\n", r.Iterations)
	}
	_ = w.Flush()

	for _, e := range r.Errors {
		fmt.Fprintf(out, "error: %s\n", e)
	}
	if len(r.CancelledActivities) > 0 {
		fmt.Fprintf(out, "\nCancelled: %s\n", strings.Join(r.CancelledActivities, ", "))
	}
	if len(r.AtRiskActivities) > 0 {
		fmt.Fprintf(out, "\nAt risk:\n")
		for _, a := range r.AtRiskActivities {
			fmt.Fprintf(out, "  %s %d/%d\n", a.ActivityName, a.Enrollment, a.MinCapacity)
		}
	}
	if len(r.UnplacedStudents) > 0 {
		fmt.Fprintf(out, "\nUnplaced:\n")
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, u := range r.UnplacedStudents {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", u.StudentID, u.DayOfWeek.Name(), u.TimeSlot, u.Reason)
		}
		_ = tw.Flush()
	}
	printSuggestions(out, r.Suggestions)
}

func printPreview(out io.Writer, p *dto.AllocationPreview) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Term:\t%s\n", p.TermID)
	fmt.Fprintf(w, "Mode:\t%s\n", p.SelectionMode)
	fmt.Fprintf(w, "Allocations:\t%d\n", p.TotalAllocations)
	fmt.Fprintf(w, "Waitlist entries:\t%d\n", p.WaitlistEntries)
	fmt.Fprintf(w, "Unplaced slots:\t%d\n", p.UnplacedStudents)
	printBreakdown(w, p.ChoiceBreakdown)
	_ = w.Flush()

	fmt.Fprintf(out, "\n")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTIVITY\tDAY\tSLOT\tDEMAND\tALLOCATED\tWAITLIST\tNOTE")
	for _, a := range p.Activities {
		note := ""
		if a.WouldCancel {
			note = "would cancel"
		}
		capacity := "-"
		if a.MaxCapacity > 0 {
			capacity = fmt.Sprintf("%d", a.MaxCapacity)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d (%s)\t%d/%s\t%d\t%s\n",
			a.ActivityName, a.DayOfWeek.Name(), a.TimeSlot, a.Demand, a.DemandLevel,
			a.ProjectedAllocations, capacity, a.ProjectedWaitlist, note)
	}
	_ = tw.Flush()
	printSuggestions(out, p.Suggestions)
}
