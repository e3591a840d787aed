package dto

import (
	"time"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// RunAllocationRequest triggers an allocation run for a term.
type RunAllocationRequest struct {
	TermID             string `json:"termId" validate:"required"`
	SchoolID           string `json:"schoolId" validate:"required"`
	SelectionMode      string `json:"selectionMode" validate:"omitempty,oneof=FIRST_COME_FIRST_SERVED SMART_ALLOCATION"`
	CancelBelowMinimum *bool  `json:"cancelBelowMinimum"`
}

// PreviewAllocationRequest simulates a run without persisting anything.
type PreviewAllocationRequest struct {
	TermID        string `json:"termId" validate:"required"`
	SchoolID      string `json:"schoolId" validate:"required"`
	SelectionMode string `json:"selectionMode" validate:"omitempty,oneof=FIRST_COME_FIRST_SERVED SMART_ALLOCATION"`
}

// TermScopeQuery identifies a term and its owning school on read endpoints.
type TermScopeQuery struct {
	TermID   string `form:"-" json:"termId" validate:"required"`
	SchoolID string `form:"schoolId" json:"schoolId" validate:"required"`
}

// ExportAllocationsQuery selects the roster export format.
type ExportAllocationsQuery struct {
	TermScopeQuery
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}

// ChoiceBreakdown reports how many allocations satisfied each preference tier.
type ChoiceBreakdown struct {
	FirstChoice  int `json:"firstChoice"`
	SecondChoice int `json:"secondChoice"`
	ThirdChoice  int `json:"thirdChoice"`
	Forced       int `json:"forced"`
}

// AtRiskActivity is an activity left running below its minimum enrollment.
type AtRiskActivity struct {
	ActivityID   string `json:"activityId"`
	ActivityName string `json:"activityName"`
	Enrollment   int    `json:"enrollment"`
	MinCapacity  int    `json:"minCapacity"`
}

// UnplacedStudent is a student slot without an allocation after the run.
type UnplacedStudent struct {
	StudentID string           `json:"studentId"`
	DayOfWeek models.DayOfWeek `json:"dayOfWeek"`
	TimeSlot  models.TimeSlot  `json:"timeSlot"`
	Reason    string           `json:"reason"`
}

// AllocationSuggestion is a ranked follow-up for administrators.
type AllocationSuggestion struct {
	Type         string `json:"type"`
	Priority     string `json:"priority"`
	ActivityID   string `json:"activityId,omitempty"`
	ActivityName string `json:"activityName,omitempty"`
	Value        int    `json:"value,omitempty"`
	Message      string `json:"message"`
}

// AllocationResult is returned by every allocation run. Callers must check Success.
type AllocationResult struct {
	RunID               string                 `json:"runId"`
	TermID              string                 `json:"termId"`
	SchoolID            string                 `json:"schoolId"`
	SelectionMode       models.SelectionMode   `json:"selectionMode"`
	Success             bool                   `json:"success"`
	Errors              []string               `json:"errors"`
	TotalAllocations    int                    `json:"totalAllocations"`
	StudentsPlaced      int                    `json:"studentsPlaced"`
	StudentsWaitlisted  int                    `json:"studentsWaitlisted"`
	WaitlistEntries     int                    `json:"waitlistEntries"`
	ChoiceBreakdown     ChoiceBreakdown        `json:"choiceBreakdown"`
	CancelledActivities []string               `json:"cancelledActivities"`
	AtRiskActivities    []AtRiskActivity       `json:"atRiskActivities"`
	UnplacedStudents    []UnplacedStudent      `json:"unplacedStudents"`
	Suggestions         []AllocationSuggestion `json:"suggestions"`
	Iterations          int                    `json:"iterations"`
	IterationCapHit     bool                   `json:"iterationCapHit"`
	StartedAt           time.Time              `json:"startedAt"`
	FinishedAt          time.Time              `json:"finishedAt"`
}

// AllocationRunAccepted acknowledges an asynchronous run.
type AllocationRunAccepted struct {
	RunID  string `json:"runId"`
	TermID string `json:"termId"`
	Status string `json:"status"`
}

// ActivityProjection is the projected state of one activity in a preview.
type ActivityProjection struct {
	ActivityID           string           `json:"activityId"`
	ActivityName         string           `json:"activityName"`
	DayOfWeek            models.DayOfWeek `json:"dayOfWeek"`
	TimeSlot             models.TimeSlot  `json:"timeSlot"`
	MaxCapacity          int              `json:"maxCapacity"`
	MinCapacity          int              `json:"minCapacity"`
	Demand               int              `json:"demand"`
	DemandLevel          string           `json:"demandLevel"`
	ProjectedAllocations int              `json:"projectedAllocations"`
	ProjectedWaitlist    int              `json:"projectedWaitlist"`
	WouldCancel          bool             `json:"wouldCancel"`
}

// AllocationPreview is a non-committing simulation of a run.
type AllocationPreview struct {
	TermID           string                 `json:"termId"`
	SchoolID         string                 `json:"schoolId"`
	SelectionMode    models.SelectionMode   `json:"selectionMode"`
	Activities       []ActivityProjection   `json:"activities"`
	WouldCancel      []string               `json:"wouldCancel"`
	TotalAllocations int                    `json:"totalAllocations"`
	WaitlistEntries  int                    `json:"waitlistEntries"`
	UnplacedStudents int                    `json:"unplacedStudents"`
	ChoiceBreakdown  ChoiceBreakdown        `json:"choiceBreakdown"`
	Suggestions      []AllocationSuggestion `json:"suggestions"`
}

// WaitlistItem is a waitlist row enriched for display.
type WaitlistItem struct {
	ActivityID   string    `json:"activityId"`
	ActivityName string    `json:"activityName"`
	StudentID    string    `json:"studentId"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"createdAt"`
}
