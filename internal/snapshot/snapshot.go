// Package snapshot loads term fixtures from YAML so allocation runs can be simulated without a database.
package snapshot

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-eca-api/internal/models"
	"github.com/noah-isme/sma-eca-api/internal/repository"
)

var validate = validator.New()

// School is the owning school of the simulated term.
type School struct {
	ID            string `yaml:"id" validate:"required"`
	Name          string `yaml:"name"`
	SelectionMode string `yaml:"selectionMode" validate:"omitempty,oneof=FIRST_COME_FIRST_SERVED SMART_ALLOCATION"`
}

// Term is the simulated term. Status defaults to SELECTION_CLOSED.
type Term struct {
	ID     string `yaml:"id" validate:"required"`
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
}

// Student names a student and their year group.
type Student struct {
	ID        string `yaml:"id" validate:"required"`
	Name      string `yaml:"name"`
	YearGroup string `yaml:"yearGroup"`
}

// Snapshot is a complete term fixture. Activities listed here are active; mark them isCancelled to exclude them.
type Snapshot struct {
	School      School                 `yaml:"school"`
	Term        Term                   `yaml:"term"`
	Students    []Student              `yaml:"students" validate:"dive"`
	Activities  []models.ECAActivity   `yaml:"activities" validate:"required,min=1"`
	Selections  []models.ECASelection  `yaml:"selections"`
	Allocations []models.ECAAllocation `yaml:"allocations"`
}

// Load reads and validates a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates snapshot YAML.
func Parse(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks field rules and cross references between activities, students and selections.
func (s *Snapshot) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("snapshot validation failed: %w", err)
	}

	activities := make(map[string]models.ECAActivity, len(s.Activities))
	for i, activity := range s.Activities {
		switch {
		case activity.ID == "":
			return fmt.Errorf("activities[%d]: id is required", i)
		case activity.DayOfWeek < 1 || activity.DayOfWeek > 7:
			return fmt.Errorf("activity %s: dayOfWeek must be 1-7", activity.ID)
		case !activity.TimeSlot.Valid():
			return fmt.Errorf("activity %s: unknown timeSlot %q", activity.ID, activity.TimeSlot)
		}
		if _, dup := activities[activity.ID]; dup {
			return fmt.Errorf("activity %s: duplicate id", activity.ID)
		}
		activities[activity.ID] = activity
	}

	students := make(map[string]struct{}, len(s.Students))
	for _, student := range s.Students {
		students[student.ID] = struct{}{}
	}

	for i, selection := range s.Selections {
		if _, ok := activities[selection.ActivityID]; !ok {
			return fmt.Errorf("selections[%d]: unknown activity %q", i, selection.ActivityID)
		}
		if _, ok := students[selection.StudentID]; !ok {
			return fmt.Errorf("selections[%d]: unknown student %q", i, selection.StudentID)
		}
		if selection.Rank < 1 {
			return fmt.Errorf("selections[%d]: rank must be at least 1", i)
		}
	}

	for i, allocation := range s.Allocations {
		if _, ok := activities[allocation.ActivityID]; !ok {
			return fmt.Errorf("allocations[%d]: unknown activity %q", i, allocation.ActivityID)
		}
		if !allocation.AllocationType.Preserved() {
			return fmt.Errorf("allocations[%d]: only COMPULSORY and INVITED allocations can be seeded", i)
		}
	}
	return nil
}

// Seed loads the snapshot into a fresh memory store. base stamps selections that carry no createdAt,
// one second apart in file order.
func (s *Snapshot) Seed(base time.Time) *repository.MemoryStore {
	store := repository.NewMemoryStore()

	store.SeedSchool(models.School{ID: s.School.ID, Name: s.School.Name, ECASelectionMode: models.SelectionMode(s.School.SelectionMode)})

	status := models.TermStatus(s.Term.Status)
	if status == "" {
		status = models.TermStatusSelectionClosed
	}
	store.SeedTerm(models.Term{ID: s.Term.ID, SchoolID: s.School.ID, Name: s.Term.Name, Status: status, CreatedAt: base, UpdatedAt: base})

	yearGroups := make(map[string]string, len(s.Students))
	for _, student := range s.Students {
		store.SeedStudent(student.ID, student.Name)
		yearGroups[student.ID] = student.YearGroup
	}

	activities := make(map[string]models.ECAActivity, len(s.Activities))
	for _, activity := range s.Activities {
		activity.SchoolID = s.School.ID
		activity.TermID = s.Term.ID
		activity.IsActive = true
		if activity.ActivityType == "" {
			activity.ActivityType = models.ActivityTypeOpen
		}
		activity.CreatedAt = base
		activity.UpdatedAt = base
		activities[activity.ID] = activity
		store.SeedActivities(activity)
	}

	for i, selection := range s.Selections {
		if selection.ID == "" {
			selection.ID = fmt.Sprintf("sel-%03d", i+1)
		}
		selection.TermID = s.Term.ID
		if selection.StudentYearGroupID == "" {
			selection.StudentYearGroupID = yearGroups[selection.StudentID]
		}
		if selection.CreatedAt.IsZero() {
			selection.CreatedAt = base.Add(time.Duration(i) * time.Second)
		}
		store.SeedSelections(selection)
	}

	for i, allocation := range s.Allocations {
		activity := activities[allocation.ActivityID]
		if allocation.ID == "" {
			allocation.ID = fmt.Sprintf("alloc-%03d", i+1)
		}
		allocation.TermID = s.Term.ID
		allocation.DayOfWeek = activity.DayOfWeek
		allocation.TimeSlot = activity.TimeSlot
		if allocation.Status == "" {
			allocation.Status = models.AllocationStatusConfirmed
		}
		allocation.CreatedAt = base
		store.SeedAllocations(allocation)
	}

	return store
}
