package models

import "time"

// TermStatus tracks where a term sits in the ECA selection lifecycle.
type TermStatus string

const (
	TermStatusDraft              TermStatus = "DRAFT"
	TermStatusSelectionOpen      TermStatus = "SELECTION_OPEN"
	TermStatusSelectionClosed    TermStatus = "SELECTION_CLOSED"
	TermStatusAllocationRunning  TermStatus = "ALLOCATION_RUNNING"
	TermStatusAllocationComplete TermStatus = "ALLOCATION_COMPLETE"
)

// Term models an ECA term owned by a school.
type Term struct {
	ID            string     `db:"id" json:"id"`
	SchoolID      string     `db:"school_id" json:"school_id"`
	Name          string     `db:"name" json:"name"`
	Status        TermStatus `db:"status" json:"status"`
	AllocationRun bool       `db:"allocation_run" json:"allocation_run"`
	StartDate     time.Time  `db:"start_date" json:"start_date"`
	EndDate       time.Time  `db:"end_date" json:"end_date"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// School carries the settings the allocator reads from the owning school.
type School struct {
	ID               string        `db:"id" json:"id"`
	Name             string        `db:"name" json:"name"`
	ECASelectionMode SelectionMode `db:"eca_selection_mode" json:"eca_selection_mode"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}
