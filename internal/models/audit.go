package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Audit actions recorded for ECA administration.
const (
	AuditActionAllocationRun     = "ECA_ALLOCATION_RUN"
	AuditActionAllocationPreview = "ECA_ALLOCATION_PREVIEW"
	AuditActionAllocationExport  = "ECA_ALLOCATION_EXPORT"
)

// AuditResourceTerm tags audit rows that concern a term.
const AuditResourceTerm = "term"

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string         `db:"id" json:"id"`
	UserID     *string        `db:"user_id" json:"user_id,omitempty"`
	SchoolID   *string        `db:"school_id" json:"school_id,omitempty"`
	Action     string         `db:"action" json:"action"`
	Resource   string         `db:"resource" json:"resource"`
	ResourceID *string        `db:"resource_id" json:"resource_id,omitempty"`
	Details    types.JSONText `db:"details" json:"details,omitempty"`
	Status     int            `db:"status" json:"status"`
	IPAddress  string         `db:"ip_address" json:"ip_address"`
	UserAgent  string         `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
