package model

import (
	"encoding/json"
	"time"
)

// SyncRun is one recorded reconciliation pass: a preview, a review (dry-run
// marker) or an apply. History rows double as the "pending since" marker for
// drift reviewed but not yet applied.
type SyncRun struct {
	ID           string          `json:"id"`
	OrgID        string          `json:"org_id"`
	RunType      string          `json:"run_type"` // preview | review | apply
	Mode         string          `json:"mode"`     // incremental | full
	RangeStart   time.Time       `json:"range_start"`
	RangeEnd     time.Time       `json:"range_end"`
	Status       string          `json:"status"`
	CreatedCount int             `json:"created_count"`
	UpdatedCount int             `json:"updated_count"`
	DeletedCount int             `json:"deleted_count"`
	ErrorCount   int             `json:"error_count"`
	DurationMs   int64           `json:"duration_ms"`
	Details      json.RawMessage `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type SyncRequest struct {
	Start          string `json:"start" binding:"required"`
	End            string `json:"end" binding:"required"`
	Mode           string `json:"mode"`
	DeleteOrphaned bool   `json:"delete_orphaned"`
}
