package recon

import "time"

type Mode string

const (
	ModeIncremental Mode = "incremental"
	ModeFull        Mode = "full"
)

// Options controls one reconciliation pass. DeleteOrphaned defaults to off:
// deletions are destructive, so orphan cleanup is opt-in per run.
type Options struct {
	Mode           Mode
	DeleteOrphaned bool
}

// UpdateEntry pairs a target row with the field changes needed to bring it in
// line with its source record.
type UpdateEntry struct {
	Target  TargetRef     `json:"target"`
	Changes []FieldChange `json:"changes"`
}

// TargetRef identifies a customer_sales row in a plan without dragging the
// whole row into the payload.
type TargetRef struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// SkippedEntry reports a row excluded from the plan, with the reason shown in
// the preview ("skipped: invoiced" for billed orphans).
type SkippedEntry struct {
	Target TargetRef `json:"target"`
	Reason string    `json:"reason"`
}

// RecordError is one per-record failure, during planning (malformed rows) or
// during apply (rejected writes).
type RecordError struct {
	RecordID string `json:"record_id"`
	Stage    string `json:"stage"` // normalize | create | update | delete
	Message  string `json:"message"`
}

// Plan is the computed set of writes needed to reconcile customer_sales with
// devRecords over one date range. Producing a plan never mutates the store.
type Plan struct {
	Start     time.Time      `json:"start"`
	End       time.Time      `json:"end"`
	Mode      Mode           `json:"mode"`
	ToCreate  []SourceRecord `json:"to_create"`
	ToUpdate  []UpdateEntry  `json:"to_update"`
	ToDelete  []TargetRef    `json:"to_delete"`
	Skipped   []SkippedEntry `json:"skipped,omitempty"`
	Errors    []RecordError  `json:"errors,omitempty"`
	Unchanged int            `json:"unchanged"`
}

type Counts struct {
	Creates   int `json:"creates"`
	Updates   int `json:"updates"`
	Deletes   int `json:"deletes"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

func (p *Plan) Counts() Counts {
	return Counts{
		Creates:   len(p.ToCreate),
		Updates:   len(p.ToUpdate),
		Deletes:   len(p.ToDelete),
		Unchanged: p.Unchanged,
		Skipped:   len(p.Skipped),
		Errors:    len(p.Errors),
	}
}

// InSync reports whether the range needs no writes at all.
func (p *Plan) InSync() bool {
	return len(p.ToCreate) == 0 && len(p.ToUpdate) == 0 && len(p.ToDelete) == 0 && len(p.Errors) == 0
}

// Status is the lightweight answer for the check endpoint.
type Status struct {
	InSync bool   `json:"in_sync"`
	Counts Counts `json:"counts"`
}
