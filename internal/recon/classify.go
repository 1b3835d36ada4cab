package recon

import "github.com/prakasadw/billsync-backend/internal/model"

const skipReasonInvoiced = "skipped: invoiced"

// classify buckets every normalized source record as create, update or
// unchanged against the fetched target rows, then walks the targets the other
// way to find delete candidates (rows whose source id no longer exists
// upstream). Billed rows never become updates or deletes.
func classify(plan *Plan, sources []SourceRecord, targets []model.SaleRecord, opts Options) {
	bySourceID := make(map[string]model.SaleRecord, len(targets))
	for _, t := range targets {
		if t.SourceID != nil && *t.SourceID != "" {
			bySourceID[*t.SourceID] = t
		}
	}

	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		seen[src.ID] = true

		tgt, exists := bySourceID[src.ID]
		if !exists {
			plan.ToCreate = append(plan.ToCreate, src)
			continue
		}

		// Incremental runs trust rows already marked synced; only a full run
		// re-compares them, which is what catches out-of-band edits.
		if opts.Mode == ModeIncremental && tgt.SyncedAt != nil {
			plan.Unchanged++
			continue
		}

		if tgt.Invoiced() {
			// Billed rows are frozen even when they drifted.
			if len(Compare(src, tgt)) > 0 {
				plan.Skipped = append(plan.Skipped, SkippedEntry{Target: refOf(tgt), Reason: skipReasonInvoiced})
			} else {
				plan.Unchanged++
			}
			continue
		}

		if changes := Compare(src, tgt); len(changes) > 0 {
			plan.ToUpdate = append(plan.ToUpdate, UpdateEntry{Target: refOf(tgt), Changes: changes})
		} else {
			plan.Unchanged++
		}
	}

	// Orphan pass: synced rows whose source entry is gone from the current fetch.
	for _, t := range targets {
		if t.SourceID == nil || *t.SourceID == "" || seen[*t.SourceID] {
			continue
		}
		if t.Invoiced() {
			plan.Skipped = append(plan.Skipped, SkippedEntry{Target: refOf(t), Reason: skipReasonInvoiced})
			continue
		}
		if opts.DeleteOrphaned {
			plan.ToDelete = append(plan.ToDelete, refOf(t))
		} else {
			plan.Skipped = append(plan.Skipped, SkippedEntry{Target: refOf(t), Reason: "skipped: orphaned (delete disabled)"})
		}
	}
}

func refOf(t model.SaleRecord) TargetRef {
	ref := TargetRef{ID: t.ID, Description: t.Description}
	if t.SourceID != nil {
		ref.SourceID = *t.SourceID
	}
	return ref
}
