package recon

import (
	"testing"
	"time"

	"github.com/prakasadw/billsync-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestClassifyCreate(t *testing.T) {
	src := SourceRecord{ID: "R1", Date: day("2025-03-01"), Hours: dec("2.5"), Rate: dec("100"), Amount: dec("250")}

	plan := &Plan{Mode: ModeFull}
	classify(plan, []SourceRecord{src}, nil, Options{Mode: ModeFull})

	require.Len(t, plan.ToCreate, 1)
	assert.Equal(t, "R1", plan.ToCreate[0].ID)
	assert.Equal(t, "250.00", plan.ToCreate[0].Amount.StringFixed(2))
	assert.Empty(t, plan.ToUpdate)
	assert.Empty(t, plan.ToDelete)
}

func TestClassifyUnchanged(t *testing.T) {
	src := SourceRecord{ID: "R2", Date: day("2025-03-01"), Hours: dec("3"), Rate: dec("50"), Amount: dec("150")}
	tgt := saleFor(src)

	plan := &Plan{Mode: ModeFull}
	classify(plan, []SourceRecord{src}, []model.SaleRecord{tgt}, Options{Mode: ModeFull})

	assert.Empty(t, plan.ToCreate)
	assert.Empty(t, plan.ToUpdate)
	assert.Equal(t, 1, plan.Unchanged)
}

func TestClassifyUpdate(t *testing.T) {
	src := SourceRecord{ID: "R3", Date: day("2025-03-01"), Hours: dec("4"), Rate: dec("50"), Amount: dec("200")}
	tgt := saleFor(src)
	tgt.Quantity = dec("3")
	tgt.TotalPrice = dec("150")

	plan := &Plan{Mode: ModeFull}
	classify(plan, []SourceRecord{src}, []model.SaleRecord{tgt}, Options{Mode: ModeFull})

	require.Len(t, plan.ToUpdate, 1)
	assert.Equal(t, tgt.ID, plan.ToUpdate[0].Target.ID)
	assert.Len(t, plan.ToUpdate[0].Changes, 2)
}

func TestClassifyInvoicedOrphanSkipped(t *testing.T) {
	tgt := model.SaleRecord{
		ID:        "T9",
		SourceID:  strPtr("R9"),
		Quantity:  dec("1"),
		UnitPrice: dec("10"), TotalPrice: dec("10"),
		SaleDate:  day("2025-03-01"),
		InvoiceID: strPtr("INV-1"),
	}

	plan := &Plan{Mode: ModeFull}
	classify(plan, nil, []model.SaleRecord{tgt}, Options{Mode: ModeFull, DeleteOrphaned: true})

	assert.Empty(t, plan.ToDelete)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, "T9", plan.Skipped[0].Target.ID)
	assert.Equal(t, "skipped: invoiced", plan.Skipped[0].Reason)
}

func TestClassifyInvoicedDriftNeverUpdated(t *testing.T) {
	src := SourceRecord{ID: "R10", Date: day("2025-03-01"), Hours: dec("5"), Rate: dec("80"), Amount: dec("400")}
	tgt := saleFor(src)
	tgt.Quantity = dec("2")
	tgt.InvoiceID = strPtr("INV-2")

	plan := &Plan{Mode: ModeFull}
	classify(plan, []SourceRecord{src}, []model.SaleRecord{tgt}, Options{Mode: ModeFull})

	assert.Empty(t, plan.ToUpdate)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, "skipped: invoiced", plan.Skipped[0].Reason)
}

func TestClassifyOrphanDeleteGatedByOption(t *testing.T) {
	tgt := model.SaleRecord{
		ID:       "T5",
		SourceID: strPtr("R5"),
		Quantity: dec("1"), UnitPrice: dec("10"), TotalPrice: dec("10"),
		SaleDate: day("2025-03-01"),
	}

	// default: deletions off, orphan only reported
	plan := &Plan{Mode: ModeFull}
	classify(plan, nil, []model.SaleRecord{tgt}, Options{Mode: ModeFull})
	assert.Empty(t, plan.ToDelete)
	require.Len(t, plan.Skipped, 1)

	// opt in: orphan becomes a delete candidate
	plan = &Plan{Mode: ModeFull}
	classify(plan, nil, []model.SaleRecord{tgt}, Options{Mode: ModeFull, DeleteOrphaned: true})
	require.Len(t, plan.ToDelete, 1)
	assert.Equal(t, "T5", plan.ToDelete[0].ID)
	assert.Empty(t, plan.Skipped)
}

func TestClassifyManualRowsIgnored(t *testing.T) {
	// rows without a source id were entered by hand; they are never orphans
	tgt := model.SaleRecord{
		ID:       "T6",
		Quantity: dec("1"), UnitPrice: dec("10"), TotalPrice: dec("10"),
		SaleDate: day("2025-03-01"),
	}

	plan := &Plan{Mode: ModeFull}
	classify(plan, nil, []model.SaleRecord{tgt}, Options{Mode: ModeFull, DeleteOrphaned: true})

	assert.Empty(t, plan.ToDelete)
	assert.Empty(t, plan.Skipped)
}

func TestClassifyIncrementalSkipsSyncedRows(t *testing.T) {
	src := SourceRecord{ID: "R7", Date: day("2025-03-01"), Hours: dec("6"), Rate: dec("50"), Amount: dec("300")}
	tgt := saleFor(src)
	tgt.Quantity = dec("2") // out-of-band drift
	tgt.SyncedAt = timePtr(day("2025-03-02"))

	// incremental trusts the synced marker
	plan := &Plan{Mode: ModeIncremental}
	classify(plan, []SourceRecord{src}, []model.SaleRecord{tgt}, Options{Mode: ModeIncremental})
	assert.Empty(t, plan.ToUpdate)
	assert.Equal(t, 1, plan.Unchanged)

	// full re-compares and catches the drift
	plan = &Plan{Mode: ModeFull}
	classify(plan, []SourceRecord{src}, []model.SaleRecord{tgt}, Options{Mode: ModeFull})
	require.Len(t, plan.ToUpdate, 1)
}
