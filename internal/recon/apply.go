package recon

import (
	"context"
	"time"

	"github.com/prakasadw/billsync-backend/internal/model"
)

// Result summarizes one apply run: counts plus the per-record detail lists
// kept for history display. Partial failure is normal; counts are reported
// either way.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Errored int `json:"errored"`

	CreatedRecords []SourceRecord `json:"created_records,omitempty"`
	UpdatedRecords []UpdateEntry  `json:"updated_records,omitempty"`
	DeletedRecords []TargetRef    `json:"deleted_records,omitempty"`
	Errors         []RecordError  `json:"errors,omitempty"`
}

// Applier executes plans against the target store. Records are written one at
// a time in list order; one record's failure never aborts the batch. Write
// failures get a bounded retry with linear backoff, replacing the old habit
// of re-clicking the sync button.
type Applier struct {
	Store   TargetStore
	OrgID   string
	Retries int
	Backoff time.Duration
}

func NewApplier(store TargetStore, orgID string, retries int, backoff time.Duration) *Applier {
	if retries < 1 {
		retries = 1
	}
	return &Applier{Store: store, OrgID: orgID, Retries: retries, Backoff: backoff}
}

// Apply runs every entry of the plan. Errors from the planning stage are
// carried over into the result so a partially bad batch still reports its
// malformed rows.
func (a *Applier) Apply(ctx context.Context, plan *Plan) *Result {
	res := &Result{}
	res.Errors = append(res.Errors, plan.Errors...)

	for _, src := range plan.ToCreate {
		sale := saleFromSource(a.OrgID, src)
		if err := a.withRetry(ctx, func() error { return a.Store.InsertSale(ctx, sale) }); err != nil {
			res.Errors = append(res.Errors, RecordError{
				RecordID: src.ID,
				Stage:    "create",
				Message:  (&TargetWriteError{Op: "insert", RecordID: src.ID, Err: err}).Error(),
			})
			continue
		}
		res.Created++
		res.CreatedRecords = append(res.CreatedRecords, src)
	}

	for _, upd := range plan.ToUpdate {
		fields := fieldsOf(upd.Changes)
		if err := a.withRetry(ctx, func() error { return a.Store.UpdateSaleFields(ctx, upd.Target.ID, fields) }); err != nil {
			res.Errors = append(res.Errors, RecordError{
				RecordID: upd.Target.ID,
				Stage:    "update",
				Message:  (&TargetWriteError{Op: "update", RecordID: upd.Target.ID, Err: err}).Error(),
			})
			continue
		}
		res.Updated++
		res.UpdatedRecords = append(res.UpdatedRecords, upd)
	}

	for _, del := range plan.ToDelete {
		if err := a.withRetry(ctx, func() error { return a.Store.DeleteSale(ctx, del.ID) }); err != nil {
			res.Errors = append(res.Errors, RecordError{
				RecordID: del.ID,
				Stage:    "delete",
				Message:  (&TargetWriteError{Op: "delete", RecordID: del.ID, Err: err}).Error(),
			})
			continue
		}
		res.Deleted++
		res.DeletedRecords = append(res.DeletedRecords, del)
	}

	res.Errored = len(res.Errors)
	return res
}

func (a *Applier) withRetry(ctx context.Context, write func() error) error {
	var err error
	for attempt := 0; attempt < a.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.Backoff * time.Duration(attempt)):
			}
		}
		if err = write(); err == nil {
			return nil
		}
	}
	return err
}

func saleFromSource(orgID string, src SourceRecord) *model.SaleRecord {
	sourceID := src.ID
	return &model.SaleRecord{
		OrgID:       orgID,
		SourceID:    &sourceID,
		CustomerID:  src.CustomerID,
		ProjectID:   src.ProjectID,
		Description: src.Description,
		Quantity:    src.Hours,
		UnitPrice:   src.Rate,
		TotalPrice:  src.Amount,
		SaleDate:    src.Date,
	}
}

// fieldsOf turns a change list into the column map passed to the store.
// Only changed fields are written.
func fieldsOf(changes []FieldChange) map[string]interface{} {
	fields := make(map[string]interface{}, len(changes))
	for _, ch := range changes {
		fields[ch.Field] = ch.New
	}
	return fields
}
