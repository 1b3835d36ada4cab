package recon

import (
	"context"
	"time"

	"github.com/prakasadw/billsync-backend/internal/model"
)

// SourceFetcher pulls raw billable time entries from the tracking system.
type SourceFetcher interface {
	FetchEntries(ctx context.Context, start, end time.Time) ([]map[string]interface{}, error)
}

// TargetStore is the slice of the sales repository the reconciler and applier
// need. Implementations must enforce source-id uniqueness per org and refuse
// updates/deletes of invoiced rows.
type TargetStore interface {
	QuerySalesRange(ctx context.Context, orgID string, start, end time.Time) ([]model.SaleRecord, error)
	InsertSale(ctx context.Context, sale *model.SaleRecord) error
	UpdateSaleFields(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteSale(ctx context.Context, id string) error
}

// Reconciler computes sync plans for a date range. It reads both sides and
// never writes; applying a plan is the Applier's job.
type Reconciler struct {
	Source SourceFetcher
	Store  TargetStore
	OrgID  string
	norm   *Normalizer
}

func NewReconciler(source SourceFetcher, store TargetStore, orgID string, fields FieldMap) (*Reconciler, error) {
	norm, err := NewNormalizer(fields)
	if err != nil {
		return nil, err
	}
	return &Reconciler{Source: source, Store: store, OrgID: orgID, norm: norm}, nil
}

// Plan fetches both sides over the inclusive range [start, end], normalizes
// the source rows and classifies everything. A failed fetch on either side
// aborts the pass as a FetchError with no partial plan.
func (r *Reconciler) Plan(ctx context.Context, start, end time.Time, opts Options) (*Plan, error) {
	if opts.Mode == "" {
		opts.Mode = ModeIncremental
	}

	raws, err := r.Source.FetchEntries(ctx, start, end)
	if err != nil {
		return nil, &FetchError{System: "devrecords", Err: err}
	}
	targets, err := r.Store.QuerySalesRange(ctx, r.OrgID, start, end)
	if err != nil {
		return nil, &FetchError{System: "customer_sales", Err: err}
	}

	plan := &Plan{Start: start, End: end, Mode: opts.Mode}

	sources := make([]SourceRecord, 0, len(raws))
	for _, raw := range raws {
		src, err := r.norm.Normalize(raw)
		if err != nil {
			mErr, _ := err.(*MalformedRecordError)
			id := ""
			if mErr != nil {
				id = mErr.SourceID
			}
			plan.Errors = append(plan.Errors, RecordError{RecordID: id, Stage: "normalize", Message: err.Error()})
			continue
		}
		sources = append(sources, src)
	}

	classify(plan, sources, targets, opts)
	return plan, nil
}

// CheckStatus answers "is this range in sync" without building the full
// preview payload on the caller's side.
func (r *Reconciler) CheckStatus(ctx context.Context, start, end time.Time, opts Options) (Status, error) {
	plan, err := r.Plan(ctx, start, end, opts)
	if err != nil {
		return Status{}, err
	}
	return Status{InSync: plan.InSync(), Counts: plan.Counts()}, nil
}
