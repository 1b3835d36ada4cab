package recon

import (
	"time"

	"github.com/prakasadw/billsync-backend/internal/model"
	"github.com/shopspring/decimal"
)

// FieldChange is one field-level difference between a source record and its
// target row. For currency fields OldDisplay/NewDisplay carry the two-decimal
// representations shown in the preview.
type FieldChange struct {
	Field      string      `json:"field"`
	Old        interface{} `json:"old"`
	New        interface{} `json:"new"`
	OldDisplay string      `json:"old_display,omitempty"`
	NewDisplay string      `json:"new_display,omitempty"`
}

// Compared columns, in the order they show up in a preview.
const (
	FieldQuantity    = "quantity"
	FieldUnitPrice   = "unit_price"
	FieldTotalPrice  = "total_price"
	FieldSaleDate    = "sale_date"
	FieldDescription = "description"
)

// Compare diffs a normalized source record against its existing target row.
// Currency fields are compared after rounding to two decimals so float noise
// from upstream is not flagged as a change. An empty result means the record
// is unchanged.
func Compare(src SourceRecord, tgt model.SaleRecord) []FieldChange {
	var changes []FieldChange

	if ch, ok := currencyChange(FieldQuantity, tgt.Quantity, src.Hours); ok {
		changes = append(changes, ch)
	}
	if ch, ok := currencyChange(FieldUnitPrice, tgt.UnitPrice, src.Rate); ok {
		changes = append(changes, ch)
	}
	if ch, ok := currencyChange(FieldTotalPrice, tgt.TotalPrice, src.Amount); ok {
		changes = append(changes, ch)
	}
	if !sameDay(tgt.SaleDate, src.Date) {
		changes = append(changes, FieldChange{
			Field: FieldSaleDate,
			Old:   tgt.SaleDate.Format("2006-01-02"),
			New:   src.Date.Format("2006-01-02"),
		})
	}
	if tgt.Description != src.Description {
		changes = append(changes, FieldChange{
			Field: FieldDescription,
			Old:   tgt.Description,
			New:   src.Description,
		})
	}
	return changes
}

func currencyChange(field string, old, new_ decimal.Decimal) (FieldChange, bool) {
	oldR := old.Round(2)
	newR := new_.Round(2)
	if oldR.Equal(newR) {
		return FieldChange{}, false
	}
	return FieldChange{
		Field:      field,
		Old:        old,
		New:        newR,
		OldDisplay: oldR.StringFixed(2),
		NewDisplay: newR.StringFixed(2),
	}, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
