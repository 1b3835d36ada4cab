package recon

import (
	"testing"
	"time"

	"github.com/prakasadw/billsync-backend/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func saleFor(src SourceRecord) model.SaleRecord {
	id := src.ID
	return model.SaleRecord{
		ID:          "T-" + src.ID,
		SourceID:    &id,
		Description: src.Description,
		Quantity:    src.Hours,
		UnitPrice:   src.Rate,
		TotalPrice:  src.Amount,
		SaleDate:    src.Date,
	}
}

func TestCompareUnchanged(t *testing.T) {
	src := SourceRecord{
		ID:    "R2",
		Date:  day("2025-03-01"),
		Hours: dec("3"), Rate: dec("50"), Amount: dec("150"),
	}
	tgt := model.SaleRecord{
		Quantity: dec("3"), UnitPrice: dec("50"), TotalPrice: dec("150"),
		SaleDate: day("2025-03-01"),
	}

	assert.Empty(t, Compare(src, tgt))
}

func TestCompareIgnoresFloatNoise(t *testing.T) {
	src := SourceRecord{
		Date:  day("2025-03-01"),
		Hours: dec("3"), Rate: dec("50.004"), Amount: dec("150.00"),
	}
	tgt := model.SaleRecord{
		Quantity: dec("3.001"), UnitPrice: dec("50"), TotalPrice: dec("149.999"),
		SaleDate: day("2025-03-01"),
	}

	// everything rounds to the same two decimals
	assert.Empty(t, Compare(src, tgt))
}

func TestCompareFieldOrderAndDisplay(t *testing.T) {
	src := SourceRecord{
		Date:        day("2025-03-02"),
		Hours:       dec("4"),
		Rate:        dec("60"),
		Amount:      dec("240"),
		Description: "new text",
	}
	tgt := model.SaleRecord{
		Quantity:    dec("3"),
		UnitPrice:   dec("50"),
		TotalPrice:  dec("150"),
		SaleDate:    day("2025-03-01"),
		Description: "old text",
	}

	changes := Compare(src, tgt)
	require.Len(t, changes, 5)

	fields := make([]string, len(changes))
	for i, ch := range changes {
		fields[i] = ch.Field
	}
	assert.Equal(t, []string{
		FieldQuantity, FieldUnitPrice, FieldTotalPrice, FieldSaleDate, FieldDescription,
	}, fields)

	assert.Equal(t, "3.00", changes[0].OldDisplay)
	assert.Equal(t, "4.00", changes[0].NewDisplay)
	assert.Equal(t, "150.00", changes[2].OldDisplay)
	assert.Equal(t, "240.00", changes[2].NewDisplay)

	// date and description carry no currency display
	assert.Empty(t, changes[3].OldDisplay)
	assert.Equal(t, "2025-03-01", changes[3].Old)
	assert.Equal(t, "2025-03-02", changes[3].New)
	assert.Equal(t, "old text", changes[4].Old)
	assert.Equal(t, "new text", changes[4].New)
}

func TestCompareSingleFieldChange(t *testing.T) {
	src := SourceRecord{
		Date:  day("2025-03-01"),
		Hours: dec("3"), Rate: dec("50"), Amount: dec("150"),
	}
	tgt := model.SaleRecord{
		Quantity: dec("3"), UnitPrice: dec("50"), TotalPrice: dec("175"),
		SaleDate: day("2025-03-01"),
	}

	changes := Compare(src, tgt)
	require.Len(t, changes, 1)
	assert.Equal(t, FieldTotalPrice, changes[0].Field)
}
