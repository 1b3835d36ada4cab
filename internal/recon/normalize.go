package recon

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SourceRecord is one billable time entry after normalization: numerics parsed,
// amount recomputed. Immutable once built; re-fetched fresh every run.
type SourceRecord struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id"`
	ProjectID   string          `json:"project_id"`
	Date        time.Time       `json:"date"`
	Hours       decimal.Decimal `json:"hours"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// FieldMap names the keys of the external devRecords schema that hold each
// canonical field. Validated once at startup so schema drift fails fast
// instead of surfacing as empty records mid-run.
type FieldMap struct {
	ID          string
	CustomerID  string
	ProjectID   string
	Date        string
	Hours       string
	Rate        string
	Description string
}

// DefaultFieldMap matches the devRecords v1 entries payload.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		ID:          "id",
		CustomerID:  "customer_id",
		ProjectID:   "project_id",
		Date:        "date",
		Hours:       "hours",
		Rate:        "rate",
		Description: "description",
	}
}

func (m FieldMap) Validate() error {
	pairs := map[string]string{
		"id":          m.ID,
		"customer_id": m.CustomerID,
		"project_id":  m.ProjectID,
		"date":        m.Date,
		"hours":       m.Hours,
		"rate":        m.Rate,
		"description": m.Description,
	}
	seen := map[string]string{}
	for canon, key := range pairs {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("field map: no source key for %s", canon)
		}
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("field map: source key %q mapped to both %s and %s", key, prev, canon)
		}
		seen[key] = canon
	}
	return nil
}

// Normalizer converts raw devRecords rows into SourceRecords.
type Normalizer struct {
	fields FieldMap
}

func NewNormalizer(fields FieldMap) (*Normalizer, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{fields: fields}, nil
}

// Normalize coerces hours and rate to decimals and recomputes the amount as
// hours x rate rounded to two decimals. The upstream pre-computed amount is
// never trusted. Missing or non-numeric hours/rate yields a
// MalformedRecordError.
func (n *Normalizer) Normalize(raw map[string]interface{}) (SourceRecord, error) {
	id := stringField(raw, n.fields.ID)

	hours, err := decimalField(raw, n.fields.Hours)
	if err != nil {
		return SourceRecord{}, &MalformedRecordError{SourceID: id, Field: n.fields.Hours, Reason: err.Error()}
	}
	rate, err := decimalField(raw, n.fields.Rate)
	if err != nil {
		return SourceRecord{}, &MalformedRecordError{SourceID: id, Field: n.fields.Rate, Reason: err.Error()}
	}

	date, err := timeField(raw, n.fields.Date)
	if err != nil {
		return SourceRecord{}, &MalformedRecordError{SourceID: id, Field: n.fields.Date, Reason: err.Error()}
	}

	return SourceRecord{
		ID:          id,
		CustomerID:  stringField(raw, n.fields.CustomerID),
		ProjectID:   stringField(raw, n.fields.ProjectID),
		Date:        date,
		Hours:       hours,
		Rate:        rate,
		Amount:      hours.Mul(rate).Round(2),
		Description: stringField(raw, n.fields.Description),
	}, nil
}

func stringField(raw map[string]interface{}, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

// decimalField parses a numeric field that devRecords may send as a string,
// a JSON number, or json.Number.
func decimalField(raw map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return decimal.Zero, errors.New("is absent")
	}
	switch t := v.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, fmt.Errorf("is not numeric: %q", t)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("is not numeric: %q", t.String())
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("has unsupported type %T", v)
}

// timeField accepts YYYY-MM-DD, RFC3339, or unix milliseconds.
func timeField(raw map[string]interface{}, key string) (time.Time, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return time.Time{}, errors.New("is absent")
	}
	switch t := v.(type) {
	case string:
		if tt, err := time.Parse("2006-01-02", t); err == nil {
			return tt, nil
		}
		if tt, err := time.Parse(time.RFC3339, t); err == nil {
			return tt, nil
		}
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("is not a date: %q", t)
	case float64:
		if t <= 0 {
			return time.Time{}, errors.New("is not a date")
		}
		return time.UnixMilli(int64(t)).UTC(), nil
	case json.Number:
		if ms, err := t.Int64(); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("is not a date: %q", t.String())
	}
	return time.Time{}, fmt.Errorf("has unsupported type %T", v)
}
