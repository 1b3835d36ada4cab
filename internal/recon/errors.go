package recon

import "fmt"

// MalformedRecordError marks a source row whose hours or rate is missing or
// not numeric. Such rows go into the plan's error list; they never abort a run.
type MalformedRecordError struct {
	SourceID string
	Field    string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s: field %q %s", e.SourceID, e.Field, e.Reason)
}

// FetchError wraps a failed source or target query. Fetch failures are fatal
// to the whole pass: no partial plan is produced.
type FetchError struct {
	System string // "devrecords" or "customer_sales"
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed: %v", e.System, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TargetWriteError wraps an insert/update/delete rejected by the store.
// Captured per record during apply; the batch continues.
type TargetWriteError struct {
	Op       string
	RecordID string
	Err      error
}

func (e *TargetWriteError) Error() string {
	return fmt.Sprintf("%s of record %s failed: %v", e.Op, e.RecordID, e.Err)
}

func (e *TargetWriteError) Unwrap() error { return e.Err }
