package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prakasadw/billsync-backend/internal/recon"
	"github.com/prakasadw/billsync-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	entries []map[string]interface{}
}

func (s *stubSource) FetchEntries(ctx context.Context, start, end time.Time) ([]map[string]interface{}, error) {
	return s.entries, nil
}

var salesCols = []string{
	"id", "org_id", "source_id", "customer_id", "project_id", "description",
	"quantity", "unit_price", "total_price", "sale_date",
	"invoice_id", "synced_at", "created_at", "updated_at",
}

func newTestService(t *testing.T, source recon.SourceFetcher) (*SyncService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc, err := NewSyncService(repository.NewPostgresRepoFromDB(db), source, "org-1", 1, time.Millisecond)
	require.NoError(t, err)
	return svc, mock
}

func testRange(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start, _ := time.Parse("2006-01-02", "2025-03-01")
	end, _ := time.Parse("2006-01-02", "2025-03-31")
	return start, end
}

func TestPreviewIsSideEffectFree(t *testing.T) {
	source := &stubSource{entries: []map[string]interface{}{
		{"id": "R1", "customer_id": "C1", "project_id": "P1", "date": "2025-03-10", "hours": "2.5", "rate": "100"},
	}}
	svc, mock := newTestService(t, source)

	// only the target query; no insert, no sync_runs row
	mock.ExpectQuery("SELECT id, org_id, source_id").
		WillReturnRows(sqlmock.NewRows(salesCols))

	start, end := testRange(t)
	plan, err := svc.Preview(context.Background(), start, end, recon.Options{})
	require.NoError(t, err)

	require.Len(t, plan.ToCreate, 1)
	assert.Equal(t, StatePlanned, svc.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewPersistsDryRunMarker(t *testing.T) {
	source := &stubSource{}
	svc, mock := newTestService(t, source)

	mock.ExpectQuery("SELECT id, org_id, source_id").
		WillReturnRows(sqlmock.NewRows(salesCols))
	mock.ExpectExec("INSERT INTO sync_runs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	start, end := testRange(t)
	_, err := svc.Review(context.Background(), start, end, recon.Options{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRangeWritesAndRecordsHistory(t *testing.T) {
	source := &stubSource{entries: []map[string]interface{}{
		{"id": "R1", "customer_id": "C1", "project_id": "P1", "date": "2025-03-10", "hours": "2.5", "rate": "100"},
	}}
	svc, mock := newTestService(t, source)

	mock.ExpectQuery("SELECT id, org_id, source_id").
		WillReturnRows(sqlmock.NewRows(salesCols))
	mock.ExpectExec("INSERT INTO customer_sales").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sync_runs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	start, end := testRange(t)
	res, err := svc.ApplyRange(context.Background(), start, end, recon.Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Zero(t, res.Errored)
	assert.Equal(t, StateApplied, svc.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunsAreSerialized(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{})
	svc.busy = true

	start, end := testRange(t)
	_, err := svc.Preview(context.Background(), start, end, recon.Options{})
	assert.ErrorIs(t, err, ErrRunInFlight)

	_, err = svc.ApplyRange(context.Background(), start, end, recon.Options{})
	assert.ErrorIs(t, err, ErrRunInFlight)

	_, err = svc.CheckStatus(context.Background(), start, end, recon.Options{})
	assert.ErrorIs(t, err, ErrRunInFlight)
}

func TestCheckStatusIncludesPendingSince(t *testing.T) {
	source := &stubSource{}
	svc, mock := newTestService(t, source)

	pending := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery("SELECT id, org_id, source_id").
		WillReturnRows(sqlmock.NewRows(salesCols))
	mock.ExpectQuery("SELECT MIN\\(created_at\\) FROM sync_runs").
		WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow(pending))

	start, end := testRange(t)
	st, err := svc.CheckStatus(context.Background(), start, end, recon.Options{})
	require.NoError(t, err)

	assert.True(t, st.InSync)
	require.NotNil(t, st.PendingSince)
	assert.Equal(t, StateIdle, svc.State())
}
