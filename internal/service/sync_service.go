package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/prakasadw/billsync-backend/internal/model"
	"github.com/prakasadw/billsync-backend/internal/recon"
	"github.com/prakasadw/billsync-backend/internal/repository"
)

// ErrRunInFlight is returned when a reconciliation pass is requested while
// another one is still running. Passes are serialized per service instance.
var ErrRunInFlight = errors.New("a sync run is already in flight")

// Run states, in the order a pass moves through them.
const (
	StateIdle            = "idle"
	StateChecking        = "checking"
	StatePlanned         = "planned"
	StateApplying        = "applying"
	StateApplied         = "applied"
	StatePartiallyFailed = "partially-failed"
	StateError           = "error"
)

// SyncStatus is the check endpoint's answer: whether the range is in sync
// and how long drift has been waiting on review.
type SyncStatus struct {
	InSync       bool         `json:"in_sync"`
	Counts       recon.Counts `json:"counts"`
	PendingSince *time.Time   `json:"pending_since,omitempty"`
}

// SyncService drives reconciliation between devRecords and customer_sales:
// status checks, side-effect-free previews and reviews, applies, and the
// sync_runs history behind them.
type SyncService struct {
	Repo  *repository.PostgresRepo
	Recon *recon.Reconciler
	Apply *recon.Applier
	OrgID string

	mu    sync.Mutex
	busy  bool
	state string
}

func NewSyncService(repo *repository.PostgresRepo, source recon.SourceFetcher, orgID string, retries int, backoff time.Duration) (*SyncService, error) {
	rec, err := recon.NewReconciler(source, repo, orgID, recon.DefaultFieldMap())
	if err != nil {
		return nil, err
	}
	return &SyncService{
		Repo:  repo,
		Recon: rec,
		Apply: recon.NewApplier(repo, orgID, retries, backoff),
		OrgID: orgID,
		state: StateIdle,
	}, nil
}

// State reports where the last or current pass is in its lifecycle.
func (s *SyncService) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SyncService) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrRunInFlight
	}
	s.busy = true
	s.state = StateChecking
	return nil
}

func (s *SyncService) release(state string) {
	s.mu.Lock()
	s.busy = false
	s.state = state
	s.mu.Unlock()
}

// CheckStatus answers whether the range is in sync, plus the persisted
// "pending since" marker from review runs.
func (s *SyncService) CheckStatus(ctx context.Context, start, end time.Time, opts recon.Options) (*SyncStatus, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}

	st, err := s.Recon.CheckStatus(ctx, start, end, opts)
	if err != nil {
		s.release(StateError)
		return nil, err
	}

	pending, err := s.Repo.GetPendingSince(ctx, s.OrgID)
	if err != nil {
		s.release(StateError)
		return nil, err
	}

	s.release(StateIdle)
	return &SyncStatus{InSync: st.InSync, Counts: st.Counts, PendingSince: pending}, nil
}

// Preview computes a plan without touching the store or the history table.
// Discarding the result has no side effects.
func (s *SyncService) Preview(ctx context.Context, start, end time.Time, opts recon.Options) (*recon.Plan, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}

	plan, err := s.Recon.Plan(ctx, start, end, opts)
	if err != nil {
		s.release(StateError)
		return nil, err
	}

	s.release(StatePlanned)
	return plan, nil
}

// Review is a preview that also persists a dry-run marker in sync_runs, so
// "drift seen on <date>, not yet applied" survives restarts. customer_sales
// is never written.
func (s *SyncService) Review(ctx context.Context, start, end time.Time, opts recon.Options) (*recon.Plan, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	started := time.Now()

	plan, err := s.Recon.Plan(ctx, start, end, opts)
	if err != nil {
		s.release(StateError)
		return nil, err
	}

	run := runFromPlan(s.OrgID, "review", start, end, plan)
	run.Status = "reviewed"
	run.DurationMs = time.Since(started).Milliseconds()
	if err := s.Repo.CreateSyncRun(ctx, run); err != nil {
		log.Println("failed recording review run:", err)
	}

	s.release(StatePlanned)
	return plan, nil
}

// ApplyRange plans and applies in one pass, records the run and returns the
// result summary. Per-record failures do not fail the call; the counts tell
// the story either way.
func (s *SyncService) ApplyRange(ctx context.Context, start, end time.Time, opts recon.Options) (*recon.Result, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	started := time.Now()

	plan, err := s.Recon.Plan(ctx, start, end, opts)
	if err != nil {
		s.release(StateError)
		return nil, err
	}

	s.mu.Lock()
	s.state = StateApplying
	s.mu.Unlock()

	res := s.Apply.Apply(ctx, plan)

	status := "applied"
	finalState := StateApplied
	if res.Errored > 0 {
		status = "partially-failed"
		finalState = StatePartiallyFailed
	}

	run := runFromPlan(s.OrgID, "apply", start, end, plan)
	run.Status = status
	run.CreatedCount = res.Created
	run.UpdatedCount = res.Updated
	run.DeletedCount = res.Deleted
	run.ErrorCount = res.Errored
	run.DurationMs = time.Since(started).Milliseconds()
	if details, err := json.Marshal(res); err == nil {
		run.Details = details
	}
	if err := s.Repo.CreateSyncRun(ctx, run); err != nil {
		log.Println("failed recording apply run:", err)
	}

	log.Printf("sync apply %s..%s: %d created, %d updated, %d deleted, %d errors",
		start.Format("2006-01-02"), end.Format("2006-01-02"),
		res.Created, res.Updated, res.Deleted, res.Errored)

	s.release(finalState)
	return res, nil
}

// History returns recent sync runs for display.
func (s *SyncService) History(ctx context.Context, limit int) ([]model.SyncRun, error) {
	return s.Repo.GetSyncHistory(ctx, s.OrgID, limit)
}

func runFromPlan(orgID, runType string, start, end time.Time, plan *recon.Plan) *model.SyncRun {
	counts := plan.Counts()
	return &model.SyncRun{
		OrgID:        orgID,
		RunType:      runType,
		Mode:         string(plan.Mode),
		RangeStart:   start,
		RangeEnd:     end,
		CreatedCount: counts.Creates,
		UpdatedCount: counts.Updates,
		DeletedCount: counts.Deletes,
		ErrorCount:   counts.Errors,
	}
}
