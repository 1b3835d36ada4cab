package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prakasadw/billsync-backend/internal/model"
	"github.com/prakasadw/billsync-backend/internal/recon"
	"github.com/prakasadw/billsync-backend/internal/service"
)

// ISyncService is what the handler needs from the sync service. Kept as an
// interface so tests can plug a mock in.
type ISyncService interface {
	CheckStatus(ctx context.Context, start, end time.Time, opts recon.Options) (*service.SyncStatus, error)
	Preview(ctx context.Context, start, end time.Time, opts recon.Options) (*recon.Plan, error)
	Review(ctx context.Context, start, end time.Time, opts recon.Options) (*recon.Plan, error)
	ApplyRange(ctx context.Context, start, end time.Time, opts recon.Options) (*recon.Result, error)
	History(ctx context.Context, limit int) ([]model.SyncRun, error)
	State() string
}

type SyncHandler struct {
	Svc ISyncService

	// DeleteOrphaned default when the request does not ask either way.
	DeleteOrphanedDefault bool
}

func NewSyncHandler(svc ISyncService, deleteOrphanedDefault bool) *SyncHandler {
	return &SyncHandler{Svc: svc, DeleteOrphanedDefault: deleteOrphanedDefault}
}

// GET /api/v1/sync/status?start=...&end=...&mode=...
func (h *SyncHandler) GetStatus(c *gin.Context) {
	start, end, ok := parseRangeQuery(c)
	if !ok {
		return
	}
	opts := recon.Options{Mode: parseMode(c.Query("mode"))}

	st, err := h.Svc.CheckStatus(c.Request.Context(), start, end, opts)
	if err != nil {
		writeSyncError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"in_sync":       st.InSync,
		"counts":        st.Counts,
		"pending_since": st.PendingSince,
		"state":         h.Svc.State(),
	})
}

// POST /api/v1/sync/preview
func (h *SyncHandler) Preview(c *gin.Context) {
	start, end, opts, ok := h.parseSyncRequest(c)
	if !ok {
		return
	}

	plan, err := h.Svc.Preview(c.Request.Context(), start, end, opts)
	if err != nil {
		writeSyncError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "counts": plan.Counts()})
}

// POST /api/v1/sync/review
// Same as preview but persists a dry-run marker in the history table.
func (h *SyncHandler) Review(c *gin.Context) {
	start, end, opts, ok := h.parseSyncRequest(c)
	if !ok {
		return
	}

	plan, err := h.Svc.Review(c.Request.Context(), start, end, opts)
	if err != nil {
		writeSyncError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "counts": plan.Counts()})
}

// POST /api/v1/sync/apply
func (h *SyncHandler) Apply(c *gin.Context) {
	start, end, opts, ok := h.parseSyncRequest(c)
	if !ok {
		return
	}

	log.Printf("sync apply triggered for %s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	res, err := h.Svc.ApplyRange(c.Request.Context(), start, end, opts)
	if err != nil {
		writeSyncError(c, err)
		return
	}

	// Partial failure still returns the counts; the error list says what broke.
	c.JSON(http.StatusOK, gin.H{"result": res})
}

// GET /api/v1/sync/history?limit=20
func (h *SyncHandler) GetHistory(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
		return
	}

	history, err := h.Svc.History(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *SyncHandler) parseSyncRequest(c *gin.Context) (time.Time, time.Time, recon.Options, bool) {
	var req model.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return time.Time{}, time.Time{}, recon.Options{}, false
	}

	layout := "2006-01-02"
	start, err := time.Parse(layout, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date format, use YYYY-MM-DD"})
		return time.Time{}, time.Time{}, recon.Options{}, false
	}
	end, err := time.Parse(layout, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date format, use YYYY-MM-DD"})
		return time.Time{}, time.Time{}, recon.Options{}, false
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end date is before start date"})
		return time.Time{}, time.Time{}, recon.Options{}, false
	}

	opts := recon.Options{Mode: parseMode(req.Mode), DeleteOrphaned: req.DeleteOrphaned || h.DeleteOrphanedDefault}
	return start, end, opts, true
}

func parseRangeQuery(c *gin.Context) (time.Time, time.Time, bool) {
	layout := "2006-01-02"
	start, err := time.Parse(layout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date format, use YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(layout, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date format, use YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseMode(s string) recon.Mode {
	if s == string(recon.ModeFull) {
		return recon.ModeFull
	}
	return recon.ModeIncremental
}

func writeSyncError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrRunInFlight) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	var fetchErr *recon.FetchError
	if errors.As(err, &fetchErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
