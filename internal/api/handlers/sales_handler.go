package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prakasadw/billsync-backend/internal/repository"
	"github.com/prakasadw/billsync-backend/internal/utils"
)

type SalesHandler struct {
	Repo  *repository.PostgresRepo
	OrgID string
}

func NewSalesHandler(repo *repository.PostgresRepo, orgID string) *SalesHandler {
	return &SalesHandler{Repo: repo, OrgID: orgID}
}

// GET /api/v1/sales?start=...&end=...
func (h *SalesHandler) ListSales(c *gin.Context) {
	layout := "2006-01-02"
	startStr := c.DefaultQuery("start", time.Now().AddDate(0, -1, 0).Format(layout))
	endStr := c.DefaultQuery("end", time.Now().Format(layout))

	start, err := time.Parse(layout, startStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date format, use YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(layout, endStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date format, use YYYY-MM-DD"})
		return
	}

	sales, err := h.Repo.QuerySalesRange(c.Request.Context(), h.OrgID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"start": startStr,
		"end":   endStr,
		"count": len(sales),
		"sales": utils.ConvertSalesToResponse(sales),
	})
}
