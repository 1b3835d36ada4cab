package utils

import (
	"time"

	"github.com/prakasadw/billsync-backend/internal/model"
)

func ConvertSaleToResponse(s model.SaleRecord) model.SaleResponse {
	resp := model.SaleResponse{
		ID:          s.ID,
		CustomerID:  s.CustomerID,
		ProjectID:   s.ProjectID,
		Description: s.Description,
		Quantity:    s.Quantity.StringFixed(2),
		UnitPrice:   s.UnitPrice.StringFixed(2),
		TotalPrice:  s.TotalPrice.StringFixed(2),
		SaleDate:    s.SaleDate.Format("2006-01-02"),
	}
	if s.SourceID != nil {
		resp.SourceID = *s.SourceID
	}
	if s.InvoiceID != nil {
		resp.InvoiceID = *s.InvoiceID
	}
	if s.SyncedAt != nil {
		v := s.SyncedAt.Format(time.RFC3339)
		resp.SyncedAt = &v
	}
	return resp
}

func ConvertSalesToResponse(sales []model.SaleRecord) []model.SaleResponse {
	resp := make([]model.SaleResponse, 0, len(sales))
	for _, s := range sales {
		resp = append(resp, ConvertSaleToResponse(s))
	}
	return resp
}
