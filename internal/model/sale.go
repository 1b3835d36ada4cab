package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord is one row of the customer_sales billing table. Rows that mirror a
// devRecords time entry carry its id in SourceID; rows entered by hand have none.
type SaleRecord struct {
	ID          string          `json:"id"`
	OrgID       string          `json:"org_id"`
	SourceID    *string         `json:"source_id,omitempty"`
	CustomerID  string          `json:"customer_id"`
	ProjectID   string          `json:"project_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	SaleDate    time.Time       `json:"sale_date"`
	InvoiceID   *string         `json:"invoice_id,omitempty"`
	SyncedAt    *time.Time      `json:"synced_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Invoiced reports whether the row has been billed. Billed rows are frozen:
// they must never be updated or deleted by a sync run.
func (s *SaleRecord) Invoiced() bool {
	return s.InvoiceID != nil && *s.InvoiceID != ""
}

type SaleResponse struct {
	ID          string  `json:"id"`
	SourceID    string  `json:"source_id,omitempty"`
	CustomerID  string  `json:"customer_id"`
	ProjectID   string  `json:"project_id"`
	Description string  `json:"description"`
	Quantity    string  `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	TotalPrice  string  `json:"total_price"`
	SaleDate    string  `json:"sale_date"`
	InvoiceID   string  `json:"invoice_id,omitempty"`
	SyncedAt    *string `json:"synced_at,omitempty"`
}
