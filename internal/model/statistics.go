package model

import (
	"github.com/shopspring/decimal"
)

// DashboardStatistics summarizes sales and collections for a date range together with
// the receivables still open today.
type DashboardStatistics struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	InvoiceCount   int64              `json:"invoice_count"`
	TotalInvoiced  decimal.Decimal    `json:"total_invoiced"`
	ByInvoiceType  []InvoiceTypeTotal `json:"by_invoice_type"`
	ReceiptCount   int64              `json:"receipt_count"`
	TotalCollected decimal.Decimal    `json:"total_collected"`

	// Not bounded by the date range
	TotalReceivable decimal.Decimal   `json:"total_receivable"`
	TotalApplied    decimal.Decimal   `json:"total_applied"`
	Outstanding     decimal.Decimal   `json:"outstanding"`
	TopBalances     []CustomerBalance `json:"top_balances"`
}

// InvoiceTypeTotal is the sales of one invoice type within the range
type InvoiceTypeTotal struct {
	InvoiceType string          `json:"invoice_type"`
	Count       int64           `json:"count"`
	Total       decimal.Decimal `json:"total"`
}

// CustomerBalance ranks customers by what they still owe
type CustomerBalance struct {
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	InvoiceCount int64           `json:"invoice_count"`
	Balance      decimal.Decimal `json:"balance"`
}
