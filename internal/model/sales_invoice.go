package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType enum constants
const (
	InvoiceTypeVehicle = "Vehicle"
	InvoiceTypeParts   = "Parts"
)

// SalesInvoice is a dealer sale. Amounts are VAT inclusive; VAT and net are derived
// from TotalSalesVATInclusive (see package totals).
type SalesInvoice struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	CustomerID             uint            `gorm:"not null;index" json:"customer_id"`
	Customer               *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	BranchID               uint            `gorm:"not null;index" json:"branch_id"`
	Branch                 *Branch         `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	VehicleID              *uint           `gorm:"index" json:"vehicle_id"` // Vehicle invoices only
	Vehicle                *Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	InvoiceType            string          `gorm:"type:varchar(10);not null;index" json:"invoice_type"` // Vehicle, Parts
	InvoiceNumber          string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"invoice_number"`
	InvoiceDate            time.Time       `gorm:"type:date;not null;index" json:"invoice_date"`
	TotalSalesVATInclusive decimal.Decimal `gorm:"column:total_sales_vat_inclusive;type:decimal(24,10);not null;default:0" json:"total_sales_vat_inclusive"`
	VAT                    decimal.Decimal `gorm:"column:vat;type:decimal(24,10);not null;default:0" json:"vat"`
	Net                    decimal.Decimal `gorm:"type:decimal(24,10);not null;default:0" json:"net"`
	TotalAmountPayable     decimal.Decimal `gorm:"type:decimal(24,10);not null;default:0" json:"total_amount_payable"`
	BankTerms              string          `gorm:"type:varchar(255)" json:"bank_terms"`
	Downpayment            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"downpayment"`
	AmountFinanced         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount_financed"`
	Parts                  []InvoicePart   `gorm:"foreignKey:SalesInvoiceID;constraint:OnDelete:CASCADE" json:"parts,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// IsParts reports whether the invoice carries part line items.
func (inv SalesInvoice) IsParts() bool {
	return inv.InvoiceType == InvoiceTypeParts
}

// InvoicePart is a line item of a Parts invoice.
type InvoicePart struct {
	ID              uint            `gorm:"primaryKey" json:"-"`
	SalesInvoiceID  uint            `gorm:"not null;index" json:"-"`
	PartNumber      string          `gorm:"type:varchar(100)" json:"part_number"`
	ItemDescription string          `gorm:"type:text" json:"item_description"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_price"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0" json:"total_price"` // quantity * unit_price
}
