package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfficialReceipt records a payment received from a customer. Allocations distribute the
// payment across that customer's sales invoices.
type OfficialReceipt struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	CustomerID    uint                `gorm:"not null;index" json:"customer_id"`
	Customer      *Customer           `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	BranchID      uint                `gorm:"not null;index" json:"branch_id"`
	Branch        *Branch             `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	ReceiptNumber string              `gorm:"type:varchar(50);uniqueIndex;not null" json:"receipt_number"`
	ReceiptDate   time.Time           `gorm:"type:date;not null;index" json:"receipt_date"`
	Amount        decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"amount"`
	Note          string              `gorm:"type:text" json:"note"`
	Payments      []ReceiptPayment    `gorm:"foreignKey:OfficialReceiptID;constraint:OnDelete:CASCADE" json:"payments"`
	Allocations   []ReceiptAllocation `gorm:"foreignKey:OfficialReceiptID;constraint:OnDelete:CASCADE" json:"salesinvoice,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ReceiptPayment is one tender line of a receipt (cash, check, transfer...).
type ReceiptPayment struct {
	ID                uint            `gorm:"primaryKey" json:"-"`
	OfficialReceiptID uint            `gorm:"not null;index" json:"-"`
	Method            string          `gorm:"type:varchar(50)" json:"method"`
	Reference         string          `gorm:"type:varchar(100)" json:"reference"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	Remarks           string          `gorm:"type:text" json:"remarks"`
}

// ReceiptAllocation is the portion of a receipt applied to one sales invoice.
type ReceiptAllocation struct {
	ID                uint            `gorm:"primaryKey" json:"-"`
	OfficialReceiptID uint            `gorm:"not null;uniqueIndex:idx_receipt_invoice" json:"-"`
	SalesInvoiceID    uint            `gorm:"not null;uniqueIndex:idx_receipt_invoice;index" json:"sales_invoice_id"`
	AppliedAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"applied_amount"`
}
