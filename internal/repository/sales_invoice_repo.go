package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"backoffice/internal/model"
)

// SalesInvoiceFilter narrows invoice listings
type SalesInvoiceFilter struct {
	CustomerID  uint
	InvoiceType string
	Search      string // invoice number substring
}

type SalesInvoiceRepository interface {
	Create(ctx context.Context, invoice *model.SalesInvoice) error
	Update(ctx context.Context, invoice *model.SalesInvoice) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.SalesInvoice, error)
	List(ctx context.Context, filter SalesInvoiceFilter, page, limit int) ([]model.SalesInvoice, int64, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]model.SalesInvoice, error)
	NumberTaken(ctx context.Context, number string, excludeID uint) (bool, error)
	ReplaceParts(ctx context.Context, invoiceID uint, parts []model.InvoicePart) error
	// AppliedAmounts sums receipt allocations per invoice id. Invoices without
	// allocations are absent from the map.
	AppliedAmounts(ctx context.Context, invoiceIDs []uint) (map[uint]decimal.Decimal, error)
	CountAllocations(ctx context.Context, invoiceID uint) (int64, error)
}

type salesInvoiceRepository struct {
	db *gorm.DB
}

func NewSalesInvoiceRepository(db *gorm.DB) SalesInvoiceRepository {
	return &salesInvoiceRepository{db: db}
}

func (r *salesInvoiceRepository) Create(ctx context.Context, invoice *model.SalesInvoice) error {
	// parts are created through the association
	return GetDB(ctx, r.db).Omit("Customer", "Branch", "Vehicle").Create(invoice).Error
}

func (r *salesInvoiceRepository) Update(ctx context.Context, invoice *model.SalesInvoice) error {
	// parts are replaced separately by ReplaceParts
	return GetDB(ctx, r.db).Omit("Customer", "Branch", "Vehicle", "Parts").Save(invoice).Error
}

func (r *salesInvoiceRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("sales_invoice_id = ?", id).Delete(&model.InvoicePart{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.SalesInvoice{}, id).Error
}

func (r *salesInvoiceRepository) FindByID(ctx context.Context, id uint) (*model.SalesInvoice, error) {
	var invoice model.SalesInvoice
	err := GetDB(ctx, r.db).
		Preload("Parts", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Customer").
		Preload("Branch").
		Preload("Vehicle").
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *salesInvoiceRepository) filterScope(filter SalesInvoiceFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.CustomerID != 0 {
			db = db.Where("customer_id = ?", filter.CustomerID)
		}
		if filter.InvoiceType != "" {
			db = db.Where("invoice_type = ?", filter.InvoiceType)
		}
		return db.Scopes(searchScope(filter.Search, "invoice_number"))
	}
}

func (r *salesInvoiceRepository) List(ctx context.Context, filter SalesInvoiceFilter, page, limit int) ([]model.SalesInvoice, int64, error) {
	var invoices []model.SalesInvoice
	var total int64

	db := GetDB(ctx, r.db)
	scope := r.filterScope(filter)

	if err := db.Model(&model.SalesInvoice{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Scopes(scope, paginate(page, limit)).
		Preload("Customer").
		Preload("Branch").
		Order("invoice_date DESC, id DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *salesInvoiceRepository) ListByCustomer(ctx context.Context, customerID uint) ([]model.SalesInvoice, error) {
	var invoices []model.SalesInvoice
	err := GetDB(ctx, r.db).
		Preload("Customer").
		Preload("Branch").
		Where("customer_id = ?", customerID).
		Order("invoice_date ASC, id ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *salesInvoiceRepository) NumberTaken(ctx context.Context, number string, excludeID uint) (bool, error) {
	var count int64
	q := GetDB(ctx, r.db).Model(&model.SalesInvoice{}).Where("invoice_number = ?", number)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *salesInvoiceRepository) ReplaceParts(ctx context.Context, invoiceID uint, parts []model.InvoicePart) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("sales_invoice_id = ?", invoiceID).Delete(&model.InvoicePart{}).Error; err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}
	for i := range parts {
		parts[i].ID = 0
		parts[i].SalesInvoiceID = invoiceID
	}
	return db.Create(&parts).Error
}

func (r *salesInvoiceRepository) AppliedAmounts(ctx context.Context, invoiceIDs []uint) (map[uint]decimal.Decimal, error) {
	out := make(map[uint]decimal.Decimal, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		SalesInvoiceID uint
		Applied        decimal.Decimal
	}
	err := GetDB(ctx, r.db).
		Model(&model.ReceiptAllocation{}).
		Select("sales_invoice_id, SUM(applied_amount) AS applied").
		Where("sales_invoice_id IN ?", invoiceIDs).
		Group("sales_invoice_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SalesInvoiceID] = row.Applied
	}
	return out, nil
}

func (r *salesInvoiceRepository) CountAllocations(ctx context.Context, invoiceID uint) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ReceiptAllocation{}).Where("sales_invoice_id = ?", invoiceID).Count(&count).Error
	return count, err
}
