package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"backoffice/internal/model"
)

type StatisticsRepository interface {
	// InvoiceTotals groups invoices dated in [start, end) by type.
	InvoiceTotals(ctx context.Context, start, end time.Time) ([]model.InvoiceTypeTotal, error)
	// Collections counts and sums receipts dated in [start, end).
	Collections(ctx context.Context, start, end time.Time) (count int64, total decimal.Decimal, err error)
	// Receivables returns the all-time payable and applied totals.
	Receivables(ctx context.Context) (payable, applied decimal.Decimal, err error)
	TopBalances(ctx context.Context, limit int) ([]model.CustomerBalance, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) InvoiceTotals(ctx context.Context, start, end time.Time) ([]model.InvoiceTypeTotal, error) {
	var totals []model.InvoiceTypeTotal
	if err := GetDB(ctx, r.db).Model(&model.SalesInvoice{}).
		Select("invoice_type, COUNT(*) AS count, COALESCE(SUM(total_amount_payable), 0) AS total").
		Where("invoice_date >= ? AND invoice_date < ?", start, end).
		Group("invoice_type").
		Order("invoice_type").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to query invoice totals: %w", err)
	}
	return totals, nil
}

func (r *statisticsRepository) Collections(ctx context.Context, start, end time.Time) (int64, decimal.Decimal, error) {
	var result struct {
		Count int64
		Total decimal.Decimal
	}
	if err := GetDB(ctx, r.db).Model(&model.OfficialReceipt{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("receipt_date >= ? AND receipt_date < ?", start, end).
		Scan(&result).Error; err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to query collections: %w", err)
	}
	return result.Count, result.Total, nil
}

func (r *statisticsRepository) Receivables(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	db := GetDB(ctx, r.db)

	var payable struct{ Total decimal.Decimal }
	if err := db.Model(&model.SalesInvoice{}).
		Select("COALESCE(SUM(total_amount_payable), 0) AS total").
		Scan(&payable).Error; err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum receivables: %w", err)
	}

	var applied struct{ Total decimal.Decimal }
	if err := db.Model(&model.ReceiptAllocation{}).
		Select("COALESCE(SUM(applied_amount), 0) AS total").
		Scan(&applied).Error; err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum allocations: %w", err)
	}
	return payable.Total, applied.Total, nil
}

func (r *statisticsRepository) TopBalances(ctx context.Context, limit int) ([]model.CustomerBalance, error) {
	db := GetDB(ctx, r.db)

	applied := db.Model(&model.ReceiptAllocation{}).
		Select("sales_invoice_id, SUM(applied_amount) AS amount").
		Group("sales_invoice_id")

	var rankings []model.CustomerBalance
	if err := db.Table("sales_invoices").
		Select("customers.id AS customer_id, customers.customer_name AS customer_name, " +
			"COUNT(sales_invoices.id) AS invoice_count, " +
			"SUM(sales_invoices.total_amount_payable - COALESCE(applied.amount, 0)) AS balance").
		Joins("JOIN customers ON customers.id = sales_invoices.customer_id").
		Joins("LEFT JOIN (?) AS applied ON applied.sales_invoice_id = sales_invoices.id", applied).
		Group("customers.id, customers.customer_name").
		Having("SUM(sales_invoices.total_amount_payable - COALESCE(applied.amount, 0)) > 0").
		Order("balance DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top balances: %w", err)
	}
	return rankings, nil
}
