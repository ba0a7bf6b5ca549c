package repository

import (
	"context"

	"gorm.io/gorm"

	"backoffice/internal/model"
)

// OfficialReceiptFilter narrows receipt listings
type OfficialReceiptFilter struct {
	CustomerID uint
	Search     string // receipt number substring
}

type OfficialReceiptRepository interface {
	Create(ctx context.Context, receipt *model.OfficialReceipt) error
	Update(ctx context.Context, receipt *model.OfficialReceipt) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.OfficialReceipt, error)
	List(ctx context.Context, filter OfficialReceiptFilter, page, limit int) ([]model.OfficialReceipt, int64, error)
	NumberTaken(ctx context.Context, number string, excludeID uint) (bool, error)
	ReplacePayments(ctx context.Context, receiptID uint, payments []model.ReceiptPayment) error
	ReplaceAllocations(ctx context.Context, receiptID uint, allocations []model.ReceiptAllocation) error
}

type officialReceiptRepository struct {
	db *gorm.DB
}

func NewOfficialReceiptRepository(db *gorm.DB) OfficialReceiptRepository {
	return &officialReceiptRepository{db: db}
}

func (r *officialReceiptRepository) Create(ctx context.Context, receipt *model.OfficialReceipt) error {
	return GetDB(ctx, r.db).Omit("Customer", "Branch").Create(receipt).Error
}

func (r *officialReceiptRepository) Update(ctx context.Context, receipt *model.OfficialReceipt) error {
	return GetDB(ctx, r.db).Omit("Customer", "Branch", "Payments", "Allocations").Save(receipt).Error
}

func (r *officialReceiptRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("official_receipt_id = ?", id).Delete(&model.ReceiptPayment{}).Error; err != nil {
		return err
	}
	if err := db.Where("official_receipt_id = ?", id).Delete(&model.ReceiptAllocation{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.OfficialReceipt{}, id).Error
}

func (r *officialReceiptRepository) FindByID(ctx context.Context, id uint) (*model.OfficialReceipt, error) {
	var receipt model.OfficialReceipt
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }
	err := GetDB(ctx, r.db).
		Preload("Payments", byID).
		Preload("Allocations", byID).
		Preload("Customer").
		Preload("Branch").
		First(&receipt, id).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *officialReceiptRepository) List(ctx context.Context, filter OfficialReceiptFilter, page, limit int) ([]model.OfficialReceipt, int64, error) {
	var receipts []model.OfficialReceipt
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.CustomerID != 0 {
			db = db.Where("customer_id = ?", filter.CustomerID)
		}
		return db.Scopes(searchScope(filter.Search, "receipt_number"))
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.OfficialReceipt{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Scopes(scope, paginate(page, limit)).
		Preload("Customer").
		Preload("Branch").
		Order("receipt_date DESC, id DESC").
		Find(&receipts).Error
	if err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

func (r *officialReceiptRepository) NumberTaken(ctx context.Context, number string, excludeID uint) (bool, error) {
	var count int64
	q := GetDB(ctx, r.db).Model(&model.OfficialReceipt{}).Where("receipt_number = ?", number)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *officialReceiptRepository) ReplacePayments(ctx context.Context, receiptID uint, payments []model.ReceiptPayment) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("official_receipt_id = ?", receiptID).Delete(&model.ReceiptPayment{}).Error; err != nil {
		return err
	}
	if len(payments) == 0 {
		return nil
	}
	for i := range payments {
		payments[i].ID = 0
		payments[i].OfficialReceiptID = receiptID
	}
	return db.Create(&payments).Error
}

func (r *officialReceiptRepository) ReplaceAllocations(ctx context.Context, receiptID uint, allocations []model.ReceiptAllocation) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("official_receipt_id = ?", receiptID).Delete(&model.ReceiptAllocation{}).Error; err != nil {
		return err
	}
	if len(allocations) == 0 {
		return nil
	}
	for i := range allocations {
		allocations[i].ID = 0
		allocations[i].OfficialReceiptID = receiptID
	}
	return db.Create(&allocations).Error
}
