package repository

import (
	"context"

	"gorm.io/gorm"

	"backoffice/internal/model"
)

type BranchRepository interface {
	Create(ctx context.Context, branch *model.Branch) error
	Update(ctx context.Context, branch *model.Branch) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Branch, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Branch, int64, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	CountDocuments(ctx context.Context, id uint) (int64, error)
}

type branchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) Create(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Create(branch).Error
}

func (r *branchRepository) Update(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Save(branch).Error
}

func (r *branchRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.Branch{}, id).Error
}

func (r *branchRepository) FindByID(ctx context.Context, id uint) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).First(&branch, id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepository) List(ctx context.Context, search string, page, limit int) ([]model.Branch, int64, error) {
	var branches []model.Branch
	var total int64

	db := GetDB(ctx, r.db)
	filter := searchScope(search, "branch_name")

	if err := db.Model(&model.Branch{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Scopes(filter, paginate(page, limit)).Order("branch_name ASC").Find(&branches).Error; err != nil {
		return nil, 0, err
	}
	return branches, total, nil
}

func (r *branchRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	q := GetDB(ctx, r.db).Model(&model.Branch{}).Where("LOWER(branch_name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountDocuments counts invoices and receipts issued by the branch
func (r *branchRepository) CountDocuments(ctx context.Context, id uint) (int64, error) {
	var invoices, receipts int64
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.SalesInvoice{}).Where("branch_id = ?", id).Count(&invoices).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&model.OfficialReceipt{}).Where("branch_id = ?", id).Count(&receipts).Error; err != nil {
		return 0, err
	}
	return invoices + receipts, nil
}
