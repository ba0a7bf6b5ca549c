package repository

import (
	"context"

	"gorm.io/gorm"

	"backoffice/internal/model"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Customer, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Customer, int64, error)
	// CountDocuments returns how many sales invoices and official receipts reference the customer.
	CountDocuments(ctx context.Context, id uint) (invoices, receipts int64, err error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Create(customer).Error
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Save(customer).Error
}

func (r *customerRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.Customer{}, id).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, search string, page, limit int) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	db := GetDB(ctx, r.db)
	filter := searchScope(search, "customer_name", "tin", "contact_number")

	if err := db.Model(&model.Customer{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Scopes(filter, paginate(page, limit)).Order("customer_name ASC, id ASC").Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *customerRepository) CountDocuments(ctx context.Context, id uint) (int64, int64, error) {
	var invoices, receipts int64
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.SalesInvoice{}).Where("customer_id = ?", id).Count(&invoices).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Model(&model.OfficialReceipt{}).Where("customer_id = ?", id).Count(&receipts).Error; err != nil {
		return 0, 0, err
	}
	return invoices, receipts, nil
}
