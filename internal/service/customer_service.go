package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// --- Customer DTOs ---

type SaveCustomerRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
	DateOfBirth   string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	TIN           string `json:"tin"`
}

type CustomerResponse struct {
	ID            uint      `json:"id"`
	CustomerName  string    `json:"customer_name"`
	Address       string    `json:"address"`
	ContactNumber string    `json:"contact_number"`
	DateOfBirth   *string   `json:"date_of_birth"`
	TIN           string    `json:"tin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// --- Interface ---

type CustomerService interface {
	CreateCustomer(ctx context.Context, req SaveCustomerRequest) (CustomerResponse, error)
	UpdateCustomer(ctx context.Context, id uint, req SaveCustomerRequest) (CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id uint) error
	GetCustomer(ctx context.Context, id uint) (CustomerResponse, error)
	ListCustomers(ctx context.Context, search string, page, limit int) ([]CustomerResponse, int64, error)
}

// --- Implementation ---

type customerService struct {
	customerRepo repository.CustomerRepository
	recorder     recorder
}

func NewCustomerService(customerRepo repository.CustomerRepository, auditRepo repository.AuditRepository, notifier Notifier, log *zap.Logger) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		recorder:     newRecorder(auditRepo, notifier, log),
	}
}

func applyCustomer(c *model.Customer, req SaveCustomerRequest) error {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return invalidf("customer_name is required")
	}
	dob, err := parseOptionalDate("date_of_birth", req.DateOfBirth)
	if err != nil {
		return err
	}

	c.CustomerName = name
	c.Address = req.Address
	c.ContactNumber = req.ContactNumber
	c.DateOfBirth = dob
	c.TIN = req.TIN
	return nil
}

func (s *customerService) CreateCustomer(ctx context.Context, req SaveCustomerRequest) (CustomerResponse, error) {
	customer := &model.Customer{}
	if err := applyCustomer(customer, req); err != nil {
		return CustomerResponse{}, err
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return CustomerResponse{}, fmt.Errorf("failed to create customer: %w", err)
	}

	s.recorder.audit(ctx, model.ActionCreateCustomer, customer.ID, customer.CustomerName, req)
	s.recorder.notify("customers", EventCreated, customer.ID)
	return toCustomerResponse(*customer), nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id uint, req SaveCustomerRequest) (CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return CustomerResponse{}, lookupError("customer", id, err)
	}
	if err := applyCustomer(customer, req); err != nil {
		return CustomerResponse{}, err
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return CustomerResponse{}, fmt.Errorf("failed to update customer: %w", err)
	}

	s.recorder.audit(ctx, model.ActionUpdateCustomer, customer.ID, customer.CustomerName, req)
	s.recorder.notify("customers", EventUpdated, customer.ID)
	return toCustomerResponse(*customer), nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id uint) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return lookupError("customer", id, err)
	}

	invoices, receipts, err := s.customerRepo.CountDocuments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check customer documents: %w", err)
	}
	if invoices > 0 || receipts > 0 {
		return conflictf("customer %d still has %d sales invoice(s) and %d official receipt(s)", id, invoices, receipts)
	}

	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	s.recorder.audit(ctx, model.ActionDeleteCustomer, id, customer.CustomerName, map[string]uint{"deleted_id": id})
	s.recorder.notify("customers", EventDeleted, id)
	return nil
}

func (s *customerService) GetCustomer(ctx context.Context, id uint) (CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return CustomerResponse{}, lookupError("customer", id, err)
	}
	return toCustomerResponse(*customer), nil
}

func (s *customerService) ListCustomers(ctx context.Context, search string, page, limit int) ([]CustomerResponse, int64, error) {
	customers, total, err := s.customerRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customers: %w", err)
	}

	res := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		res = append(res, toCustomerResponse(c))
	}
	return res, total, nil
}

// --- Helpers ---

func parseOptionalDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return nil, invalidf("%s must be YYYY-MM-DD", field)
	}
	return &t, nil
}

func parseRequiredDate(field, raw string) (time.Time, error) {
	t, err := parseOptionalDate(field, raw)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, invalidf("%s is required", field)
	}
	return *t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(model.DateLayout)
	return &s
}

func toCustomerResponse(c model.Customer) CustomerResponse {
	return CustomerResponse{
		ID:            c.ID,
		CustomerName:  c.CustomerName,
		Address:       c.Address,
		ContactNumber: c.ContactNumber,
		DateOfBirth:   formatDate(c.DateOfBirth),
		TIN:           c.TIN,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
