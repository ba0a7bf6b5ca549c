package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/totals"
	"backoffice/pkg/pagination"
)

// --- Part DTO ---

type PartPayload struct {
	PartNumber      string          `json:"part_number"`
	ItemDescription string          `json:"item_description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// --- Sales invoice DTOs ---

// SaveInvoiceRequest is the full invoice document. Totals sent by the client are
// ignored for Parts invoices with parts and always re-derived on save.
type SaveInvoiceRequest struct {
	CustomerID             uint            `json:"customer_id" binding:"required"`
	BranchID               uint            `json:"branch_id" binding:"required"`
	VehicleID              *uint           `json:"vehicle_id"`
	InvoiceType            string          `json:"invoice_type" binding:"required,oneof=Vehicle Parts"`
	InvoiceNumber          string          `json:"invoice_number" binding:"required"`
	InvoiceDate            string          `json:"invoice_date" binding:"required,datetime=2006-01-02"`
	TotalSalesVATInclusive decimal.Decimal `json:"total_sales_vat_inclusive"`
	VAT                    decimal.Decimal `json:"vat"`
	Net                    decimal.Decimal `json:"net"`
	TotalAmountPayable     decimal.Decimal `json:"total_amount_payable"`
	BankTerms              string          `json:"bank_terms"`
	Downpayment            decimal.Decimal `json:"downpayment"`
	AmountFinanced         decimal.Decimal `json:"amount_financed"`
	Parts                  []PartPayload   `json:"parts,omitempty"`
}

type InvoiceResponse struct {
	ID                     uint            `json:"id"`
	CustomerID             uint            `json:"customer_id"`
	CustomerName           string          `json:"customer_name"`
	BranchID               uint            `json:"branch_id"`
	BranchName             string          `json:"branch_name"`
	VehicleID              *uint           `json:"vehicle_id"`
	InvoiceType            string          `json:"invoice_type"`
	InvoiceNumber          string          `json:"invoice_number"`
	InvoiceDate            string          `json:"invoice_date"`
	TotalSalesVATInclusive decimal.Decimal `json:"total_sales_vat_inclusive"`
	VAT                    decimal.Decimal `json:"vat"`
	Net                    decimal.Decimal `json:"net"`
	TotalAmountPayable     decimal.Decimal `json:"total_amount_payable"`
	BankTerms              string          `json:"bank_terms"`
	Downpayment            decimal.Decimal `json:"downpayment"`
	AmountFinanced         decimal.Decimal `json:"amount_financed"`
	Parts                  []PartPayload   `json:"parts,omitempty"`
	AmountApplied          decimal.Decimal `json:"amount_applied"` // sum of receipt allocations
	Balance                decimal.Decimal `json:"balance"`        // total_amount_payable - amount_applied
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// TotalsRequest previews the derived totals of an unsaved invoice
type TotalsRequest struct {
	TotalSalesVATInclusive decimal.Decimal `json:"total_sales_vat_inclusive"`
	Parts                  []PartPayload   `json:"parts"`
}

type TotalsResponse struct {
	Parts                  []PartPayload   `json:"parts"`
	TotalSalesVATInclusive decimal.Decimal `json:"total_sales_vat_inclusive"`
	VAT                    decimal.Decimal `json:"vat"`
	Net                    decimal.Decimal `json:"net"`
	TotalAmountPayable     decimal.Decimal `json:"total_amount_payable"`
}

// InvoiceListFilter narrows ListInvoices. OpenOnly keeps invoices with a positive balance.
type InvoiceListFilter struct {
	CustomerID  uint
	InvoiceType string
	Search      string
	OpenOnly    bool
}

// --- Interface ---

type SalesInvoiceService interface {
	CreateInvoice(ctx context.Context, req SaveInvoiceRequest) (InvoiceResponse, error)
	UpdateInvoice(ctx context.Context, id uint, req SaveInvoiceRequest) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, id uint) error
	GetInvoice(ctx context.Context, id uint) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter InvoiceListFilter, page, limit int) ([]InvoiceResponse, int64, error)
	PreviewTotals(req TotalsRequest) (TotalsResponse, error)
}

// --- Implementation ---

type salesInvoiceService struct {
	invoiceRepo  repository.SalesInvoiceRepository
	customerRepo repository.CustomerRepository
	branchRepo   repository.BranchRepository
	vehicleRepo  repository.VehicleRepository
	txManager    repository.TransactionManager
	recorder     recorder
}

func NewSalesInvoiceService(
	invoiceRepo repository.SalesInvoiceRepository,
	customerRepo repository.CustomerRepository,
	branchRepo repository.BranchRepository,
	vehicleRepo repository.VehicleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	log *zap.Logger,
) SalesInvoiceService {
	return &salesInvoiceService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		branchRepo:   branchRepo,
		vehicleRepo:  vehicleRepo,
		txManager:    txManager,
		recorder:     newRecorder(auditRepo, notifier, log),
	}
}

// --- Validation helpers ---

func toPartModels(payloads []PartPayload) ([]model.InvoicePart, error) {
	parts := make([]model.InvoicePart, 0, len(payloads))
	for i, p := range payloads {
		if p.Quantity.IsNegative() {
			return nil, invalidf("parts[%d]: quantity cannot be negative", i)
		}
		if p.UnitPrice.IsNegative() {
			return nil, invalidf("parts[%d]: unit_price cannot be negative", i)
		}
		parts = append(parts, model.InvoicePart{
			PartNumber:      p.PartNumber,
			ItemDescription: p.ItemDescription,
			Quantity:        p.Quantity,
			UnitPrice:       p.UnitPrice,
		})
	}
	return parts, nil
}

// applyInvoice validates req against the store and writes it onto inv with derived totals
func (s *salesInvoiceService) applyInvoice(ctx context.Context, inv *model.SalesInvoice, req SaveInvoiceRequest) error {
	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		return invalidf("invoice_number is required")
	}
	if req.InvoiceType != model.InvoiceTypeVehicle && req.InvoiceType != model.InvoiceTypeParts {
		return invalidf("invoice_type must be one of: Vehicle, Parts")
	}
	date, err := parseRequiredDate("invoice_date", req.InvoiceDate)
	if err != nil {
		return err
	}
	if req.TotalSalesVATInclusive.IsNegative() {
		return invalidf("total_sales_vat_inclusive cannot be negative")
	}

	if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		return referenceError("customer", req.CustomerID, err)
	}
	if _, err := s.branchRepo.FindByID(ctx, req.BranchID); err != nil {
		return referenceError("branch", req.BranchID, err)
	}

	var vehicleID *uint
	var parts []model.InvoicePart
	switch req.InvoiceType {
	case model.InvoiceTypeVehicle:
		if req.VehicleID == nil || *req.VehicleID == 0 {
			return invalidf("vehicle_id is required for Vehicle invoices")
		}
		if _, err := s.vehicleRepo.FindByID(ctx, *req.VehicleID); err != nil {
			return referenceError("vehicle", *req.VehicleID, err)
		}
		id := *req.VehicleID
		vehicleID = &id
	case model.InvoiceTypeParts:
		if parts, err = toPartModels(req.Parts); err != nil {
			return err
		}
	}

	taken, err := s.invoiceRepo.NumberTaken(ctx, number, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to check invoice number: %w", err)
	}
	if taken {
		return conflictf("invoice number %q already exists", number)
	}

	inv.CustomerID = req.CustomerID
	inv.BranchID = req.BranchID
	inv.VehicleID = vehicleID
	inv.InvoiceType = req.InvoiceType
	inv.InvoiceNumber = number
	inv.InvoiceDate = date
	inv.TotalSalesVATInclusive = req.TotalSalesVATInclusive
	inv.BankTerms = req.BankTerms
	inv.Downpayment = req.Downpayment
	inv.AmountFinanced = req.AmountFinanced
	inv.Parts = parts
	inv.Customer, inv.Branch, inv.Vehicle = nil, nil, nil

	*inv = totals.Recompute(*inv)
	return nil
}

// --- CRUD ---

func (s *salesInvoiceService) CreateInvoice(ctx context.Context, req SaveInvoiceRequest) (InvoiceResponse, error) {
	inv := &model.SalesInvoice{}
	if err := s.applyInvoice(ctx, inv, req); err != nil {
		return InvoiceResponse{}, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Create(txCtx, inv); err != nil {
			return fmt.Errorf("failed to create sales invoice: %w", err)
		}
		s.recorder.audit(txCtx, model.ActionCreateSalesInvoice, inv.ID, inv.InvoiceNumber, req)
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.recorder.notify("sales-invoices", EventCreated, inv.ID)
	return s.GetInvoice(ctx, inv.ID)
}

func (s *salesInvoiceService) UpdateInvoice(ctx context.Context, id uint, req SaveInvoiceRequest) (InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return InvoiceResponse{}, lookupError("sales invoice", id, err)
	}

	if req.CustomerID != inv.CustomerID {
		applied, err := s.invoiceRepo.CountAllocations(ctx, id)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("failed to check receipt allocations: %w", err)
		}
		if applied > 0 {
			return InvoiceResponse{}, conflictf("sales invoice %d has receipts applied and cannot change customer", id)
		}
	}

	if err := s.applyInvoice(ctx, inv, req); err != nil {
		return InvoiceResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Update(txCtx, inv); err != nil {
			return fmt.Errorf("failed to update sales invoice: %w", err)
		}
		if err := s.invoiceRepo.ReplaceParts(txCtx, inv.ID, inv.Parts); err != nil {
			return fmt.Errorf("failed to replace parts: %w", err)
		}
		s.recorder.audit(txCtx, model.ActionUpdateSalesInvoice, inv.ID, inv.InvoiceNumber, req)
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.recorder.notify("sales-invoices", EventUpdated, inv.ID)
	return s.GetInvoice(ctx, inv.ID)
}

func (s *salesInvoiceService) DeleteInvoice(ctx context.Context, id uint) error {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return lookupError("sales invoice", id, err)
	}

	applied, err := s.invoiceRepo.CountAllocations(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check receipt allocations: %w", err)
	}
	if applied > 0 {
		return conflictf("sales invoice %d has %d receipt allocation(s)", id, applied)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete sales invoice: %w", err)
		}
		s.recorder.audit(txCtx, model.ActionDeleteSalesInvoice, id, inv.InvoiceNumber, map[string]uint{"deleted_id": id})
		return nil
	})
	if err != nil {
		return err
	}

	s.recorder.notify("sales-invoices", EventDeleted, id)
	return nil
}

func (s *salesInvoiceService) GetInvoice(ctx context.Context, id uint) (InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return InvoiceResponse{}, lookupError("sales invoice", id, err)
	}
	applied, err := s.invoiceRepo.AppliedAmounts(ctx, []uint{id})
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to sum receipt allocations: %w", err)
	}
	return toInvoiceResponse(*inv, applied[id]), nil
}

func (s *salesInvoiceService) ListInvoices(ctx context.Context, filter InvoiceListFilter, page, limit int) ([]InvoiceResponse, int64, error) {
	repoFilter := repository.SalesInvoiceFilter{
		CustomerID:  filter.CustomerID,
		InvoiceType: filter.InvoiceType,
		Search:      filter.Search,
	}

	// balances are derived, so the open filter pages in memory
	repoPage, repoLimit := page, limit
	if filter.OpenOnly {
		repoPage, repoLimit = 1, 0
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repoFilter, repoPage, repoLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sales invoices: %w", err)
	}

	ids := make([]uint, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	applied, err := s.invoiceRepo.AppliedAmounts(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to sum receipt allocations: %w", err)
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		r := toInvoiceResponse(inv, applied[inv.ID])
		if filter.OpenOnly && !r.Balance.IsPositive() {
			continue
		}
		res = append(res, r)
	}

	if !filter.OpenOnly {
		return res, total, nil
	}
	return pageSlice(res, page, limit), int64(len(res)), nil
}

func (s *salesInvoiceService) PreviewTotals(req TotalsRequest) (TotalsResponse, error) {
	parts, err := toPartModels(req.Parts)
	if err != nil {
		return TotalsResponse{}, err
	}
	inv := totals.Recompute(model.SalesInvoice{
		TotalSalesVATInclusive: req.TotalSalesVATInclusive,
		Parts:                  parts,
	})
	return TotalsResponse{
		Parts:                  toPartPayloads(inv.Parts),
		TotalSalesVATInclusive: inv.TotalSalesVATInclusive,
		VAT:                    inv.VAT,
		Net:                    inv.Net,
		TotalAmountPayable:     inv.TotalAmountPayable,
	}, nil
}

// --- Response mappers ---

func pageSlice[T any](items []T, page, limit int) []T {
	if limit < 1 {
		return items
	}
	start := pagination.Offset(page, limit)
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func toPartPayloads(parts []model.InvoicePart) []PartPayload {
	if len(parts) == 0 {
		return nil
	}
	out := make([]PartPayload, 0, len(parts))
	for _, p := range parts {
		out = append(out, PartPayload{
			PartNumber:      p.PartNumber,
			ItemDescription: p.ItemDescription,
			Quantity:        p.Quantity,
			UnitPrice:       p.UnitPrice,
			TotalPrice:      p.TotalPrice,
		})
	}
	return out
}

func toInvoiceResponse(inv model.SalesInvoice, applied decimal.Decimal) InvoiceResponse {
	res := InvoiceResponse{
		ID:                     inv.ID,
		CustomerID:             inv.CustomerID,
		BranchID:               inv.BranchID,
		VehicleID:              inv.VehicleID,
		InvoiceType:            inv.InvoiceType,
		InvoiceNumber:          inv.InvoiceNumber,
		InvoiceDate:            inv.InvoiceDate.Format(model.DateLayout),
		TotalSalesVATInclusive: inv.TotalSalesVATInclusive,
		VAT:                    inv.VAT,
		Net:                    inv.Net,
		TotalAmountPayable:     inv.TotalAmountPayable,
		BankTerms:              inv.BankTerms,
		Downpayment:            inv.Downpayment,
		AmountFinanced:         inv.AmountFinanced,
		Parts:                  toPartPayloads(inv.Parts),
		AmountApplied:          applied,
		Balance:                inv.TotalAmountPayable.Sub(applied),
		CreatedAt:              inv.CreatedAt,
		UpdatedAt:              inv.UpdatedAt,
	}
	if inv.Customer != nil {
		res.CustomerName = inv.Customer.CustomerName
	}
	if inv.Branch != nil {
		res.BranchName = inv.Branch.BranchName
	}
	return res
}
