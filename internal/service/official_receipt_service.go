package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backoffice/internal/allocation"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// --- Payment DTO ---

type PaymentPayload struct {
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Remarks   string          `json:"remarks"`
}

// --- Official receipt DTOs ---

// SaveReceiptRequest is the full receipt document. SalesInvoice carries the allocations
// and is left out entirely when nothing is applied.
type SaveReceiptRequest struct {
	CustomerID    uint                    `json:"customer_id" binding:"required"`
	BranchID      uint                    `json:"branch_id" binding:"required"`
	ReceiptNumber string                  `json:"receipt_number" binding:"required"`
	ReceiptDate   string                  `json:"receipt_date" binding:"required,datetime=2006-01-02"`
	Amount        decimal.Decimal         `json:"amount"`
	Note          string                  `json:"note"`
	Payments      []PaymentPayload        `json:"payments"`
	SalesInvoice  []allocation.Allocation `json:"salesinvoice,omitempty" binding:"omitempty,dive"`
}

type ReceiptResponse struct {
	ID            uint                    `json:"id"`
	CustomerID    uint                    `json:"customer_id"`
	CustomerName  string                  `json:"customer_name"`
	BranchID      uint                    `json:"branch_id"`
	BranchName    string                  `json:"branch_name"`
	ReceiptNumber string                  `json:"receipt_number"`
	ReceiptDate   string                  `json:"receipt_date"`
	Amount        decimal.Decimal         `json:"amount"`
	Note          string                  `json:"note"`
	Payments      []PaymentPayload        `json:"payments"`
	SalesInvoice  []allocation.Allocation `json:"salesinvoice,omitempty"`
	TotalApplied  decimal.Decimal         `json:"total_applied"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// --- Interface ---

type OfficialReceiptService interface {
	CreateReceipt(ctx context.Context, req SaveReceiptRequest) (ReceiptResponse, error)
	UpdateReceipt(ctx context.Context, id uint, req SaveReceiptRequest) (ReceiptResponse, error)
	DeleteReceipt(ctx context.Context, id uint) error
	GetReceipt(ctx context.Context, id uint) (ReceiptResponse, error)
	ListReceipts(ctx context.Context, customerID uint, search string, page, limit int) ([]ReceiptResponse, int64, error)
}

// --- Implementation ---

type officialReceiptService struct {
	receiptRepo  repository.OfficialReceiptRepository
	invoiceRepo  repository.SalesInvoiceRepository
	customerRepo repository.CustomerRepository
	branchRepo   repository.BranchRepository
	txManager    repository.TransactionManager
	recorder     recorder
}

func NewOfficialReceiptService(
	receiptRepo repository.OfficialReceiptRepository,
	invoiceRepo repository.SalesInvoiceRepository,
	customerRepo repository.CustomerRepository,
	branchRepo repository.BranchRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	log *zap.Logger,
) OfficialReceiptService {
	return &officialReceiptService{
		receiptRepo:  receiptRepo,
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		branchRepo:   branchRepo,
		txManager:    txManager,
		recorder:     newRecorder(auditRepo, notifier, log),
	}
}

// applyReceipt validates req and writes it onto r, including payments and allocations
func (s *officialReceiptService) applyReceipt(ctx context.Context, r *model.OfficialReceipt, req SaveReceiptRequest) error {
	number := strings.TrimSpace(req.ReceiptNumber)
	if number == "" {
		return invalidf("receipt_number is required")
	}
	date, err := parseRequiredDate("receipt_date", req.ReceiptDate)
	if err != nil {
		return err
	}
	if !req.Amount.IsPositive() {
		return invalidf("amount must be greater than zero")
	}
	for i, p := range req.Payments {
		if p.Amount.IsNegative() {
			return invalidf("payments[%d]: amount cannot be negative", i)
		}
	}

	if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		return referenceError("customer", req.CustomerID, err)
	}
	if _, err := s.branchRepo.FindByID(ctx, req.BranchID); err != nil {
		return referenceError("branch", req.BranchID, err)
	}

	if len(req.SalesInvoice) > 0 {
		invoices, err := s.invoiceRepo.ListByCustomer(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to load customer invoices: %w", err)
		}
		if err := allocation.ValidateAllocations(req.SalesInvoice, invoices); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	taken, err := s.receiptRepo.NumberTaken(ctx, number, r.ID)
	if err != nil {
		return fmt.Errorf("failed to check receipt number: %w", err)
	}
	if taken {
		return conflictf("receipt number %q already exists", number)
	}

	r.CustomerID = req.CustomerID
	r.BranchID = req.BranchID
	r.ReceiptNumber = number
	r.ReceiptDate = date
	r.Amount = req.Amount
	r.Note = req.Note
	r.Customer, r.Branch = nil, nil

	r.Payments = make([]model.ReceiptPayment, 0, len(req.Payments))
	for _, p := range req.Payments {
		r.Payments = append(r.Payments, model.ReceiptPayment{
			Method:    p.Method,
			Reference: p.Reference,
			Amount:    p.Amount,
			Remarks:   p.Remarks,
		})
	}
	r.Allocations = make([]model.ReceiptAllocation, 0, len(req.SalesInvoice))
	for _, a := range req.SalesInvoice {
		r.Allocations = append(r.Allocations, model.ReceiptAllocation{
			SalesInvoiceID: a.SalesInvoiceID,
			AppliedAmount:  a.AppliedAmount,
		})
	}
	return nil
}

func (s *officialReceiptService) CreateReceipt(ctx context.Context, req SaveReceiptRequest) (ReceiptResponse, error) {
	receipt := &model.OfficialReceipt{}
	if err := s.applyReceipt(ctx, receipt, req); err != nil {
		return ReceiptResponse{}, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.receiptRepo.Create(txCtx, receipt); err != nil {
			return fmt.Errorf("failed to create official receipt: %w", err)
		}
		s.recorder.audit(txCtx, model.ActionCreateOfficialReceipt, receipt.ID, receipt.ReceiptNumber, req)
		return nil
	})
	if err != nil {
		return ReceiptResponse{}, err
	}

	s.recorder.notify("official-receipts", EventCreated, receipt.ID)
	s.notifyInvoices(req.SalesInvoice, nil)
	return s.GetReceipt(ctx, receipt.ID)
}

func (s *officialReceiptService) UpdateReceipt(ctx context.Context, id uint, req SaveReceiptRequest) (ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return ReceiptResponse{}, lookupError("official receipt", id, err)
	}
	previous := toAllocations(receipt.Allocations)

	if err := s.applyReceipt(ctx, receipt, req); err != nil {
		return ReceiptResponse{}, err
	}

	// payments and allocations are replaced as a whole together with the receipt row
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.receiptRepo.Update(txCtx, receipt); err != nil {
			return fmt.Errorf("failed to update official receipt: %w", err)
		}
		if err := s.receiptRepo.ReplacePayments(txCtx, receipt.ID, receipt.Payments); err != nil {
			return fmt.Errorf("failed to replace payments: %w", err)
		}
		if err := s.receiptRepo.ReplaceAllocations(txCtx, receipt.ID, receipt.Allocations); err != nil {
			return fmt.Errorf("failed to replace allocations: %w", err)
		}
		s.recorder.audit(txCtx, model.ActionUpdateOfficialReceipt, receipt.ID, receipt.ReceiptNumber, req)
		return nil
	})
	if err != nil {
		return ReceiptResponse{}, err
	}

	s.recorder.notify("official-receipts", EventUpdated, receipt.ID)
	s.notifyInvoices(req.SalesInvoice, previous)
	return s.GetReceipt(ctx, receipt.ID)
}

func (s *officialReceiptService) DeleteReceipt(ctx context.Context, id uint) error {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return lookupError("official receipt", id, err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.receiptRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete official receipt: %w", err)
		}
		s.recorder.audit(txCtx, model.ActionDeleteOfficialReceipt, id, receipt.ReceiptNumber, map[string]uint{"deleted_id": id})
		return nil
	})
	if err != nil {
		return err
	}

	s.recorder.notify("official-receipts", EventDeleted, id)
	s.notifyInvoices(nil, toAllocations(receipt.Allocations))
	return nil
}

func (s *officialReceiptService) GetReceipt(ctx context.Context, id uint) (ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return ReceiptResponse{}, lookupError("official receipt", id, err)
	}
	return toReceiptResponse(*receipt), nil
}

func (s *officialReceiptService) ListReceipts(ctx context.Context, customerID uint, search string, page, limit int) ([]ReceiptResponse, int64, error) {
	receipts, total, err := s.receiptRepo.List(ctx, repository.OfficialReceiptFilter{CustomerID: customerID, Search: search}, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch official receipts: %w", err)
	}

	res := make([]ReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		res = append(res, toReceiptResponse(r))
	}
	return res, total, nil
}

// notifyInvoices announces balance changes on every invoice a receipt touched
func (s *officialReceiptService) notifyInvoices(current, previous []allocation.Allocation) {
	seen := make(map[uint]bool)
	for _, list := range [][]allocation.Allocation{current, previous} {
		for _, a := range list {
			if !seen[a.SalesInvoiceID] {
				seen[a.SalesInvoiceID] = true
				s.recorder.notify("sales-invoices", EventUpdated, a.SalesInvoiceID)
			}
		}
	}
}

// --- Response mappers ---

func toAllocations(allocs []model.ReceiptAllocation) []allocation.Allocation {
	if len(allocs) == 0 {
		return nil
	}
	out := make([]allocation.Allocation, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, allocation.Allocation{SalesInvoiceID: a.SalesInvoiceID, AppliedAmount: a.AppliedAmount})
	}
	return out
}

func toReceiptResponse(r model.OfficialReceipt) ReceiptResponse {
	payments := make([]PaymentPayload, 0, len(r.Payments))
	for _, p := range r.Payments {
		payments = append(payments, PaymentPayload{
			Method:    p.Method,
			Reference: p.Reference,
			Amount:    p.Amount,
			Remarks:   p.Remarks,
		})
	}
	allocs := toAllocations(r.Allocations)

	res := ReceiptResponse{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		BranchID:      r.BranchID,
		ReceiptNumber: r.ReceiptNumber,
		ReceiptDate:   r.ReceiptDate.Format(model.DateLayout),
		Amount:        r.Amount,
		Note:          r.Note,
		Payments:      payments,
		SalesInvoice:  allocs,
		TotalApplied:  allocation.Sum(allocs),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.Customer != nil {
		res.CustomerName = r.Customer.CustomerName
	}
	if r.Branch != nil {
		res.BranchName = r.Branch.BranchName
	}
	return res
}
