package session

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"backoffice/internal/allocation"
	"backoffice/internal/service"
	"backoffice/pkg/money"
)

// ReceiptStore is what a receipt form needs from the store.
type ReceiptStore interface {
	allocation.InvoiceFetcher
	GetReceipt(ctx context.Context, id uint) (service.ReceiptResponse, error)
	// SaveReceipt creates the receipt when id is zero and replaces it otherwise.
	SaveReceipt(ctx context.Context, id uint, req service.SaveReceiptRequest) (service.ReceiptResponse, error)
}

// ReceiptHeader holds the plain fields of a receipt form. The customer is selected
// through SelectCustomer because it drives the allocation tracker.
type ReceiptHeader struct {
	BranchID      uint
	ReceiptNumber string
	ReceiptDate   string // 2006-01-02
	Amount        decimal.Decimal
	Note          string
}

// ReceiptSession is one official receipt being created or edited.
type ReceiptSession struct {
	ID     uint // zero until saved
	Header ReceiptHeader

	payments []service.PaymentPayload
	tracker  *allocation.Tracker
	store    ReceiptStore
}

// NewReceipt starts an empty receipt form.
func NewReceipt(store ReceiptStore) *ReceiptSession {
	return &ReceiptSession{
		store:   store,
		tracker: allocation.NewTracker(store),
	}
}

// EditReceipt loads receipt id, fetches its customer's invoices and re-applies the saved
// allocations. Allocations whose invoice is no longer available are dropped.
func EditReceipt(ctx context.Context, store ReceiptStore, id uint) (*ReceiptSession, error) {
	saved, err := store.GetReceipt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt %d: %w", id, err)
	}

	s := NewReceipt(store)
	s.ID = saved.ID
	s.Header = ReceiptHeader{
		BranchID:      saved.BranchID,
		ReceiptNumber: saved.ReceiptNumber,
		ReceiptDate:   saved.ReceiptDate,
		Amount:        saved.Amount,
		Note:          saved.Note,
	}
	s.payments = append(s.payments, saved.Payments...)

	if err := s.tracker.OnCustomerChanged(ctx, saved.CustomerID); err != nil {
		return nil, err
	}
	s.tracker.Restore(saved.SalesInvoice)
	return s, nil
}

// SelectCustomer switches the receipt to another customer, clearing all allocations.
func (s *ReceiptSession) SelectCustomer(ctx context.Context, customerID uint) error {
	return s.tracker.OnCustomerChanged(ctx, customerID)
}

// CustomerID is the selected customer, zero when none.
func (s *ReceiptSession) CustomerID() uint {
	return s.tracker.CustomerID()
}

// Tracker exposes the allocation state for toggling invoices and editing amounts.
func (s *ReceiptSession) Tracker() *allocation.Tracker {
	return s.tracker
}

// SetAmount coerces raw input; non-numeric text becomes zero.
func (s *ReceiptSession) SetAmount(raw string) {
	s.Header.Amount = money.Parse(raw)
}

func (s *ReceiptSession) AddPayment(p service.PaymentPayload) {
	s.payments = append(s.payments, p)
}

func (s *ReceiptSession) RemovePayment(i int) error {
	if i < 0 || i >= len(s.payments) {
		return fmt.Errorf("payment %d: %w", i, ErrIndexOutOfRange)
	}
	s.payments = append(s.payments[:i], s.payments[i+1:]...)
	return nil
}

// Payments returns a copy of the payment rows.
func (s *ReceiptSession) Payments() []service.PaymentPayload {
	return append([]service.PaymentPayload(nil), s.payments...)
}

// Payload builds the request body. SalesInvoice stays nil without allocations so the
// field is left out of the JSON.
func (s *ReceiptSession) Payload() service.SaveReceiptRequest {
	payments := s.Payments()
	if payments == nil {
		payments = []service.PaymentPayload{}
	}
	return service.SaveReceiptRequest{
		CustomerID:    s.tracker.CustomerID(),
		BranchID:      s.Header.BranchID,
		ReceiptNumber: s.Header.ReceiptNumber,
		ReceiptDate:   s.Header.ReceiptDate,
		Amount:        s.Header.Amount,
		Note:          s.Header.Note,
		Payments:      payments,
		SalesInvoice:  s.tracker.Payload(),
	}
}

// Validate checks the required fields. It never touches the store.
func (s *ReceiptSession) Validate() error {
	verr := &ValidationError{}
	if err := checkStruct(s.Payload(), verr); err != nil {
		return err
	}
	if !s.Header.Amount.IsPositive() {
		verr.add("amount", "must be greater than zero")
	}
	return verr.orNil()
}

// Save validates and then creates or updates the receipt. The session keeps the id of
// a newly created receipt so a second Save updates it.
func (s *ReceiptSession) Save(ctx context.Context) (service.ReceiptResponse, error) {
	if err := s.Validate(); err != nil {
		return service.ReceiptResponse{}, err
	}
	saved, err := s.store.SaveReceipt(ctx, s.ID, s.Payload())
	if err != nil {
		return service.ReceiptResponse{}, err
	}
	s.ID = saved.ID
	return saved, nil
}
