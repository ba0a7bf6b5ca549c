// Package allocation tracks how an official receipt's payment is applied across the
// outstanding sales invoices of one customer.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"backoffice/internal/model"
)

var (
	// ErrSuperseded is returned by OnCustomerChanged when a newer customer selection
	// started while the fetch was in flight. The result of the stale fetch is discarded.
	ErrSuperseded = errors.New("customer selection superseded by a newer one")

	// ErrInvoiceNotAvailable means the invoice does not belong to the selected customer's open invoices.
	ErrInvoiceNotAvailable = errors.New("invoice is not available for the selected customer")

	// ErrNegativeAmount rejects applied amounts below zero.
	ErrNegativeAmount = errors.New("applied amount cannot be negative")
)

// Allocation is the part of a receipt applied to one sales invoice.
type Allocation struct {
	SalesInvoiceID uint            `json:"sales_invoice_id" binding:"required"`
	AppliedAmount  decimal.Decimal `json:"applied_amount"`
}

// InvoiceFetcher loads the invoices a customer can still apply payments to.
type InvoiceFetcher interface {
	OpenInvoices(ctx context.Context, customerID uint) ([]model.SalesInvoice, error)
}

// Tracker holds the allocation state of one receipt being created or edited.
//
// Every customer change takes a new sequence number. A fetch that completes after a
// newer change started is dropped, so the newest selection always wins regardless of
// the order in which fetches finish.
type Tracker struct {
	fetcher InvoiceFetcher

	mu          sync.Mutex
	seq         uint64
	customerID  uint
	available   []model.SalesInvoice
	allocations []Allocation
}

// NewTracker creates an empty tracker backed by fetcher.
func NewTracker(fetcher InvoiceFetcher) *Tracker {
	return &Tracker{fetcher: fetcher}
}

// OnCustomerChanged switches the tracker to customerID.
//
// Allocations are always discarded. A zero id clears the available invoices; any other id
// loads that customer's invoices. Fetch errors are returned as-is (wrapped) and leave
// the tracker empty for the new customer.
func (t *Tracker) OnCustomerChanged(ctx context.Context, customerID uint) error {
	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.customerID = customerID
	t.available = nil
	t.allocations = nil
	t.mu.Unlock()

	if customerID == 0 {
		return nil
	}

	invoices, err := t.fetcher.OpenInvoices(ctx, customerID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if seq != t.seq {
		return ErrSuperseded
	}
	if err != nil {
		return fmt.Errorf("failed to load invoices for customer %d: %w", customerID, err)
	}

	t.available = invoices
	t.allocations = nil
	return nil
}

// Toggle removes the allocation for invoiceID when present, otherwise adds it with a zero
// applied amount.
func (t *Tracker) Toggle(invoiceID uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i := t.indexOf(invoiceID); i >= 0 {
		t.allocations = append(t.allocations[:i:i], t.allocations[i+1:]...)
		return nil
	}
	if !t.isAvailable(invoiceID) {
		return fmt.Errorf("invoice %d: %w", invoiceID, ErrInvoiceNotAvailable)
	}

	t.allocations = append(t.allocations, Allocation{SalesInvoiceID: invoiceID, AppliedAmount: decimal.Zero})
	return nil
}

// SetAppliedAmount changes the amount applied to an allocated invoice. It does nothing
// when the invoice is not allocated.
func (t *Tracker) SetAppliedAmount(invoiceID uint, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if i := t.indexOf(invoiceID); i >= 0 {
		t.allocations[i].AppliedAmount = amount
	}
	return nil
}

// Restore re-applies previously saved allocations after the customer's invoices are
// loaded, e.g. when a saved receipt is opened for editing. Entries for invoices that are
// not available, duplicates and negative amounts are skipped. It returns how many were kept.
func (t *Tracker) Restore(saved []Allocation) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.allocations = nil
	for _, a := range saved {
		if !t.isAvailable(a.SalesInvoiceID) || t.indexOf(a.SalesInvoiceID) >= 0 || a.AppliedAmount.IsNegative() {
			continue
		}
		t.allocations = append(t.allocations, a)
	}
	return len(t.allocations)
}

// Payload returns the allocations for persistence, or nil when nothing is applied so the
// field is left out of the saved receipt.
func (t *Tracker) Payload() []Allocation {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.allocations) == 0 {
		return nil
	}
	out := make([]Allocation, len(t.allocations))
	copy(out, t.allocations)
	return out
}

// Allocations returns a copy of the current allocations (never nil).
func (t *Tracker) Allocations() []Allocation {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Allocation, len(t.allocations))
	copy(out, t.allocations)
	return out
}

// AvailableInvoices returns a copy of the selected customer's invoices (never nil).
func (t *Tracker) AvailableInvoices() []model.SalesInvoice {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.SalesInvoice, len(t.available))
	copy(out, t.available)
	return out
}

// CustomerID is the currently selected customer, zero when none.
func (t *Tracker) CustomerID() uint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.customerID
}

// IsApplied reports whether invoiceID has an allocation.
func (t *Tracker) IsApplied(invoiceID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.indexOf(invoiceID) >= 0
}

// Applied returns the allocation for invoiceID.
func (t *Tracker) Applied(invoiceID uint) (Allocation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i := t.indexOf(invoiceID); i >= 0 {
		return t.allocations[i], true
	}
	return Allocation{}, false
}

// TotalApplied sums the applied amounts.
func (t *Tracker) TotalApplied() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Sum(t.allocations)
}

// caller holds t.mu
func (t *Tracker) indexOf(invoiceID uint) int {
	for i, a := range t.allocations {
		if a.SalesInvoiceID == invoiceID {
			return i
		}
	}
	return -1
}

// caller holds t.mu
func (t *Tracker) isAvailable(invoiceID uint) bool {
	for _, inv := range t.available {
		if inv.ID == invoiceID {
			return true
		}
	}
	return false
}
