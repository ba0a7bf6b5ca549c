package allocation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"backoffice/internal/model"
)

// ErrDuplicateInvoice is returned when one invoice appears twice in a receipt.
var ErrDuplicateInvoice = errors.New("invoice allocated more than once")

// Sum adds up the applied amounts.
func Sum(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.AppliedAmount)
	}
	return total
}

// ValidateAllocations checks a receipt's allocations against the invoices of its customer:
// each invoice at most once, amounts not negative, and only invoices from invoices.
func ValidateAllocations(allocs []Allocation, invoices []model.SalesInvoice) error {
	known := make(map[uint]bool, len(invoices))
	for _, inv := range invoices {
		known[inv.ID] = true
	}

	seen := make(map[uint]bool, len(allocs))
	for i, a := range allocs {
		if seen[a.SalesInvoiceID] {
			return fmt.Errorf("salesinvoice[%d]: invoice %d: %w", i, a.SalesInvoiceID, ErrDuplicateInvoice)
		}
		seen[a.SalesInvoiceID] = true

		if a.AppliedAmount.IsNegative() {
			return fmt.Errorf("salesinvoice[%d]: %w", i, ErrNegativeAmount)
		}
		if !known[a.SalesInvoiceID] {
			return fmt.Errorf("salesinvoice[%d]: invoice %d: %w", i, a.SalesInvoiceID, ErrInvoiceNotAvailable)
		}
	}
	return nil
}
