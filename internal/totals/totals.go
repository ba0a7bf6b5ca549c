// Package totals derives the VAT split of a sales invoice.
//
// Prices are VAT inclusive at a fixed 12% rate, so the VAT portion of a gross amount G
// is G / 1.12 * 0.12 and the net is G minus that VAT.
package totals

import (
	"github.com/shopspring/decimal"

	"backoffice/internal/model"
)

var (
	// VATRate is the output VAT rate baked into every selling price.
	VATRate = decimal.RequireFromString("0.12")

	vatDivisor = decimal.NewFromInt(1).Add(VATRate)
)

// VAT returns the VAT portion contained in a VAT-inclusive amount.
func VAT(gross decimal.Decimal) decimal.Decimal {
	return gross.Div(vatDivisor).Mul(VATRate)
}

// LineTotal is quantity * unit price for one part.
func LineTotal(p model.InvoicePart) decimal.Decimal {
	return p.Quantity.Mul(p.UnitPrice)
}

// Recompute returns a copy of inv with every derived amount brought in line with its inputs.
//
// When the invoice has parts, each part's total price is recomputed and their sum becomes
// the VAT-inclusive total; otherwise the total already on the invoice is used. The input
// is not modified and applying Recompute twice yields the same value. No rounding is
// applied here.
func Recompute(inv model.SalesInvoice) model.SalesInvoice {
	out := inv

	if len(inv.Parts) > 0 {
		parts := make([]model.InvoicePart, len(inv.Parts))
		sum := decimal.Zero
		for i, p := range inv.Parts {
			p.TotalPrice = LineTotal(p)
			sum = sum.Add(p.TotalPrice)
			parts[i] = p
		}
		out.Parts = parts
		out.TotalSalesVATInclusive = sum
	}

	out.VAT = VAT(out.TotalSalesVATInclusive)
	out.TotalAmountPayable = out.TotalSalesVATInclusive
	out.Net = out.TotalAmountPayable.Sub(out.VAT)
	return out
}
