package totals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/model"
)

var tolerance = decimal.New(1, -9)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func part(qty, price string) model.InvoicePart {
	return model.InvoicePart{Quantity: d(qty), UnitPrice: d(price)}
}

func assertClose(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	assert.True(t, want.Sub(got).Abs().LessThan(tolerance), "want %s, got %s", want, got)
}

func TestRecompute_PartsScenario(t *testing.T) {
	inv := model.SalesInvoice{
		InvoiceType: model.InvoiceTypeParts,
		Parts:       []model.InvoicePart{part("2", "100"), part("1", "50")},
	}

	out := Recompute(inv)

	require.Len(t, out.Parts, 2)
	assert.True(t, d("200").Equal(out.Parts[0].TotalPrice))
	assert.True(t, d("50").Equal(out.Parts[1].TotalPrice))
	assert.True(t, d("250").Equal(out.TotalSalesVATInclusive))
	assert.True(t, d("250").Equal(out.TotalAmountPayable))
	assertClose(t, d("26.7857142857"), out.VAT.Round(10))
	assertClose(t, d("223.2142857143"), out.Net.Round(10))
	assert.Equal(t, "26.7857", out.VAT.StringFixed(4))
	assert.Equal(t, "223.2143", out.Net.StringFixed(4))
}

func TestRecompute_DoesNotMutateInput(t *testing.T) {
	inv := model.SalesInvoice{Parts: []model.InvoicePart{part("3", "10")}}

	_ = Recompute(inv)

	assert.True(t, inv.Parts[0].TotalPrice.IsZero())
	assert.True(t, inv.TotalSalesVATInclusive.IsZero())
}

func TestRecompute_DirectTotalWithoutParts(t *testing.T) {
	inv := model.SalesInvoice{
		InvoiceType:            model.InvoiceTypeVehicle,
		TotalSalesVATInclusive: d("1120000"),
	}

	out := Recompute(inv)

	assert.True(t, d("1120000").Equal(out.TotalAmountPayable))
	assertClose(t, d("120000"), out.VAT)
	assertClose(t, d("1000000"), out.Net)
}

func TestRecompute_ZeroInvoice(t *testing.T) {
	out := Recompute(model.SalesInvoice{})

	assert.True(t, out.TotalSalesVATInclusive.IsZero())
	assert.True(t, out.VAT.IsZero())
	assert.True(t, out.Net.IsZero())
	assert.True(t, out.TotalAmountPayable.IsZero())
}

func TestRecompute_PartsOverrideStaleTotals(t *testing.T) {
	inv := model.SalesInvoice{
		TotalSalesVATInclusive: d("999"),
		VAT:                    d("1"),
		Parts: []model.InvoicePart{
			{Quantity: d("4"), UnitPrice: d("2.5"), TotalPrice: d("123")},
		},
	}

	out := Recompute(inv)

	assert.True(t, d("10").Equal(out.Parts[0].TotalPrice))
	assert.True(t, d("10").Equal(out.TotalSalesVATInclusive))
}

func TestRecompute_Properties(t *testing.T) {
	cases := map[string][]model.InvoicePart{
		"single":     {part("1", "0.01")},
		"fractional": {part("1.5", "33.33"), part("7", "0.07")},
		"large":      {part("12", "1999999.99"), part("3", "45000")},
		"zero qty":   {part("0", "500"), part("2", "19.99")},
		"many": {
			part("1", "1"), part("2", "2"), part("3", "3"), part("4", "4"),
			part("5", "5"), part("6", "6"), part("7", "7"), part("8", "8"),
		},
	}

	for name, parts := range cases {
		t.Run(name, func(t *testing.T) {
			out := Recompute(model.SalesInvoice{Parts: parts})

			sum := decimal.Zero
			for _, p := range parts {
				sum = sum.Add(p.Quantity.Mul(p.UnitPrice))
			}
			assert.True(t, sum.Equal(out.TotalSalesVATInclusive))
			assertClose(t, out.TotalSalesVATInclusive.Div(d("1.12")).Mul(d("0.12")), out.VAT)
			assertClose(t, out.TotalAmountPayable, out.Net.Add(out.VAT))

			again := Recompute(out)
			assert.True(t, out.TotalSalesVATInclusive.Equal(again.TotalSalesVATInclusive))
			assert.True(t, out.VAT.Equal(again.VAT))
			assert.True(t, out.Net.Equal(again.Net))
			assert.True(t, out.TotalAmountPayable.Equal(again.TotalAmountPayable))
			for i := range out.Parts {
				assert.True(t, out.Parts[i].TotalPrice.Equal(again.Parts[i].TotalPrice))
			}
		})
	}
}
