package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backoffice/internal/allocation"
	"backoffice/internal/model"
	"backoffice/internal/service"
	"backoffice/internal/session"
	"backoffice/internal/storeclient"
	"backoffice/pkg/response"
)

type fakeStore struct {
	invoices map[uint][]model.SalesInvoice
	receipt  service.ReceiptResponse

	savedReceiptID uint
	savedReceipt   *service.SaveReceiptRequest
	savedInvoice   *service.SaveInvoiceRequest
	listQuery      storeclient.InvoiceQuery
}

func (f *fakeStore) OpenInvoices(_ context.Context, customerID uint) ([]model.SalesInvoice, error) {
	return f.invoices[customerID], nil
}

func (f *fakeStore) GetReceipt(context.Context, uint) (service.ReceiptResponse, error) {
	return f.receipt, nil
}

func (f *fakeStore) SaveReceipt(_ context.Context, id uint, req service.SaveReceiptRequest) (service.ReceiptResponse, error) {
	f.savedReceiptID = id
	f.savedReceipt = &req
	if id == 0 {
		id = 100
	}
	return service.ReceiptResponse{
		ID:            id,
		ReceiptNumber: req.ReceiptNumber,
		ReceiptDate:   req.ReceiptDate,
		Amount:        req.Amount,
		SalesInvoice:  req.SalesInvoice,
		TotalApplied:  allocation.Sum(req.SalesInvoice),
	}, nil
}

func (f *fakeStore) GetInvoice(context.Context, uint) (service.InvoiceResponse, error) {
	return service.InvoiceResponse{}, nil
}

func (f *fakeStore) SaveInvoice(_ context.Context, id uint, req service.SaveInvoiceRequest) (service.InvoiceResponse, error) {
	f.savedInvoice = &req
	return service.InvoiceResponse{
		ID:                     200,
		InvoiceNumber:          req.InvoiceNumber,
		TotalSalesVATInclusive: req.TotalSalesVATInclusive,
		VAT:                    req.VAT,
		Net:                    req.Net,
		TotalAmountPayable:     req.TotalAmountPayable,
		Parts:                  req.Parts,
	}, nil
}

func (f *fakeStore) ListInvoices(_ context.Context, q storeclient.InvoiceQuery) ([]service.InvoiceResponse, response.Meta, error) {
	f.listQuery = q
	return []service.InvoiceResponse{{
		ID:                 7,
		InvoiceNumber:      "SI-7",
		InvoiceDate:        "2024-01-05",
		InvoiceType:        "Parts",
		CustomerName:       "Maria",
		TotalAmountPayable: decimal.NewFromInt(1250),
		AmountApplied:      decimal.NewFromInt(250),
		Balance:            decimal.NewFromInt(1000),
	}}, response.Meta{Page: 1, Limit: 20, Total: 1, TotalPages: 1}, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{invoices: map[uint][]model.SalesInvoice{
		3: {{ID: 7, CustomerID: 3}, {ID: 8, CustomerID: 3}},
		4: {{ID: 9, CustomerID: 4}},
	}}
}

func run(t *testing.T, store *fakeStore, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(func() (Store, error) {
		return store, nil
	}, zap.NewNop())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestReceiptCreate(t *testing.T) {
	store := newFakeStore()
	out, err := run(t, store, "receipt", "create",
		"--customer", "3", "--branch", "1", "--number", "OR-1", "--date", "2024-02-10",
		"--amount", "1,500", "--payment", "Cash::1500:walk-in",
		"--apply", "7=1000", "--apply", "8=500")
	require.NoError(t, err)

	req := store.savedReceipt
	require.NotNil(t, req)
	assert.Equal(t, uint(0), store.savedReceiptID)
	assert.Equal(t, uint(3), req.CustomerID)
	assert.Equal(t, "1500", req.Amount.String())
	require.Len(t, req.Payments, 1)
	assert.Equal(t, "walk-in", req.Payments[0].Remarks)
	assert.Equal(t, []allocation.Allocation{
		{SalesInvoiceID: 7, AppliedAmount: decimal.NewFromInt(1000)},
		{SalesInvoiceID: 8, AppliedAmount: decimal.NewFromInt(500)},
	}, req.SalesInvoice)

	assert.Contains(t, out, "Receipt OR-1 (id 100) saved")
	assert.Contains(t, out, "Total applied: 1,500.00")
}

func TestReceiptCreate_ValidationBlocksSave(t *testing.T) {
	store := newFakeStore()
	_, err := run(t, store, "receipt", "create", "--customer", "3")

	var verr *session.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("receipt_number"))
	assert.Nil(t, store.savedReceipt)
}

func TestReceiptCreate_ForeignInvoice(t *testing.T) {
	store := newFakeStore()
	_, err := run(t, store, "receipt", "create",
		"--customer", "3", "--branch", "1", "--number", "OR-1", "--date", "2024-02-10",
		"--amount", "10", "--apply", "9=10")
	assert.ErrorIs(t, err, allocation.ErrInvoiceNotAvailable)
	assert.Nil(t, store.savedReceipt)
}

func TestReceiptEdit(t *testing.T) {
	store := newFakeStore()
	store.receipt = service.ReceiptResponse{
		ID:            55,
		CustomerID:    3,
		BranchID:      1,
		ReceiptNumber: "OR-55",
		ReceiptDate:   "2024-02-10",
		Amount:        decimal.NewFromInt(300),
		SalesInvoice: []allocation.Allocation{
			{SalesInvoiceID: 7, AppliedAmount: decimal.NewFromInt(100)},
			{SalesInvoiceID: 8, AppliedAmount: decimal.NewFromInt(200)},
		},
	}

	_, err := run(t, store, "receipt", "edit", "55", "--unapply", "7", "--apply", "8=300", "--note", "corrected")
	require.NoError(t, err)

	req := store.savedReceipt
	require.NotNil(t, req)
	assert.Equal(t, uint(55), store.savedReceiptID)
	assert.Equal(t, "OR-55", req.ReceiptNumber)
	assert.Equal(t, "corrected", req.Note)
	assert.Equal(t, []allocation.Allocation{{SalesInvoiceID: 8, AppliedAmount: decimal.NewFromInt(300)}}, req.SalesInvoice)
}

func TestReceiptEdit_CustomerChangeClearsAllocations(t *testing.T) {
	store := newFakeStore()
	store.receipt = service.ReceiptResponse{
		ID: 56, CustomerID: 3, BranchID: 1, ReceiptNumber: "OR-56", ReceiptDate: "2024-02-10",
		Amount:       decimal.NewFromInt(100),
		SalesInvoice: []allocation.Allocation{{SalesInvoiceID: 7, AppliedAmount: decimal.NewFromInt(100)}},
	}

	out, err := run(t, store, "receipt", "edit", "56", "--customer", "4")
	require.NoError(t, err)
	assert.Equal(t, uint(4), store.savedReceipt.CustomerID)
	assert.Nil(t, store.savedReceipt.SalesInvoice)
	assert.Contains(t, out, "No invoices applied")
}

func TestInvoiceCreate_Parts(t *testing.T) {
	store := newFakeStore()
	out, err := run(t, store, "invoice", "create",
		"--customer", "3", "--branch", "1", "--number", "SI-1", "--date", "2024-01-05",
		"--part", "OF-1:Oil filter: 5W-30:2:100", "--part", "BP-9:Brake pad:1:50")
	require.NoError(t, err)

	req := store.savedInvoice
	require.NotNil(t, req)
	require.Len(t, req.Parts, 2)
	assert.Equal(t, "Oil filter: 5W-30", req.Parts[0].ItemDescription)
	assert.Equal(t, "250", req.TotalSalesVATInclusive.String())
	assert.Equal(t, "26.7857", req.VAT.StringFixed(4))
	assert.Contains(t, out, "Total amount payable:        250.00")
}

func TestInvoiceCreate_VehicleRequiresVehicle(t *testing.T) {
	store := newFakeStore()
	_, err := run(t, store, "invoice", "create", "--type", "Vehicle",
		"--customer", "3", "--branch", "1", "--number", "SI-2", "--date", "2024-01-05", "--total", "1120000")

	var verr *session.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("vehicle_id"))
	assert.Nil(t, store.savedInvoice)
}

func TestInvoiceTotals_Offline(t *testing.T) {
	root := NewRootCommand(func() (Store, error) {
		t.Fatal("totals must not open the store")
		return nil, nil
	}, zap.NewNop())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"invoice", "totals", "--total", "1,120,000"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "VAT (12%):                   120,000.00")
	assert.Contains(t, out.String(), "Net of VAT:                  1,000,000.00")
}

func TestInvoiceList(t *testing.T) {
	store := newFakeStore()
	out, err := run(t, store, "invoice", "list", "--customer", "3", "--open")
	require.NoError(t, err)

	assert.Equal(t, uint(3), store.listQuery.CustomerID)
	assert.True(t, store.listQuery.OpenOnly)
	assert.Contains(t, out, "SI-7")
	assert.Contains(t, out, "1,000.00")
	assert.Contains(t, out, "Page 1 of 1 (1 invoices)")
}

func TestParseFlags(t *testing.T) {
	p, err := parsePart("A:desc:3:9.5")
	require.NoError(t, err)
	assert.Equal(t, partFlag{number: "A", description: "desc", qty: "3", price: "9.5"}, p)

	_, err = parsePart("A:3:9.5")
	assert.Error(t, err)

	pay, err := parsePayment("Check:BDO-123:2,000.50")
	require.NoError(t, err)
	assert.Equal(t, "2000.5", pay.Amount.String())

	_, err = parsePayment("Cash")
	assert.Error(t, err)

	id, amt, err := parseApply("7=abc")
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.True(t, amt.IsZero(), "non-numeric amount counts as zero")

	_, _, err = parseApply("x=1")
	assert.Error(t, err)
}
