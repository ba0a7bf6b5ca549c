package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"backoffice/internal/allocation"
	"backoffice/internal/database/dbtest"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type recordedEvent struct {
	collection string
	action     string
	id         uint
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeNotifier) Publish(collection, action string, id uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{collection, action, id})
}

func (f *fakeNotifier) has(collection, action string, id uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e == (recordedEvent{collection, action, id}) {
			return true
		}
	}
	return false
}

type testEnv struct {
	db        *gorm.DB
	notifier  *fakeNotifier
	customers CustomerService
	branches  BranchService
	vehicles  VehicleService
	invoices  SalesInvoiceService
	receipts  OfficialReceiptService
	audit     AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	n := &fakeNotifier{}
	log := zap.NewNop()

	customerRepo := repository.NewCustomerRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	invoiceRepo := repository.NewSalesInvoiceRepository(db)
	receiptRepo := repository.NewOfficialReceiptRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	tm := repository.NewTransactionManager(db)

	return &testEnv{
		db:        db,
		notifier:  n,
		customers: NewCustomerService(customerRepo, auditRepo, n, log),
		branches:  NewBranchService(branchRepo, auditRepo, n, log),
		vehicles:  NewVehicleService(vehicleRepo, auditRepo, n, log),
		invoices:  NewSalesInvoiceService(invoiceRepo, customerRepo, branchRepo, vehicleRepo, auditRepo, tm, n, log),
		receipts:  NewOfficialReceiptService(receiptRepo, invoiceRepo, customerRepo, branchRepo, auditRepo, tm, n, log),
		audit:     NewAuditService(auditRepo),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// assertAmount compares at 4 places; sqlite stores numerics as floats
func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, dec(want).StringFixed(4), got.StringFixed(4))
}

func (e *testEnv) customer(t *testing.T, name string) CustomerResponse {
	t.Helper()
	c, err := e.customers.CreateCustomer(context.Background(), SaveCustomerRequest{CustomerName: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) branch(t *testing.T, name string) model.Branch {
	t.Helper()
	b, err := e.branches.CreateBranch(context.Background(), SaveBranchRequest{BranchName: name})
	require.NoError(t, err)
	return b
}

func (e *testEnv) partsInvoice(t *testing.T, customerID, branchID uint, number string, parts ...PartPayload) InvoiceResponse {
	t.Helper()
	inv, err := e.invoices.CreateInvoice(context.Background(), SaveInvoiceRequest{
		CustomerID:    customerID,
		BranchID:      branchID,
		InvoiceType:   model.InvoiceTypeParts,
		InvoiceNumber: number,
		InvoiceDate:   "2024-01-05",
		Parts:         parts,
	})
	require.NoError(t, err)
	return inv
}

func part(qty, price string) PartPayload {
	return PartPayload{PartNumber: "P", Quantity: dec(qty), UnitPrice: dec(price)}
}

func TestCreateInvoice_RecomputesPartsTotals(t *testing.T) {
	env := newTestEnv(t)
	c := env.customer(t, "Juan")
	b := env.branch(t, "Main")

	inv, err := env.invoices.CreateInvoice(context.Background(), SaveInvoiceRequest{
		CustomerID:             c.ID,
		BranchID:               b.ID,
		InvoiceType:            model.InvoiceTypeParts,
		InvoiceNumber:          "SI-1",
		InvoiceDate:            "2024-01-05",
		TotalSalesVATInclusive: dec("999"), // stale client value
		VAT:                    dec("1"),
		Parts:                  []PartPayload{part("2", "100"), part("1", "50")},
	})
	require.NoError(t, err)

	require.Len(t, inv.Parts, 2)
	assertAmount(t, "200", inv.Parts[0].TotalPrice)
	assertAmount(t, "50", inv.Parts[1].TotalPrice)
	assertAmount(t, "250", inv.TotalSalesVATInclusive)
	assertAmount(t, "26.7857", inv.VAT)
	assertAmount(t, "223.2143", inv.Net)
	assertAmount(t, "250", inv.TotalAmountPayable)
	assertAmount(t, "250", inv.Balance)
	assert.Equal(t, "Juan", inv.CustomerName)
	assert.Equal(t, "Main", inv.BranchName)
	assert.Equal(t, "2024-01-05", inv.InvoiceDate)
	assert.True(t, env.notifier.has("sales-invoices", EventCreated, inv.ID))

	logs, total, err := env.audit.GetAuditLogs(context.Background(), model.ActionCreateSalesInvoice, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "SI-1", logs[0].EntityName)
}

func TestCreateInvoice_VehicleRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "Juan")
	b := env.branch(t, "Main")
	v, err := env.vehicles.CreateVehicle(ctx, SaveVehicleRequest{Make: "Isuzu", Description: "Isuzu NLR"})
	require.NoError(t, err)

	base := SaveInvoiceRequest{
		CustomerID:             c.ID,
		BranchID:               b.ID,
		InvoiceType:            model.InvoiceTypeVehicle,
		InvoiceNumber:          "SI-V1",
		InvoiceDate:            "2024-03-01",
		TotalSalesVATInclusive: dec("1120000"),
		Parts:                  []PartPayload{part("1", "5")},
	}

	_, err = env.invoices.CreateInvoice(ctx, base)
	assert.ErrorIs(t, err, ErrInvalidInput, "vehicle is required")

	missing := uint(999)
	base.VehicleID = &missing
	_, err = env.invoices.CreateInvoice(ctx, base)
	assert.ErrorIs(t, err, ErrInvalidInput)

	base.VehicleID = &v.ID
	inv, err := env.invoices.CreateInvoice(ctx, base)
	require.NoError(t, err)
	assert.Empty(t, inv.Parts, "parts are dropped on vehicle invoices")
	assertAmount(t, "120000", inv.VAT)
	assertAmount(t, "1000000", inv.Net)
	assertAmount(t, "1120000", inv.TotalAmountPayable)
	require.NotNil(t, inv.VehicleID)
	assert.Equal(t, v.ID, *inv.VehicleID)

	err = env.vehicles.DeleteVehicle(ctx, v.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateInvoice_Validation(t *testing.T) {
	env := newTestEnv(t)
	c := env.customer(t, "Juan")
	b := env.branch(t, "Main")
	env.partsInvoice(t, c.ID, b.ID, "SI-1")

	valid := func() SaveInvoiceRequest {
		return SaveInvoiceRequest{
			CustomerID:    c.ID,
			BranchID:      b.ID,
			InvoiceType:   model.InvoiceTypeParts,
			InvoiceNumber: "SI-2",
			InvoiceDate:   "2024-01-05",
		}
	}

	tests := []struct {
		name   string
		mutate func(*SaveInvoiceRequest)
		want   error
	}{
		{"duplicate number", func(r *SaveInvoiceRequest) { r.InvoiceNumber = "SI-1" }, ErrConflict},
		{"blank number", func(r *SaveInvoiceRequest) { r.InvoiceNumber = "  " }, ErrInvalidInput},
		{"bad type", func(r *SaveInvoiceRequest) { r.InvoiceType = "Service" }, ErrInvalidInput},
		{"bad date", func(r *SaveInvoiceRequest) { r.InvoiceDate = "05/01/2024" }, ErrInvalidInput},
		{"unknown customer", func(r *SaveInvoiceRequest) { r.CustomerID = 999 }, ErrInvalidInput},
		{"unknown branch", func(r *SaveInvoiceRequest) { r.BranchID = 999 }, ErrInvalidInput},
		{"negative quantity", func(r *SaveInvoiceRequest) { r.Parts = []PartPayload{part("-1", "10")} }, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			_, err := env.invoices.CreateInvoice(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateInvoice_ReplacesParts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "Juan")
	b := env.branch(t, "Main")
	inv := env.partsInvoice(t, c.ID, b.ID, "SI-1", part("1", "100"))

	updated, err := env.invoices.UpdateInvoice(ctx, inv.ID, SaveInvoiceRequest{
		CustomerID:    c.ID,
		BranchID:      b.ID,
		InvoiceType:   model.InvoiceTypeParts,
		InvoiceNumber: "SI-1",
		InvoiceDate:   "2024-01-06",
		Parts:         []PartPayload{part("3", "10"), part("1", "2.5")},
	})
	require.NoError(t, err)
	require.Len(t, updated.Parts, 2)
	assertAmount(t, "32.5", updated.TotalAmountPayable)
	assert.Equal(t, "2024-01-06", updated.InvoiceDate)
	assert.True(t, env.notifier.has("sales-invoices", EventUpdated, inv.ID))

	_, err = env.invoices.UpdateInvoice(ctx, 999, SaveInvoiceRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreviewTotals(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.invoices.PreviewTotals(TotalsRequest{Parts: []PartPayload{part("2", "100"), part("1", "50")}})
	require.NoError(t, err)
	assert.Equal(t, "250", res.TotalSalesVATInclusive.String())
	assert.Equal(t, "26.7857", res.VAT.StringFixed(4))
	assert.Equal(t, "200", res.Parts[0].TotalPrice.String())

	res, err = env.invoices.PreviewTotals(TotalsRequest{TotalSalesVATInclusive: dec("1120")})
	require.NoError(t, err)
	assert.True(t, res.VAT.Equal(dec("120")))
	assert.True(t, res.Net.Equal(dec("1000")))
}

func receiptRequest(customerID, branchID uint, number string, allocs ...allocation.Allocation) SaveReceiptRequest {
	return SaveReceiptRequest{
		CustomerID:    customerID,
		BranchID:      branchID,
		ReceiptNumber: number,
		ReceiptDate:   "2024-02-01",
		Amount:        dec("100"),
		Payments:      []PaymentPayload{{Method: "Cash", Amount: dec("100")}},
		SalesInvoice:  allocs,
	}
}

func TestReceipt_AllocationsAndBalances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "Juan")
	b := env.branch(t, "Main")
	a := env.partsInvoice(t, c.ID, b.ID, "SI-1", part("1", "100"))
	other := env.partsInvoice(t, c.ID, b.ID, "SI-2", part("1", "40"))

	r, err := env.receipts.CreateReceipt(ctx, receiptRequest(c.ID, b.ID, "OR-1",
		allocation.Allocation{SalesInvoiceID: a.ID, AppliedAmount: dec("100")},
		allocation.Allocation{SalesInvoiceID: other.ID, AppliedAmount: dec("15")},
	))
	require.NoError(t, err)
	require.Len(t, r.SalesInvoice, 2)
	assertAmount(t, "115", r.TotalApplied)
	assert.True(t, env.notifier.has("sales-invoices", EventUpdated, a.ID))

	got, err := env.invoices.GetInvoice(ctx, a.ID)
	require.NoError(t, err)
	assertAmount(t, "100", got.AmountApplied)
	assertAmount(t, "0", got.Balance)

	open, total, err := env.invoices.ListInvoices(ctx, InvoiceListFilter{CustomerID: c.ID, OpenOnly: true}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, open, 1)
	assert.Equal(t, other.ID, open[0].ID)
	assertAmount(t, "25", open[0].Balance)

	all, total, err := env.invoices.ListInvoices(ctx, InvoiceListFilter{CustomerID: c.ID}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	// paid invoice cannot be deleted
	assert.ErrorIs(t, env.invoices.DeleteInvoice(ctx, a.ID), ErrConflict)

	// edit drops the allocation to a
	updated, err := env.receipts.UpdateReceipt(ctx, r.ID, receiptRequest(c.ID, b.ID, "OR-1",
		allocation.Allocation{SalesInvoiceID: other.ID, AppliedAmount: dec("40")},
	))
	require.NoError(t, err)
	require.Len(t, updated.SalesInvoice, 1)
	assert.Equal(t, other.ID, updated.SalesInvoice[0].SalesInvoiceID)
	require.Len(t, updated.Payments, 1)

	require.NoError(t, env.invoices.DeleteInvoice(ctx, a.ID))
}

func TestReceipt_OmitsEmptyAllocations(t *testing.T) {
	env := newTestEnv(t)
	c := env.customer(t, "Juan")
	b := env.branch(t, "Main")

	r, err := env.receipts.CreateReceipt(context.Background(), receiptRequest(c.ID, b.ID, "OR-1"))
	require.NoError(t, err)
	assert.Nil(t, r.SalesInvoice)
	assert.True(t, r.TotalApplied.IsZero())
}

func TestReceipt_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	juan := env.customer(t, "Juan")
	maria := env.customer(t, "Maria")
	b := env.branch(t, "Main")
	mariasInvoice := env.partsInvoice(t, maria.ID, b.ID, "SI-M", part("1", "10"))
	juansInvoice := env.partsInvoice(t, juan.ID, b.ID, "SI-J", part("1", "10"))
	_, err := env.receipts.CreateReceipt(ctx, receiptRequest(juan.ID, b.ID, "OR-1"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     SaveReceiptRequest
		want    error
		wantSub error
	}{
		{
			name:    "other customer's invoice",
			req:     receiptRequest(juan.ID, b.ID, "OR-2", allocation.Allocation{SalesInvoiceID: mariasInvoice.ID}),
			want:    ErrInvalidInput,
			wantSub: allocation.ErrInvoiceNotAvailable,
		},
		{
			name: "duplicate allocation",
			req: receiptRequest(juan.ID, b.ID, "OR-2",
				allocation.Allocation{SalesInvoiceID: juansInvoice.ID},
				allocation.Allocation{SalesInvoiceID: juansInvoice.ID}),
			want:    ErrInvalidInput,
			wantSub: allocation.ErrDuplicateInvoice,
		},
		{
			name:    "negative applied",
			req:     receiptRequest(juan.ID, b.ID, "OR-2", allocation.Allocation{SalesInvoiceID: juansInvoice.ID, AppliedAmount: dec("-1")}),
			want:    ErrInvalidInput,
			wantSub: allocation.ErrNegativeAmount,
		},
		{
			name: "zero amount",
			req: func() SaveReceiptRequest {
				r := receiptRequest(juan.ID, b.ID, "OR-2")
				r.Amount = decimal.Zero
				return r
			}(),
			want: ErrInvalidInput,
		},
		{name: "duplicate number", req: receiptRequest(juan.ID, b.ID, "OR-1"), want: ErrConflict},
		{name: "unknown customer", req: receiptRequest(999, b.ID, "OR-2"), want: ErrInvalidInput},
		{name: "unknown branch", req: receiptRequest(juan.ID, 999, "OR-2"), want: ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.receipts.CreateReceipt(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			if tt.wantSub != nil {
				assert.ErrorIs(t, err, tt.wantSub)
			}
		})
	}
}

func TestDeleteReceipt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "Juan")
	b := env.branch(t, "Main")
	inv := env.partsInvoice(t, c.ID, b.ID, "SI-1", part("1", "100"))
	r, err := env.receipts.CreateReceipt(ctx, receiptRequest(c.ID, b.ID, "OR-1",
		allocation.Allocation{SalesInvoiceID: inv.ID, AppliedAmount: dec("60")}))
	require.NoError(t, err)

	require.NoError(t, env.receipts.DeleteReceipt(ctx, r.ID))

	_, err = env.receipts.GetReceipt(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := env.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assertAmount(t, "100", got.Balance)
	assert.ErrorIs(t, env.receipts.DeleteReceipt(ctx, r.ID), ErrNotFound)
}

func TestDeleteCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "Juan")
	free := env.customer(t, "Nobody")
	b := env.branch(t, "Main")
	env.partsInvoice(t, c.ID, b.ID, "SI-1")

	assert.ErrorIs(t, env.customers.DeleteCustomer(ctx, c.ID), ErrConflict)
	assert.ErrorIs(t, env.branches.DeleteBranch(ctx, b.ID), ErrConflict)
	require.NoError(t, env.customers.DeleteCustomer(ctx, free.ID))
	assert.True(t, env.notifier.has("customers", EventDeleted, free.ID))
	assert.ErrorIs(t, env.customers.DeleteCustomer(ctx, free.ID), ErrNotFound)
}

func TestCustomer_DateOfBirth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.customers.CreateCustomer(ctx, SaveCustomerRequest{CustomerName: "Juan", DateOfBirth: "1990-07-15"})
	require.NoError(t, err)
	require.NotNil(t, c.DateOfBirth)
	assert.Equal(t, "1990-07-15", *c.DateOfBirth)

	c, err = env.customers.UpdateCustomer(ctx, c.ID, SaveCustomerRequest{CustomerName: "Juan"})
	require.NoError(t, err)
	assert.Nil(t, c.DateOfBirth)

	_, err = env.customers.CreateCustomer(ctx, SaveCustomerRequest{CustomerName: "Bad", DateOfBirth: "July 15"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.customers.CreateCustomer(ctx, SaveCustomerRequest{CustomerName: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBranch_UniqueName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	main := env.branch(t, "Main")
	north := env.branch(t, "North")

	_, err := env.branches.CreateBranch(ctx, SaveBranchRequest{BranchName: "main"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.branches.UpdateBranch(ctx, north.ID, SaveBranchRequest{BranchName: "Main"})
	assert.ErrorIs(t, err, ErrConflict)

	renamed, err := env.branches.UpdateBranch(ctx, main.ID, SaveBranchRequest{BranchName: "Main Office"})
	require.NoError(t, err)
	assert.Equal(t, "Main Office", renamed.BranchName)
}

func TestPageSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, pageSlice(items, 2, 2))
	assert.Equal(t, []int{5}, pageSlice(items, 3, 2))
	assert.Equal(t, []int{}, pageSlice(items, 4, 2))
	assert.Equal(t, items, pageSlice(items, 1, 0))
}

func TestStatistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stats := &statisticsService{
		statsRepo: repository.NewStatisticsRepository(env.db),
		now:       func() time.Time { return time.Date(2024, 1, 20, 15, 0, 0, 0, time.UTC) },
	}

	juan := env.customer(t, "Juan")
	maria := env.customer(t, "Maria")
	b := env.branch(t, "Main")
	a := env.partsInvoice(t, juan.ID, b.ID, "SI-1", part("1", "100"))
	env.partsInvoice(t, maria.ID, b.ID, "SI-2", part("3", "100"))
	_, err := env.receipts.CreateReceipt(ctx, receiptRequest(juan.ID, b.ID, "OR-1",
		allocation.Allocation{SalesInvoiceID: a.ID, AppliedAmount: dec("60")},
	))
	require.NoError(t, err)

	// defaults to the current month up to today
	jan, err := stats.GetStatistics(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", jan.StartDate)
	assert.Equal(t, "2024-01-20", jan.EndDate)
	assert.Equal(t, int64(2), jan.InvoiceCount)
	assertAmount(t, "400", jan.TotalInvoiced)
	require.Len(t, jan.ByInvoiceType, 1)
	assert.Equal(t, model.InvoiceTypeParts, jan.ByInvoiceType[0].InvoiceType)
	assert.Equal(t, int64(0), jan.ReceiptCount, "receipt is dated in February")

	assertAmount(t, "400", jan.TotalReceivable)
	assertAmount(t, "60", jan.TotalApplied)
	assertAmount(t, "340", jan.Outstanding)
	require.Len(t, jan.TopBalances, 2)
	assert.Equal(t, "Maria", jan.TopBalances[0].CustomerName)
	assertAmount(t, "300", jan.TopBalances[0].Balance)
	assertAmount(t, "40", jan.TopBalances[1].Balance)

	feb, err := stats.GetStatistics(ctx, "2024-02-01", "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, int64(0), feb.InvoiceCount)
	assert.Equal(t, int64(1), feb.ReceiptCount)
	assertAmount(t, "100", feb.TotalCollected)

	_, err = stats.GetStatistics(ctx, "2024-02-02", "2024-02-01")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
