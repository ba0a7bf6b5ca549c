package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backoffice/internal/database/dbtest"
	"backoffice/internal/repository"
	"backoffice/internal/service"
)

type nopNotifier struct{}

func (nopNotifier) Publish(string, string, uint) {}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Meta       *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
	Error string `json:"error"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	log := zap.NewNop()
	n := nopNotifier{}

	customerRepo := repository.NewCustomerRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	invoiceRepo := repository.NewSalesInvoiceRepository(db)
	receiptRepo := repository.NewOfficialReceiptRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	tm := repository.NewTransactionManager(db)

	r := gin.New()
	api := r.Group("")
	NewCustomerHandler(service.NewCustomerService(customerRepo, auditRepo, n, log)).RegisterRoutes(api)
	NewBranchHandler(service.NewBranchService(branchRepo, auditRepo, n, log)).RegisterRoutes(api)
	NewVehicleHandler(service.NewVehicleService(vehicleRepo, auditRepo, n, log)).RegisterRoutes(api)
	NewSalesInvoiceHandler(service.NewSalesInvoiceService(invoiceRepo, customerRepo, branchRepo, vehicleRepo, auditRepo, tm, n, log)).RegisterRoutes(api)
	NewOfficialReceiptHandler(service.NewOfficialReceiptService(receiptRepo, invoiceRepo, customerRepo, branchRepo, auditRepo, tm, n, log)).RegisterRoutes(api)
	NewAuditHandler(service.NewAuditService(auditRepo)).RegisterRoutes(api)
	NewStatisticsHandler(service.NewStatisticsService(repository.NewStatisticsRepository(db))).RegisterRoutes(api)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func create(t *testing.T, r http.Handler, path string, body interface{}) uint {
	t.Helper()
	code, env := do(t, r, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var out struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.ID
}

func TestCustomerHandler_CRUD(t *testing.T) {
	r := setupRouter(t)

	id := create(t, r, "/api/customers", gin.H{"customer_name": "Juan Dela Cruz", "date_of_birth": "1990-04-01"})

	code, env := do(t, r, http.MethodGet, fmt.Sprintf("/api/customers/%d", id), nil)
	require.Equal(t, http.StatusOK, code)
	var c service.CustomerResponse
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.Equal(t, "Juan Dela Cruz", c.CustomerName)
	require.NotNil(t, c.DateOfBirth)
	assert.Equal(t, "1990-04-01", *c.DateOfBirth)

	code, env = do(t, r, http.MethodGet, "/api/customers?search=dela&limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)
	assert.Equal(t, 5, env.Meta.Limit)

	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/customers/%d", id), nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/customers/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", env.Status)
}

func TestHandler_BadRequests(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/customers", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "Invalid request payload")

	code, _ = do(t, r, http.MethodGet, "/api/branches/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodPost, "/api/sales-invoices", gin.H{
		"customer_id":    1,
		"branch_id":      1,
		"invoice_type":   "Boat",
		"invoice_number": "SI-1",
		"invoice_date":   "2024-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBranchHandler_DuplicateName(t *testing.T) {
	r := setupRouter(t)

	create(t, r, "/api/branches", gin.H{"branch_name": "Main"})
	code, _ := do(t, r, http.MethodPost, "/api/branches", gin.H{"branch_name": "main"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestSalesInvoiceHandler_PreviewTotals(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/sales-invoices/totals", gin.H{
		"parts": []gin.H{
			{"quantity": 2, "unit_price": 100},
			{"quantity": 1, "unit_price": 50},
		},
	})
	require.Equal(t, http.StatusOK, code, env.Error)

	var totals service.TotalsResponse
	require.NoError(t, json.Unmarshal(env.Data, &totals))
	assert.Equal(t, "250", totals.TotalSalesVATInclusive.String())
	assert.Equal(t, "26.7857", totals.VAT.StringFixed(4))
	assert.Equal(t, "223.2143", totals.Net.StringFixed(4))
}

func TestReceiptFlow_AllocatesAgainstOpenInvoices(t *testing.T) {
	r := setupRouter(t)

	customerID := create(t, r, "/api/customers", gin.H{"customer_name": "Maria"})
	branchID := create(t, r, "/api/branches", gin.H{"branch_name": "Main"})
	invoiceID := create(t, r, "/api/sales-invoices", gin.H{
		"customer_id":    customerID,
		"branch_id":      branchID,
		"invoice_type":   "Parts",
		"invoice_number": "SI-100",
		"invoice_date":   "2024-02-01",
		"parts":          []gin.H{{"part_number": "OF-1", "quantity": 4, "unit_price": 25}},
	})

	receiptID := create(t, r, "/api/official-receipts", gin.H{
		"customer_id":    customerID,
		"branch_id":      branchID,
		"receipt_number": "OR-1",
		"receipt_date":   "2024-02-10",
		"amount":         100,
		"payments":       []gin.H{{"method": "Cash", "amount": 100}},
		"salesinvoice":   []gin.H{{"sales_invoice_id": invoiceID, "applied_amount": 100}},
	})

	code, env := do(t, r, http.MethodGet, fmt.Sprintf("/api/sales-invoices?customer_id=%d&open=true", customerID), nil)
	require.Equal(t, http.StatusOK, code)
	var open []service.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &open))
	assert.Empty(t, open, "fully paid invoice is no longer open")

	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/sales-invoices/%d", invoiceID), nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/official-receipts/%d", receiptID), nil)
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/sales-invoices?customer_id=%d&open=true", customerID), nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &open))
	require.Len(t, open, 1)
	assert.Equal(t, "100.0000", open[0].Balance.StringFixed(4))

	code, env = do(t, r, http.MethodGet, "/api/audit-logs?action=DELETE_OFFICIAL_RECEIPT", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), env.Meta.Total)
}

func TestReceiptHandler_RejectsForeignInvoice(t *testing.T) {
	r := setupRouter(t)

	maria := create(t, r, "/api/customers", gin.H{"customer_name": "Maria"})
	pedro := create(t, r, "/api/customers", gin.H{"customer_name": "Pedro"})
	branchID := create(t, r, "/api/branches", gin.H{"branch_name": "Main"})
	invoiceID := create(t, r, "/api/sales-invoices", gin.H{
		"customer_id":               pedro,
		"branch_id":                 branchID,
		"invoice_type":              "Parts",
		"invoice_number":            "SI-200",
		"invoice_date":              "2024-02-01",
		"total_sales_vat_inclusive": 500,
	})

	code, env := do(t, r, http.MethodPost, "/api/official-receipts", gin.H{
		"customer_id":    maria,
		"branch_id":      branchID,
		"receipt_number": "OR-2",
		"receipt_date":   "2024-02-10",
		"amount":         100,
		"salesinvoice":   []gin.H{{"sales_invoice_id": invoiceID, "applied_amount": 100}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "salesinvoice[0]")
}

func TestStatisticsHandler(t *testing.T) {
	r := setupRouter(t)

	customerID := create(t, r, "/api/customers", gin.H{"customer_name": "Maria"})
	branchID := create(t, r, "/api/branches", gin.H{"branch_name": "Main"})
	create(t, r, "/api/sales-invoices", gin.H{
		"customer_id":               customerID,
		"branch_id":                 branchID,
		"invoice_type":              "Parts",
		"invoice_number":            "SI-1",
		"invoice_date":              "2024-03-31",
		"total_sales_vat_inclusive": 1120,
	})

	code, env := do(t, r, http.MethodGet, "/api/statistics?start_date=2024-03-01&end_date=2024-03-31", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var stats struct {
		InvoiceCount int64   `json:"invoice_count"`
		Outstanding  float64 `json:"outstanding"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(1), stats.InvoiceCount, "end date is inclusive")
	assert.InDelta(t, 1120, stats.Outstanding, 0.0001)

	code, _ = do(t, r, http.MethodGet, "/api/statistics?start_date=2024-03-31&end_date=2024-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodGet, "/api/statistics?start_date=March", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
