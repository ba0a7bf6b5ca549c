package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"
)

type SalesInvoiceHandler struct {
	invoiceService service.SalesInvoiceService
}

func NewSalesInvoiceHandler(invoiceService service.SalesInvoiceService) *SalesInvoiceHandler {
	return &SalesInvoiceHandler{invoiceService: invoiceService}
}

func (h *SalesInvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/sales-invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.POST("", h.CreateInvoice)
		invoices.POST("/totals", h.PreviewTotals)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
	}
}

// ListInvoices returns paginated sales invoices with their balances
// @Summary      List sales invoices
// @Tags         sales-invoices
// @Produce      json
// @Param        customer_id  query     int     false  "Only invoices of this customer"
// @Param        type         query     string  false  "Vehicle or Parts"
// @Param        open         query     bool    false  "Only invoices with a positive balance"
// @Param        search       query     string  false  "Search by invoice number"
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Success      200          {object}  response.Response{data=[]service.InvoiceResponse}
// @Router       /api/sales-invoices [get]
func (h *SalesInvoiceHandler) ListInvoices(c *gin.Context) {
	p := pagination.Parse(c)
	open, _ := strconv.ParseBool(c.Query("open"))

	filter := service.InvoiceListFilter{
		CustomerID:  queryUint(c, "customer_id"),
		InvoiceType: c.Query("type"),
		Search:      p.Search,
		OpenOnly:    open,
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, invoices, p.Page, p.Limit, total))
}

// GetInvoice returns one invoice with parts and balance
// @Summary      Get sales invoice
// @Tags         sales-invoices
// @Produce      json
// @Param        id   path      int  true  "Sales invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/sales-invoices/{id} [get]
func (h *SalesInvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CreateInvoice saves a new invoice; totals are recomputed server side
// @Summary      Create sales invoice
// @Tags         sales-invoices
// @Accept       json
// @Produce      json
// @Param        payload  body  service.SaveInvoiceRequest  true  "Invoice payload"
// @Success      201  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales-invoices [post]
func (h *SalesInvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.SaveInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// UpdateInvoice replaces an invoice and its parts
// @Summary      Update sales invoice
// @Tags         sales-invoices
// @Accept       json
// @Produce      json
// @Param        id       path  int                         true  "Sales invoice ID"
// @Param        payload  body  service.SaveInvoiceRequest  true  "Invoice payload"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales-invoices/{id} [put]
func (h *SalesInvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.SaveInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice removes an invoice no receipt is applied to
// @Summary      Delete sales invoice
// @Tags         sales-invoices
// @Produce      json
// @Param        id  path  int  true  "Sales invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales-invoices/{id} [delete]
func (h *SalesInvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Sales invoice deleted successfully"}))
}

// PreviewTotals derives line totals, VAT and net without saving
// @Summary      Preview invoice totals
// @Tags         sales-invoices
// @Accept       json
// @Produce      json
// @Param        payload  body  service.TotalsRequest  true  "Parts and/or VAT inclusive total"
// @Success      200  {object}  response.Response{data=service.TotalsResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/sales-invoices/totals [post]
func (h *SalesInvoiceHandler) PreviewTotals(c *gin.Context) {
	var req service.TotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	totals, err := h.invoiceService.PreviewTotals(req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, totals))
}
