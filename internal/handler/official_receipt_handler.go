package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"
)

type OfficialReceiptHandler struct {
	receiptService service.OfficialReceiptService
}

func NewOfficialReceiptHandler(receiptService service.OfficialReceiptService) *OfficialReceiptHandler {
	return &OfficialReceiptHandler{receiptService: receiptService}
}

func (h *OfficialReceiptHandler) RegisterRoutes(router *gin.RouterGroup) {
	receipts := router.Group("/api/official-receipts")
	{
		receipts.GET("", h.ListReceipts)
		receipts.POST("", h.CreateReceipt)
		receipts.GET("/:id", h.GetReceipt)
		receipts.PUT("/:id", h.UpdateReceipt)
		receipts.DELETE("/:id", h.DeleteReceipt)
	}
}

// ListReceipts returns paginated official receipts
// @Summary      List official receipts
// @Tags         official-receipts
// @Produce      json
// @Param        customer_id  query     int     false  "Only receipts of this customer"
// @Param        search       query     string  false  "Search by receipt number"
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Success      200          {object}  response.Response{data=[]service.ReceiptResponse}
// @Router       /api/official-receipts [get]
func (h *OfficialReceiptHandler) ListReceipts(c *gin.Context) {
	p := pagination.Parse(c)

	receipts, total, err := h.receiptService.ListReceipts(c.Request.Context(), queryUint(c, "customer_id"), p.Search, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, receipts, p.Page, p.Limit, total))
}

// GetReceipt returns a receipt with its payments and allocations
// @Summary      Get official receipt
// @Tags         official-receipts
// @Produce      json
// @Param        id   path      int  true  "Official receipt ID"
// @Success      200  {object}  response.Response{data=service.ReceiptResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/official-receipts/{id} [get]
func (h *OfficialReceiptHandler) GetReceipt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipt))
}

// CreateReceipt records a payment and its allocations
// @Summary      Create official receipt
// @Tags         official-receipts
// @Accept       json
// @Produce      json
// @Param        payload  body  service.SaveReceiptRequest  true  "Receipt payload"
// @Success      201  {object}  response.Response{data=service.ReceiptResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/official-receipts [post]
func (h *OfficialReceiptHandler) CreateReceipt(c *gin.Context) {
	var req service.SaveReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, receipt))
}

// UpdateReceipt replaces a receipt, its payments and allocations
// @Summary      Update official receipt
// @Tags         official-receipts
// @Accept       json
// @Produce      json
// @Param        id       path  int                         true  "Official receipt ID"
// @Param        payload  body  service.SaveReceiptRequest  true  "Receipt payload"
// @Success      200  {object}  response.Response{data=service.ReceiptResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/official-receipts/{id} [put]
func (h *OfficialReceiptHandler) UpdateReceipt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.SaveReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	receipt, err := h.receiptService.UpdateReceipt(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipt))
}

// DeleteReceipt removes a receipt and releases its allocations
// @Summary      Delete official receipt
// @Tags         official-receipts
// @Produce      json
// @Param        id  path  int  true  "Official receipt ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/official-receipts/{id} [delete]
func (h *OfficialReceiptHandler) DeleteReceipt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.receiptService.DeleteReceipt(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Official receipt deleted successfully"}))
}
