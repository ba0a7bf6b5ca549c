package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"
)

type BranchHandler struct {
	branchService service.BranchService
}

func NewBranchHandler(branchService service.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

func (h *BranchHandler) RegisterRoutes(router *gin.RouterGroup) {
	branches := router.Group("/api/branches")
	{
		branches.GET("", h.ListBranches)
		branches.POST("", h.CreateBranch)
		branches.GET("/:id", h.GetBranch)
		branches.PUT("/:id", h.UpdateBranch)
		branches.DELETE("/:id", h.DeleteBranch)
	}
}

// ListBranches returns paginated branches
// @Summary      List branches
// @Tags         branches
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by branch name"
// @Success      200     {object}  response.Response{data=[]model.Branch}
// @Router       /api/branches [get]
func (h *BranchHandler) ListBranches(c *gin.Context) {
	p := pagination.Parse(c)

	branches, total, err := h.branchService.ListBranches(c.Request.Context(), p.Search, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, branches, p.Page, p.Limit, total))
}

// GetBranch returns one branch
// @Summary      Get branch
// @Tags         branches
// @Produce      json
// @Param        id   path      int  true  "Branch ID"
// @Success      200  {object}  response.Response{data=model.Branch}
// @Failure      404  {object}  response.Response
// @Router       /api/branches/{id} [get]
func (h *BranchHandler) GetBranch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	branch, err := h.branchService.GetBranch(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, branch))
}

// CreateBranch creates a branch
// @Summary      Create branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        payload  body  service.SaveBranchRequest  true  "Branch payload"
// @Success      201  {object}  response.Response{data=model.Branch}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/branches [post]
func (h *BranchHandler) CreateBranch(c *gin.Context) {
	var req service.SaveBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	branch, err := h.branchService.CreateBranch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, branch))
}

// UpdateBranch renames a branch
// @Summary      Update branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        id       path  int                        true  "Branch ID"
// @Param        payload  body  service.SaveBranchRequest  true  "Branch payload"
// @Success      200  {object}  response.Response{data=model.Branch}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/branches/{id} [put]
func (h *BranchHandler) UpdateBranch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.SaveBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	branch, err := h.branchService.UpdateBranch(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, branch))
}

// DeleteBranch deletes a branch that issued no documents
// @Summary      Delete branch
// @Tags         branches
// @Produce      json
// @Param        id  path  int  true  "Branch ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/branches/{id} [delete]
func (h *BranchHandler) DeleteBranch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.branchService.DeleteBranch(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Branch deleted successfully"}))
}
