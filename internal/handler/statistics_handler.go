package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/service"
	"backoffice/pkg/response"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/api/statistics")
	{
		statsGroup.GET("", h.GetStatistics)
	}
}

// @Summary      Get Dashboard Statistics
// @Description  Sales and collections for a date range plus the receivables still open
// @Tags         statistics
// @Produce      json
// @Param        start_date query string false "Start date YYYY-MM-DD (default: first of this month)"
// @Param        end_date   query string false "End date YYYY-MM-DD, inclusive (default: today)"
// @Success      200 {object} response.Response{data=model.DashboardStatistics}
// @Failure      400 {object} response.Response "Invalid date"
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
