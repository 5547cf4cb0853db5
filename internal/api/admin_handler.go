package api

import (
	"net/http"

	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the dashboard figures.
type AdminHandler struct {
	statsService service.StatsService
}

func NewAdminHandler(statsService service.StatsService) *AdminHandler {
	return &AdminHandler{statsService: statsService}
}

// GetStats godoc
// @Summary Dashboard counters
// @Tags Admin
// @Produce json
// @Success 200 {object} service.Stats
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetRevenue godoc
// @Summary Revenue per month
// @Description Sum of package prices of applications with a completed payment, grouped by submission month.
// @Tags Admin
// @Produce json
// @Success 200 {object} service.Revenue
// @Router /admin/revenue [get]
func (h *AdminHandler) GetRevenue(c *gin.Context) {
	revenue, err := h.statsService.Revenue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, revenue)
}
