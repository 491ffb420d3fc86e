package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poolup/ride-sharing/internal/api/middleware"
)

// DriverDashboard handles GET /v1/history/driver
func (h *Handlers) DriverDashboard(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	dashboard, err := h.History.DriverDashboard(c.Request.Context(), principal.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// PassengerHistory handles GET /v1/history/passenger
func (h *Handlers) PassengerHistory(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	hist, err := h.History.PassengerHistory(c.Request.Context(), principal.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, hist)
}
