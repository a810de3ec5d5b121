package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-ordering-api/middleware"
	"food-ordering-api/models"
)

// currentDriver resolves the caller's driver profile
func (h *Handlers) currentDriver(c *gin.Context) (*models.Driver, bool) {
	driver, err := h.Delivery.DriverForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return driver, true
}

// GetAvailableDeliveries shows prepared orders waiting for a driver
func (h *Handlers) GetAvailableDeliveries(c *gin.Context) {
	pending, err := h.Delivery.ListPending(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(pending), "deliveries": pending})
}

// GetMyDeliveries returns every delivery assigned to the logged-in driver
func (h *Handlers) GetMyDeliveries(c *gin.Context) {
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}
	deliveries, err := h.Delivery.ListForDriver(c.Request.Context(), driver.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"driver":        driver,
		"count":         len(deliveries),
		"deliveries":    deliveries,
		"is_delivering": driver.IsDelivering,
	})
}

// StartDelivery assigns the order to the driver: PREPARED → DELIVERING
func (h *Handlers) StartDelivery(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}
	delivery, err := h.Delivery.StartDelivery(c.Request.Context(), id, driver.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery started", "delivery": delivery})
}

// EndDelivery completes the driver's delivery: DELIVERING → DELIVERED
func (h *Handlers) EndDelivery(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	driver, ok := h.currentDriver(c)
	if !ok {
		return
	}
	delivery, err := h.Delivery.EndDelivery(c.Request.Context(), id, driver.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order delivered", "delivery": delivery})
}
