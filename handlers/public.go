package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"food-ordering-api/models"
	"food-ordering-api/statemachine"
)

// GetMenu lists orderables on the menu and available now; ?all=true lists the whole catalog
func (h *Handlers) GetMenu(c *gin.Context) {
	all := c.Query("all") == "true"
	list, err := h.Menu.ListOrderables(c.Request.Context(), !all)
	if err != nil {
		h.respondError(c, err)
		return
	}
	now := h.Now()
	out := make([]gin.H, 0, len(list))
	for _, o := range list {
		if category := c.Query("category"); category != "" {
			item, ok := o.(*models.Item)
			if !ok || string(item.Category) != category {
				continue
			}
		}
		out = append(out, orderableView(o, o.CheckAvailability(now)))
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(out),
		"menu":  out,
	})
}

// GetOrderable returns a single item or bundle
func (h *Handlers) GetOrderable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := h.Catalog.GetOrderable(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderable": orderableView(o, o.CheckAvailability(h.Now()))})
}

// GetStateMachineInfo returns the full state machine for informational purposes
func (h *Handlers) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"terminal_states": []models.OrderState{models.StateDelivered},
		"description":     "Food Ordering Order Lifecycle State Machine",
	})
}

// Health reports whether the database answers
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Food Ordering API",
		"version": "1.0.0",
	})
}
