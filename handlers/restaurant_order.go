package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/statemachine"
	"food-ordering-api/store"
)

// GetKitchenOrders lists orders with a per-state summary; ?state= narrows the list
func (h *Handlers) GetKitchenOrders(c *gin.Context) {
	filter := store.OrderFilter{State: models.OrderState(c.Query("state"))}
	if customerID := c.Query("customer_id"); customerID != "" {
		id, ok := queryID(c, "customer_id")
		if !ok {
			return
		}
		filter.CustomerID = id
	}
	orders, err := h.Orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	summary := map[models.OrderState]int{}
	var revenue float64
	for _, o := range orders {
		summary[o.State]++
		if o.State != models.StateCreated {
			revenue += o.Price
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"paid_revenue":  revenue,
		"count":         len(orders),
		"orders":        orders,
	})
}

// MarkPrepared is the kitchen's PAID → PREPARED transition
func (h *Handlers) MarkPrepared(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.MarkPrepared(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "Order is ready for delivery",
		"order":             order,
		"valid_next_states": statemachine.ValidTransitionsFrom(order.State),
	})
}
