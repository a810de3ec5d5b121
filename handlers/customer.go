package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-ordering-api/apperr"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/services"
	"food-ordering-api/store"
)

type AddressRequest struct {
	Address string `json:"address" binding:"required"`
}

type OrderableQuantityRequest struct {
	OrderableID uint `json:"orderable_id" binding:"required"`
	Quantity    int  `json:"quantity"`
}

type BatchAddRequest struct {
	Lines []OrderableQuantityRequest `json:"lines" binding:"required,min=1,dive"`
}

type CheckoutRequest struct {
	PayerEmail string `json:"payer_email" binding:"omitempty,email"`
}

// SaveAddress validates and stores the customer's delivery address
func (h *Handlers) SaveAddress(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	addr, err := h.Accounts.SaveAddress(c.Request.Context(), middleware.GetUserID(c), req.Address)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address saved", "address": addr})
}

func (h *Handlers) GetAddress(c *gin.Context) {
	addr, err := h.Accounts.GetAddress(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr})
}

// ownOrder loads the order if it belongs to the caller. Someone else's order
// is reported as missing.
func (h *Handlers) ownOrder(c *gin.Context) (*models.Order, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), id)
	if err == nil && order.CustomerID != middleware.GetUserID(c) {
		err = apperr.NotFoundf("Order with ID %d not found", id)
	}
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return order, true
}

// CreateOrder opens an empty order (customer only)
func (h *Handlers) CreateOrder(c *gin.Context) {
	order, err := h.Orders.CreateOrder(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":           "Order created",
		"order":             order,
		"valid_next_states": []models.OrderState{models.StatePaid},
	})
}

// GetMyOrders returns the caller's orders, optionally filtered by ?state=
func (h *Handlers) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListOrders(c.Request.Context(), store.OrderFilter{
		CustomerID: middleware.GetUserID(c),
		State:      models.OrderState(c.Query("state")),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

func (h *Handlers) GetOrderDetail(c *gin.Context) {
	order, ok := h.ownOrder(c)
	if !ok {
		return
	}
	price, err := h.Orders.CalculatePrice(c.Request.Context(), order.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "current_price": price})
}

// DeleteOrder drops an unpaid order and returns its stock
func (h *Handlers) DeleteOrder(c *gin.Context) {
	order, ok := h.ownOrder(c)
	if !ok {
		return
	}
	if err := h.Orders.DeleteOrder(c.Request.Context(), order.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

// AddOrderable adds quantity units of an item or bundle to the order
func (h *Handlers) AddOrderable(c *gin.Context) {
	order, ok := h.ownOrder(c)
	if !ok {
		return
	}
	var req OrderableQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.Orders.AddOrderableToOrder(c.Request.Context(), req.OrderableID, order.ID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to order", "order": updated})
}

// AddOrderables adds several lines at once; stock is checked for all of them together
func (h *Handlers) AddOrderables(c *gin.Context) {
	order, ok := h.ownOrder(c)
	if !ok {
		return
	}
	var req BatchAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	lines := make([]services.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = services.Line{OrderableID: l.OrderableID, Quantity: l.Quantity}
	}
	updated, err := h.Orders.AddOrderablesToOrder(c.Request.Context(), order.ID, lines)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to order", "order": updated})
}

// RemoveOrderable takes quantity units of an orderable off the order
func (h *Handlers) RemoveOrderable(c *gin.Context) {
	order, ok := h.ownOrder(c)
	if !ok {
		return
	}
	var req OrderableQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.Orders.RemoveOrderableFromOrder(c.Request.Context(), req.OrderableID, order.ID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from order", "order": updated})
}

// Checkout opens a payment session; the payer defaults to the account email
func (h *Handlers) Checkout(c *gin.Context) {
	order, ok := h.ownOrder(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.PayerEmail == "" {
		user, err := h.Accounts.GetUser(c.Request.Context(), order.CustomerID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		req.PayerEmail = user.Email
	}
	session, err := h.Payments.Checkout(c.Request.Context(), order.ID, req.PayerEmail)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Checkout session created",
		"session_id":   session.ID,
		"redirect_url": session.RedirectURL,
	})
}

// ConfirmPayment checks the checkout session and marks the order paid
func (h *Handlers) ConfirmPayment(c *gin.Context) {
	order, ok := h.ownOrder(c)
	if !ok {
		return
	}
	paid, err := h.Payments.ConfirmPayment(c.Request.Context(), order.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment confirmed", "order": paid})
}
