package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"food-ordering-api/payments"
)

// SandboxPay stands in for the hosted checkout page: visiting it pays the
// session and sends the payer back to the success URL.
func (h *Handlers) SandboxPay(c *gin.Context) {
	if h.Sandbox == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sandbox payments are disabled"})
		return
	}
	back, err := h.Sandbox.Complete(c.Param("session"))
	if err != nil {
		if errors.Is(err, payments.ErrUnknownSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown checkout session " + c.Param("session")})
			return
		}
		h.respondError(c, err)
		return
	}
	if back == "" {
		c.JSON(http.StatusOK, gin.H{"message": "Payment completed"})
		return
	}
	c.Redirect(http.StatusFound, back)
}

// PaymentReturn is where the payer lands after checkout. The order is only
// paid once the customer confirms it through the API.
func (h *Handlers) PaymentReturn(outcome string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"payment": outcome,
			"next":    "POST /api/customer/orders/:id/confirm-payment",
		})
	}
}
