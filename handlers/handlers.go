package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
	"food-ordering-api/payments"
	"food-ordering-api/services"
	"food-ordering-api/store"
)

// Handlers binds HTTP requests to the services
type Handlers struct {
	Store    *store.Store
	Accounts *services.AccountService
	Catalog  *services.CatalogService
	Menu     *services.MenuService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Delivery *services.DeliveryService
	// Sandbox is set when the in-process payment gateway is in use
	Sandbox *payments.Sandbox
	Logger  *zap.Logger
	Now     services.Clock
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:   http.StatusNotFound,
	apperr.KindValidation: http.StatusBadRequest,
	apperr.KindConflict:   http.StatusConflict,
	apperr.KindAuth:       http.StatusUnauthorized,
	apperr.KindPayment:    http.StatusPaymentRequired,
}

// respondError maps a service error to its status code; anything untyped is a 500
func (h *Handlers) respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if status, ok := statusByKind[appErr.Kind]; ok {
			c.JSON(status, gin.H{"error": appErr.Error(), "kind": appErr.Kind})
			return
		}
	}
	_ = c.Error(err)
	h.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// paramID parses a positive numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ": " + c.Param(name)})
		return 0, false
	}
	return uint(id), true
}

// orderableView renders an item or a bundle with its kind and current price
func orderableView(o models.Orderable, available bool) gin.H {
	return gin.H{
		"id":        o.OrderableID(),
		"type":      o.Kind(),
		"name":      o.DisplayName(),
		"price":     o.UnitPrice(),
		"in_menu":   o.InMenu(),
		"available": available,
		"details":   o,
	}
}
