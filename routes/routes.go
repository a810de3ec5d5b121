package routes

import (
	"github.com/gin-gonic/gin"

	"food-ordering-api/handlers"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers, tokens *middleware.Tokens) {
	r.GET("/health", h.Health)
	r.GET("/payments/sandbox/:session", h.SandboxPay)
	r.GET("/payments/success", h.PaymentReturn("completed"))
	r.GET("/payments/cancel", h.PaymentReturn("cancelled"))

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		// Menu (no auth needed)
		public.GET("/menu", h.GetMenu)
		public.GET("/orderables/:id", h.GetOrderable)

		// State machine info
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired(tokens))
	{
		auth.GET("/profile", h.GetProfile)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(middleware.AuthRequired(tokens), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.GET("/address", h.GetAddress)
		customer.PUT("/address", h.SaveAddress)

		customer.POST("/orders", h.CreateOrder)
		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/:id", h.GetOrderDetail)
		customer.DELETE("/orders/:id", h.DeleteOrder)

		// Contents
		customer.POST("/orders/:id/orderables", h.AddOrderable)
		customer.POST("/orders/:id/orderables/batch", h.AddOrderables)
		customer.DELETE("/orders/:id/orderables", h.RemoveOrderable)

		// Payment
		customer.POST("/orders/:id/checkout", h.Checkout)
		customer.POST("/orders/:id/confirm-payment", h.ConfirmPayment)
	}

	// ── Admin routes (catalog, menu, kitchen) ──────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(tokens), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.POST("/items", h.CreateItem)
		admin.GET("/items", h.ListItems)
		admin.GET("/items/:id", h.GetItem)
		admin.PUT("/items/:id", h.UpdateItem)
		admin.POST("/items/:id/restock", h.RestockItem)
		admin.DELETE("/items/:id", h.DeleteItem)

		admin.POST("/bundles", h.CreateBundle)
		admin.GET("/bundles", h.ListBundles)
		admin.GET("/bundles/:id", h.GetBundle)
		admin.PUT("/bundles/:id", h.UpdateBundle)
		admin.DELETE("/bundles/:id", h.DeleteBundle)

		admin.PUT("/menu/:id", h.AddToMenu)
		admin.DELETE("/menu/:id", h.RemoveFromMenu)

		admin.GET("/orders", h.GetKitchenOrders)
		admin.PUT("/orders/:id/prepare", h.MarkPrepared)

		admin.GET("/users", h.AdminGetAllUsers)
		admin.GET("/drivers", h.AdminGetDrivers)
	}

	// ── Driver routes ──────────────────────────────────────────────
	driver := r.Group("/api/driver")
	driver.Use(middleware.AuthRequired(tokens), middleware.RoleRequired(models.RoleDriver))
	{
		driver.GET("/deliveries/available", h.GetAvailableDeliveries)
		driver.GET("/deliveries", h.GetMyDeliveries)
		driver.PUT("/orders/:id/start", h.StartDelivery)
		driver.PUT("/orders/:id/end", h.EndDelivery)
	}
}
