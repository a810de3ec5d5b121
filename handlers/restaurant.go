package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"food-ordering-api/models"
	"food-ordering-api/services"
)

// ── Items ───────────────────────────────────────────────────────────────────

type ItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Price       float64         `json:"price"`
	Category    models.Category `json:"category" binding:"required"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
}

// UpdateItemRequest: absent fields are left as they are
type UpdateItemRequest struct {
	Name        *string          `json:"name"`
	Price       *float64         `json:"price"`
	Category    *models.Category `json:"category"`
	Description *string          `json:"description"`
	Stock       *int             `json:"stock"`
	Image       *string          `json:"image"`
}

type RestockRequest struct {
	Amount int `json:"amount" binding:"required"`
}

func (h *Handlers) CreateItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.Catalog.CreateItem(c.Request.Context(), services.CreateItemInput{
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Description: req.Description,
		Stock:       req.Stock,
		Image:       req.Image,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Item created", "item": item})
}

func (h *Handlers) ListItems(c *gin.Context) {
	items, err := h.Catalog.ListItems(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

func (h *Handlers) GetItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	item, err := h.Catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *Handlers) UpdateItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.Catalog.UpdateItem(c.Request.Context(), id, services.ItemUpdate{
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Description: req.Description,
		Stock:       req.Stock,
		Image:       req.Image,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item updated", "item": item})
}

func (h *Handlers) RestockItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.Catalog.RestockItem(c.Request.Context(), id, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item restocked", "item": item})
}

func (h *Handlers) DeleteItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteItem(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// ── Bundles ─────────────────────────────────────────────────────────────────

type BundleItemRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

// Dates are calendar days, "2006-01-02"
type BundleRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Reduction   float64             `json:"reduction"`
	StartDate   string              `json:"start_date" binding:"required"`
	EndDate     string              `json:"end_date" binding:"required"`
	Items       []BundleItemRequest `json:"items" binding:"required,dive"`
	Image       string              `json:"image"`
}

// UpdateBundleRequest: absent fields are left as they are; items, when given, replace the composition
type UpdateBundleRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Reduction   *float64             `json:"reduction"`
	StartDate   *string              `json:"start_date"`
	EndDate     *string              `json:"end_date"`
	Items       *[]BundleItemRequest `json:"items"`
	Image       *string              `json:"image"`
}

func parseDay(field, value string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date like 2006-01-02, got %q", field, value)
	}
	return d, nil
}

func composition(items []BundleItemRequest) map[uint]int {
	out := make(map[uint]int, len(items))
	for _, bi := range items {
		out[bi.ItemID] += bi.Quantity
	}
	return out
}

func (h *Handlers) CreateBundle(c *gin.Context) {
	var req BundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := parseDay("start_date", req.StartDate)
	if err != nil {
		badRequest(c, err)
		return
	}
	end, err := parseDay("end_date", req.EndDate)
	if err != nil {
		badRequest(c, err)
		return
	}
	bundle, err := h.Catalog.CreateBundle(c.Request.Context(), services.CreateBundleInput{
		Name:        req.Name,
		Description: req.Description,
		Reduction:   req.Reduction,
		StartDate:   start,
		EndDate:     end,
		Items:       composition(req.Items),
		Image:       req.Image,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Bundle created", "bundle": bundle, "price": bundle.UnitPrice()})
}

func (h *Handlers) ListBundles(c *gin.Context) {
	bundles, err := h.Catalog.ListBundles(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(bundles), "bundles": bundles})
}

func (h *Handlers) GetBundle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	bundle, err := h.Catalog.GetBundle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundle": bundle, "price": bundle.UnitPrice()})
}

func (h *Handlers) UpdateBundle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	upd := services.BundleUpdate{
		Name:        req.Name,
		Description: req.Description,
		Reduction:   req.Reduction,
		Image:       req.Image,
	}
	if req.StartDate != nil {
		d, err := parseDay("start_date", *req.StartDate)
		if err != nil {
			badRequest(c, err)
			return
		}
		upd.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := parseDay("end_date", *req.EndDate)
		if err != nil {
			badRequest(c, err)
			return
		}
		upd.EndDate = &d
	}
	if req.Items != nil {
		upd.Items = composition(*req.Items)
	}
	bundle, err := h.Catalog.UpdateBundle(c.Request.Context(), id, upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bundle updated", "bundle": bundle, "price": bundle.UnitPrice()})
}

func (h *Handlers) DeleteBundle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteBundle(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bundle deleted"})
}

// ── Menu ────────────────────────────────────────────────────────────────────

func (h *Handlers) AddToMenu(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := h.Menu.AddToMenu(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": o.DisplayName() + " added to the menu", "orderable": orderableView(o, true)})
}

func (h *Handlers) RemoveFromMenu(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := h.Menu.RemoveFromMenu(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": o.DisplayName() + " removed from the menu", "orderable": orderableView(o, false)})
}
