package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"food-ordering-api/geo"
	"food-ordering-api/handlers"
	"food-ordering-api/middleware"
	"food-ordering-api/payments"
	"food-ordering-api/routes"
	"food-ordering-api/services"
	"food-ordering-api/store"
)

var today = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open("sqlite", filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := zap.NewNop()
	clock := func() time.Time { return today }
	tokens := middleware.NewTokens([]byte("test-secret"), time.Hour)
	sandbox := payments.NewSandbox("http://localhost:8080")
	orders := services.NewOrderService(st, logger, clock, 3)
	h := &handlers.Handlers{
		Store:    st,
		Accounts: services.NewAccountService(st, tokens, geo.NewParser(), logger),
		Catalog:  services.NewCatalogService(st, logger, clock),
		Menu:     services.NewMenuService(st, logger, clock),
		Orders:   orders,
		Payments: services.NewPaymentService(st, orders, sandbox, logger, "http://localhost:8080/payments/success", "http://localhost:8080/payments/cancel"),
		Delivery: services.NewDeliveryService(st, logger, clock),
		Sandbox:  sandbox,
		Logger:   logger,
		Now:      clock,
	}
	r := gin.New()
	routes.SetupRoutes(r, h, tokens)
	return &api{t: t, router: r}
}

func (a *api) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func (a *api) must(want int, method, path, token string, body any) map[string]any {
	a.t.Helper()
	code, out := a.do(method, path, token, body)
	if code != want {
		a.t.Fatalf("%s %s: expected %d, got %d: %v", method, path, want, code, out)
	}
	return out
}

func (a *api) register(name, role string) string {
	a.t.Helper()
	out := a.must(http.StatusCreated, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": name + "@example.com", "password": "secret1", "role": role,
	})
	return out["token"].(string)
}

func id(m map[string]any, key string) uint {
	return uint(m[key].(map[string]any)["id"].(float64))
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	admin := a.register("admin", "admin")
	customer := a.register("jane", "customer")
	driver := a.register("dan", "driver")

	coca := id(a.must(http.StatusCreated, http.MethodPost, "/api/admin/items", admin,
		gin.H{"name": "Coca-Cola", "price": 0.5, "category": "Drink", "stock": 100}), "item")
	galette := id(a.must(http.StatusCreated, http.MethodPost, "/api/admin/items", admin,
		gin.H{"name": "Galette", "price": 4.5, "category": "Main", "stock": 50}), "item")
	out := a.must(http.StatusCreated, http.MethodPost, "/api/admin/bundles", admin, gin.H{
		"name": "Menu", "reduction": 10,
		"start_date": today.Format(time.DateOnly), "end_date": today.AddDate(0, 0, 7).Format(time.DateOnly),
		"items": []gin.H{{"item_id": coca, "quantity": 1}, {"item_id": galette, "quantity": 1}},
	})
	menu := id(out, "bundle")
	if out["price"].(float64) != 4.5 {
		t.Fatalf("expected bundle price 4.5, got %v", out["price"])
	}

	for _, oid := range []uint{coca, galette, menu} {
		a.must(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/admin/menu/%d", oid), admin, nil)
	}
	a.must(http.StatusConflict, http.MethodPut, fmt.Sprintf("/api/admin/menu/%d", coca), admin, nil)
	if got := a.must(http.StatusOK, http.MethodGet, "/api/menu", "", nil)["count"].(float64); got != 3 {
		t.Fatalf("expected 3 menu entries, got %v", got)
	}

	a.must(http.StatusOK, http.MethodPut, "/api/customer/address", customer, gin.H{"address": "12 rue Oberkampf, 75011 Paris"})
	a.must(http.StatusBadRequest, http.MethodPut, "/api/customer/address", customer, gin.H{"address": "somewhere"})

	order := id(a.must(http.StatusCreated, http.MethodPost, "/api/customer/orders", customer, nil), "order")
	base := fmt.Sprintf("/api/customer/orders/%d", order)

	out = a.must(http.StatusOK, http.MethodPost, base+"/orderables", customer, gin.H{"orderable_id": coca, "quantity": 3})
	if price := out["order"].(map[string]any)["price"].(float64); price != 1.5 {
		t.Fatalf("expected price 1.5, got %v", price)
	}
	a.must(http.StatusConflict, http.MethodPost, base+"/orderables", customer, gin.H{"orderable_id": coca, "quantity": 1000})
	a.must(http.StatusBadRequest, http.MethodPost, base+"/orderables", customer, gin.H{"orderable_id": coca, "quantity": 0})
	a.must(http.StatusNotFound, http.MethodPost, base+"/orderables", customer, gin.H{"orderable_id": 999, "quantity": 1})
	a.must(http.StatusConflict, http.MethodDelete, base+"/orderables", customer, gin.H{"orderable_id": galette, "quantity": 1})

	out = a.must(http.StatusOK, http.MethodPost, base+"/orderables/batch", customer, gin.H{
		"lines": []gin.H{{"orderable_id": menu, "quantity": 1}},
	})
	if price := out["order"].(map[string]any)["price"].(float64); price != 6 {
		t.Fatalf("expected price 6, got %v", price)
	}

	// another customer cannot see the order
	other := a.register("mallory", "customer")
	a.must(http.StatusNotFound, http.MethodGet, base, other, nil)

	out = a.must(http.StatusOK, http.MethodPost, base+"/checkout", customer, nil)
	a.must(http.StatusPaymentRequired, http.MethodPost, base+"/confirm-payment", customer, nil)

	redirect, err := url.Parse(out["redirect_url"].(string))
	if err != nil {
		t.Fatalf("bad redirect url: %v", err)
	}
	if code, _ := a.do(http.MethodGet, redirect.Path, "", nil); code != http.StatusFound {
		t.Fatalf("expected sandbox redirect, got %d", code)
	}
	out = a.must(http.StatusOK, http.MethodPost, base+"/confirm-payment", customer, nil)
	if state := out["order"].(map[string]any)["state"]; state != "PAID" {
		t.Fatalf("expected PAID, got %v", state)
	}
	a.must(http.StatusConflict, http.MethodPost, base+"/orderables", customer, gin.H{"orderable_id": coca, "quantity": 1})

	a.must(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/admin/orders/%d/prepare", order), admin, nil)
	if got := a.must(http.StatusOK, http.MethodGet, "/api/driver/deliveries/available", driver, nil)["count"].(float64); got != 1 {
		t.Fatalf("expected 1 available delivery, got %v", got)
	}
	a.must(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/driver/orders/%d/start", order), driver, nil)
	a.must(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/driver/orders/%d/end", order), driver, nil)

	out = a.must(http.StatusOK, http.MethodGet, base, customer, nil)
	if state := out["order"].(map[string]any)["state"]; state != "DELIVERED" {
		t.Fatalf("expected DELIVERED, got %v", state)
	}
}

func TestAccessControl(t *testing.T) {
	a := newAPI(t)
	customer := a.register("jane", "customer")

	a.must(http.StatusUnauthorized, http.MethodGet, "/api/customer/orders", "", nil)
	a.must(http.StatusForbidden, http.MethodGet, "/api/admin/items", customer, nil)
	a.must(http.StatusOK, http.MethodGet, "/api/customer/orders", customer, nil)
	a.must(http.StatusOK, http.MethodGet, "/api/profile", customer, nil)

	a.must(http.StatusConflict, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "jane", "email": "jane@example.com", "password": "secret1", "role": "customer",
	})
	a.must(http.StatusUnauthorized, http.MethodPost, "/api/auth/login", "", gin.H{"email": "jane@example.com", "password": "nope"})
	a.must(http.StatusOK, http.MethodPost, "/api/auth/login", "", gin.H{"email": "jane@example.com", "password": "secret1"})
}

func TestCatalogErrorsOverHTTP(t *testing.T) {
	a := newAPI(t)
	admin := a.register("admin", "admin")

	a.must(http.StatusBadRequest, http.MethodPost, "/api/admin/items", admin, gin.H{"name": "Free", "price": 0, "category": "Main", "stock": 1})
	coca := id(a.must(http.StatusCreated, http.MethodPost, "/api/admin/items", admin,
		gin.H{"name": "Coca-Cola", "price": 0.5, "category": "Drink", "stock": 1}), "item")
	a.must(http.StatusBadRequest, http.MethodPost, "/api/admin/bundles", admin, gin.H{
		"name": "Menu", "reduction": 101,
		"start_date": today.Format(time.DateOnly), "end_date": today.Format(time.DateOnly),
		"items": []gin.H{{"item_id": coca, "quantity": 1}},
	})
	a.must(http.StatusCreated, http.MethodPost, "/api/admin/bundles", admin, gin.H{
		"name": "Menu", "reduction": 100,
		"start_date": today.Format(time.DateOnly), "end_date": today.Format(time.DateOnly),
		"items": []gin.H{{"item_id": coca, "quantity": 1}},
	})
	a.must(http.StatusConflict, http.MethodDelete, fmt.Sprintf("/api/admin/items/%d", coca), admin, nil)
	a.must(http.StatusNotFound, http.MethodGet, "/api/orderables/4242", "", nil)
	a.must(http.StatusBadRequest, http.MethodGet, "/api/orderables/abc", "", nil)

	out := a.must(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/admin/items/%d", coca), admin, gin.H{"stock": 0})
	if item := out["item"].(map[string]any); item["stock"].(float64) != 0 || item["price"].(float64) != 0.5 {
		t.Fatalf("partial update touched other fields: %v", item)
	}
	a.must(http.StatusConflict, http.MethodPut, fmt.Sprintf("/api/admin/menu/%d", coca), admin, nil)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	out := a.must(http.StatusOK, http.MethodGet, "/health", "", nil)
	if out["status"] != "healthy" {
		t.Fatalf("unexpected health %v", out)
	}
}
