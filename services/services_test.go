package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
	"food-ordering-api/store"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	store    *store.Store
	catalog  *CatalogService
	menu     *MenuService
	orders   *OrderService
	delivery *DeliveryService
	users    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	clock := func() time.Time { return fixedNow }
	logger := zap.NewNop()
	return &fixture{
		ctx:      context.Background(),
		store:    st,
		catalog:  NewCatalogService(st, logger, clock),
		menu:     NewMenuService(st, logger, clock),
		orders:   NewOrderService(st, logger, clock, 3),
		delivery: NewDeliveryService(st, logger, clock),
	}
}

func (f *fixture) item(t *testing.T, name string, price float64, stock int) *models.Item {
	t.Helper()
	item, err := f.catalog.CreateItem(f.ctx, CreateItemInput{Name: name, Price: price, Category: models.CategoryMain, Stock: stock})
	if err != nil {
		t.Fatalf("create item %s: %v", name, err)
	}
	return item
}

func (f *fixture) bundle(t *testing.T, name string, reduction float64, items map[uint]int) *models.Bundle {
	t.Helper()
	b, err := f.catalog.CreateBundle(f.ctx, CreateBundleInput{
		Name:      name,
		Reduction: reduction,
		StartDate: fixedNow,
		EndDate:   fixedNow.AddDate(0, 0, 7),
		Items:     items,
	})
	if err != nil {
		t.Fatalf("create bundle %s: %v", name, err)
	}
	return b
}

// menuItem creates an item and puts it on the menu so customers can order it
func (f *fixture) menuItem(t *testing.T, name string, price float64, stock int) *models.Item {
	t.Helper()
	item := f.item(t, name, price, stock)
	f.onMenu(t, item.ID)
	item.IsInMenu = true
	return item
}

func (f *fixture) menuBundle(t *testing.T, name string, reduction float64, items map[uint]int) *models.Bundle {
	t.Helper()
	b := f.bundle(t, name, reduction, items)
	f.onMenu(t, b.ID)
	b.IsInMenu = true
	return b
}

func (f *fixture) onMenu(t *testing.T, ids ...uint) {
	t.Helper()
	for _, id := range ids {
		if _, err := f.menu.AddToMenu(f.ctx, id); err != nil {
			t.Fatalf("add %d to menu: %v", id, err)
		}
	}
}

func (f *fixture) user(t *testing.T, role models.UserRole) *models.User {
	t.Helper()
	f.users++
	u := &models.User{
		Name:         fmt.Sprintf("%s %d", role, f.users),
		Email:        fmt.Sprintf("%s%d@example.com", role, f.users),
		PasswordHash: "x",
		Role:         role,
	}
	if err := f.store.Users.Create(f.ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) driver(t *testing.T) *models.Driver {
	t.Helper()
	u := f.user(t, models.RoleDriver)
	d := &models.Driver{UserID: u.ID, Name: u.Name}
	if err := f.store.Drivers.Create(f.ctx, d); err != nil {
		t.Fatalf("create driver: %v", err)
	}
	return d
}

func (f *fixture) order(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(f.ctx, f.user(t, models.RoleCustomer).ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func (f *fixture) stock(t *testing.T, itemID uint) int {
	t.Helper()
	item, err := f.store.Items.Get(f.ctx, itemID)
	if err != nil {
		t.Fatalf("get item %d: %v", itemID, err)
	}
	return item.Stock
}

func expectKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != kind {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}
