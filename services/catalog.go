package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
	"food-ordering-api/store"
)

// CatalogService is the source of truth for items and bundles
type CatalogService struct {
	store  *store.Store
	logger *zap.Logger
	now    Clock
}

func NewCatalogService(st *store.Store, logger *zap.Logger, now Clock) *CatalogService {
	return &CatalogService{store: st, logger: logger.Named("catalog"), now: now}
}

type CreateItemInput struct {
	Name        string
	Price       float64
	Category    models.Category
	Description string
	Stock       int
	Image       string
}

// ItemUpdate carries the fields to change. A nil field is left untouched; a
// non-nil field is applied as given, zero values included.
type ItemUpdate struct {
	Name        *string
	Price       *float64
	Category    *models.Category
	Description *string
	Stock       *int
	Image       *string
}

type CreateBundleInput struct {
	Name        string
	Description string
	Reduction   float64
	StartDate   time.Time
	EndDate     time.Time
	Items       map[uint]int // item id -> quantity per bundle
	Image       string
}

// BundleUpdate follows the ItemUpdate convention. Items == nil leaves the
// composition untouched; a non-nil map replaces it and must not be empty.
type BundleUpdate struct {
	Name        *string
	Description *string
	Reduction   *float64
	StartDate   *time.Time
	EndDate     *time.Time
	Items       map[uint]int
	Image       *string
}

func validateItem(item *models.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return apperr.Validationf("Item name is required")
	}
	if item.Price <= 0 {
		return apperr.Validationf("Price of %s must be greater than 0 (got %v)", item.Name, item.Price)
	}
	if item.Stock < 0 {
		return apperr.Validationf("Stock of %s cannot be negative (got %d)", item.Name, item.Stock)
	}
	if !item.Category.Valid() {
		return apperr.Validationf("Category %q of %s must be one of Starter, Main, Dessert, Side, Drink", item.Category, item.Name)
	}
	return nil
}

// validateBundle checks field-level rules. Constituent existence is checked
// by resolveConstituents.
func validateBundle(b *models.Bundle, composition map[uint]int) error {
	if strings.TrimSpace(b.Name) == "" {
		return apperr.Validationf("Bundle name is required")
	}
	if b.Reduction < 0 || b.Reduction > 100 {
		return apperr.Validationf("Reduction of %s must be between 0 and 100 (got %v)", b.Name, b.Reduction)
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return apperr.Validationf("Bundle %s needs availability start and end dates", b.Name)
	}
	if models.Day(b.EndDate).Before(models.Day(b.StartDate)) {
		return apperr.Validationf("End date %s of %s is before its start date %s",
			models.Day(b.EndDate).Format(time.DateOnly), b.Name, models.Day(b.StartDate).Format(time.DateOnly))
	}
	if len(composition) == 0 {
		return apperr.Validationf("Bundle %s must contain at least one item", b.Name)
	}
	for _, id := range sortedIDs(composition) {
		if composition[id] <= 0 {
			return apperr.Validationf("Quantity of item %d in %s must be greater than 0 (got %d)", id, b.Name, composition[id])
		}
	}
	return nil
}

func (s *CatalogService) checkStartNotPast(b *models.Bundle) error {
	today := models.Day(s.now())
	if models.Day(b.StartDate).Before(today) {
		return apperr.Validationf("Start date %s of %s is in the past",
			models.Day(b.StartDate).Format(time.DateOnly), b.Name)
	}
	return nil
}

// resolveConstituents builds bundle rows for composition, failing on unknown items
func resolveConstituents(ctx context.Context, tx *store.Store, composition map[uint]int) ([]models.BundleItem, error) {
	out := make([]models.BundleItem, 0, len(composition))
	for _, id := range sortedIDs(composition) {
		item, err := tx.Items.Get(ctx, id)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil, apperr.Validationf("Bundle references unknown item %d", id)
			}
			return nil, err
		}
		out = append(out, models.BundleItem{ItemID: id, Item: *item, Quantity: composition[id]})
	}
	return out, nil
}

// ── Items ───────────────────────────────────────────────────────────────────

func (s *CatalogService) CreateItem(ctx context.Context, in CreateItemInput) (*models.Item, error) {
	item := &models.Item{
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Category:    in.Category,
		Description: in.Description,
		Stock:       in.Stock,
		Image:       in.Image,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}

	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		id, err := tx.Orderables.Allocate(ctx, models.OrderableItem)
		if err != nil {
			return err
		}
		item.ID = id
		return tx.Items.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("item created", zap.Uint("item_id", item.ID), zap.String("name", item.Name), zap.Int("stock", item.Stock))
	return item, nil
}

func (s *CatalogService) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	return s.store.Items.Get(ctx, id)
}

func (s *CatalogService) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.store.Items.List(ctx)
}

// UpdateItem merges the update into the stored item and re-validates the
// result. The row stays locked until only the changed columns are written, so
// a concurrent reservation is never overwritten with a stale stock.
func (s *CatalogService) UpdateItem(ctx context.Context, id uint, upd ItemUpdate) (*models.Item, error) {
	var item *models.Item
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		var err error
		item, err = tx.Items.Lock(ctx, id)
		if err != nil {
			return err
		}
		changes := map[string]any{}
		if upd.Name != nil {
			item.Name = strings.TrimSpace(*upd.Name)
			changes["name"] = item.Name
		}
		if upd.Price != nil {
			item.Price = *upd.Price
			changes["price"] = item.Price
		}
		if upd.Category != nil {
			item.Category = *upd.Category
			changes["category"] = item.Category
		}
		if upd.Description != nil {
			item.Description = *upd.Description
			changes["description"] = item.Description
		}
		if upd.Stock != nil {
			item.Stock = *upd.Stock
			changes["stock"] = item.Stock
		}
		if upd.Image != nil {
			item.Image = *upd.Image
			changes["image"] = item.Image
		}
		if err := validateItem(item); err != nil {
			return err
		}
		if err := tx.Items.Update(ctx, id, changes); err != nil {
			return err
		}
		item, err = tx.Items.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("item updated", zap.Uint("item_id", id))
	return item, nil
}

// RestockItem adds amount units to the item's stock
func (s *CatalogService) RestockItem(ctx context.Context, id uint, amount int) (*models.Item, error) {
	if amount <= 0 {
		return nil, apperr.Validationf("Restock amount must be greater than 0 (got %d)", amount)
	}
	var item *models.Item
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		if err := tx.Items.Increment(ctx, id, amount); err != nil {
			return err
		}
		var err error
		item, err = tx.Items.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("item restocked", zap.Uint("item_id", id), zap.Int("amount", amount), zap.Int("stock", item.Stock))
	return item, nil
}

// DeleteItem removes an item that no bundle and no order refers to
func (s *CatalogService) DeleteItem(ctx context.Context, id uint) error {
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		item, err := tx.Items.Get(ctx, id)
		if err != nil {
			return err
		}
		n, err := tx.Items.CountBundlesUsing(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflictf("Cannot delete %s (ID %d): item is in a bundle", item.Name, id)
		}
		n, err = tx.Orders.CountLinesReferencing(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflictf("Cannot delete %s (ID %d): item is in an order", item.Name, id)
		}
		if err := tx.Items.Delete(ctx, id); err != nil {
			return err
		}
		return tx.Orderables.Release(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("item deleted", zap.Uint("item_id", id))
	return nil
}

// ── Bundles ─────────────────────────────────────────────────────────────────

func (s *CatalogService) CreateBundle(ctx context.Context, in CreateBundleInput) (*models.Bundle, error) {
	bundle := &models.Bundle{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Reduction:   in.Reduction,
		StartDate:   models.Day(in.StartDate),
		EndDate:     models.Day(in.EndDate),
		Image:       in.Image,
	}
	if err := validateBundle(bundle, in.Items); err != nil {
		return nil, err
	}
	if err := s.checkStartNotPast(bundle); err != nil {
		return nil, err
	}

	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		items, err := resolveConstituents(ctx, tx, in.Items)
		if err != nil {
			return err
		}
		id, err := tx.Orderables.Allocate(ctx, models.OrderableBundle)
		if err != nil {
			return err
		}
		bundle.ID = id
		bundle.Items = items
		return tx.Bundles.Create(ctx, bundle)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("bundle created", zap.Uint("bundle_id", bundle.ID), zap.String("name", bundle.Name),
		zap.Int("items", len(bundle.Items)), zap.Float64("price", bundle.UnitPrice()))
	return bundle, nil
}

func (s *CatalogService) GetBundle(ctx context.Context, id uint) (*models.Bundle, error) {
	return s.store.Bundles.Get(ctx, id)
}

func (s *CatalogService) ListBundles(ctx context.Context) ([]models.Bundle, error) {
	return s.store.Bundles.List(ctx)
}

// GetOrderable resolves an id to its item or bundle
func (s *CatalogService) GetOrderable(ctx context.Context, id uint) (models.Orderable, error) {
	return s.store.Orderables.Load(ctx, id)
}

// UpdateBundle merges the update and re-validates the whole bundle. The
// composition of a bundle that sits on an order is frozen, so stock released
// on removal always matches what was reserved.
func (s *CatalogService) UpdateBundle(ctx context.Context, id uint, upd BundleUpdate) (*models.Bundle, error) {
	var bundle *models.Bundle
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		var err error
		bundle, err = tx.Bundles.Get(ctx, id)
		if err != nil {
			return err
		}
		startChanged := false
		if upd.Name != nil {
			bundle.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Description != nil {
			bundle.Description = *upd.Description
		}
		if upd.Reduction != nil {
			bundle.Reduction = *upd.Reduction
		}
		if upd.StartDate != nil {
			startChanged = !models.Day(*upd.StartDate).Equal(models.Day(bundle.StartDate))
			bundle.StartDate = models.Day(*upd.StartDate)
		}
		if upd.EndDate != nil {
			bundle.EndDate = models.Day(*upd.EndDate)
		}
		if upd.Image != nil {
			bundle.Image = *upd.Image
		}

		composition := make(map[uint]int, len(bundle.Items))
		for _, bi := range bundle.Items {
			composition[bi.ItemID] = bi.Quantity
		}
		replace := upd.Items != nil
		if replace {
			composition = upd.Items
		}
		if err := validateBundle(bundle, composition); err != nil {
			return err
		}
		if startChanged {
			if err := s.checkStartNotPast(bundle); err != nil {
				return err
			}
		}
		if replace {
			n, err := tx.Orders.CountLinesReferencing(ctx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return apperr.Conflictf("Cannot change the items of %s (ID %d): bundle is in an order", bundle.Name, id)
			}
			if bundle.Items, err = resolveConstituents(ctx, tx, composition); err != nil {
				return err
			}
		}
		return tx.Bundles.Save(ctx, bundle, replace)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("bundle updated", zap.Uint("bundle_id", id))
	return bundle, nil
}

// DeleteBundle removes a bundle that no order refers to
func (s *CatalogService) DeleteBundle(ctx context.Context, id uint) error {
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		bundle, err := tx.Bundles.Get(ctx, id)
		if err != nil {
			return err
		}
		n, err := tx.Orders.CountLinesReferencing(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflictf("Cannot delete %s (ID %d): bundle is in an order", bundle.Name, id)
		}
		if err := tx.Bundles.Delete(ctx, id); err != nil {
			return err
		}
		return tx.Orderables.Release(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("bundle deleted", zap.Uint("bundle_id", id))
	return nil
}
