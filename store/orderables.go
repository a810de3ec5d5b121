package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
)

// ── Orderables ──────────────────────────────────────────────────────────────

type OrderableRepository struct {
	db *gorm.DB
}

// Allocate reserves a fresh orderable id for an item or bundle
func (r *OrderableRepository) Allocate(ctx context.Context, typ models.OrderableType) (uint, error) {
	rec := models.OrderableRecord{Type: typ}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, fmt.Errorf("allocate orderable id: %w", err)
	}
	return rec.ID, nil
}

func (r *OrderableRepository) Release(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.OrderableRecord{}, id).Error
}

// Load resolves an orderable id to its variant, constituents preloaded
func (r *OrderableRepository) Load(ctx context.Context, id uint) (models.Orderable, error) {
	var rec models.OrderableRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, "Orderable with ID %d not found", id)
	}
	switch rec.Type {
	case models.OrderableItem:
		return (&ItemRepository{db: r.db}).Get(ctx, id)
	case models.OrderableBundle:
		return (&BundleRepository{db: r.db}).Get(ctx, id)
	}
	return nil, fmt.Errorf("orderable %d has unknown type %q", id, rec.Type)
}

// LoadMany resolves every id; unknown ids are reported as not found
func (r *OrderableRepository) LoadMany(ctx context.Context, ids []uint) (map[uint]models.Orderable, error) {
	out := make(map[uint]models.Orderable, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		o, err := r.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = o
	}
	return out, nil
}

// List returns every item and bundle, items first
func (r *OrderableRepository) List(ctx context.Context) ([]models.Orderable, error) {
	items, err := (&ItemRepository{db: r.db}).List(ctx)
	if err != nil {
		return nil, err
	}
	bundles, err := (&BundleRepository{db: r.db}).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Orderable, 0, len(items)+len(bundles))
	for i := range items {
		out = append(out, &items[i])
	}
	for i := range bundles {
		out = append(out, &bundles[i])
	}
	return out, nil
}

// SetInMenu flips the menu flag only if it currently holds the opposite value.
// It reports false when another writer got there first.
func (r *OrderableRepository) SetInMenu(ctx context.Context, o models.Orderable, inMenu bool) (bool, error) {
	var model any
	switch o.(type) {
	case *models.Item:
		model = &models.Item{}
	case *models.Bundle:
		model = &models.Bundle{}
	}
	res := r.db.WithContext(ctx).Model(model).
		Where("id = ? AND is_in_menu = ?", o.OrderableID(), !inMenu).
		Update("is_in_menu", inMenu)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ── Items ───────────────────────────────────────────────────────────────────

type ItemRepository struct {
	db *gorm.DB
}

func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ItemRepository) Get(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, "Item with ID %d not found", id)
	}
	return &item, nil
}

// GetForUpdate loads the given items with row locks held until the transaction ends
func (r *ItemRepository) GetForUpdate(ctx context.Context, ids []uint) (map[uint]*models.Item, error) {
	var items []models.Item
	if err := forUpdate(r.db.WithContext(ctx)).Where("id IN ?", ids).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]*models.Item, len(items))
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, apperr.NotFoundf("Item with ID %d not found", id)
		}
	}
	return out, nil
}

func (r *ItemRepository) List(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).Order("id").Find(&items).Error
	return items, err
}

// Lock loads one item with its row lock held until the transaction ends
func (r *ItemRepository) Lock(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := forUpdate(r.db.WithContext(ctx)).First(&item, id).Error; err != nil {
		return nil, notFound(err, "Item with ID %d not found", id)
	}
	return &item, nil
}

// Update writes only the given columns. The menu flag belongs to SetInMenu
// and is never written here.
func (r *ItemRepository) Update(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	if _, ok := changes["is_in_menu"]; ok {
		return fmt.Errorf("update item %d: is_in_menu is owned by the menu gate", id)
	}
	return r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Updates(changes).Error
}

func (r *ItemRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Item{}, id).Error
}

// Decrement removes n units only if at least n are in stock (compare-and-swap).
// It reports false, leaving stock untouched, when stock is short.
func (r *ItemRepository) Decrement(ctx context.Context, id uint, n int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND stock >= ?", id, n).
		UpdateColumn("stock", gorm.Expr("stock - ?", n))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ItemRepository) Increment(ctx context.Context, id uint, n int) error {
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("Item with ID %d not found", id)
	}
	return nil
}

// CountBundlesUsing counts bundles listing the item as a constituent
func (r *ItemRepository) CountBundlesUsing(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.BundleItem{}).Where("item_id = ?", id).Count(&n).Error
	return n, err
}

// ── Bundles ─────────────────────────────────────────────────────────────────

type BundleRepository struct {
	db *gorm.DB
}

// Create inserts the bundle row and its constituent rows
func (r *BundleRepository) Create(ctx context.Context, b *models.Bundle) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Items").Create(b).Error; err != nil {
		return err
	}
	return r.insertItems(db, b)
}

func (r *BundleRepository) insertItems(db *gorm.DB, b *models.Bundle) error {
	for i := range b.Items {
		b.Items[i].BundleID = b.ID
		b.Items[i].ID = 0
		if err := db.Omit("Item").Create(&b.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *BundleRepository) Get(ctx context.Context, id uint) (*models.Bundle, error) {
	var b models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_id") }).
		Preload("Items.Item").
		First(&b, id).Error
	if err != nil {
		return nil, notFound(err, "Bundle with ID %d not found", id)
	}
	return &b, nil
}

func (r *BundleRepository) List(ctx context.Context) ([]models.Bundle, error) {
	var bundles []models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_id") }).
		Preload("Items.Item").
		Order("id").
		Find(&bundles).Error
	return bundles, err
}

// Save writes the editable bundle columns, leaving the menu flag alone; with
// replaceItems the constituent rows are rewritten too
func (r *BundleRepository) Save(ctx context.Context, b *models.Bundle, replaceItems bool) error {
	db := r.db.WithContext(ctx)
	err := db.Model(b).
		Select("name", "description", "reduction", "start_date", "end_date", "image", "updated_at").
		Updates(b).Error
	if err != nil {
		return err
	}
	if !replaceItems {
		return nil
	}
	if err := db.Where("bundle_id = ?", b.ID).Delete(&models.BundleItem{}).Error; err != nil {
		return err
	}
	return r.insertItems(db, b)
}

func (r *BundleRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("bundle_id = ?", id).Delete(&models.BundleItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Bundle{}, id).Error
}
