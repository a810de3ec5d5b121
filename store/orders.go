package store

import (
	"context"

	"gorm.io/gorm"

	"food-ordering-api/models"
)

type OrderRepository struct {
	db *gorm.DB
}

// OrderFilter narrows List; zero values mean no filter
type OrderFilter struct {
	CustomerID uint
	State      models.OrderState
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Lines", "StatusHistory").Create(order).Error
}

func (r *OrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (r *OrderRepository) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).First(&order, id).Error; err != nil {
		return nil, notFound(err, "Order with ID %d not found", id)
	}
	return &order, nil
}

// GetForUpdate loads the order with its row locked until the transaction ends
func (r *OrderRepository) GetForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := forUpdate(r.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		return nil, notFound(err, "Order with ID %d not found", id)
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Order("id").Find(&order.Lines).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	query := r.preloaded(ctx)
	if f.CustomerID != 0 {
		query = query.Where("customer_id = ?", f.CustomerID)
	}
	if f.State != "" {
		query = query.Where("state = ?", f.State)
	}
	var orders []models.Order
	err := query.Order("created_at desc, id desc").Find(&orders).Error
	return orders, err
}

// SaveLine inserts the line or updates its quantity
func (r *OrderRepository) SaveLine(ctx context.Context, line *models.OrderLine) error {
	if line.ID == 0 {
		return r.db.WithContext(ctx).Create(line).Error
	}
	return r.db.WithContext(ctx).Model(line).Update("quantity", line.Quantity).Error
}

func (r *OrderRepository) DeleteLine(ctx context.Context, lineID uint) error {
	return r.db.WithContext(ctx).Delete(&models.OrderLine{}, lineID).Error
}

func (r *OrderRepository) UpdatePrice(ctx context.Context, id uint, price float64) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("price", price).Error
}

func (r *OrderRepository) SetPaymentSession(ctx context.Context, id uint, sessionID string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("payment_session_id", sessionID).Error
}

// Transition moves the order from one state to another only if it is still in
// from (compare-and-swap). extra columns are written in the same statement.
func (r *OrderRepository) Transition(ctx context.Context, id uint, from, to models.OrderState, extra map[string]any) (bool, error) {
	updates := map[string]any{"state": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND state = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderRepository) AppendHistory(ctx context.Context, h *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// Delete removes the order with its lines and history
func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.OrderStatusHistory{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Order{}, id).Error
}

// CountLinesReferencing counts order lines holding the orderable
func (r *OrderRepository) CountLinesReferencing(ctx context.Context, orderableID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderLine{}).Where("orderable_id = ?", orderableID).Count(&n).Error
	return n, err
}
