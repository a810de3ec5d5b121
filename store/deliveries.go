package store

import (
	"context"

	"gorm.io/gorm"

	"food-ordering-api/models"
)

// ── Drivers ─────────────────────────────────────────────────────────────────

type DriverRepository struct {
	db *gorm.DB
}

func (r *DriverRepository) Create(ctx context.Context, d *models.Driver) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DriverRepository) Get(ctx context.Context, id uint) (*models.Driver, error) {
	var d models.Driver
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, notFound(err, "Driver with ID %d not found", id)
	}
	return &d, nil
}

func (r *DriverRepository) GetByUser(ctx context.Context, userID uint) (*models.Driver, error) {
	var d models.Driver
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&d).Error; err != nil {
		return nil, notFound(err, "No driver profile for user %d", userID)
	}
	return &d, nil
}

func (r *DriverRepository) List(ctx context.Context) ([]models.Driver, error) {
	var drivers []models.Driver
	err := r.db.WithContext(ctx).Order("id").Find(&drivers).Error
	return drivers, err
}

// SetDelivering flips the flag only if it currently equals !delivering
func (r *DriverRepository) SetDelivering(ctx context.Context, id uint, delivering bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Driver{}).
		Where("id = ? AND is_delivering = ?", id, !delivering).
		Update("is_delivering", delivering)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ── Deliveries ──────────────────────────────────────────────────────────────

type DeliveryRepository struct {
	db *gorm.DB
}

func (r *DeliveryRepository) Create(ctx context.Context, d *models.Delivery) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DeliveryRepository) GetByOrder(ctx context.Context, orderID uint) (*models.Delivery, error) {
	var d models.Delivery
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&d).Error; err != nil {
		return nil, notFound(err, "No delivery for order %d", orderID)
	}
	return &d, nil
}

func (r *DeliveryRepository) Save(ctx context.Context, d *models.Delivery) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DeliveryRepository) ListByState(ctx context.Context, state models.DeliveryState) ([]models.Delivery, error) {
	var out []models.Delivery
	err := r.db.WithContext(ctx).Where("state = ?", state).Order("created_at asc, id asc").Find(&out).Error
	return out, err
}

func (r *DeliveryRepository) ListByDriver(ctx context.Context, driverID uint) ([]models.Delivery, error) {
	var out []models.Delivery
	err := r.db.WithContext(ctx).Where("driver_id = ?", driverID).Order("updated_at desc, id desc").Find(&out).Error
	return out, err
}

// CountInProgress counts in-progress deliveries held by the driver
func (r *DeliveryRepository) CountInProgress(ctx context.Context, driverID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Delivery{}).
		Where("driver_id = ? AND state = ?", driverID, models.DeliveryInProgress).
		Count(&n).Error
	return n, err
}
