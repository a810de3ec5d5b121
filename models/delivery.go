package models

import "time"

// DeliveryState of the single delivery attached to an order
type DeliveryState int

const (
	DeliveryPending    DeliveryState = 0
	DeliveryInProgress DeliveryState = 1
	DeliveryCompleted  DeliveryState = 2
)

type Delivery struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	OrderID   uint          `json:"order_id" gorm:"uniqueIndex;not null"`
	DriverID  *uint         `json:"driver_id" gorm:"index"`
	State     DeliveryState `json:"state" gorm:"not null;index"`
	StartedAt *time.Time    `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Driver is the delivery profile of a driver-role user.
// IsDelivering is true exactly when the driver has a delivery in progress.
type Driver struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	Phone        string    `json:"phone"`
	IsDelivering bool      `json:"is_delivering"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
