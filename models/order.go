package models

import "time"

// OrderState represents all possible states of an order
type OrderState string

const (
	StateCreated    OrderState = "CREATED"
	StatePaid       OrderState = "PAID"
	StatePrepared   OrderState = "PREPARED"
	StateDelivering OrderState = "DELIVERING"
	StateDelivered  OrderState = "DELIVERED"
)

type Order struct {
	ID               uint                 `json:"id" gorm:"primaryKey"`
	CustomerID       uint                 `json:"customer_id" gorm:"not null;index"`
	State            OrderState           `json:"state" gorm:"not null;default:'CREATED';index"`
	Price            float64              `json:"price"` // cache of PriceOf(contents), refreshed on every content change
	DeliveryAddress  string               `json:"delivery_address"`
	PaymentSessionID string               `json:"payment_session_id,omitempty"`
	Lines            []OrderLine          `json:"lines" gorm:"foreignKey:OrderID"`
	StatusHistory    []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time            `json:"created_at"`
	PaidAt           *time.Time           `json:"paid_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// OrderLine is one key of the order contents: an orderable and its quantity
type OrderLine struct {
	ID            uint          `json:"-" gorm:"primaryKey"`
	OrderID       uint          `json:"-" gorm:"not null;uniqueIndex:idx_order_orderable"`
	OrderableID   uint          `json:"orderable_id" gorm:"not null;uniqueIndex:idx_order_orderable;index"`
	OrderableType OrderableType `json:"orderable_type" gorm:"not null"`
	Quantity      int           `json:"quantity" gorm:"not null"`
}

// Contents returns the order as a mapping orderable id -> quantity
func (o *Order) Contents() map[uint]int {
	contents := make(map[uint]int, len(o.Lines))
	for _, l := range o.Lines {
		contents[l.OrderableID] += l.Quantity
	}
	return contents
}

// Line returns the line holding orderableID, if any
func (o *Order) Line(orderableID uint) (OrderLine, bool) {
	for _, l := range o.Lines {
		if l.OrderableID == orderableID {
			return l, true
		}
	}
	return OrderLine{}, false
}

// OrderStatusHistory tracks every state change of an order
type OrderStatusHistory struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	OrderID   uint       `json:"order_id" gorm:"not null;index"`
	FromState OrderState `json:"from_state"`
	ToState   OrderState `json:"to_state" gorm:"not null"`
	ChangedBy uint       `json:"changed_by"` // user ID who triggered the transition, 0 for the system
	Note      string     `json:"note"`
	CreatedAt time.Time  `json:"created_at"`
}
