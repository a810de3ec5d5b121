package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderableType tags the variant behind an orderable id
type OrderableType string

const (
	OrderableItem   OrderableType = "item"
	OrderableBundle OrderableType = "bundle"
)

// OrderableRecord allocates the ids shared by items and bundles. Item.ID and
// Bundle.ID are always the id of their orderables row.
type OrderableRecord struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	Type      OrderableType `json:"type" gorm:"not null"`
	CreatedAt time.Time     `json:"created_at"`
}

func (OrderableRecord) TableName() string { return "orderables" }

// Orderable is anything a customer can put on an order.
// The set of implementations is closed: *Item and *Bundle.
type Orderable interface {
	OrderableID() uint
	Kind() OrderableType
	DisplayName() string
	// UnitPrice is the price of one unit, always > 0 for a valid entity
	UnitPrice() float64
	InMenu() bool
	// CheckAvailability is the customer-facing availability at time now
	CheckAvailability(now time.Time) bool
	// Listable is the availability the menu gate requires before listing,
	// evaluated as if the orderable were already on the menu
	Listable(now time.Time) bool
	CheckStock(quantity int) bool
	// ItemDeltas expands quantity units into per-item stock deltas
	ItemDeltas(quantity int) map[uint]int

	orderable()
}

// PriceOf sums orderable.UnitPrice() * quantity over contents.
// Orderables missing from lookup contribute nothing.
func PriceOf(contents map[uint]int, lookup map[uint]Orderable) float64 {
	total := decimal.Zero
	for id, qty := range contents {
		o, ok := lookup[id]
		if !ok {
			continue
		}
		total = total.Add(decimal.NewFromFloat(o.UnitPrice()).Mul(decimal.NewFromInt(int64(qty))))
	}
	f, _ := total.Float64()
	return f
}

// Day truncates t to midnight UTC of its calendar day
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
