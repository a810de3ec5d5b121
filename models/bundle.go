package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bundle is a fixed collection of items sold together at a percentage discount
// within a date window. Items must be preloaded with their Item for the
// price and availability methods to be meaningful.
type Bundle struct {
	ID          uint         `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name        string       `json:"name" gorm:"not null"`
	Description string       `json:"description"`
	Reduction   float64      `json:"reduction" gorm:"not null"`
	StartDate   time.Time    `json:"availability_start_date" gorm:"not null"`
	EndDate     time.Time    `json:"availability_end_date" gorm:"not null"`
	IsInMenu    bool         `json:"is_in_menu"`
	Image       string       `json:"image,omitempty"`
	Items       []BundleItem `json:"items" gorm:"foreignKey:BundleID"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// BundleItem is one constituent of a bundle with its per-bundle quantity
type BundleItem struct {
	ID       uint `json:"-" gorm:"primaryKey"`
	BundleID uint `json:"-" gorm:"not null;uniqueIndex:idx_bundle_item"`
	ItemID   uint `json:"item_id" gorm:"not null;uniqueIndex:idx_bundle_item;index"`
	Item     Item `json:"item" gorm:"foreignKey:ItemID"`
	Quantity int  `json:"quantity" gorm:"not null"`
}

func (b *Bundle) OrderableID() uint   { return b.ID }
func (b *Bundle) Kind() OrderableType { return OrderableBundle }
func (b *Bundle) DisplayName() string { return b.Name }
func (b *Bundle) InMenu() bool        { return b.IsInMenu }
func (b *Bundle) orderable()          {}

// UnitPrice = sum(item.price * qty) * (1 - reduction/100)
func (b *Bundle) UnitPrice() float64 {
	sum := decimal.Zero
	for _, bi := range b.Items {
		sum = sum.Add(decimal.NewFromFloat(bi.Item.Price).Mul(decimal.NewFromInt(int64(bi.Quantity))))
	}
	hundred := decimal.NewFromInt(100)
	factor := hundred.Sub(decimal.NewFromFloat(b.Reduction)).Div(hundred)
	f, _ := sum.Mul(factor).Float64()
	return f
}

// InWindow reports whether the calendar day of now lies in [StartDate, EndDate]
func (b *Bundle) InWindow(now time.Time) bool {
	today := Day(now)
	return !today.Before(Day(b.StartDate)) && !today.After(Day(b.EndDate))
}

func (b *Bundle) CheckAvailability(now time.Time) bool {
	if !b.InWindow(now) {
		return false
	}
	for i := range b.Items {
		if !b.Items[i].Item.CheckStock(b.Items[i].Quantity) {
			return false
		}
	}
	return true
}

func (b *Bundle) Listable(now time.Time) bool {
	return b.CheckAvailability(now)
}

func (b *Bundle) CheckStock(quantity int) bool {
	for _, bi := range b.Items {
		if bi.Item.Stock < bi.Quantity*quantity {
			return false
		}
	}
	return true
}

func (b *Bundle) ItemDeltas(quantity int) map[uint]int {
	deltas := make(map[uint]int, len(b.Items))
	for _, bi := range b.Items {
		deltas[bi.ItemID] += bi.Quantity * quantity
	}
	return deltas
}
