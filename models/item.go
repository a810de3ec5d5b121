package models

import "time"

// Category of an item on the menu
type Category string

const (
	CategoryStarter Category = "Starter"
	CategoryMain    Category = "Main"
	CategoryDessert Category = "Dessert"
	CategorySide    Category = "Side"
	CategoryDrink   Category = "Drink"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryStarter, CategoryMain, CategoryDessert, CategorySide, CategoryDrink:
		return true
	}
	return false
}

type Item struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name        string    `json:"name" gorm:"not null"`
	Price       float64   `json:"price" gorm:"not null"`
	Category    Category  `json:"category" gorm:"not null"`
	Description string    `json:"description"`
	Stock       int       `json:"stock" gorm:"not null"`
	IsInMenu    bool      `json:"is_in_menu"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (i *Item) OrderableID() uint   { return i.ID }
func (i *Item) Kind() OrderableType { return OrderableItem }
func (i *Item) DisplayName() string { return i.Name }
func (i *Item) UnitPrice() float64  { return i.Price }
func (i *Item) InMenu() bool        { return i.IsInMenu }
func (i *Item) orderable()          {}

func (i *Item) CheckAvailability(time.Time) bool {
	return i.Stock > 0 && i.IsInMenu
}

func (i *Item) Listable(time.Time) bool {
	return i.Stock > 0
}

func (i *Item) CheckStock(quantity int) bool {
	return i.CheckAvailability(time.Time{}) && i.Stock-quantity >= 0
}

func (i *Item) ItemDeltas(quantity int) map[uint]int {
	return map[uint]int{i.ID: quantity}
}
