package entity

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Status is the lifecycle state of an order. It only ever changes along the
// edges owned by the order service's transition table.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCooking   Status = "Cooking"
	StatusCooked    Status = "Cooked"
	StatusPickedUp  Status = "PickedUp"
	StatusDelivered Status = "Delivered"
	StatusCanceled  Status = "Canceled"
)

// Validate reports whether s is one of the known lifecycle states.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusCooking, StatusCooked, StatusPickedUp, StatusDelivered, StatusCanceled:
		return nil
	}
	return fmt.Errorf("unknown order status %q", string(s))
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

func (s Status) String() string { return string(s) }

// Order represents a customer's purchase stored in the relational database.
// Customer, restaurant, items and total are fixed at placement; status and
// driver only move through the order service.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           int64       `bun:",pk,autoincrement"`
	CustomerID   int64       `bun:"customer_id"`
	RestaurantID int64       `bun:"restaurant_id"`
	DriverID     *int64      `bun:"driver_id"`
	Total        int64       `bun:"total"`
	Status       Status      `bun:"status"`
	Address      string      `bun:"address"`
	AreaCode     string      `bun:"area_code"`
	Items        []OrderItem `bun:"rel:has-many,join:id=order_id"`
	CreatedAt    time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time   `bun:"updated_at,nullzero"`

	// OwnerID is resolved from the restaurant when loading for
	// authorization; it is not a column on orders.
	OwnerID int64 `bun:"owner_id,scanonly"`
}

// HasDriver reports whether a courier has claimed the order.
func (o *Order) HasDriver() bool {
	return o != nil && o.DriverID != nil
}

// OrderItem is a single dish line on an order, with the option choices the
// customer picked at placement.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID      int64    `bun:",pk,autoincrement"`
	OrderID int64    `bun:"order_id"`
	DishID  int64    `bun:"dish_id"`
	Choices []string `bun:"choices,array"`
}
