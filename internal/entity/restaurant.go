package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Restaurant is the venue an order is placed against. OwnerID scopes every
// owner-side authorization decision; AreaCode scopes courier matching.
type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants"`

	ID        int64     `bun:",pk,autoincrement"`
	OwnerID   int64     `bun:"owner_id"`
	Name      string    `bun:"name"`
	Address   string    `bun:"address"`
	AreaCode  string    `bun:"area_code"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// Dish is a menu entry with priced extras.
type Dish struct {
	bun.BaseModel `bun:"table:dishes"`

	ID           int64        `bun:",pk,autoincrement"`
	RestaurantID int64        `bun:"restaurant_id"`
	Name         string       `bun:"name"`
	Price        int64        `bun:"price"`
	Options      []DishOption `bun:"options,type:jsonb"`
}

// DishOption is an optional dish add-on carrying an extra charge.
type DishOption struct {
	Name  string `json:"name"`
	Extra int64  `json:"extra"`
}

// Option returns the named option, if the dish offers it.
func (d *Dish) Option(name string) (DishOption, bool) {
	for _, opt := range d.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return DishOption{}, false
}
