package order

import (
	"time"

	"github.com/Additional-Code/mesa/internal/entity"
)

// TransitionEvent is the durable record of a committed lifecycle change,
// published to the messaging bus for notification workers.
type TransitionEvent struct {
	OrderID      int64         `json:"order_id"`
	Status       entity.Status `json:"status"`
	CustomerID   int64         `json:"customer_id"`
	RestaurantID int64         `json:"restaurant_id"`
	OwnerID      int64         `json:"owner_id"`
	DriverID     *int64        `json:"driver_id,omitempty"`
	AreaCode     string        `json:"area_code"`
	OccurredAt   time.Time     `json:"occurred_at"`
}
