package dto

import "time"

// OrderItemResponse is one dish line of an order as exposed via transport layers.
type OrderItemResponse struct {
	DishID  int64    `json:"dish_id"`
	Choices []string `json:"choices,omitempty"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID           int64               `json:"id"`
	CustomerID   int64               `json:"customer_id"`
	RestaurantID int64               `json:"restaurant_id"`
	DriverID     *int64              `json:"driver_id,omitempty"`
	Total        int64               `json:"total"`
	Status       string              `json:"status"`
	Address      string              `json:"address"`
	AreaCode     string              `json:"area_code,omitempty"`
	Items        []OrderItemResponse `json:"items,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}
