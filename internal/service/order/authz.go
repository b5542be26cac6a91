package order

import "github.com/Additional-Code/mesa/internal/entity"

// permits is the authorization matrix: a pure, total predicate over the
// actor's role and identity, the loaded order, and the requested target
// status. It decides WHO may ask, never WHETHER the lifecycle allows the
// move; the transition table owns that separately.
func permits(role entity.Role, identity int64, order *entity.Order, target entity.Status) bool {
	if order == nil || !roleMayRequest(role, target) {
		return false
	}

	switch role {
	case entity.RoleOwner:
		return identity == order.OwnerID
	case entity.RoleClient:
		return identity == order.CustomerID
	case entity.RoleDelivery:
		// An unclaimed delivery is open to any courier; a claimed one
		// belongs to its driver.
		return order.DriverID == nil || identity == *order.DriverID
	default:
		return false
	}
}

// canRead reports whether the actor may see the order at all: its customer,
// the restaurant's owner, or the assigned driver.
func canRead(role entity.Role, identity int64, order *entity.Order) bool {
	if order == nil {
		return false
	}
	switch role {
	case entity.RoleClient:
		return identity == order.CustomerID
	case entity.RoleOwner:
		return identity == order.OwnerID
	case entity.RoleDelivery:
		return order.DriverID != nil && identity == *order.DriverID
	default:
		return false
	}
}
