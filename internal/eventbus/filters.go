package eventbus

import "github.com/Additional-Code/mesa/internal/entity"

// Filter decides whether one published event reaches one subscriber. Filters
// are pure: they read the event and the subscriber context, nothing else.
type Filter func(Event, Subscriber) bool

// deliveryFilters binds every topic the bus carries to its filter. A topic
// absent here cannot be subscribed or published.
var deliveryFilters = map[string]Filter{
	TopicPendingOrders: deliverToOwner,
	TopicCookingOrders: deliverToAreaCouriers,
	TopicCookedOrders:  deliverToAreaCouriers,
	TopicOrderUpdates:  deliverToParticipant,
}

// deliverToOwner admits only the owner of the restaurant the order targets.
func deliverToOwner(e Event, s Subscriber) bool {
	return s.Role == entity.RoleOwner && s.Identity == e.OwnerID
}

// deliverToAreaCouriers admits every courier serving the order's area. Any of
// them may race to claim the delivery; the store's conditional driver write
// decides the winner.
func deliverToAreaCouriers(e Event, s Subscriber) bool {
	return s.Role == entity.RoleDelivery && s.AreaCode == e.AreaCode
}

// deliverToParticipant admits the customer, the restaurant owner, or the
// assigned driver of the exact order the subscriber asked about.
func deliverToParticipant(e Event, s Subscriber) bool {
	if s.OrderID != e.OrderID {
		return false
	}
	if s.Identity == e.CustomerID || s.Identity == e.OwnerID {
		return true
	}
	return e.DriverID != nil && s.Identity == *e.DriverID
}
