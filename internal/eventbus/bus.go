package eventbus

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mesa/internal/config"
	"github.com/Additional-Code/mesa/internal/entity"
)

// Topics carried by the bus. Each one is a notification class with its own
// delivery filter.
const (
	// TopicPendingOrders carries freshly placed orders to the owning restaurant.
	TopicPendingOrders = "orders.pending"
	// TopicCookingOrders carries accepted orders to couriers in the same area.
	TopicCookingOrders = "orders.cooking"
	// TopicCookedOrders carries ready-for-pickup orders to couriers in the same area.
	TopicCookedOrders = "orders.cooked"
	// TopicOrderUpdates carries every transition to the order's participants.
	TopicOrderUpdates = "orders.updates"
)

// Event is a committed order lifecycle change. All fields are immutable after
// publication; filters never see anything else.
type Event struct {
	Topic        string        `json:"topic"`
	OrderID      int64         `json:"order_id"`
	CustomerID   int64         `json:"customer_id"`
	RestaurantID int64         `json:"restaurant_id"`
	OwnerID      int64         `json:"owner_id"`
	DriverID     *int64        `json:"driver_id,omitempty"`
	Status       entity.Status `json:"status"`
	AreaCode     string        `json:"area_code"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

// Subscriber is the immutable context a subscription is filtered against.
type Subscriber struct {
	Identity int64
	Role     entity.Role

	// OrderID narrows TopicOrderUpdates to a single order.
	OrderID int64
	// AreaCode narrows courier topics to a serviceable area.
	AreaCode string
}

// ErrClosed is returned by Subscribe after the bus shut down.
var ErrClosed = errors.New("event bus closed")

// ErrUnknownTopic is returned when subscribing to a topic the bus does not carry.
var ErrUnknownTopic = errors.New("unknown topic")

// Subscription is one live listener on a topic. Events arrive on Events()
// until Close; closing never disturbs other subscribers or publishers.
type Subscription struct {
	id    uint64
	topic string
	sub   Subscriber
	ch    chan Event
	bus   *Bus
	once  sync.Once
}

// Events returns the subscription's delivery channel. It is closed when the
// subscription or the bus is closed.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close tears down the subscription and stops further delivery.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s)
		close(s.ch)
	})
}

// Bus is an in-process topic fan-out. Each subscriber owns a buffered channel;
// publish never blocks, a subscriber that falls behind loses events rather
// than stalling the transition that produced them.
type Bus struct {
	mu     sync.RWMutex
	buffer int
	nextID uint64
	topics map[string]map[uint64]*Subscription
	logger *zap.Logger
	closed bool
}

// NewBus builds a bus whose subscribers buffer up to buffer events each.
func NewBus(buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	topics := make(map[string]map[uint64]*Subscription, len(deliveryFilters))
	for topic := range deliveryFilters {
		topics[topic] = make(map[uint64]*Subscription)
	}
	return &Bus{
		buffer: buffer,
		topics: topics,
		logger: logger,
	}
}

// Module wires the bus into the Fx graph with a shutdown hook.
var Module = fx.Provide(New)

// New builds the process-lifetime bus from configuration.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *Bus {
	bus := NewBus(cfg.Bus.SubscriberBuffer, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			bus.Close()
			return nil
		},
	})
	return bus
}

// Subscribe registers a listener on topic, filtered against sub on every
// event. Only events published after the call are delivered.
func (b *Bus) Subscribe(topic string, sub Subscriber) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	members, ok := b.topics[topic]
	if !ok {
		return nil, ErrUnknownTopic
	}

	b.nextID++
	subscription := &Subscription{
		id:    b.nextID,
		topic: topic,
		sub:   sub,
		ch:    make(chan Event, b.buffer),
		bus:   b,
	}
	members[subscription.id] = subscription
	return subscription, nil
}

// Publish fans an event out to every live subscriber of topic whose filter
// admits it. It never blocks: a full subscriber buffer drops the event for
// that subscriber only.
func (b *Bus) Publish(topic string, event Event) {
	event.Topic = topic
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	filter, ok := deliveryFilters[topic]
	if !ok {
		if b.logger != nil {
			b.logger.Warn("publish to unknown topic", zap.String("topic", topic))
		}
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, subscription := range b.topics[topic] {
		if !filter(event, subscription.sub) {
			continue
		}
		select {
		case subscription.ch <- event:
		default:
			if b.logger != nil {
				b.logger.Warn("subscriber buffer full; dropping event",
					zap.String("topic", topic),
					zap.Int64("order_id", event.OrderID),
					zap.Int64("subscriber", subscription.sub.Identity),
				)
			}
		}
	}
}

// Close shuts the bus down and closes every subscription channel. The
// subscriber maps are detached under the lock and the channels closed after
// releasing it: a Subscription.Close in flight takes the same lock inside its
// once body, so holding it across once.Do would deadlock both sides.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var detached []*Subscription
	for _, members := range b.topics {
		for id, subscription := range members {
			delete(members, id)
			detached = append(detached, subscription)
		}
	}
	b.mu.Unlock()

	for _, subscription := range detached {
		subscription.once.Do(func() { close(subscription.ch) })
	}
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if members, ok := b.topics[s.topic]; ok {
		delete(members, s.id)
	}
}
