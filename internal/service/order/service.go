package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mesa/internal/cache"
	"github.com/Additional-Code/mesa/internal/config"
	"github.com/Additional-Code/mesa/internal/entity"
	"github.com/Additional-Code/mesa/internal/eventbus"
	"github.com/Additional-Code/mesa/internal/messaging"
	repo "github.com/Additional-Code/mesa/internal/repository/order"
	restaurantrepo "github.com/Additional-Code/mesa/internal/repository/restaurant"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/mesa/service/order")

// Store is the persistence contract the lifecycle consumes. The conditional
// writes are the concurrency control: no mutex guards an order, the
// expected-state predicate in the store does.
type Store interface {
	Create(ctx context.Context, order *entity.Order) error
	GetWithOwner(ctx context.Context, id int64) (*entity.Order, error)
	ListByActor(ctx context.Context, identity int64, role entity.Role, status entity.Status, page, perPage int) ([]entity.Order, int, error)
	CompareAndSetStatus(ctx context.Context, id int64, expected, next entity.Status, driverID *int64) error
	AssignDriver(ctx context.Context, id, driverID int64) error
}

// Catalog resolves restaurants and dishes for order placement.
type Catalog interface {
	GetByID(ctx context.Context, id int64) (*entity.Restaurant, error)
	DishByID(ctx context.Context, id int64) (*entity.Dish, error)
}

// Service owns the order lifecycle: placement, reads, and every status
// transition with its authorization and event fan-out.
type Service struct {
	store     Store
	catalog   Catalog
	cache     cache.Store
	cacheTTL  time.Duration
	perPage   int
	logger    *zap.Logger
	publisher messaging.Client
	bus       *eventbus.Bus
	messaging messagingConfig
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Restaurants *restaurantrepo.Repository
	Cache       cache.Store
	Config      config.Config
	Logger      *zap.Logger
	Publisher   messaging.Client
	Bus         *eventbus.Bus
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:     p.Repository,
		catalog:   p.Restaurants,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		perPage:   p.Config.Orders.PerPage,
		logger:    p.Logger,
		publisher: p.Publisher,
		bus:       p.Bus,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// ItemInput is one dish line of a placement request.
type ItemInput struct {
	DishID  int64
	Choices []string
}

// CreateInput is a placement request from an authenticated customer.
type CreateInput struct {
	RestaurantID int64
	Address      string
	Items        []ItemInput
}

// Create places a new order for a customer. The total is computed here, from
// dish prices plus the extras of every chosen option, and is immutable
// afterwards. The order starts Pending and the owning restaurant is notified.
func (s *Service) Create(ctx context.Context, identity int64, role entity.Role, input CreateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.Int64("restaurant.id", input.RestaurantID)))
	defer span.End()

	if role != entity.RoleClient {
		return nil, errUnauthorized("only customers place orders")
	}
	if len(input.Items) == 0 {
		return nil, errBadRequest("order needs at least one item")
	}

	restaurant, err := s.catalog.GetByID(ctx, input.RestaurantID)
	if err != nil {
		if errors.Is(err, restaurantrepo.ErrNotFound) {
			return nil, errNotFound("restaurant not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog error")
		return nil, errInternal("failed to load restaurant", err)
	}

	var total int64
	items := make([]entity.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		dish, err := s.catalog.DishByID(ctx, item.DishID)
		if err != nil {
			if errors.Is(err, restaurantrepo.ErrNotFound) {
				return nil, errNotFound("dish not found")
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "catalog error")
			return nil, errInternal("failed to load dish", err)
		}
		if dish.RestaurantID != restaurant.ID {
			return nil, errBadRequest("dish does not belong to restaurant")
		}

		total += dish.Price
		for _, choice := range item.Choices {
			option, ok := dish.Option(choice)
			if !ok {
				return nil, errNotFound("dish option not found")
			}
			total += option.Extra
		}
		items = append(items, entity.OrderItem{DishID: item.DishID, Choices: item.Choices})
	}

	now := time.Now().UTC()
	order := &entity.Order{
		CustomerID:   identity,
		RestaurantID: restaurant.ID,
		OwnerID:      restaurant.OwnerID,
		Total:        total,
		Status:       entity.StatusPending,
		Address:      input.Address,
		AreaCode:     restaurant.AreaCode,
		Items:        items,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, errInternal("failed to create order", err)
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.warn("orders cache write failed", order.ID, err)
	}

	s.publishEvent(ctx, busEvent(order, order.Status), eventbus.TopicPendingOrders)
	return order, nil
}

// Get retrieves an order by id for one of its participants, consulting cache
// when available.
func (s *Service) Get(ctx context.Context, id, identity int64, role entity.Role) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.getFromCache(ctx, id)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.warn("orders cache read failed", id, err)
		}
		order, err = s.store.GetWithOwner(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, errNotFound("order not found")
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "store error")
			return nil, errInternal("failed to load order", err)
		}
		if err := s.storeInCache(ctx, order); err != nil {
			s.warn("orders cache write failed", id, err)
		}
	}

	if !canRead(role, identity, order) {
		return nil, errUnauthorized("order is not visible to caller")
	}
	return order, nil
}

// List returns the page of orders visible to the caller plus total item and
// page counts. An empty status means all statuses.
func (s *Service) List(ctx context.Context, identity int64, role entity.Role, status entity.Status, page int) ([]entity.Order, int, int, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(
		attribute.Int64("actor.id", identity),
		attribute.String("actor.role", role.String()),
	))
	defer span.End()

	if status != "" {
		if err := status.Validate(); err != nil {
			return nil, 0, 0, errBadRequest(err.Error())
		}
	}

	orders, total, err := s.store.ListByActor(ctx, identity, role, status, page, s.perPage)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, 0, 0, errInternal("failed to list orders", err)
	}

	pages := (total + s.perPage - 1) / s.perPage
	return orders, total, pages, nil
}

// RequestTransition drives one order through one edge of the lifecycle on
// behalf of an authenticated actor. The order is loaded, the actor checked
// against the authorization matrix, the edge checked against the transition
// table, and the new status persisted with a conditional write; exactly one
// event is emitted once the write commits.
func (s *Service) RequestTransition(ctx context.Context, orderID, identity int64, role entity.Role, target entity.Status) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.RequestTransition", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.status.target", target.String()),
	))
	defer span.End()

	if err := target.Validate(); err != nil {
		return errBadRequest(err.Error())
	}
	if err := role.Validate(); err != nil {
		return errBadRequest(err.Error())
	}

	// Capability prefilter: a role that can never request this status is
	// rejected before any store I/O.
	if !roleMayRequest(role, target) {
		return errUnauthorized("role may not request this status")
	}

	order, err := s.store.GetWithOwner(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return errInternal("failed to load order", err)
	}

	if !permits(role, identity, order, target) {
		return errUnauthorized("actor may not drive this transition")
	}

	if edgeRoles(order.Status, target) == nil {
		return errInvalidTransition(order.Status, target)
	}

	// A courier claiming pickup of an unclaimed order becomes its driver in
	// the same write; the store re-checks driver absence so a claim committed
	// since our read surfaces as a conflict instead of being overwritten.
	// Delivery completion requires a driver to exist.
	var assignDriver *int64
	switch target {
	case entity.StatusPickedUp:
		if !order.HasDriver() {
			assignDriver = &identity
		}
	case entity.StatusDelivered:
		if !order.HasDriver() {
			return errInvalidTransition(order.Status, target)
		}
	}

	if err := s.store.CompareAndSetStatus(ctx, orderID, order.Status, target, assignDriver); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			// Another caller advanced the order first.
			return errInvalidTransition(order.Status, target)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return errInternal("failed to persist transition", err)
	}

	order.Status = target
	if assignDriver != nil {
		order.DriverID = assignDriver
	}

	s.invalidateCache(ctx, orderID)
	s.publishEvent(ctx, busEvent(order, target), classTopic(target)...)

	s.logger.Info("order transitioned",
		zap.Int64("order_id", orderID),
		zap.String("status", target.String()),
		zap.Int64("actor_id", identity),
		zap.String("actor_role", role.String()),
	)
	return nil
}

// AssignDriver claims an unclaimed delivery for a courier without changing
// the order's status. It succeeds at most once per order: the write is
// conditional on no driver being set.
func (s *Service) AssignDriver(ctx context.Context, orderID, identity int64, role entity.Role) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.AssignDriver", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("actor.id", identity),
	))
	defer span.End()

	if role != entity.RoleDelivery {
		return errUnauthorized("only couriers claim deliveries")
	}

	order, err := s.store.GetWithOwner(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return errInternal("failed to load order", err)
	}

	if !claimableStatus(order.Status) {
		return errInvalidTransition(order.Status, order.Status)
	}
	if order.HasDriver() {
		return errInvalidTransition(order.Status, order.Status)
	}

	if err := s.store.AssignDriver(ctx, orderID, identity); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return errInvalidTransition(order.Status, order.Status)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return errInternal("failed to assign driver", err)
	}

	order.DriverID = &identity
	s.invalidateCache(ctx, orderID)
	s.publishEvent(ctx, busEvent(order, order.Status))

	s.logger.Info("delivery claimed",
		zap.Int64("order_id", orderID),
		zap.Int64("driver_id", identity),
	)
	return nil
}

// busEvent snapshots an order into the immutable event fanned out after a
// committed change.
func busEvent(order *entity.Order, status entity.Status) eventbus.Event {
	return eventbus.Event{
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		OwnerID:      order.OwnerID,
		DriverID:     order.DriverID,
		Status:       status,
		AreaCode:     order.AreaCode,
		OccurredAt:   time.Now().UTC(),
	}
}

// classTopic maps a freshly reached status to the notification-class topic
// interested parties watch, beyond the per-order updates stream.
func classTopic(status entity.Status) []string {
	switch status {
	case entity.StatusCooking:
		return []string{eventbus.TopicCookingOrders}
	case entity.StatusCooked:
		return []string{eventbus.TopicCookedOrders}
	default:
		return nil
	}
}

// publishEvent fans the event out on the in-process bus (updates stream plus
// any class topics) and mirrors it onto the durable messaging bus. Delivery
// problems are logged, never surfaced: the transition already committed.
func (s *Service) publishEvent(ctx context.Context, event eventbus.Event, topics ...string) {
	if s.bus != nil {
		s.bus.Publish(eventbus.TopicOrderUpdates, event)
		for _, topic := range topics {
			s.bus.Publish(topic, event)
		}
	}

	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(TransitionEvent{
		OrderID:      event.OrderID,
		Status:       event.Status,
		CustomerID:   event.CustomerID,
		RestaurantID: event.RestaurantID,
		OwnerID:      event.OwnerID,
		DriverID:     event.DriverID,
		AreaCode:     event.AreaCode,
		OccurredAt:   event.OccurredAt,
	})
	if err != nil {
		s.logger.Error("marshal transition event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", event.OrderID)), payload); err != nil {
		s.logger.Error("publish transition event", zap.Error(err))
	}
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

func (s *Service) invalidateCache(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.warn("orders cache delete failed", id, err)
	}
}

func (s *Service) warn(msg string, id int64, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, zap.Int64("id", id), zap.Error(err))
	}
}
