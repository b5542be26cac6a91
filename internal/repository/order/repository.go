package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/mesa/internal/database"
	"github.com/Additional-Code/mesa/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/mesa/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// ErrConflict is returned when a conditional write finds the row no longer in
// the expected state. The caller lost a race; the stored order moved on.
var ErrConflict = errors.New("order state conflict")

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new order and its line items using the write connection.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.Int64("order.restaurant_id", order.RestaurantID)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		_, err := tx.NewInsert().Model(&order.Items).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetWithOwner fetches an order by primary key with the owning restaurant's
// owner id and the order's line items resolved.
func (r *Repository) GetWithOwner(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetWithOwner", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().
		Model(order).
		ModelTableExpr("orders AS o").
		ColumnExpr("o.*").
		ColumnExpr("r.owner_id AS owner_id").
		Join("JOIN restaurants AS r ON r.id = o.restaurant_id").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	err = r.reader.NewSelect().
		Model(&order.Items).
		Where("order_id = ?", id).
		Order("id ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select items failed")
		return nil, err
	}
	return order, nil
}

// ListByActor returns the page of orders visible to the caller: customers see
// their own orders, couriers their deliveries, owners their restaurants'
// orders. A non-empty status narrows the page further.
func (r *Repository) ListByActor(ctx context.Context, identity int64, role entity.Role, status entity.Status, page, perPage int) ([]entity.Order, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByActor", trace.WithAttributes(
		attribute.Int64("actor.id", identity),
		attribute.String("actor.role", role.String()),
	))
	defer span.End()

	if page < 1 {
		page = 1
	}

	var orders []entity.Order
	query := r.reader.NewSelect().Model(&orders)

	switch role {
	case entity.RoleClient:
		query = query.Where("customer_id = ?", identity)
	case entity.RoleDelivery:
		query = query.Where("driver_id = ?", identity)
	case entity.RoleOwner:
		query = query.Where("restaurant_id IN (SELECT id FROM restaurants WHERE owner_id = ?)", identity)
	default:
		return nil, 0, errors.New("unknown role")
	}

	if status != "" {
		query = query.Where("status = ?", status)
	}

	total, err := query.
		Order("id DESC").
		Limit(perPage).
		Offset(perPage * (page - 1)).
		ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return orders, total, nil
}

// CompareAndSetStatus advances the order's status in a single conditional
// write scoped by the expected current status. When driverID is non-nil the
// same write assigns the courier, conditional also on no driver being set:
// a claim committed since the caller's read must never be overwritten. Zero
// affected rows means another caller got there first; the stale expectation
// surfaces as ErrConflict.
func (r *Repository) CompareAndSetStatus(ctx context.Context, id int64, expected, next entity.Status, driverID *int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CompareAndSetStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status.expected", expected.String()),
		attribute.String("order.status.next", next.String()),
	))
	defer span.End()

	query := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", next).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", expected)
	if driverID != nil {
		query = query.
			Set("driver_id = ?", *driverID).
			Where("driver_id IS NULL")
	}

	res, err := query.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "conflict")
		return ErrConflict
	}
	return nil
}

// AssignDriver claims the delivery for a courier. The write is conditional on
// the order having no driver yet, so of any number of couriers racing for the
// same order exactly one wins; the rest observe ErrConflict.
func (r *Repository) AssignDriver(ctx context.Context, id, driverID int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AssignDriver", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.Int64("order.driver_id", driverID),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("driver_id = ?", driverID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("driver_id IS NULL").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "conflict")
		return ErrConflict
	}
	return nil
}
