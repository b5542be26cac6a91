package restaurant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/mesa/internal/database"
	"github.com/Additional-Code/mesa/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/mesa/repository/restaurant")

// ErrNotFound is returned when a restaurant or dish is missing.
var ErrNotFound = errors.New("restaurant not found")

// Repository resolves restaurants and their menus.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// GetByID fetches a restaurant by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Restaurant, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.GetByID", trace.WithAttributes(attribute.Int64("restaurant.id", id)))
	defer span.End()

	restaurant := new(entity.Restaurant)
	err := r.reader.NewSelect().Model(restaurant).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return restaurant, nil
}

// DishByID fetches a single dish by primary key.
func (r *Repository) DishByID(ctx context.Context, id int64) (*entity.Dish, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.DishByID", trace.WithAttributes(attribute.Int64("dish.id", id)))
	defer span.End()

	dish := new(entity.Dish)
	err := r.reader.NewSelect().Model(dish).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return dish, nil
}
