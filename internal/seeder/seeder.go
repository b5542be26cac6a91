package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mesa/internal/database"
	"github.com/Additional-Code/mesa/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All seeds accounts, a restaurant with a small menu, and sample orders if
// they are missing.
func (s *Seeder) All(ctx context.Context) error {
	now := time.Now().UTC()

	users := []entity.User{
		{ID: 1, Email: "owner@mesa.local", Role: entity.RoleOwner, AreaCode: "11680", CreatedAt: now, UpdatedAt: now},
		{ID: 2, Email: "customer@mesa.local", Role: entity.RoleClient, CreatedAt: now, UpdatedAt: now},
		{ID: 3, Email: "courier@mesa.local", Role: entity.RoleDelivery, AreaCode: "11680", CreatedAt: now, UpdatedAt: now},
	}
	for _, sample := range users {
		user := sample
		if _, err := s.db.NewInsert().Model(&user).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	restaurant := entity.Restaurant{
		ID: 1, OwnerID: 1, Name: "Casa Mesa", Address: "1 Market St",
		AreaCode: "11680", CreatedAt: now, UpdatedAt: now,
	}
	if _, err := s.db.NewInsert().Model(&restaurant).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx); err != nil {
		return err
	}

	dishes := []entity.Dish{
		{ID: 1, RestaurantID: 1, Name: "Bibimbap", Price: 9500, Options: []entity.DishOption{{Name: "Extra egg", Extra: 1000}}},
		{ID: 2, RestaurantID: 1, Name: "Kimchi stew", Price: 8000, Options: []entity.DishOption{{Name: "Large", Extra: 2000}}},
	}
	for _, sample := range dishes {
		dish := sample
		if _, err := s.db.NewInsert().Model(&dish).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	orders := []entity.Order{
		{ID: 1, CustomerID: 2, RestaurantID: 1, Total: 10500, Status: entity.StatusPending, Address: "2 Harbor Rd", AreaCode: "11680", CreatedAt: now, UpdatedAt: now},
	}
	for _, sample := range orders {
		order := sample
		if _, err := s.db.NewInsert().Model(&order).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded fixtures",
			zap.Int("users", len(users)),
			zap.Int("dishes", len(dishes)),
			zap.Int("orders", len(orders)),
		)
	}
	return nil
}
