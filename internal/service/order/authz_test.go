package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/mesa/internal/entity"
)

func testOrder(driver *int64) *entity.Order {
	return &entity.Order{
		ID:           42,
		CustomerID:   3,
		RestaurantID: 5,
		OwnerID:      7,
		DriverID:     driver,
		Status:       entity.StatusCooked,
	}
}

func TestPermits(t *testing.T) {
	driver := int64(9)

	t.Run("owner identity binding", func(t *testing.T) {
		o := testOrder(nil)
		assert.True(t, permits(entity.RoleOwner, 7, o, entity.StatusCooking))
		assert.False(t, permits(entity.RoleOwner, 8, o, entity.StatusCooking))
	})

	t.Run("customer identity binding", func(t *testing.T) {
		o := testOrder(nil)
		assert.True(t, permits(entity.RoleClient, 3, o, entity.StatusCanceled))
		assert.False(t, permits(entity.RoleClient, 4, o, entity.StatusCanceled))
	})

	t.Run("unclaimed delivery is open to any courier", func(t *testing.T) {
		o := testOrder(nil)
		assert.True(t, permits(entity.RoleDelivery, 9, o, entity.StatusPickedUp))
		assert.True(t, permits(entity.RoleDelivery, 11, o, entity.StatusPickedUp))
	})

	t.Run("claimed delivery belongs to its driver", func(t *testing.T) {
		o := testOrder(&driver)
		assert.True(t, permits(entity.RoleDelivery, 9, o, entity.StatusPickedUp))
		assert.False(t, permits(entity.RoleDelivery, 11, o, entity.StatusPickedUp))
	})

	t.Run("role capability gates before identity", func(t *testing.T) {
		o := testOrder(nil)
		// The customer owns the order, but no customer may request Cooking.
		assert.False(t, permits(entity.RoleClient, 3, o, entity.StatusCooking))
		// The driver may never cancel, claimed or not.
		assert.False(t, permits(entity.RoleDelivery, 9, o, entity.StatusCanceled))
	})

	t.Run("nil order and unknown role are denied", func(t *testing.T) {
		assert.False(t, permits(entity.RoleOwner, 7, nil, entity.StatusCooking))
		assert.False(t, permits(entity.Role("ghost"), 7, testOrder(nil), entity.StatusCooking))
	})
}

func TestCanRead(t *testing.T) {
	driver := int64(9)
	claimed := testOrder(&driver)
	unclaimed := testOrder(nil)

	cases := []struct {
		name     string
		role     entity.Role
		identity int64
		order    *entity.Order
		want     bool
	}{
		{"customer reads own order", entity.RoleClient, 3, unclaimed, true},
		{"stranger customer denied", entity.RoleClient, 4, unclaimed, false},
		{"owner reads restaurant order", entity.RoleOwner, 7, unclaimed, true},
		{"other owner denied", entity.RoleOwner, 8, unclaimed, false},
		{"assigned driver reads", entity.RoleDelivery, 9, claimed, true},
		{"other courier denied on claimed", entity.RoleDelivery, 11, claimed, false},
		{"courier denied on unclaimed", entity.RoleDelivery, 9, unclaimed, false},
		{"nil order denied", entity.RoleOwner, 7, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, canRead(tc.role, tc.identity, tc.order))
		})
	}
}
