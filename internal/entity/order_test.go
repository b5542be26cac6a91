package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValidate(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusCooking, StatusCooked, StatusPickedUp, StatusDelivered, StatusCanceled} {
		assert.NoError(t, s.Validate(), "status %s", s)
	}
	for _, s := range []Status{"", "pending", "Simmering"} {
		assert.Error(t, s.Validate(), "status %q", s)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	for _, s := range []Status{StatusPending, StatusCooking, StatusCooked, StatusPickedUp} {
		assert.False(t, s.Terminal(), "status %s", s)
	}
}

func TestRoleValidate(t *testing.T) {
	for _, r := range []Role{RoleClient, RoleOwner, RoleDelivery} {
		assert.NoError(t, r.Validate(), "role %s", r)
	}
	for _, r := range []Role{"", "client", "Admin"} {
		assert.Error(t, r.Validate(), "role %q", r)
	}
}

func TestOrderHasDriver(t *testing.T) {
	driver := int64(9)
	assert.True(t, (&Order{DriverID: &driver}).HasDriver())
	assert.False(t, (&Order{}).HasDriver())
	assert.False(t, (*Order)(nil).HasDriver())
}

func TestDishOption(t *testing.T) {
	dish := Dish{Options: []DishOption{{Name: "extra rice", Extra: 1000}}}

	opt, ok := dish.Option("extra rice")
	assert.True(t, ok)
	assert.Equal(t, int64(1000), opt.Extra)

	_, ok = dish.Option("truffle")
	assert.False(t, ok)
}
